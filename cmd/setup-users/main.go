// setup-users 创建初始管理员与只读用户
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"cautiva/config"
	"cautiva/database"
	"cautiva/logging"
	"cautiva/models"
	"cautiva/service"
)

func main() {
	var (
		configFile     string
		adminPassword  string
		viewerPassword string
		testEmail      string
	)
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（可选）")
	flag.StringVar(&adminPassword, "admin-password", os.Getenv("CAUTIVA_SEED_ADMIN_PASSWORD"), "管理员初始密码")
	flag.StringVar(&viewerPassword, "viewer-password", os.Getenv("CAUTIVA_SEED_VIEWER_PASSWORD"), "只读用户初始密码")
	flag.StringVar(&testEmail, "test-email", "", "创建完成后向该地址发送测试邮件，检查审计告警配置")
	flag.Parse()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logrus.WithError(err).Fatal("setup-users.LoadConfig failed")
	}
	log := logging.SetupLogging(cfg.Log)

	users := applyPasswords(cfg.Seed.Users, map[models.Role]string{
		models.RoleAdmin:  adminPassword,
		models.RoleViewer: viewerPassword,
	})

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("setup-users.Open failed")
	}

	created, err := database.SeedUsers(db, users)
	if err != nil {
		log.WithError(err).Fatal("setup-users.SeedUsers failed")
	}
	log.WithFields(logrus.Fields{
		"created": created,
		"total":   len(users),
	}).Info("setup-users done")

	if testEmail != "" {
		if err := service.NewEmailService(&cfg.Email).SendTestEmail(testEmail); err != nil {
			log.WithError(err).WithField("to", testEmail).Fatal("setup-users.SendTestEmail failed")
		}
		log.WithField("to", testEmail).Info("setup-users.SendTestEmail sent")
	}
}

// applyPasswords 为未配置密码的用户按角色补上命令行密码
func applyPasswords(users []config.SeedUser, byRole map[models.Role]string) []config.SeedUser {
	out := make([]config.SeedUser, len(users))
	for i, u := range users {
		if u.Password == "" {
			u.Password = byRole[models.Role(u.Role)]
		}
		out[i] = u
	}
	return out
}
