package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultConfigYAML 内置默认配置
//
//go:embed default.yaml
var DefaultConfigYAML []byte

// Config 应用配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Email      EmailConfig      `mapstructure:"email"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Advisor    AdvisorConfig    `mapstructure:"advisor"`
	ChangeFeed ChangeFeedConfig `mapstructure:"changefeed"`
	Seed       SeedConfig       `mapstructure:"seed"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// LogConfig 日志配置（logrus）
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig 数据库配置，Driver 可选 mysql / sqlite
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	Path     string `mapstructure:"path"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig 邮件配置（审计写入失败告警）
type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	AlertTo  []string `mapstructure:"alert_to"`
}

// LedgerConfig 账本配置，Timezone 决定按月统计使用的本地时区
type LedgerConfig struct {
	Timezone string         `mapstructure:"timezone"`
	Location *time.Location `mapstructure:"-"`
}

// AdvisorConfig 支出建议配置（兼容 OpenAI 的 chat/completions 接口）
type AdvisorConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
}

// ChangeFeedConfig 变更通知源
type ChangeFeedConfig struct {
	AMQP   AMQPConfig   `mapstructure:"amqp"`
	Binlog BinlogConfig `mapstructure:"binlog"`
}

// AMQPConfig 多实例间的变更广播
type AMQPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// BinlogConfig MySQL binlog 监听，捕获绕过本服务的写入
type BinlogConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	ServerID uint32 `mapstructure:"server_id"`
	Flavor   string `mapstructure:"flavor"`
	Host     string `mapstructure:"host"`
	Port     uint16 `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Schema   string `mapstructure:"schema"`
	Table    string `mapstructure:"table"`
}

// SeedUser 初始用户（setup-users 创建）
type SeedUser struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Role     string `mapstructure:"role"`
}

type SeedConfig struct {
	Users []SeedUser `mapstructure:"users"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
func LoadConfig(configPath string) (*Config, error) {
	// .env 可选，写入的变量由下面的 AutomaticEnv 读取
	if err := godotenv.Load(); err == nil {
		logrus.Info("config.LoadConfig loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			logrus.WithError(err).WithField("path", configPath).Warn("config.LoadConfig cannot read config file")
		} else {
			logrus.WithField("path", configPath).Info("config.LoadConfig merged config file")
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/cautiva")
		externalViper.AddConfigPath("$HOME/.cautiva")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				logrus.WithError(err).Warn("config.LoadConfig merge failed")
			} else {
				logrus.WithField("path", externalViper.ConfigFileUsed()).Info("config.LoadConfig merged config file")
			}
		}
	}

	v.SetEnvPrefix("CAUTIVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	GlobalConfig = &cfg

	return &cfg, nil
}

// normalize 计算派生字段
func (cfg *Config) normalize() error {
	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	if cfg.Advisor.TimeoutSeconds <= 0 {
		cfg.Advisor.TimeoutSeconds = 60
	}
	cfg.Advisor.Timeout = time.Duration(cfg.Advisor.TimeoutSeconds) * time.Second

	loc := time.Local
	if tz := cfg.Ledger.Timezone; tz != "" && tz != "Local" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("ledger.timezone %q: %w", tz, err)
		}
		loc = l
	}
	cfg.Ledger.Location = loc

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	return nil
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	fields := logrus.Fields{
		"port":           cfg.Server.Port,
		"mode":           cfg.Server.Mode,
		"db_driver":      cfg.Database.Driver,
		"timezone":       cfg.Ledger.Location.String(),
		"email_enabled":  cfg.Email.Enabled,
		"advisor":        cfg.Advisor.Enabled,
		"amqp_enabled":   cfg.ChangeFeed.AMQP.Enabled,
		"binlog_enabled": cfg.ChangeFeed.Binlog.Enabled,
	}
	if cfg.Database.Driver == "sqlite" {
		fields["db_path"] = cfg.Database.Path
	} else {
		fields["db"] = fmt.Sprintf("%s@%s:%s/%s",
			cfg.Database.Username, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	}
	logrus.WithFields(fields).Info("config.PrintConfig")
}
