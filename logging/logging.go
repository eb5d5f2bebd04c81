package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"cautiva/config"
)

// SetupLogging 构建 logrus 实例，并同步到全局 logger
func SetupLogging(cfg config.LogConfig) *logrus.Logger {
	return setup(cfg, os.Stdout)
}

func setup(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	var formatter logrus.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyLevel: "loglevel",
		},
	}
	if cfg.Format == "text" {
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	}

	logger := &logrus.Logger{
		Formatter: formatter,
		Out:       out,
		Hooks:     make(logrus.LevelHooks),
		Level:     level,
	}

	std := logrus.StandardLogger()
	std.SetFormatter(formatter)
	std.SetOutput(out)
	std.SetLevel(level)

	return logger
}
