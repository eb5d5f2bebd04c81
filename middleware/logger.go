package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cautiva/logging"
)

// RequestLogger 请求日志：每个请求一份 LogData，处理器可通过 logging.GetLogData 追加字段与耗时
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logData := logging.NewLogData(log)
		c.Request = c.Request.WithContext(logging.WithLogData(c.Request.Context(), logData))

		endTimer := logData.AddTiming("duration")
		c.Next()
		endTimer()

		logData.AddData("method", c.Request.Method)
		logData.AddData("path", c.Request.URL.Path)
		logData.AddData("route", c.FullPath())
		logData.AddData("status", c.Writer.Status())
		logData.AddData("ip", c.ClientIP())
		if id := GetCurrentUserID(c); id != 0 {
			logData.AddData("user_id", id)
		}

		entry := logData.Log()
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("Handler.Request.Error")
			return
		}
		if c.Writer.Status() >= 500 {
			entry.Error("Handler.Request.Complete")
			return
		}
		entry.Info("Handler.Request.Complete")
	}
}
