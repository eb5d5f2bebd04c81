package logging

import (
	"context"
)

type logDataKey struct{}

// WithLogData 把请求的 LogData 放进 ctx
func WithLogData(ctx context.Context, data *LogData) context.Context {
	return context.WithValue(ctx, logDataKey{}, data)
}

// GetLogData 取出请求的 LogData，没有时返回 nil
func GetLogData(ctx context.Context) *LogData {
	data, _ := ctx.Value(logDataKey{}).(*LogData)
	return data
}
