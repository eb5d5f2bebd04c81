// Package changefeed 外部变更源：只负责触发订阅刷新，不携带数据
package changefeed

import (
	"encoding/json"
	"fmt"
	"time"
)

// Notice 跨实例的变更通知
type Notice struct {
	Instance string    `json:"instance"`
	Op       string    `json:"op"`
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
}

// ToJSON 编码
func (n Notice) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// NoticeFromJSON 解码
func NoticeFromJSON(data []byte) (*Notice, error) {
	var n Notice
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode notice: %w", err)
	}
	if n.Instance == "" {
		return nil, fmt.Errorf("decode notice: missing instance")
	}
	return &n, nil
}

// Refresher 订阅刷新入口
type Refresher interface {
	Refresh()
}
