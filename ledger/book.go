package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"cautiva/models"
)

// Source 完整交易列表的推送源
type Source interface {
	C() <-chan []models.Transaction
	Err() error
}

type bookState struct {
	txs       []models.Transaction
	updatedAt time.Time
	err       error
}

// Book 本地镜像，每次推送整体替换
type Book struct {
	state atomic.Pointer[bookState]
	ready chan struct{}
	once  sync.Once
}

// NewBook 创建空镜像
func NewBook() *Book {
	b := &Book{ready: make(chan struct{})}
	b.state.Store(&bookState{txs: []models.Transaction{}})
	return b
}

// Replace 整体替换快照
func (b *Book) Replace(txs []models.Transaction) {
	if txs == nil {
		txs = []models.Transaction{}
	}
	b.state.Store(&bookState{txs: txs, updatedAt: time.Now()})
	b.once.Do(func() { close(b.ready) })
}

// Snapshot 最近一次的完整列表，调用方不得修改
func (b *Book) Snapshot() []models.Transaction {
	return b.state.Load().txs
}

// UpdatedAt 最近一次替换的时间
func (b *Book) UpdatedAt() time.Time {
	return b.state.Load().updatedAt
}

// Err 推送源异常结束后保留的错误，镜像停止更新但仍可读取
func (b *Book) Err() error {
	return b.state.Load().err
}

func (b *Book) fail(err error) {
	prev := b.state.Load()
	b.state.Store(&bookState{txs: prev.txs, updatedAt: prev.updatedAt, err: err})
}

// Ready 收到第一份快照后关闭
func (b *Book) Ready() <-chan struct{} {
	return b.ready
}

// Run 消费推送源直到其关闭或 ctx 取消；推送源的错误记录在 Err 中，不会重新订阅
func (b *Book) Run(ctx context.Context, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case txs, ok := <-src.C():
			if !ok {
				if err := src.Err(); err != nil {
					logrus.WithError(err).Error("ledger.Book.Run subscription ended")
					b.fail(err)
				}
				return nil
			}
			b.Replace(txs)
			logrus.WithField("count", len(txs)).Debug("ledger.Book.Run snapshot replaced")
		}
	}
}
