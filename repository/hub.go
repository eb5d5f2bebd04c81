package repository

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"cautiva/models"
)

type loadFunc func(ctx context.Context) ([]models.Transaction, error)

// hub 把每次写入变成订阅者的整表刷新
type hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*Subscription]struct{})}
}

func (h *hub) add(s *Subscription) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// notify 标记所有订阅为脏，多次通知会合并
func (h *hub) notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.dirty <- struct{}{}:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Subscription 实时订阅：立即推送一次完整列表，之后每次变更再推送
// 消费慢时只保留最新快照
type Subscription struct {
	out    chan []models.Transaction
	dirty  chan struct{}
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

func (h *hub) subscribe(parent context.Context, load loadFunc) *Subscription {
	ctx, cancel := context.WithCancel(parent)
	s := &Subscription{
		out:    make(chan []models.Transaction, 1),
		dirty:  make(chan struct{}, 1),
		cancel: cancel,
	}
	h.add(s)
	go s.run(ctx, h, load)
	return s
}

func (s *Subscription) run(ctx context.Context, h *hub, load loadFunc) {
	defer close(s.out)
	defer h.remove(s)

	for {
		snapshot, err := load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.fail(err)
			return
		}
		s.deliver(snapshot)

		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
		}
	}
}

// deliver 替换尚未被读取的旧快照
func (s *Subscription) deliver(snapshot []models.Transaction) {
	select {
	case <-s.out:
	default:
	}
	s.out <- snapshot
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = &SubscriptionError{Err: err}
	s.mu.Unlock()
	logrus.WithError(err).Error("repository.Subscription.refresh failed")
}

// C 快照通道，订阅结束后关闭
func (s *Subscription) C() <-chan []models.Transaction {
	return s.out
}

// Err 订阅因刷新失败结束时返回 *SubscriptionError
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close 释放订阅
func (s *Subscription) Close() {
	s.cancel()
}
