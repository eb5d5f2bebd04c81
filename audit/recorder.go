package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cautiva/models"
)

// DefaultTimeout 异步写入的超时
const DefaultTimeout = 10 * time.Second

// alertTimeout 告警独立的超时，写入超时后仍能通知管理员
const alertTimeout = 15 * time.Second

// Store 审计存储
type Store interface {
	Append(ctx context.Context, record *models.AuditRecord) error
}

// Alerter 审计写入失败时通知管理员
type Alerter interface {
	AuditFailed(ctx context.Context, entry Entry, cause error) error
}

// WriteError 审计写入失败
type WriteError struct {
	Entry Entry
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("audit %q by %s: %v", e.Entry.Accion, e.Entry.Usuario, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Recorder 审计记录器
type Recorder struct {
	store   Store
	alerter Alerter
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRecorder 创建审计记录器，alerter 可为 nil
func NewRecorder(store Store, alerter Alerter, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Recorder{store: store, alerter: alerter, timeout: timeout}
}

// Record 同步写入
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if err := r.store.Append(ctx, e.Record()); err != nil {
		werr := &WriteError{Entry: e, Err: err}
		r.report(werr)
		return werr
	}
	logrus.WithFields(logrus.Fields{
		"usuario": e.Usuario,
		"accion":  e.Accion,
	}).Info("audit.Recorder.Record")
	return nil
}

// Go 后台写入，不绑定请求的 ctx；结果通过 Receipt 获取
func (r *Recorder) Go(e Entry) *Receipt {
	receipt := &Receipt{done: make(chan struct{})}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		receipt.finish(r.Record(ctx, e))
	}()
	return receipt
}

// Flush 等待所有后台写入完成
func (r *Recorder) Flush() {
	r.wg.Wait()
}

func (r *Recorder) report(werr *WriteError) {
	logrus.WithError(werr.Err).WithFields(logrus.Fields{
		"usuario": werr.Entry.Usuario,
		"accion":  werr.Entry.Accion,
	}).Error("audit.Recorder.Record failed")

	if r.alerter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()
	if err := r.alerter.AuditFailed(ctx, werr.Entry, werr.Err); err != nil {
		logrus.WithError(err).Warn("audit.Recorder.report alert failed")
	}
}

// Receipt 后台审计写入的结果
type Receipt struct {
	done chan struct{}
	err  error
}

func (r *Receipt) finish(err error) {
	r.err = err
	close(r.done)
}

// Done 写入结束后关闭
func (r *Receipt) Done() <-chan struct{} {
	return r.done
}

// Wait 阻塞直到写入结束，返回 *WriteError 或 nil
func (r *Receipt) Wait() error {
	<-r.done
	return r.err
}

// Err 未结束时返回 nil
func (r *Receipt) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
