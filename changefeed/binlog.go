package changefeed

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"cautiva/config"
)

// BinlogWatcher 监听 transactions 表的行事件，让绕过本服务的写入也能推送给订阅者
type BinlogWatcher struct {
	cfg       config.BinlogConfig
	db        *gorm.DB
	refresher Refresher
}

// NewBinlogWatcher 创建监听器，db 只用于读取当前 binlog 位置
func NewBinlogWatcher(cfg config.BinlogConfig, db *gorm.DB, refresher Refresher) *BinlogWatcher {
	return &BinlogWatcher{cfg: cfg, db: db, refresher: refresher}
}

type masterStatus struct {
	File     string
	Position uint32
}

func (w *BinlogWatcher) position(ctx context.Context) (mysql.Position, error) {
	var status masterStatus
	if err := w.db.WithContext(ctx).Raw("SHOW MASTER STATUS").Scan(&status).Error; err != nil {
		return mysql.Position{}, fmt.Errorf("master status: %w", err)
	}
	if status.File == "" {
		return mysql.Position{}, errors.New("master status: binlog disabled")
	}
	return mysql.Position{Name: status.File, Pos: status.Position}, nil
}

// Run 从当前位置开始同步，直到 ctx 取消
func (w *BinlogWatcher) Run(ctx context.Context) error {
	pos, err := w.position(ctx)
	if err != nil {
		return err
	}

	syncer := replication.NewBinlogSyncer(replication.BinlogSyncerConfig{
		ServerID: w.cfg.ServerID,
		Flavor:   w.cfg.Flavor,
		Host:     w.cfg.Host,
		Port:     w.cfg.Port,
		User:     w.cfg.User,
		Password: w.cfg.Password,
	})
	defer syncer.Close()

	streamer, err := syncer.StartSync(pos)
	if err != nil {
		return fmt.Errorf("start binlog sync: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"file":  pos.Name,
		"pos":   pos.Pos,
		"table": w.cfg.Schema + "." + w.cfg.Table,
	}).Info("changefeed.BinlogWatcher.Run started")

	for {
		ev, err := streamer.GetEvent(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("binlog event: %w", err)
		}

		rows, ok := ev.Event.(*replication.RowsEvent)
		if !ok {
			continue
		}
		if w.accept(ev.Header.EventType, string(rows.Table.Schema), string(rows.Table.Table)) {
			w.refresher.Refresh()
		}
	}
}

// accept 只关心目标表的增删改
func (w *BinlogWatcher) accept(eventType replication.EventType, schema, table string) bool {
	if rowAction(eventType) == "" {
		return false
	}
	if w.cfg.Schema != "" && schema != w.cfg.Schema {
		return false
	}
	return table == w.cfg.Table
}

func rowAction(eventType replication.EventType) string {
	switch eventType {
	case replication.WRITE_ROWS_EVENTv1, replication.WRITE_ROWS_EVENTv2:
		return "INSERT"
	case replication.UPDATE_ROWS_EVENTv1, replication.UPDATE_ROWS_EVENTv2:
		return "UPDATE"
	case replication.DELETE_ROWS_EVENTv1, replication.DELETE_ROWS_EVENTv2:
		return "DELETE"
	default:
		return ""
	}
}
