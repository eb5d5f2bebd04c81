package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot 审计快照
type Snapshot struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
}

// SnapshotOf 交易当前状态的快照
func SnapshotOf(t Transaction) *Snapshot {
	return &Snapshot{
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Type:        t.Type,
	}
}

// AuditRecord 审计记录，只追加不修改
// create 无快照，edit 有 antes+despues，delete 有 eliminado
type AuditRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Usuario   string    `json:"usuario" gorm:"size:120;not null"`
	Accion    string    `json:"accion" gorm:"size:64;not null"`
	Fecha     time.Time `json:"fecha" gorm:"autoCreateTime;index"`
	Antes     *Snapshot `json:"antes,omitempty" gorm:"serializer:json;type:text"`
	Despues   *Snapshot `json:"despues,omitempty" gorm:"serializer:json;type:text"`
	Eliminado *Snapshot `json:"eliminado,omitempty" gorm:"serializer:json;type:text"`
}

// TableName 设置表名
func (AuditRecord) TableName() string {
	return "auditoria"
}
