// Package audit 审计追加：尽力写入，失败独立上报，不影响主写入
package audit

import (
	"cautiva/models"
)

// Action 审计动作
type Action string

const (
	ActionCreate Action = "Agregó"
	ActionEdit   Action = "Editó"
	ActionDelete Action = "Eliminó"
)

// Label 动作标签，例如 "Agregó depósito"、"Eliminó gasto"
func Label(a Action, t models.TransactionType) string {
	noun := "gasto"
	if t == models.TypeDeposit {
		noun = "depósito"
	}
	return string(a) + " " + noun
}

// Entry 一条待写入的审计
type Entry struct {
	Usuario   string
	Accion    string
	Antes     *models.Snapshot
	Despues   *models.Snapshot
	Eliminado *models.Snapshot
}

// CreateEntry 新增不带快照
func CreateEntry(usuario string, tx models.Transaction) Entry {
	return Entry{Usuario: usuario, Accion: Label(ActionCreate, tx.Type)}
}

// EditEntry 编辑带前后快照
func EditEntry(usuario string, before, after models.Transaction) Entry {
	return Entry{
		Usuario: usuario,
		Accion:  Label(ActionEdit, before.Type),
		Antes:   models.SnapshotOf(before),
		Despues: models.SnapshotOf(after),
	}
}

// DeleteEntry 删除带被删除记录的快照
func DeleteEntry(usuario string, removed models.Transaction) Entry {
	return Entry{
		Usuario:   usuario,
		Accion:    Label(ActionDelete, removed.Type),
		Eliminado: models.SnapshotOf(removed),
	}
}

// Record 转换为存储模型
func (e Entry) Record() *models.AuditRecord {
	return &models.AuditRecord{
		Usuario:   e.Usuario,
		Accion:    e.Accion,
		Antes:     e.Antes,
		Despues:   e.Despues,
		Eliminado: e.Eliminado,
	}
}
