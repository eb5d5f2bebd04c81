package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cautiva/audit"
	"cautiva/models"
	"cautiva/repository"
)

const (
	minDescriptionLen = 2
	maxDescriptionLen = 50
)

// Actor 当前操作者
type Actor struct {
	Name string
	Role models.Role
}

// CreateInput 新增交易
type CreateInput struct {
	Type        models.TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
}

// UpdateInput 部分更新，nil 表示不修改
type UpdateInput struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
}

// LedgerService 管理员写操作：先写主记录，再尽力写审计
type LedgerService struct {
	txs      *repository.TransactionRepository
	recorder *audit.Recorder
	clock    func() time.Time
}

// NewLedgerService 创建账本服务
func NewLedgerService(txs *repository.TransactionRepository, recorder *audit.Recorder) *LedgerService {
	return &LedgerService{txs: txs, recorder: recorder, clock: time.Now}
}

// WithClock 替换时钟，测试使用
func (s *LedgerService) WithClock(clock func() time.Time) *LedgerService {
	s.clock = clock
	return s
}

func requireAdmin(actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func validateDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	n := utf8.RuneCountInString(desc)
	if n < minDescriptionLen {
		return "", invalid("description", "La descripción debe tener al menos 2 caracteres.")
	}
	if n > maxDescriptionLen {
		return "", invalid("description", "La descripción debe tener 50 caracteres o menos.")
	}
	return desc, nil
}

// normalizeAmount 先保留两位小数再校验，保证存储的金额恒为正
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := amount.Round(2)
	if !rounded.IsPositive() {
		return decimal.Zero, invalid("amount", "Por favor, introduce una cantidad positiva.")
	}
	return rounded, nil
}

func validateCategory(t models.TransactionType, category string) error {
	if category == "" {
		return invalid("category", "Por favor, selecciona una categoría.")
	}
	if !models.IsValidCategory(t, category) {
		return invalid("category", "Categoría inválida para el tipo de transacción.")
	}
	return nil
}

// Create 新增交易；审计在后台写入，失败不回滚
func (s *LedgerService) Create(ctx context.Context, actor Actor, in CreateInput) (*models.Transaction, *audit.Receipt, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	if !in.Type.Valid() {
		return nil, nil, invalid("type", "Tipo de transacción inválido.")
	}
	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return nil, nil, err
	}
	if err := validateCategory(in.Type, in.Category); err != nil {
		return nil, nil, err
	}
	desc, err := validateDescription(in.Description)
	if err != nil {
		return nil, nil, err
	}

	tx := models.Transaction{
		Type:        in.Type,
		Amount:      amount,
		Category:    in.Category,
		Description: models.ComposeDescription(in.Category, desc),
		Date:        s.clock().UTC(),
	}
	id, err := s.txs.Add(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	tx.ID = id

	logrus.WithFields(logrus.Fields{
		"id":     id,
		"type":   tx.Type,
		"amount": tx.Amount.String(),
		"actor":  actor.Name,
	}).Info("service.LedgerService.Create")

	return &tx, s.recorder.Go(audit.CreateEntry(actor.Name, tx)), nil
}

// Update 部分更新；审计记录前后快照
func (s *LedgerService) Update(ctx context.Context, actor Actor, id string, in UpdateInput) (*models.Transaction, *audit.Receipt, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}

	before, err := s.txs.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	after := *before
	var fields models.TransactionFields
	if in.Amount != nil {
		amount, err := normalizeAmount(*in.Amount)
		if err != nil {
			return nil, nil, err
		}
		fields.Amount = &amount
		after.Amount = amount
	}
	if in.Category != nil {
		if err := validateCategory(before.Type, *in.Category); err != nil {
			return nil, nil, err
		}
		fields.Category = in.Category
		after.Category = *in.Category
	}
	switch {
	case in.Description != nil:
		desc, err := validateDescription(*in.Description)
		if err != nil {
			return nil, nil, err
		}
		composed := models.ComposeDescription(after.Category, desc)
		fields.Description = &composed
		after.Description = composed
	case after.Category != before.Category:
		// 只改类别时同步描述前缀
		composed := models.ComposeDescription(after.Category, before.DisplayDescription())
		fields.Description = &composed
		after.Description = composed
	}
	if fields.Empty() {
		return nil, nil, invalid("fields", "No hay cambios para guardar.")
	}

	if err := s.txs.Update(ctx, id, fields); err != nil {
		return nil, nil, err
	}

	logrus.WithFields(logrus.Fields{"id": id, "actor": actor.Name}).Info("service.LedgerService.Update")

	return &after, s.recorder.Go(audit.EditEntry(actor.Name, *before, after)), nil
}

// Delete 删除交易；审计保存被删除记录
func (s *LedgerService) Delete(ctx context.Context, actor Actor, id string) (*audit.Receipt, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	removed, err := s.txs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.txs.Delete(ctx, id); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"id": id, "actor": actor.Name}).Info("service.LedgerService.Delete")

	return s.recorder.Go(audit.DeleteEntry(actor.Name, *removed)), nil
}
