package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// 金额以 JSON 数字输出，与前端保持一致
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType 交易类型
type TransactionType string

const (
	TypeDeposit TransactionType = "deposit"
	TypeExpense TransactionType = "expense"
)

// Valid 是否为已知类型
func (t TransactionType) Valid() bool {
	return t == TypeDeposit || t == TypeExpense
}

// Label 西语显示名称
func (t TransactionType) Label() string {
	if t == TypeDeposit {
		return "Depósito"
	}
	return "Gasto"
}

// Transaction 交易记录，金额恒为正数，方向由 Type 决定
type Transaction struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Type        TransactionType `json:"type" gorm:"size:16;not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Description string          `json:"description" gorm:"size:120"`
	Category    string          `json:"category" gorm:"size:32;index"`
	Date        time.Time       `json:"date" gorm:"not null;index"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate 由存储层分配不透明 ID
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Signed 存款为正，支出为负
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

var categoryPrefix = regexp.MustCompile(`^[^-]+ - `)

// DisplayDescription 去掉创建时添加的 "类别 - " 前缀
func (t Transaction) DisplayDescription() string {
	return categoryPrefix.ReplaceAllString(t.Description, "")
}

// ComposeDescription 创建时的描述格式："<category> - <description>"
func ComposeDescription(category, description string) string {
	return category + " - " + description
}

// TransactionFields 可编辑字段，nil 表示不修改
type TransactionFields struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *string
}

// Empty 没有任何待更新字段
func (f TransactionFields) Empty() bool {
	return f.Amount == nil && f.Description == nil && f.Category == nil
}
