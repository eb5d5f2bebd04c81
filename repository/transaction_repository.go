package repository

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"cautiva/models"
)

// ChangeEvent 本地写入事件
type ChangeEvent struct {
	Op string `json:"op"`
	ID string `json:"id"`
}

// TransactionRepository 交易存储
type TransactionRepository struct {
	db  *gorm.DB
	hub *hub

	mu        sync.RWMutex
	listeners []func(ChangeEvent)
}

// NewTransactionRepository 创建交易存储
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db, hub: newHub()}
}

// OnChange 注册本地写入监听（变更广播使用）
func (r *TransactionRepository) OnChange(fn func(ChangeEvent)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Refresh 让所有订阅重新读取，外部变更源调用
func (r *TransactionRepository) Refresh() {
	r.hub.notify()
}

// Subscribers 当前订阅数
func (r *TransactionRepository) Subscribers() int {
	return r.hub.count()
}

func (r *TransactionRepository) changed(op, id string) {
	r.hub.notify()

	r.mu.RLock()
	listeners := append([]func(ChangeEvent){}, r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(ChangeEvent{Op: op, ID: id})
	}
}

// List 全部交易，按日期倒序
func (r *TransactionRepository) List(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.WithContext(ctx).Order("date DESC").Order("id").Find(&txs).Error; err != nil {
		return nil, storeErr("list", err)
	}
	return txs, nil
}

// Get 按 ID 获取
func (r *TransactionRepository) Get(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("get", ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get", err)
	}
	return &tx, nil
}

// Add 写入新交易并返回存储层分配的 ID，不做业务校验
func (r *TransactionRepository) Add(ctx context.Context, tx models.Transaction) (string, error) {
	tx.ID = ""
	if err := r.db.WithContext(ctx).Create(&tx).Error; err != nil {
		return "", storeErr("add", err)
	}
	r.changed("add", tx.ID)
	return tx.ID, nil
}

// Update 部分更新金额、描述、类别，其余字段与其他记录不变
func (r *TransactionRepository) Update(ctx context.Context, id string, fields models.TransactionFields) error {
	updates := map[string]interface{}{}
	if fields.Amount != nil {
		updates["amount"] = *fields.Amount
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Category != nil {
		updates["category"] = *fields.Category
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transaction{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Transaction{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return storeErr("update", err)
	}
	r.changed("update", id)
	return nil
}

// Delete 删除交易，不写审计
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Transaction{})
	if result.Error != nil {
		return storeErr("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return storeErr("delete", ErrNotFound)
	}
	r.changed("delete", id)
	return nil
}

// Subscribe 订阅完整的有序交易列表，ctx 取消或 Close 后释放
func (r *TransactionRepository) Subscribe(ctx context.Context) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.hub.subscribe(ctx, r.List), nil
}
