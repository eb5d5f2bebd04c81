package repository

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"cautiva/models"
)

// AuditRepository 审计存储，只追加；手工删除由管理员接口触发
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository 创建审计存储
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append 追加一条审计，fecha 由存储层在写入时赋值
func (r *AuditRepository) Append(ctx context.Context, record *models.AuditRecord) error {
	record.ID = 0
	record.Fecha = time.Time{}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return storeErr("audit append", err)
	}
	return nil
}

// List 最近的审计记录，按 fecha 倒序（稳定排序）；limit<=0 表示全部
func (r *AuditRepository) List(ctx context.Context, limit int) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, storeErr("audit list", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Fecha.After(records[j].Fecha)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Page 分页查询，数据库按 fecha 倒序分页，页内再按 fecha 稳定排序
func (r *AuditRepository) Page(ctx context.Context, page, pageSize int) ([]models.AuditRecord, int64, error) {
	var total int64
	db := r.db.WithContext(ctx).Model(&models.AuditRecord{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, storeErr("audit count", err)
	}

	records := []models.AuditRecord{}
	offset := (page - 1) * pageSize
	if err := r.db.WithContext(ctx).Order("fecha DESC").Order("id").
		Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, storeErr("audit page", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Fecha.After(records[j].Fecha)
	})
	return records, total, nil
}

// Delete 删除一条审计记录
func (r *AuditRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.AuditRecord{}, id)
	if result.Error != nil {
		return storeErr("audit delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return storeErr("audit delete", ErrNotFound)
	}
	return nil
}
