package repository

import (
	"agri_training_backend/internal/util"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntityRepository 是 PMU 各张表共用的 CRUD
type EntityRepository[T any] struct {
	DB *gorm.DB
}

func NewEntityRepository[T any](db *gorm.DB) *EntityRepository[T] {
	return &EntityRepository[T]{DB: db}
}

func (r *EntityRepository[T]) List(ctx context.Context, page, limit int) ([]T, int64, error) {
	var (
		items []T
		total int64
	)
	db := r.DB.WithContext(ctx).Model(new(T))
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	err := db.Order("id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *EntityRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	item := new(T)
	if err := r.DB.WithContext(ctx).First(item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *EntityRepository[T]) Create(ctx context.Context, item *T) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

// Update 覆盖除主键和创建时间外的所有列，零值也会写入
func (r *EntityRepository[T]) Update(ctx context.Context, item *T) error {
	return r.DB.WithContext(ctx).
		Model(item).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(item).Error
}

func (r *EntityRepository[T]) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// Exists 供外键检查使用，m 为目标表的模型指针
func Exists(ctx context.Context, db *gorm.DB, m interface{}, id uint) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
