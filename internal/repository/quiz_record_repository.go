package repository

import (
	"agri_training_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type QuizRecordRepository struct {
	DB *gorm.DB
}

func NewQuizRecordRepository(db *gorm.DB) *QuizRecordRepository {
	return &QuizRecordRepository{DB: db}
}

func (r *QuizRecordRepository) Create(ctx context.Context, record *model.QuizRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

// ListBySubject 最近的记录在前
func (r *QuizRecordRepository) ListBySubject(ctx context.Context, subject string, limit int) ([]model.QuizRecord, error) {
	var records []model.QuizRecord
	if limit < 1 || limit > 200 {
		limit = 50
	}
	err := r.DB.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// ListAll 管理员查看全部记录
func (r *QuizRecordRepository) ListAll(ctx context.Context, limit int) ([]model.QuizRecord, error) {
	var records []model.QuizRecord
	if limit < 1 || limit > 500 {
		limit = 100
	}
	err := r.DB.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
