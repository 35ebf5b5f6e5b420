package repository

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type EmployeeRepository struct {
	DB *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{DB: db}
}

// FindByEmail 邮箱比较不区分大小写
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*model.Employee, error) {
	var employee model.Employee
	err := r.DB.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return &employee, nil
}

// ListMembers 登录下拉框，按姓名排序
func (r *EmployeeRepository) ListMembers(ctx context.Context) ([]model.MemberOption, error) {
	var members []model.MemberOption
	err := r.DB.WithContext(ctx).
		Model(&model.Employee{}).
		Select("email", "name").
		Order("name ASC").
		Scan(&members).Error
	return members, err
}
