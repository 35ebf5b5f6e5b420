package service

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EmployeeInput 创建或更新员工；更新时 Password 为空表示不修改密码
type EmployeeInput struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password"`
	Designation string `json:"designation"`
}

// EmployeeService 员工同时是成员账号，密码只保存 bcrypt 哈希
type EmployeeService struct {
	Entities *EntityService[model.Employee, *model.Employee]
}

func NewEmployeeService(db *gorm.DB) *EmployeeService {
	return &EmployeeService{
		Entities: NewEntityService[model.Employee, *model.Employee](db, "employee", nil),
	}
}

func (s *EmployeeService) List(ctx context.Context, page, limit int) (*EntityPage[model.Employee], error) {
	return s.Entities.List(ctx, page, limit)
}

func (s *EmployeeService) Get(ctx context.Context, id uint) (*model.Employee, error) {
	return s.Entities.Get(ctx, id)
}

func (s *EmployeeService) Create(ctx context.Context, in *EmployeeInput) (*model.Employee, error) {
	if len(in.Password) < 6 {
		return nil, util.NewValidationError("password", "must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.Entities.Create(ctx, &model.Employee{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: string(hash),
		Designation:  strings.TrimSpace(in.Designation),
	})
}

func (s *EmployeeService) Update(ctx context.Context, id uint, in *EmployeeInput) (*model.Employee, error) {
	current, err := s.Entities.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	hash := current.PasswordHash
	if in.Password != "" {
		if len(in.Password) < 6 {
			return nil, util.NewValidationError("password", "must be at least 6 characters")
		}
		raw, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(raw)
	}

	return s.Entities.Update(ctx, id, &model.Employee{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Designation:  strings.TrimSpace(in.Designation),
	})
}

func (s *EmployeeService) Delete(ctx context.Context, id uint) error {
	return s.Entities.Delete(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
