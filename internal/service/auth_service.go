package service

import (
	"agri_training_backend/internal/config"
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/repository"
	"agri_training_backend/internal/util"
	"agri_training_backend/pkg/logger"
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 未知邮箱也做一次 bcrypt 比较，避免通过响应时间枚举账号
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("agri-training-dummy"), bcrypt.DefaultCost)

type adminCredential struct {
	username string
	hash     []byte
}

// LoginResult 登录成功返回的令牌
// swagger:model LoginResult
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      *model.Identity `json:"user"`
}

type AuthService struct {
	Employees *repository.EmployeeRepository
	Sessions  SessionStore

	mu        sync.RWMutex
	admin     adminCredential
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(employees *repository.EmployeeRepository, sessions SessionStore, cfg *config.Config) (*AuthService, error) {
	s := &AuthService{
		Employees: employees,
		Sessions:  sessions,
	}
	if err := s.Reload(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload 配置热更新时替换管理员凭据和令牌参数，已签发的会话不受影响
func (s *AuthService) Reload(cfg *config.Config) error {
	cred, err := resolveAdmin(&cfg.Admin)
	if err != nil {
		return err
	}

	ttl := cfg.JWT.ExpireTime
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = cred
	s.jwtSecret = cfg.JWT.Secret
	s.tokenTTL = ttl
	return nil
}

func resolveAdmin(cfg *config.AdminConfig) (adminCredential, error) {
	cred := adminCredential{username: cfg.Username}
	if cfg.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return cred, errors.New("admin.password_hash is not a valid bcrypt hash")
		}
		cred.hash = []byte(cfg.PasswordHash)
		return cred, nil
	}
	if cfg.Password == "" {
		return cred, errors.New("admin credential missing")
	}

	logger.Log.Warn("Admin password configured in plaintext, use admin.password_hash in production")
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return cred, err
	}
	cred.hash = hash
	return cred, nil
}

func (s *AuthService) settings() (adminCredential, string, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin, s.jwtSecret, s.tokenTTL
}

// Authenticate 是唯一的凭据校验入口：用户名等于管理员用户名时校验管理员密码，否则按成员邮箱处理
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.Identity, error) {
	admin, _, _ := s.settings()

	if admin.username != "" && subtle.ConstantTimeCompare([]byte(username), []byte(admin.username)) == 1 {
		if bcrypt.CompareHashAndPassword(admin.hash, []byte(password)) != nil {
			return nil, util.ErrInvalidCredentials
		}
		return &model.Identity{Subject: admin.username, Name: admin.username, Role: model.Admin}, nil
	}

	email := normalizeEmail(username)
	if email == "" || password == "" {
		return nil, util.ErrInvalidCredentials
	}

	employee, err := s.Employees.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)) != nil {
		return nil, util.ErrInvalidCredentials
	}

	return &model.Identity{
		Subject:    employee.Email,
		Name:       employee.Name,
		Role:       model.Member,
		EmployeeID: employee.ID,
	}, nil
}

// Login 校验凭据并创建会话，会话 ID 写入 JWT 的 jti
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	identity, err := s.Authenticate(ctx, strings.TrimSpace(username), password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			logger.Log.Info("Login rejected", zap.String("username", username))
		}
		return nil, err
	}

	_, secret, ttl := s.settings()
	sessionID := uuid.NewString()
	token, expiresAt, err := util.GenerateJWT(identity, sessionID, secret, ttl)
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Create(ctx, sessionID, ttl); err != nil {
		return nil, err
	}

	logger.Log.Info("Login succeeded",
		zap.String("subject", identity.Subject),
		zap.String("role", string(identity.Role)))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: identity}, nil
}

// Validate 解析令牌并确认会话未被注销
func (s *AuthService) Validate(ctx context.Context, token string) (*util.Claims, error) {
	_, secret, _ := s.settings()
	claims, err := util.ParseJWT(token, secret)
	if err != nil {
		return nil, util.ErrUnauthorized
	}

	ok, err := s.Sessions.Exists(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrSessionRevoked
	}
	return claims, nil
}

// Logout 之后同一令牌不再有效，重复注销不报错
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.Sessions.Delete(ctx, sessionID)
}

// Members 成员登录下拉框
func (s *AuthService) Members(ctx context.Context) ([]model.MemberOption, error) {
	members, err := s.Employees.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.MemberOption{}
	}
	return members, nil
}

// EmployeeRef 测验记录里关联的员工 ID
func EmployeeRef(identity *model.Identity) *uint {
	if identity == nil || identity.EmployeeID == 0 {
		return nil
	}
	id := identity.EmployeeID
	return &id
}
