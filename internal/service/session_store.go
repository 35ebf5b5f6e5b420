package service

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore 保存登录会话以及会话内的学习积分
type SessionStore interface {
	Create(ctx context.Context, sessionID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
	Progress(ctx context.Context, sessionID string) (*model.Progress, error)
	// Update 在同一会话上串行执行 fn，fn 返回错误时不写回
	Update(ctx context.Context, sessionID string, fn func(p *model.Progress) error) error
}

type memorySession struct {
	expiresAt time.Time
	progress  *model.Progress
}

// MemorySessionStore 单进程部署和测试使用
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = &memorySession{
		expiresAt: s.now().Add(ttl),
		progress:  model.NewProgress(sessionID),
	}
	return nil
}

// get 调用方需持有锁
func (s *MemorySessionStore) get(sessionID string) *memorySession {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return nil
	}
	return sess
}

func (s *MemorySessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(sessionID) != nil, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) Progress(ctx context.Context, sessionID string) (*model.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(sessionID)
	if sess == nil {
		return nil, util.ErrSessionRevoked
	}
	return cloneProgress(sess.progress), nil
}

func (s *MemorySessionStore) Update(ctx context.Context, sessionID string, fn func(p *model.Progress) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(sessionID)
	if sess == nil {
		return util.ErrSessionRevoked
	}
	p := cloneProgress(sess.progress)
	if err := fn(p); err != nil {
		return err
	}
	sess.progress = p
	return nil
}

// Sweep 清理过期会话
func (s *MemorySessionStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.sessions {
		s.get(id)
	}
}

func cloneProgress(p *model.Progress) *model.Progress {
	c := model.NewProgress(p.SessionID)
	c.Points = p.Points
	for k, v := range p.Viewed {
		c.Viewed[k] = v
	}
	for k, v := range p.QuizBest {
		c.QuizBest[k] = v
	}
	c.Badges = append(c.Badges, p.Badges...)
	return c
}

// RedisSessionStore 多实例部署时共享会话
type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func sessionKey(sessionID string) string {
	return "agri:session:" + sessionID
}

func progressKey(sessionID string) string {
	return "agri:progress:" + sessionID
}

func (s *RedisSessionStore) Create(ctx context.Context, sessionID string, ttl time.Duration) error {
	raw, err := json.Marshal(model.NewProgress(sessionID))
	if err != nil {
		return err
	}
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sessionID), "1", ttl)
		pipe.Set(ctx, progressKey(sessionID), raw, ttl)
		return nil
	})
	return err
}

func (s *RedisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.Client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, sessionKey(sessionID), progressKey(sessionID)).Err()
}

func (s *RedisSessionStore) Progress(ctx context.Context, sessionID string) (*model.Progress, error) {
	return s.load(ctx, s.Client, sessionID)
}

func (s *RedisSessionStore) load(ctx context.Context, c redis.Cmdable, sessionID string) (*model.Progress, error) {
	raw, err := c.Get(ctx, progressKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.ErrSessionRevoked
		}
		return nil, err
	}
	p := model.NewProgress(sessionID)
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	if p.Viewed == nil {
		p.Viewed = make(map[string]bool)
	}
	if p.QuizBest == nil {
		p.QuizBest = make(map[string]int)
	}
	return p, nil
}

const maxUpdateRetries = 5

// Update 使用 WATCH 做乐观锁，冲突时重试
func (s *RedisSessionStore) Update(ctx context.Context, sessionID string, fn func(p *model.Progress) error) error {
	key := progressKey(sessionID)
	for i := 0; i < maxUpdateRetries; i++ {
		err := s.Client.Watch(ctx, func(tx *redis.Tx) error {
			p, err := s.load(ctx, tx, sessionID)
			if err != nil {
				return err
			}
			if err := fn(p); err != nil {
				return err
			}
			raw, err := json.Marshal(p)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, raw, redis.KeepTTL)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}
