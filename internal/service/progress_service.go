package service

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/pkg/logger"
	"context"

	"go.uber.org/zap"
)

// ProgressService 会话内的学习积分和徽章
type ProgressService struct {
	Sessions SessionStore
}

func NewProgressService(sessions SessionStore) *ProgressService {
	return &ProgressService{Sessions: sessions}
}

// 只有演示、视频、音频算作“学习过”
func viewable(c model.Category) bool {
	return c == model.Presentations || c == model.Videos || c == model.Audios
}

// RecordView 每个会话每份资料只加一次分
func (s *ProgressService) RecordView(ctx context.Context, sessionID string, entry model.CatalogEntry) (*model.ProgressUpdate, error) {
	if !viewable(entry.Category) {
		return s.Get(ctx, sessionID)
	}

	var update *model.ProgressUpdate
	err := s.Sessions.Update(ctx, sessionID, func(p *model.Progress) error {
		awarded := 0
		if !p.Viewed[entry.Key()] {
			p.Viewed[entry.Key()] = true
			awarded = model.PointsPerView
		}
		update = award(p, awarded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if update.Awarded > 0 {
		logger.Log.Debug("Progress view awarded",
			zap.String("session", sessionID),
			zap.String("key", entry.Key()),
			zap.Int("points", update.Points))
	}
	return update, nil
}

// RecordQuiz 只对超过本会话历史最佳成绩的部分加分，重复提交不会刷分
func (s *ProgressService) RecordQuiz(ctx context.Context, sessionID, quizKey string, score int) (*model.ProgressUpdate, error) {
	var update *model.ProgressUpdate
	err := s.Sessions.Update(ctx, sessionID, func(p *model.Progress) error {
		awarded := 0
		if best := p.QuizBest[quizKey]; score > best {
			awarded = (score - best) * model.PointsPerCorrectAnswer
			p.QuizBest[quizKey] = score
		}
		update = award(p, awarded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

func (s *ProgressService) Get(ctx context.Context, sessionID string) (*model.ProgressUpdate, error) {
	p, err := s.Sessions.Progress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return award(p, 0), nil
}

// award 加分并检查徽章，每个徽章在会话内只解锁一次
func award(p *model.Progress, points int) *model.ProgressUpdate {
	p.Points += points

	update := &model.ProgressUpdate{Points: p.Points, Awarded: points}
	for _, badge := range model.Badges {
		if p.Points < badge.Threshold {
			if update.NextThreshold == 0 {
				update.NextThreshold = badge.Threshold
			}
			continue
		}
		if !hasBadge(p.Badges, badge.Name) {
			p.Badges = append(p.Badges, badge.Name)
			update.Unlocked = append(update.Unlocked, badge.Name)
		}
	}
	update.Badges = append([]string{}, p.Badges...)
	return update
}

func hasBadge(badges []string, name string) bool {
	for _, b := range badges {
		if b == name {
			return true
		}
	}
	return false
}
