package service

import (
	"context"
	"testing"
	"time"

	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgress(t *testing.T) (*ProgressService, string) {
	t.Helper()
	store := NewMemorySessionStore()
	require.NoError(t, store.Create(context.Background(), "s1", time.Hour))
	return NewProgressService(store), "s1"
}

func catalogEntry(category model.Category, filename string) model.CatalogEntry {
	return model.CatalogEntry{Program: model.Cotton, Category: category, Filename: filename, Extension: util.Ext(filename)}
}

func TestRecordViewAwardsOncePerFile(t *testing.T) {
	svc, sid := newProgress(t)
	ctx := context.Background()

	update, err := svc.RecordView(ctx, sid, catalogEntry(model.Videos, "sowing.mp4"))
	require.NoError(t, err)
	assert.Equal(t, model.PointsPerView, update.Awarded)
	assert.Equal(t, 10, update.Points)
	assert.Equal(t, 50, update.NextThreshold)

	update, err = svc.RecordView(ctx, sid, catalogEntry(model.Videos, "sowing.mp4"))
	require.NoError(t, err)
	assert.Zero(t, update.Awarded)
	assert.Equal(t, 10, update.Points)

	// 同名文件在不同项目下算作不同资料
	dairy := catalogEntry(model.Videos, "sowing.mp4")
	dairy.Program = model.Dairy
	update, err = svc.RecordView(ctx, sid, dairy)
	require.NoError(t, err)
	assert.Equal(t, 20, update.Points)
}

func TestRecordViewIgnoresQuizFiles(t *testing.T) {
	svc, sid := newProgress(t)

	update, err := svc.RecordView(context.Background(), sid, catalogEntry(model.Quizzes, "soil.json"))
	require.NoError(t, err)
	assert.Zero(t, update.Points)
	assert.Zero(t, update.Awarded)
}

func TestBadgesUnlockExactlyOnce(t *testing.T) {
	svc, sid := newProgress(t)
	ctx := context.Background()

	var unlocked []string
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"} {
		update, err := svc.RecordView(ctx, sid, catalogEntry(model.Presentations, name))
		require.NoError(t, err)
		unlocked = append(unlocked, update.Unlocked...)
	}
	assert.Equal(t, []string{"Intermediate Farmer"}, unlocked)

	update, err := svc.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 50, update.Points)
	assert.Equal(t, []string{"Intermediate Farmer"}, update.Badges)
	assert.Empty(t, update.Unlocked)
	assert.Equal(t, 100, update.NextThreshold)

	// 一次跨过第二个阈值
	update, err = svc.RecordQuiz(ctx, sid, "cotton/quizzes/big.json", 10)
	require.NoError(t, err)
	assert.Equal(t, 100, update.Points)
	assert.Equal(t, []string{"Master Farmer"}, update.Unlocked)
	assert.Equal(t, []string{"Intermediate Farmer", "Master Farmer"}, update.Badges)
	assert.Zero(t, update.NextThreshold)
}

func TestRecordQuizOnlyAwardsImprovement(t *testing.T) {
	svc, sid := newProgress(t)
	ctx := context.Background()
	key := "cotton/quizzes/soil.json"

	update, err := svc.RecordQuiz(ctx, sid, key, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, update.Awarded)

	update, err = svc.RecordQuiz(ctx, sid, key, 2)
	require.NoError(t, err)
	assert.Zero(t, update.Awarded)

	update, err = svc.RecordQuiz(ctx, sid, key, 1)
	require.NoError(t, err)
	assert.Zero(t, update.Awarded)

	update, err = svc.RecordQuiz(ctx, sid, key, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, update.Awarded)
	assert.Equal(t, 15, update.Points)
}

func TestProgressRequiresLiveSession(t *testing.T) {
	svc, sid := newProgress(t)
	ctx := context.Background()

	_, err := svc.RecordView(ctx, "missing", catalogEntry(model.Audios, "a.mp3"))
	assert.ErrorIs(t, err, util.ErrSessionRevoked)

	require.NoError(t, svc.Sessions.Delete(ctx, sid))
	_, err = svc.Get(ctx, sid)
	assert.ErrorIs(t, err, util.ErrSessionRevoked)
}
