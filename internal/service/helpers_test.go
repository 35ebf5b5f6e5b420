package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"agri_training_backend/internal/config"
	"agri_training_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLocalStorage(t *testing.T) (*StorageService, string) {
	t.Helper()
	root := t.TempDir()
	storage, err := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: root}})
	require.NoError(t, err)
	return storage, root
}

func writeFile(t *testing.T, root, key string, content []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, content, 0644))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, false, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

const soilQuizJSON = `{
	"title": "Soil Basics",
	"questions": [
		{"question": "Best pH for cotton?", "options": ["4.5", "6.5", "9.0"], "answer": "6.5"},
		{"question": "Which nutrient promotes leaf growth?", "options": ["Nitrogen", "Calcium"], "answer": "Nitrogen"}
	]
}`

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
