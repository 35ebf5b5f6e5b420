package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agri_training_backend/internal/config"
	"agri_training_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "0", Mode: "test"},
		Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "app.db")},
		JWT:      config.JWTConfig{Secret: "integration-secret-integration-secret", ExpireTime: time.Hour},
		Admin:    config.AdminConfig{Username: "admin", Password: "admin-pass"},
		Storage:  config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		Session:  config.SessionConfig{Store: "memory", TTLHours: time.Hour},
		Calculator: config.CalculatorConfig{
			Densities:       map[string]float64{"regiona": 14000, "regionb": 7400},
			StateNames:      []string{"regionA", "regionB"},
			GerminationRate: 0.90,
			SeedsPerPacket:  7500,
		},
		Upload:    config.UploadConfig{MaxBytes: 1 << 20},
		RateLimit: config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1, LoginPerMinute: 100},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	db, err := database.InitDB(&cfg.Database, false, false)
	require.NoError(t, err)
	seed, err := database.DefaultSeed()
	require.NoError(t, err)
	_, err = database.Seed(db, seed)
	require.NoError(t, err)

	a, err := New(cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return a
}

func call(t *testing.T, a *App, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func upload(t *testing.T, a *App, path, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, a *App, username, password string) string {
	t.Helper()
	w, env := call(t, a, http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

const quizJSON = `{"title": "Soil Basics", "questions": [
	{"question": "Best pH for cotton?", "options": ["4.5", "6.5", "9.0"], "answer": "6.5"},
	{"question": "Which nutrient promotes leaf growth?", "options": ["Nitrogen", "Calcium"], "answer": "Nitrogen"}
]}`

func TestHealthAndLogin(t *testing.T) {
	a := newTestApp(t)

	w, _ := call(t, a, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := call(t, a, http.MethodGet, "/api/login/members", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members []struct {
		Email string `json:"email"`
	}
	decode(t, env.Data, &members)
	assert.Len(t, members, 4)

	token := login(t, a, "ravi.patil@pmu.example.org", "field@2024")
	w, env = call(t, a, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Role string `json:"role"`
	}
	decode(t, env.Data, &me)
	assert.Equal(t, "member", me.Role)

	w, _ = call(t, a, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = call(t, a, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogUploadBrowseAndProgress(t *testing.T) {
	a := newTestApp(t)
	admin := login(t, a, "admin", "admin-pass")
	member := login(t, a, "ravi.patil@pmu.example.org", "field@2024")

	// 成员不能上传
	w := upload(t, a, "/api/admin/catalog/cotton/presentations", member, "guide.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = upload(t, a, "/api/admin/catalog/cotton/presentations", admin, "Sowing Guide.pdf", []byte("%PDF-1.4 cotton"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = upload(t, a, "/api/admin/catalog/cotton/videos", admin, "clip.avi", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := call(t, a, http.MethodGet, "/api/catalog/cotton/ppt", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Empty bool `json:"empty"`
		Items []struct {
			Kind     string `json:"kind"`
			Filename string `json:"filename"`
			URL      string `json:"url"`
		} `json:"items"`
	}
	decode(t, env.Data, &listing)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "download", listing.Items[0].Kind)

	// 匿名下载不记录进度
	w, _ = call(t, a, http.MethodGet, listing.Items[0].URL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 cotton", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w, _ = call(t, a, http.MethodGet, listing.Items[0].URL, member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = call(t, a, http.MethodGet, listing.Items[0].URL, member, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = call(t, a, http.MethodGet, "/api/progress", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		Points int `json:"points"`
	}
	decode(t, env.Data, &progress)
	assert.Equal(t, 10, progress.Points)

	w, _ = call(t, a, http.MethodDelete, "/api/admin/catalog/cotton/presentations/Sowing%20Guide.pdf", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, env = call(t, a, http.MethodGet, "/api/catalog/cotton/presentations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env.Data, &listing)
	assert.True(t, listing.Empty)

	w, _ = call(t, a, http.MethodDelete, "/api/admin/catalog/cotton/presentations/Sowing%20Guide.pdf", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = call(t, a, http.MethodGet, "/api/catalog/poultry/videos", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuizFlow(t *testing.T) {
	a := newTestApp(t)
	admin := login(t, a, "admin", "admin-pass")
	member := login(t, a, "meena.joshi@pmu.example.org", "dairy@2024")

	w := upload(t, a, "/api/admin/catalog/dairy/quizzes", admin, "hygiene.json", []byte(quizJSON))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := call(t, a, http.MethodGet, "/api/quizzes/dairy/hygiene.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "answer")

	// 匿名评分
	w, env = call(t, a, http.MethodPost, "/api/quizzes/dairy/hygiene.json/score", "", map[string]interface{}{
		"answers": map[string]string{"0": "6.5"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Score    int `json:"score"`
		Total    int `json:"total"`
		Progress *struct {
			Points int `json:"points"`
		} `json:"progress"`
	}
	decode(t, env.Data, &result)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, result.Total)
	assert.Nil(t, result.Progress)

	w, env = call(t, a, http.MethodPost, "/api/quizzes/dairy/hygiene.json/score", member, map[string]interface{}{
		"answers": map[string]string{"0": "6.5", "1": "Nitrogen"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result.Progress = nil
	decode(t, env.Data, &result)
	assert.Equal(t, 2, result.Score)
	require.NotNil(t, result.Progress)
	assert.Equal(t, 10, result.Progress.Points)

	w, env = call(t, a, http.MethodGet, "/api/quiz-records", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []struct {
		QuizFile string `json:"quizFile"`
		Score    int    `json:"score"`
	}
	decode(t, env.Data, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "hygiene.json", records[0].QuizFile)

	w, _ = call(t, a, http.MethodGet, "/api/quizzes/dairy/missing.json", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = upload(t, a, "/api/admin/catalog/dairy/quizzes", admin, "broken.json", []byte(`{"title": "x"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalculatorEndpoint(t *testing.T) {
	a := newTestApp(t)

	w, env := call(t, a, http.MethodPost, "/api/calculator/plant-population", "", map[string]interface{}{
		"farmerName":   "Sunita Jadhav",
		"farmerId":     "F-1042",
		"state":        "regionA",
		"spacingUnit":  "cm",
		"rowSpacing":   60,
		"plantSpacing": 30,
		"landAcres":    10,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		CalculatedCapacity int64 `json:"calculatedCapacity"`
		RequiredPackets    int64 `json:"requiredPackets"`
	}
	decode(t, env.Data, &res)
	assert.Equal(t, int64(224826), res.CalculatedCapacity)
	assert.Equal(t, int64(20), res.RequiredPackets)

	w, env = call(t, a, http.MethodPost, "/api/calculator/plant-population", "", map[string]interface{}{
		"farmerName": "Sunita", "farmerId": "F-1", "state": "regionA", "spacingUnit": "cm",
		"rowSpacing": 0, "plantSpacing": 30, "landAcres": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "rowSpacing")

	// 间距极小时中间结果溢出，同样按输入错误拒绝
	w, env = call(t, a, http.MethodPost, "/api/calculator/plant-population", "", map[string]interface{}{
		"farmerName": "Sunita", "farmerId": "F-1", "state": "regionA", "spacingUnit": "cm",
		"rowSpacing": 1e-200, "plantSpacing": 1e-200, "landAcres": 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, env.Message, "rowSpacing")

	w, env = call(t, a, http.MethodGet, "/api/calculator/states", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var states []string
	decode(t, env.Data, &states)
	assert.Equal(t, []string{"regionA", "regionB"}, states)
}

func TestPMUPermissions(t *testing.T) {
	a := newTestApp(t)
	admin := login(t, a, "admin", "admin-pass")
	member := login(t, a, "anita.deshmukh@pmu.example.org", "cotton@2024")

	w, _ := call(t, a, http.MethodGet, "/api/pmu/programs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := call(t, a, http.MethodGet, "/api/pmu/programs", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	decode(t, env.Data, &page)
	assert.Equal(t, int64(2), page.Total)

	w, _ = call(t, a, http.MethodPost, "/api/pmu/programs", member, map[string]string{"name": "Poultry"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = call(t, a, http.MethodPost, "/api/pmu/programs", admin, map[string]string{"name": "Poultry"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var program struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env.Data, &program)
	assert.Equal(t, "Active", program.Status)

	w, env = call(t, a, http.MethodPost, "/api/pmu/workstreams", admin, map[string]interface{}{"name": "Orphan", "programId": 9999})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "programId")

	w, _ = call(t, a, http.MethodGet, "/api/pmu/programs/9999", member, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = call(t, a, http.MethodGet, "/api/pmu/employees", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "password")
}

func TestUploadLimitFollowsConfigReload(t *testing.T) {
	a := newTestApp(t)
	admin := login(t, a, "admin", "admin-pass")

	next := *a.CurrentConfig()
	next.Upload.MaxBytes = 512
	next.ConfigFile = "ignored.yaml"
	a.applyConfig(&next)
	assert.Equal(t, "", a.CurrentConfig().ConfigFile)

	w := upload(t, a, "/api/admin/catalog/cotton/audios", admin, "long.mp3", bytes.Repeat([]byte("a"), 4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = upload(t, a, "/api/admin/catalog/cotton/audios", admin, "ok.mp3", []byte("ID3"))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
