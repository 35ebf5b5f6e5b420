package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
}

func TestLoadConfigNormalizes(t *testing.T) {
	dir := t.TempDir()
	materials := filepath.Join(dir, "materials")
	writeConfig(t, dir, `
server:
  mode: debug
jwt:
  secret: short
  expire_hours: 6
admin:
  username: pmu
  password: admin123
storage:
  type: local
  local_path: `+materials+`
session:
  ttl_hours: 2
calculator:
  densities:
    RegionA: 14000
    regionB: 7400
  state_names: [RegionA, regionB]
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTLHours)
	assert.Equal(t, map[string]float64{"regiona": 14000, "regionb": 7400}, cfg.Calculator.Densities)
	assert.Equal(t, []string{"RegionA", "regionB"}, cfg.Calculator.StateNames)
	assert.InDelta(t, 0.90, cfg.Calculator.GerminationRate, 1e-9)
	assert.Equal(t, "pmu", cfg.Admin.Username)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.ConfigFile)

	// 本地存储目录会被自动创建
	info, err := os.Stat(materials)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadConfigReleaseModeIsStrict(t *testing.T) {
	dir := t.TempDir()
	base := `
storage:
  type: local
  local_path: ` + filepath.Join(dir, "m") + `
`

	writeConfig(t, dir, base+`
server:
  mode: release
jwt:
  secret: too-short
admin:
  password_hash: "$2a$10$abcdefghijklmnopqrstuuFZ6cPjJ6D7W8nBjsB8sZAgv8K4Q0y2a"
`)
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "JWT secret")

	writeConfig(t, dir, base+`
server:
  mode: release
jwt:
  secret: 0123456789abcdef0123456789abcdef
admin:
  password: admin123
`)
	_, err = LoadConfig(dir)
	assert.ErrorContains(t, err, "password_hash")
}

func TestLoadConfigRequiresAdminCredential(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
storage:
  type: local
  local_path: `+filepath.Join(dir, "m")+`
`)
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "admin credential")
}

func TestLoadConfigAcceptsFilePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pmu-site.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
admin:
  username: site-admin
  password: admin123
storage:
  type: local
  local_path: `+filepath.Join(dir, "m")+`
calculator:
  seeds_per_packet: 5000
`), 0644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "site-admin", cfg.Admin.Username)
	assert.InDelta(t, 5000, cfg.Calculator.SeedsPerPacket, 1e-9)
	assert.Equal(t, file, cfg.ConfigFile)
}
