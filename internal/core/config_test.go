package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/config"
	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)
	t.Setenv("HOME", dir)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, models.SourceSheet, cfg.Source.Kind)
	assert.Equal(t, "0", cfg.Source.GID)
	assert.Equal(t, "select E,F where E is not null", cfg.Source.Query)
	assert.Equal(t, "https://www.google.com", cfg.Source.DefaultDestination)
	assert.Equal(t, 30*time.Second, cfg.Source.FetchTimeout)

	assert.Equal(t, 1, cfg.Run.Workers)
	assert.Equal(t, 0, cfg.Run.LaunchGap)
	assert.Equal(t, 20, cfg.Run.ReloadEvery)
	assert.Equal(t, models.Range{Min: 40 * time.Second, Max: 60 * time.Second}, cfg.Run.SourceWait)
	assert.Equal(t, models.Range{Min: 60 * time.Second, Max: 100 * time.Second}, cfg.Run.DestinationWait)
	assert.Equal(t, models.Range{Min: 15 * time.Second, Max: 25 * time.Second}, cfg.Run.Cooldown)
	assert.Equal(t, 600*time.Millisecond, cfg.Run.SettleDelay)

	assert.Equal(t, models.WindowConfig{Width: 375, Height: 812, Left: 100, Top: 100}, cfg.Browser.Window)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigateTimeout)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Report.Enabled)
	assert.NoError(t, cfg.Run.Validate())
}

func TestLoadConfig_TemplateMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	written, err := config.WriteConfigTemplate(path)
	require.NoError(t, err)
	require.True(t, written)

	fromTemplate, err := LoadConfig(path)
	require.NoError(t, err)

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)
	t.Setenv("HOME", dir)

	defaults, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, defaults.Run, fromTemplate.Run)
	assert.Equal(t, defaults.Browser, fromTemplate.Browser)
	assert.Equal(t, defaults.Source.Query, fromTemplate.Source.Query)
	assert.Equal(t, defaults.Source.FetchTimeout, fromTemplate.Source.FetchTimeout)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `source:
  kind: list
  list_file: links.txt
run:
  workers: 4
  launch_gap: 250
  reload_every: 5
  source_wait:
    min: 1s
    max: 2s
  settle_delay: 1.5s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, models.SourceList, cfg.Source.Kind)
	assert.Equal(t, "links.txt", cfg.Source.ListFile)
	assert.Equal(t, 4, cfg.Run.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Run.LaunchGapDuration())
	assert.Equal(t, 5, cfg.Run.ReloadEvery)
	assert.Equal(t, models.Range{Min: time.Second, Max: 2 * time.Second}, cfg.Run.SourceWait)
	assert.Equal(t, 1500*time.Millisecond, cfg.Run.SettleDelay)
	// 未写的部分保持默认
	assert.Equal(t, models.Range{Min: 15 * time.Second, Max: 25 * time.Second}, cfg.Run.Cooldown)
	assert.Equal(t, "debug", cfg.LogConfig().Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("指定的文件不存在", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		var configErr *models.ConfigError
		require.ErrorAs(t, err, &configErr)
	})

	t.Run("时长格式错误", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("run:\n  settle_delay: soon\n"), 0644))
		_, err := LoadConfig(path)
		var configErr *models.ConfigError
		require.ErrorAs(t, err, &configErr)
	})
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  workers: 2\n"), 0644))
	t.Setenv("LINKRELAY_RUN_WORKERS", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Run.Workers)
}
