package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"KANBAN_API_URL", "KANBAN_ASSIST_URL", "KANBAN_BOARD", "KANBAN_LOG_LEVEL", "KANBAN_LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	t.Setenv("KANBAN_CONFIG_DIR", t.TempDir())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "http://localhost:3001/api/kanban/generate", cfg.AssistURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.HighlightDelay)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":3001", cfg.DevServer.Addr)
	assert.Equal(t, "kanban-dev.db", cfg.DevServer.DBPath)
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://kanban.internal:8080/
board: "3"
request_timeout: 2s
highlight_delay: 250ms
log_format: json
devserver:
  addr: 127.0.0.1:4000
`), 0o644))
	t.Setenv("KANBAN_BOARD", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://kanban.internal:8080", cfg.APIURL)
	assert.Equal(t, "http://kanban.internal:8080/api/kanban/generate", cfg.AssistURL)
	assert.Equal(t, "9", cfg.Board)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.HighlightDelay)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "127.0.0.1:4000", cfg.DevServer.Addr)
	assert.Equal(t, DefaultDevDBPath, cfg.DevServer.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, os.WriteFile(path, []byte("api_url: [oops"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("api_url: localhost"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "api_url")

	require.NoError(t, os.WriteFile(path, []byte("log_format: xml"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "log_format")
}

func TestSetAPIURL_FollowsDerivedAssistURL(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.SetAPIURL("http://other:9000/")
	assert.Equal(t, "http://other:9000", cfg.APIURL)
	assert.Equal(t, "http://other:9000/api/kanban/generate", cfg.AssistURL)

	t.Setenv("KANBAN_ASSIST_URL", "http://llm:7000/generate")
	cfg, err = Load("")
	require.NoError(t, err)
	cfg.SetAPIURL("http://other:9000")
	assert.Equal(t, "http://llm:7000/generate", cfg.AssistURL)
}

func TestSetAndSave(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Raw(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Set("board", "2"))
	require.NoError(t, cfg.Set("request_timeout", "3s"))
	require.NoError(t, cfg.Set("devserver.addr", ":4100"))
	assert.ErrorContains(t, cfg.Set("request_timeout", "soon"), "request_timeout")
	assert.ErrorContains(t, cfg.Set("colour", "blue"), "unknown key")
	require.NoError(t, Save(path, cfg))

	raw, err := Raw(path)
	require.NoError(t, err)
	assert.Equal(t, "2", raw.Board)
	assert.Empty(t, raw.APIURL)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2", loaded.Board)
	assert.Equal(t, 3*time.Second, loaded.RequestTimeout)
	assert.Equal(t, ":4100", loaded.DevServer.Addr)
	assert.Equal(t, DefaultAPIURL, loaded.APIURL)
}
