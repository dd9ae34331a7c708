package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("AI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	dir := writeConfig(t, "state:\n  backend: memory\nstorage:\n  local_path: "+filepath.Join(t.TempDir(), "uploads")+"\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultMaxContextChars, cfg.AI.MaxContextChars)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AI.BaseURL)
	assert.Empty(t, cfg.AI.APIKey)
	assert.Equal(t, "qdrt", cfg.State.Namespace)
	assert.Equal(t, 20, cfg.Upload.MaxFileMB)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "state")
	dir := writeConfig(t, `
server:
  port: "9090"
ai:
  model: file-model
  max_context_chars: 500
state:
  backend: file
  file_dir: `+stateDir+`
storage:
  type: minio
`)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("AI_MODEL", "env-model")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 500, cfg.AI.MaxContextChars)
	assert.Equal(t, "env-model", cfg.AI.Model)
	assert.Equal(t, "sk-from-env", cfg.AI.APIKey)
	assert.DirExists(t, stateDir)
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	dir := writeConfig(t, "state:\n  backend: floppy\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, StateBackendFile, cfg.State.Backend)
	assert.Equal(t, DefaultMaxContextChars, cfg.AI.MaxContextChars)
	assert.Equal(t, 180, cfg.AI.TimeoutSeconds)
	assert.NoError(t, cfg.Validate())
}
