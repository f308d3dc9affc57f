package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultServer, cfg.Server)
	assert.False(t, cfg.Visibility.ShowAnalysis)
	assert.False(t, cfg.Save.ForceDirect)
}

func TestLoadProjectConfigJSONC(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	writeConfig(t, filepath.Join(dir, ".whisper"), "whisper.jsonc", `{
		// backend under test
		"server": "http://backend:9000",
		"visibility": {"showAnalysis": true},
		"save": {"forceDirectPatterns": ["**/*.lock"]}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.Server)
	assert.True(t, cfg.Visibility.ShowAnalysis)
	assert.False(t, cfg.Visibility.ShowCommentary)
	assert.Equal(t, []string{"**/*.lock"}, cfg.Save.ForceDirectPatterns)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	writeConfig(t, filepath.Join(dir, ".whisper"), "whisper.yaml", `
server: http://yaml:7000
logLevel: DEBUG
save:
  forceDirect: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://yaml:7000", cfg.Server)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.True(t, cfg.Save.ForceDirect)
}

func TestLoadProjectOverridesGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()

	writeConfig(t, filepath.Join(home, ".config", "whisper"), "whisper.json",
		`{"server": "http://global:1", "logLevel": "WARN"}`)
	writeConfig(t, filepath.Join(dir, ".whisper"), "whisper.json",
		`{"server": "http://project:2"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://project:2", cfg.Server)
	// Fields the project file does not set survive from the global layer.
	assert.Equal(t, "WARN", cfg.LogLevel)
}

func TestLoadEnvWinsOverFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	writeConfig(t, filepath.Join(dir, ".whisper"), "whisper.json",
		`{"server": "http://file:1"}`)
	t.Setenv("WHISPER_SERVER", "http://env:2")
	t.Setenv("WHISPER_FORCE_DIRECT_SAVE", "yes")
	t.Setenv("WHISPER_SHOW_COMMENTARY", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://env:2", cfg.Server)
	assert.True(t, cfg.Save.ForceDirect)
	assert.True(t, cfg.Visibility.ShowCommentary)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	path := filepath.Join(dir, "ci.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://ci:3\n"), 0o644))
	t.Setenv("WHISPER_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://ci:3", cfg.Server)

	// A named-but-broken config is an error rather than a silent skip.
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	t.Setenv("WHISPER_CONFIG", path)
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadMalformedLayeredFileSkipped(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	writeConfig(t, filepath.Join(dir, ".whisper"), "whisper.json", "{broken")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultServer, cfg.Server)
}
