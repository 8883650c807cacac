package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Base    `mapstructure:",squash"`
	Road    int `mapstructure:"road_dedup_window"`
}

func TestLoadAppliesFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "speeddaemon.yaml"), []byte(
		"listen_addr: \":9000\"\nlog_level: DEBUG\nroad_dedup_window: 86400\n"), 0o644))

	v := New("speeddaemon")
	v.AddConfigPath(dir)
	t.Setenv("PROTOHACKERS_SPEEDDAEMON_LOG_LEVEL", "ERROR")

	cfg := testConfig{Base: DefaultBase()}
	require.NoError(t, Load(v, &cfg))

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "ERROR", cfg.LogLevel, "env var should override file value")
	assert.Equal(t, 86400, cfg.Road)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	v := New("jobcentre")
	v.AddConfigPath(t.TempDir())

	cfg := testConfig{Base: DefaultBase()}
	cfg.LogLevel = "VERBOSE"
	err := Load(v, &cfg)
	assert.Error(t, err)
}

func TestLoadRequiresListenAddr(t *testing.T) {
	v := New("jobcentre")
	v.AddConfigPath(t.TempDir())

	cfg := testConfig{Base: DefaultBase()}
	cfg.ListenAddr = ""
	err := Load(v, &cfg)
	assert.Error(t, err)
}
