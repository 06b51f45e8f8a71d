package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peejay-git/stallions/internal/output"
)

// testEnv sets up isolated config dir, viper, and output for testing.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Override configDirFunc for tests
	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	// Reset viper
	viper.Reset()
	viper.SetDefault("db_path", filepath.Join(dir, "stallions.db"))
	viper.SetDefault("principal", "")
	viper.SetDefault("default_asset", "XLM")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Initialize output
	ui = output.New()

	return dir
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := testEnv(t)

	err := configInitRun()
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	_, err = os.Stat(cfgPath)
	assert.NoError(t, err, "config file should exist")

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stallions configuration")
	assert.Contains(t, string(data), "default_asset")
	assert.Contains(t, string(data), "anthropic")
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir := testEnv(t)

	// Create existing file
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = false
	err := configInitRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigInit_ForceOverwrite(t *testing.T) {
	dir := testEnv(t)

	// Create existing file
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = true
	err := configInitRun()
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stallions configuration")
}

func TestConfigShow_NoFile(t *testing.T) {
	testEnv(t)

	err := configShowRun()
	assert.NoError(t, err)
}

func TestReadConfigFileValues_FlattensNestedKeys(t *testing.T) {
	dir := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	content := "default_asset: USDC\napi:\n  port: 9090\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	values := readConfigFileValues(cfgPath)
	assert.True(t, values["default_asset"])
	assert.True(t, values["api.port"])
	assert.False(t, values["db_path"])
}

func TestDetectSource(t *testing.T) {
	t.Setenv("STALLIONS_TEST_KEY", "x")

	assert.Contains(t, detectSource("whatever", "STALLIONS_TEST_KEY", nil), "env")
	assert.Equal(t, "(file)", detectSource("k", "STALLIONS_UNSET_VAR", map[string]bool{"k": true}))
	assert.Equal(t, "(default)", detectSource("k", "STALLIONS_UNSET_VAR", map[string]bool{}))
}
