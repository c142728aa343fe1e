package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
checker:
  command: run-checker
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "ConstraintCheckerHook", cfg.Hook.ID)
	assert.Equal(t, 1, cfg.Hook.MaxConcurrentJobs)
	assert.True(t, cfg.Hook.Enabled)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, "constraint_results", cfg.Database.Database)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
hook:
  id: MyHook
  max_concurrent_jobs: 4
storage_driver: memory
checker:
  command: node
  args: ["run_plugin.js", "ConstraintChecker"]
logger:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "MyHook", cfg.Hook.ID)
	assert.Equal(t, 4, cfg.Hook.MaxConcurrentJobs)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, []string{"run_plugin.js", "ConstraintChecker"}, cfg.Checker.Args)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoadConfigRequiresCheckerCommand(t *testing.T) {
	path := writeConfig(t, `
storage_driver: memory
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checker.command")
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, `
storage_driver: cassandra
checker:
  command: run-checker
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage driver")
}

func TestValidateRequiresHookID(t *testing.T) {
	cfg := &Config{StorageDriver: "memory"}
	cfg.Checker.Command = "run-checker"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook.id")
}
