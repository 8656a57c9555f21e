package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krish567366/PesaQR/pkg/psp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qrd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Missing File Uses Defaults", func(t *testing.T) {
		manager := NewManager(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		require.NoError(t, manager.Load())

		cfg := manager.Get()
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Observability.LogLevel)
		assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	})

	t.Run("File Overrides Defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9090
observability:
  log_level: debug
  tracing_enabled: true
`)
		manager := NewManager(path, nil)
		require.NoError(t, manager.Load())

		cfg := manager.Get()
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, "debug", cfg.Observability.LogLevel)
		assert.True(t, cfg.Observability.TracingEnabled)
	})

	t.Run("Environment Overrides File", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 9090\n")
		t.Setenv("QRD_PORT", "7070")
		t.Setenv("QRD_LOG_LEVEL", "warn")

		manager := NewManager(path, nil)
		require.NoError(t, manager.Load())

		cfg := manager.Get()
		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, "warn", cfg.Observability.LogLevel)
	})

	t.Run("Invalid Port Rejected", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 99999\n")
		manager := NewManager(path, nil)
		err := manager.Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("Malformed YAML Rejected", func(t *testing.T) {
		path := writeConfig(t, "server: [not a mapping\n")
		manager := NewManager(path, nil)
		assert.Error(t, manager.Load())
	})
}

func TestSeedDirectory(t *testing.T) {
	t.Run("Registers Configured Providers", func(t *testing.T) {
		path := writeConfig(t, `
directory:
  - country: KE
    kind: bank
    identifier: "75"
    display_name: Test Community Bank
    prefixes: ["75"]
`)
		manager := NewManager(path, nil)
		require.NoError(t, manager.Load())

		dir := psp.NewDirectory(nil)
		require.NoError(t, manager.SeedDirectory(dir))

		rec, ok := dir.Lookup(psp.CountryKenya, psp.KindBank, "75")
		require.True(t, ok)
		assert.Equal(t, "Test Community Bank", rec.DisplayName)

		byPrefix, ok := dir.LookupByPrefix(psp.CountryKenya, "7512345678")
		require.True(t, ok)
		assert.Equal(t, rec.DisplayName, byPrefix.DisplayName)
	})

	t.Run("Unknown Kind Rejected", func(t *testing.T) {
		path := writeConfig(t, `
directory:
  - country: KE
    kind: telegraph
    identifier: "75"
    display_name: Test
`)
		manager := NewManager(path, nil)
		require.NoError(t, manager.Load())

		err := manager.SeedDirectory(psp.NewDirectory(nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("Unknown Country Rejected", func(t *testing.T) {
		path := writeConfig(t, `
directory:
  - country: UG
    kind: bank
    identifier: "75"
    display_name: Test
`)
		manager := NewManager(path, nil)
		require.NoError(t, manager.Load())

		err := manager.SeedDirectory(psp.NewDirectory(nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}
