// Package config loads and serves the codec service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/krish567366/PesaQR/pkg/psp"
)

var (
	ErrConfigNotFound   = errors.New("configuration not found")
	ErrValidationFailed = errors.New("configuration validation failed")
)

// Config is the service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`

	// Directory lists extra provider records merged into the seeded PSP
	// directory at startup. Administrative additions beyond the
	// officially published codes go here.
	Directory []ProviderEntry `yaml:"directory"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ObservabilityConfig holds logging, metrics and tracing settings.
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
}

// ProviderEntry is one directory record in config form.
type ProviderEntry struct {
	Country     string   `yaml:"country"`
	Kind        string   `yaml:"kind"`
	Identifier  string   `yaml:"identifier"`
	DisplayName string   `yaml:"display_name"`
	Prefixes    []string `yaml:"prefixes"`
}

// Manager loads, validates and serves the configuration.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	filePath string
	logger   *zap.Logger
}

// NewManager creates a config manager for the given file path.
func NewManager(filePath string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{filePath: filePath, logger: logger}
}

// Load reads the file, applies environment overrides and validates. A
// missing file is not an error; defaults apply.
func (m *Manager) Load() error {
	config := DefaultConfig()

	data, err := os.ReadFile(m.filePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		m.logger.Info("configuration loaded", zap.String("file", m.filePath))
	case os.IsNotExist(err):
		m.logger.Info("no configuration file, using defaults", zap.String("file", m.filePath))
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(config)

	if err := validate(config); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = config
	m.mu.Unlock()
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SeedDirectory registers the configured extra provider entries.
func (m *Manager) SeedDirectory(dir *psp.Directory) error {
	config := m.Get()
	if config == nil {
		return ErrConfigNotFound
	}

	for _, entry := range config.Directory {
		kind, ok := psp.ParseKind(entry.Kind)
		if !ok {
			return fmt.Errorf("%w: unknown provider kind %q", ErrValidationFailed, entry.Kind)
		}
		country := psp.Country(entry.Country)
		if !country.Valid() {
			return fmt.Errorf("%w: unknown country %q", ErrValidationFailed, entry.Country)
		}
		dir.Register(psp.Record{
			Kind:        kind,
			Identifier:  entry.Identifier,
			DisplayName: entry.DisplayName,
			Country:     country,
		}, entry.Prefixes...)
	}

	if len(config.Directory) > 0 {
		m.logger.Info("extra providers registered", zap.Int("count", len(config.Directory)))
	}
	return nil
}

func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port %d", ErrValidationFailed, config.Server.Port)
	}
	for _, entry := range config.Directory {
		if entry.Identifier == "" || entry.DisplayName == "" {
			return fmt.Errorf("%w: directory entries need identifier and display_name", ErrValidationFailed)
		}
	}
	return nil
}

func applyEnvOverrides(config *Config) {
	if val := os.Getenv("QRD_HOST"); val != "" {
		config.Server.Host = val
	}
	if val := os.Getenv("QRD_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil && port > 0 {
			config.Server.Port = port
		}
	}
	if val := os.Getenv("QRD_LOG_LEVEL"); val != "" {
		config.Observability.LogLevel = val
	}
	if val := os.Getenv("QRD_OTLP_ENDPOINT"); val != "" {
		config.Observability.OTLPEndpoint = val
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
			TracingEnabled: false,
			OTLPEndpoint:   "localhost:4317",
		},
	}
}
