package core

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jo-hoe/imageproc/internal/backend/operations"
	"github.com/jo-hoe/imageproc/internal/backend/source"
	"github.com/jo-hoe/imageproc/internal/common"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost             = "127.0.0.1"
	defaultPort             = 12345
	defaultLogLevel         = "info"
	defaultRotateBackground = "#ffffff"
	defaultSVGFallbackSize  = 1024
	defaultFetchTimeout     = 30 * time.Second
	defaultCacheTTL         = 10 * time.Minute
	defaultCacheMaxEntries  = 128
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string `yaml:"type" validate:"omitempty,oneof=sqlite"`
	ConnectionString string `yaml:"connectionString"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
}

type CacheConfig struct {
	Type       string        `yaml:"type" validate:"omitempty,oneof=none memory redis"`
	MaxEntries int           `yaml:"maxEntries" validate:"min=0"`
	TTL        time.Duration `yaml:"ttl" validate:"min=0"`
	Redis      RedisConfig   `yaml:"redis"`
}

type ServiceConfig struct {
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port" validate:"min=0,max=65535"`
	LogLevel string          `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	Database Database        `yaml:"database"`
	Commands []CommandConfig `yaml:"commands"`

	JPEGQuality       int    `yaml:"jpegQuality" validate:"min=0,max=100"`
	RotateBackground  string `yaml:"rotateBackground" validate:"omitempty,hexcolor"`
	SVGFallbackWidth  int    `yaml:"svgFallbackWidth" validate:"min=0,max=16384"`
	SVGFallbackHeight int    `yaml:"svgFallbackHeight" validate:"min=0,max=16384"`

	MaxBodyBytes   int64         `yaml:"maxBodyBytes" validate:"min=0"`
	ChunkSize      int           `yaml:"chunkSize" validate:"min=0"`
	MaxSourceBytes int64         `yaml:"maxSourceBytes" validate:"min=0"`
	FetchTimeout   time.Duration `yaml:"fetchTimeout" validate:"min=0"`
	MaxConcurrent  int           `yaml:"maxConcurrent" validate:"min=0"`

	Cache CacheConfig `yaml:"cache"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return &config, nil
}

// DefaultConfig returns the configuration used when no file sets a value.
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	config.applyDefaults()
	return config
}

func (c *ServiceConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.ConnectionString == "" {
		c.Database.ConnectionString = ":memory:"
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = source.DefaultJPEGQuality
	}
	if c.RotateBackground == "" {
		c.RotateBackground = defaultRotateBackground
	}
	if c.SVGFallbackWidth == 0 {
		c.SVGFallbackWidth = defaultSVGFallbackSize
	}
	if c.SVGFallbackHeight == 0 {
		c.SVGFallbackHeight = defaultSVGFallbackSize
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "none"
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = defaultCacheMaxEntries
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = defaultCacheTTL
	}
}

// Validate checks struct tags, the command list and cross-field constraints.
func (c *ServiceConfig) Validate() error {
	if err := common.ValidateStruct(c); err != nil {
		return err
	}
	if _, err := common.ParseColor(c.RotateBackground); err != nil {
		return fmt.Errorf("rotateBackground: %w", err)
	}
	if c.Cache.Type == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache type redis requires cache.redis.addr")
	}
	if err := validateCommands(c.Commands); err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *ServiceConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// OperationConfigs converts the configured trailing commands for the operation registry.
func (c *ServiceConfig) OperationConfigs() []operations.OperationConfig {
	configs := make([]operations.OperationConfig, 0, len(c.Commands))
	for _, cmd := range c.Commands {
		configs = append(configs, operations.OperationConfig{Name: cmd.Name, Params: cmd.Params})
	}
	return configs
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		// Validate name is not empty
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}

		// Validate name is unique
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true

		if !operations.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("unknown command %s at index %d, available: %s",
				cmd.Name, i, strings.Join(operations.DefaultRegistry.GetRegisteredNames(), ", "))
		}
		if _, err := operations.DefaultRegistry.Create(cmd.Name, cmd.Params); err != nil {
			return fmt.Errorf("command at index %d: %w", i, err)
		}
	}

	return nil
}
