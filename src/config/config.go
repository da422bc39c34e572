package config

import (
	"fmt"
	"os"
	"strings"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a validated Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config from YAML", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// LoadEnvFile loads KEY=VALUE pairs (AWS credentials, endpoint) from path.
// Variables already present in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file '%s': %w", path, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero values with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "telemetry-viewer"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "none"
	}
	if c.Storage.JournalQueueSize == 0 {
		c.Storage.JournalQueueSize = utils.DefaultJournalQueueSize
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 10
	}
	if c.Presign.Mode == "" {
		c.Presign.Mode = "local"
	}
	if c.Presign.ExpiresSeconds == 0 {
		c.Presign.ExpiresSeconds = utils.DefaultExpiresSeconds
	}
	if c.Presign.ClientIDPrefix == "" {
		c.Presign.ClientIDPrefix = utils.DefaultClientIDPrefix
	}
	if c.Transport.ProtocolVersion == 0 {
		c.Transport.ProtocolVersion = 4
	}
	if c.Transport.CleanSession == nil {
		clean := true
		c.Transport.CleanSession = &clean
	}
	if c.Transport.ConnectTimeoutMs == 0 {
		c.Transport.ConnectTimeoutMs = utils.DefaultConnectTimeoutMs
	}
	if c.Transport.ReconnectPeriodMs == 0 {
		c.Transport.ReconnectPeriodMs = utils.DefaultReconnectPeriodMs
	}
	if c.Transport.EventQueueSize == 0 {
		c.Transport.EventQueueSize = utils.DefaultEventQueueSize
	}
	if c.Viewer.Topic == "" {
		c.Viewer.Topic = utils.DefaultTopic
	}
	if c.Viewer.MaxSeries == 0 {
		c.Viewer.MaxSeries = utils.DefaultMaxSeries
	}
	if c.Viewer.MaxPoints == 0 {
		c.Viewer.MaxPoints = utils.DefaultMaxPoints
	}
	if c.Viewer.BaselineSamples == 0 {
		c.Viewer.BaselineSamples = utils.DefaultBaselineSamples
	}
	if c.Viewer.GainMin == 0 {
		c.Viewer.GainMin = utils.DefaultGainMin
	}
	if c.Viewer.GainMax == 0 {
		c.Viewer.GainMax = utils.DefaultGainMax
	}
	if c.Viewer.DefaultMode == "" {
		c.Viewer.DefaultMode = string(models.ViewRelative)
	}
	if c.Viewer.DefaultGain == 0 {
		c.Viewer.DefaultGain = utils.DefaultGain
	}
	if c.Viewer.MessageLogSize == 0 {
		c.Viewer.MessageLogSize = utils.DefaultMessageLogSize
	}
}

// -----------------------------------------------------------------------------

// ApplyEnv fills the AWS IoT settings from the environment when the YAML
// leaves them empty.
func (c *Config) ApplyEnv() {
	if c.Presign.Region == "" {
		c.Presign.Region = os.Getenv("AWS_REGION")
	}
	if c.Presign.IoTEndpoint == "" {
		c.Presign.IoTEndpoint = os.Getenv("IOT_ENDPOINT")
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "none":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}
	if c.Storage.JournalQueueSize < 0 {
		return fmt.Errorf("journal queue size cannot be negative")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Validate Presign configuration
	switch c.Presign.Mode {
	case "local":
	case "remote":
		if c.Presign.Endpoint == "" {
			return fmt.Errorf("presign endpoint is required in remote mode")
		}
		if !strings.HasPrefix(c.Presign.Endpoint, "http://") && !strings.HasPrefix(c.Presign.Endpoint, "https://") {
			return fmt.Errorf("presign endpoint must be an http(s) URL: %s", c.Presign.Endpoint)
		}
	default:
		return fmt.Errorf("unsupported presign mode: %s", c.Presign.Mode)
	}
	if c.Presign.ExpiresSeconds <= 0 || c.Presign.ExpiresSeconds > 7*24*3600 {
		return fmt.Errorf("presign expiry must be between 1s and 7 days, got %ds", c.Presign.ExpiresSeconds)
	}

	// Validate Transport configuration
	if c.Transport.ProtocolVersion != 3 && c.Transport.ProtocolVersion != 4 {
		return fmt.Errorf("unsupported MQTT protocol version: %d", c.Transport.ProtocolVersion)
	}
	if c.Transport.ConnectTimeoutMs <= 0 {
		return fmt.Errorf("connect timeout must be greater than 0")
	}
	if c.Transport.ReconnectPeriodMs <= 0 {
		return fmt.Errorf("reconnect period must be greater than 0")
	}
	if c.Transport.QoS > 2 {
		return fmt.Errorf("invalid qos: %d", c.Transport.QoS)
	}
	if c.Transport.EventQueueSize <= 0 {
		return fmt.Errorf("event queue size must be greater than 0")
	}

	// Validate Viewer configuration
	return c.ValidateViewer(c.Viewer)
}

// -----------------------------------------------------------------------------

// ValidateViewer checks the viewer section on its own; hot reload uses it too.
func (c *Config) ValidateViewer(v models.MViewerConfig) error {
	if v.MaxSeries <= 0 {
		return fmt.Errorf("max series must be greater than 0")
	}
	if v.MaxPoints <= 0 {
		return fmt.Errorf("max points must be greater than 0")
	}
	if v.BaselineSamples <= 0 {
		return fmt.Errorf("baseline samples must be greater than 0")
	}
	if v.GainMin < 1 || v.GainMax < v.GainMin {
		return fmt.Errorf("invalid gain range [%d, %d]", v.GainMin, v.GainMax)
	}
	if v.DefaultGain < v.GainMin || v.DefaultGain > v.GainMax {
		return fmt.Errorf("default gain %d outside [%d, %d]", v.DefaultGain, v.GainMin, v.GainMax)
	}
	if !models.MViewMode(v.DefaultMode).Valid() {
		return fmt.Errorf("unknown default view mode: %s", v.DefaultMode)
	}
	if v.MessageLogSize < 0 {
		return fmt.Errorf("message log size cannot be negative")
	}
	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
