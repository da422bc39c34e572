package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	GrpcHost  string           `yaml:"grpc_host"`
	GrpcPort  int              `yaml:"grpc_port"`
	Storage   MStorageConfig   `yaml:"storage"`
	Network   MNetworkConfig   `yaml:"network"`
	Presign   MPresignConfig   `yaml:"presign"`
	Transport MTransportConfig `yaml:"transport"`
	Viewer    MViewerConfig    `yaml:"viewer"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // sqlite, postgres or none
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	JournalQueueSize   int    `yaml:"journal_queue_size"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"` // seconds
	UserAgent      string `yaml:"user_agent"`
}

// MPresignConfig selects where signed URLs come from.
// Mode "local" signs in-process, "remote" asks Endpoint over HTTP.
type MPresignConfig struct {
	Mode           string `yaml:"mode"`
	Endpoint       string `yaml:"endpoint"`
	Serve          bool   `yaml:"serve"` // expose /api/iot-presign
	Region         string `yaml:"region"`
	IoTEndpoint    string `yaml:"iot_endpoint"`
	ExpiresSeconds int    `yaml:"expires_seconds"`
	ClientIDPrefix string `yaml:"client_id_prefix"`
}

type MTransportConfig struct {
	ProtocolVersion   uint  `yaml:"protocol_version"`
	CleanSession      *bool `yaml:"clean_session"` // nil means true
	ConnectTimeoutMs  int   `yaml:"connect_timeout_ms"`
	ReconnectPeriodMs int   `yaml:"reconnect_period_ms"`
	QoS               byte  `yaml:"qos"`
	EventQueueSize    int   `yaml:"event_queue_size"`
}

// Clean reports whether the broker should start a clean session.
func (t MTransportConfig) Clean() bool {
	return t.CleanSession == nil || *t.CleanSession
}

type MViewerConfig struct {
	Topic           string `yaml:"topic"`
	MaxSeries       int    `yaml:"max_series"`
	MaxPoints       int    `yaml:"max_points"`
	BaselineSamples int    `yaml:"baseline_samples"`
	GainMin         int    `yaml:"gain_min"`
	GainMax         int    `yaml:"gain_max"`
	DefaultMode     string `yaml:"default_mode"`
	DefaultGain     int    `yaml:"default_gain"`
	MessageLogSize  int    `yaml:"message_log_size"`
}

// LogLevelName exposes the configured level to the logger package.
func (c *MConfig) LogLevelName() string {
	if c == nil {
		return ""
	}
	return c.LogLevel
}
