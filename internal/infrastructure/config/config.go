package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for every environment variable override.
const EnvPrefix = "AWESOMATION"

// Config is the root configuration structure for the hub.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hub       HubConfig       `yaml:"hub"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Push      PushConfig      `yaml:"push"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Hue       HueConfig       `yaml:"hue"`
	Accounts  AccountsConfig  `yaml:"accounts"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// HubConfig identifies this hub instance.
type HubConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode" envconfig:"WAL_MODE"`
	BusyTimeout int    `yaml:"busy_timeout" envconfig:"BUSY_TIMEOUT"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id" envconfig:"CLIENT_ID"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay" envconfig:"INITIAL_DELAY"`
	MaxDelay     int `yaml:"max_delay" envconfig:"MAX_DELAY"`
	MaxAttempts  int `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file" envconfig:"CERT_FILE"`
	KeyFile  string `yaml:"key_file" envconfig:"KEY_FILE"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size" envconfig:"MAX_MESSAGE_SIZE"`
	PingInterval   int    `yaml:"ping_interval" envconfig:"PING_INTERVAL"`
	PongTimeout    int    `yaml:"pong_timeout" envconfig:"PONG_TIMEOUT"`
	TicketTTL      int    `yaml:"ticket_ttl" envconfig:"TICKET_TTL"`
}

// PushConfig contains realtime fanout settings.
type PushConfig struct {
	// MaxBatchSize bounds the serialised size of one delivery, in bytes.
	MaxBatchSize int `yaml:"max_batch_size" envconfig:"MAX_BATCH_SIZE"`

	// AppKey and Secret sign private channel grants.
	AppKey string `yaml:"app_key" envconfig:"APP_KEY"`
	Secret string `yaml:"secret"`

	// SSE enables the server-sent events publisher alongside the websocket hub.
	SSE bool `yaml:"sse"`
}

// ProxyConfig contains settings for the mesh proxy link.
type ProxyConfig struct {
	// TopicPrefix is the MQTT prefix shared with the proxy.
	TopicPrefix string `yaml:"topic_prefix" envconfig:"TOPIC_PREFIX"`

	// CommandTimeout bounds a single mesh command publish, in seconds.
	CommandTimeout int `yaml:"command_timeout" envconfig:"COMMAND_TIMEOUT"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size" envconfig:"BATCH_SIZE"`
	FlushInterval int    `yaml:"flush_interval" envconfig:"FLUSH_INTERVAL"`
}

// HueConfig contains Philips Hue bridge settings used for room lighting.
type HueConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	User    string `yaml:"user"`
	Timeout int    `yaml:"timeout"`
}

// AccountsConfig contains the third-party account types the hub can link.
type AccountsConfig struct {
	// Timeout bounds each token exchange or discovery call, in seconds.
	Timeout int               `yaml:"timeout"`
	Nest    AccountTypeConfig `yaml:"nest"`
}

// AccountTypeConfig holds the OAuth2 client settings for one account type.
type AccountTypeConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id" envconfig:"CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" envconfig:"CLIENT_SECRET"`
	AuthURL      string   `yaml:"auth_url" envconfig:"AUTH_URL"`
	TokenURL     string   `yaml:"token_url" envconfig:"TOKEN_URL"`
	APIURL       string   `yaml:"api_url" envconfig:"API_URL"`
	Scopes       []string `yaml:"scopes"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains identity token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	Issuer         string `yaml:"issuer"`
	AccessTokenTTL int    `yaml:"access_token_ttl" envconfig:"ACCESS_TOKEN_TTL"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: AWESOMATION_SECTION_KEY
// For example: AWESOMATION_DATABASE_PATH, AWESOMATION_ACCOUNTS_NEST_CLIENT_SECRET
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			Name:    "Awesomation",
			BaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Path:        "./data/awesomation.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "awesomation-hub",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
			TicketTTL:      60,
		},
		Push: PushConfig{
			MaxBatchSize: 8000,
		},
		Proxy: ProxyConfig{
			TopicPrefix:    "awesomation",
			CommandTimeout: 5,
		},
		Hue: HueConfig{
			Timeout: 5,
		},
		Accounts: AccountsConfig{
			Timeout: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				Issuer:         "awesomation",
				AccessTokenTTL: 15,
			},
		},
	}
}

// applyEnvOverrides overlays AWESOMATION_* environment variables onto cfg.
// Unset variables leave the file value untouched.
func applyEnvOverrides(cfg *Config) error {
	return envconfig.Process(EnvPrefix, cfg)
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Push.MaxBatchSize < 2 {
		errs = append(errs, "push.max_batch_size must be at least 2")
	}

	if c.Proxy.TopicPrefix == "" {
		errs = append(errs, "proxy.topic_prefix is required")
	}

	if c.Hue.Enabled && (c.Hue.Host == "" || c.Hue.User == "") {
		errs = append(errs, "hue.host and hue.user are required when hue is enabled")
	}

	if n := c.Accounts.Nest; n.Enabled {
		if n.ClientID == "" || n.AuthURL == "" || n.TokenURL == "" {
			errs = append(errs, "accounts.nest requires client_id, auth_url and token_url")
		}
	}

	// Identity tokens gate access to physical devices; refuse weak secrets.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set AWESOMATION_SECURITY_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// RedirectURL is the OAuth callback address registered with account providers.
func (c *Config) RedirectURL() string {
	return strings.TrimRight(c.Hub.BaseURL, "/") + "/api/v1/account/redirect"
}
