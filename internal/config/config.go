package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.json"

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config" yaml:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases" yaml:"databases"`
	Redis       RedisConfig               `json:"redis" yaml:"redis"`
	Providers   map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Gateway     GatewayConfig             `json:"gateway" yaml:"gateway"`
	Auth        AuthConfig                `json:"auth" yaml:"auth"`
	CORS        CORSConfig                `json:"cors" yaml:"cors"`
}

type BasicConfig struct {
	Env             string `json:"env" yaml:"env"`
	ServerAddress   string `json:"server_address" yaml:"server_address"`
	DBType          string `json:"db_type" yaml:"db_type"`
	ShutdownTimeout int    `json:"shutdown_timeout" yaml:"shutdown_timeout"` // seconds
}

// DatabaseConfig describes one driver entry. sqlite uses DSN; mysql and postgres
// use either DSN or the discrete fields.
type DatabaseConfig struct {
	DSN      string `json:"dsn" yaml:"dsn"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"db_name" yaml:"db_name"`
	Params   string `json:"params" yaml:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

// GatewayConfig selects the LLM provider used for interviews.
type GatewayConfig struct {
	Provider    string `json:"provider" yaml:"provider"`
	Timeout     int    `json:"timeout" yaml:"timeout"` // seconds
	MaxAttempts int    `json:"max_attempts" yaml:"max_attempts"`
}

type AuthConfig struct {
	TokenTTL int  `json:"token_ttl" yaml:"token_ttl"` // minutes
	CSRF     bool `json:"csrf" yaml:"csrf"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// envOverrides lists the environment variables that take precedence over the file.
type envOverrides struct {
	Env             string `envconfig:"APP_ENV"`
	ServerAddress   string `envconfig:"INTERVIEW_ADDR"`
	DBType          string `envconfig:"INTERVIEW_DB"`
	DSN             string `envconfig:"INTERVIEW_DB_DSN"`
	Provider        string `envconfig:"INTERVIEW_LLM_PROVIDER"`
	Model           string `envconfig:"INTERVIEW_LLM_MODEL"`
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	RedisAddr       string `envconfig:"REDIS_ADDR"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	CSRF            *bool  `envconfig:"INTERVIEW_CSRF"`
}

var (
	supportedDrivers   = []string{"sqlite3", "mysql", "postgres"}
	supportedProviders = []string{"gemini", "openai", "claude"}
	defaultModels      = map[string]string{
		"gemini": "gemini-1.5-flash",
		"openai": "gpt-4o-mini",
		"claude": "claude-3-5-haiku-latest",
	}
)

// Load reads configuration from the provided path (defaults to config.json), then applies
// .env and environment overrides. A missing default file yields a default configuration.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(absPath)
	switch {
	case err == nil:
		if err := decode(absPath, data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if dbCfg, ok := cfg.Databases["sqlite3"]; ok && dbCfg.DSN != "" && dbCfg.DSN != ":memory:" &&
		!strings.HasPrefix(dbCfg.DSN, "file:") && !filepath.IsAbs(dbCfg.DSN) {
		dbCfg.DSN = filepath.Join(filepath.Dir(absPath), dbCfg.DSN)
		cfg.Databases["sqlite3"] = dbCfg
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("process env: %w", err)
	}
	if env.Env != "" {
		c.BasicConfig.Env = env.Env
	}
	if env.ServerAddress != "" {
		c.BasicConfig.ServerAddress = env.ServerAddress
	}
	if env.DBType != "" {
		c.BasicConfig.DBType = env.DBType
	}
	if env.DSN != "" {
		driver := c.driver()
		if c.Databases == nil {
			c.Databases = make(map[string]DatabaseConfig)
		}
		dbCfg := c.Databases[driver]
		dbCfg.DSN = env.DSN
		c.Databases[driver] = dbCfg
	}
	if env.Provider != "" {
		c.Gateway.Provider = env.Provider
	}
	for provider, key := range map[string]string{
		"gemini": env.GeminiAPIKey,
		"openai": env.OpenAIAPIKey,
		"claude": env.AnthropicAPIKey,
	} {
		if key == "" {
			continue
		}
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderConfig)
		}
		p := c.Providers[provider]
		p.APIKey = key
		c.Providers[provider] = p
	}
	if env.Model != "" {
		provider := c.provider()
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderConfig)
		}
		p := c.Providers[provider]
		p.Model = env.Model
		c.Providers[provider] = p
	}
	if env.RedisAddr != "" {
		host, port, err := splitHostPort(env.RedisAddr)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		c.Redis.Enabled = true
		c.Redis.Host = host
		c.Redis.Port = port
	}
	if env.RedisPassword != "" {
		c.Redis.Password = env.RedisPassword
	}
	if env.CSRF != nil {
		c.Auth.CSRF = *env.CSRF
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.Env == "" {
		c.BasicConfig.Env = "development"
	}
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":3000"
	}
	if c.BasicConfig.DBType == "" {
		c.BasicConfig.DBType = "sqlite3"
	}
	if c.BasicConfig.ShutdownTimeout <= 0 {
		c.BasicConfig.ShutdownTimeout = 10
	}
	if c.Databases == nil {
		c.Databases = make(map[string]DatabaseConfig)
	}
	if _, ok := c.Databases["sqlite3"]; !ok && c.driver() == "sqlite3" {
		c.Databases["sqlite3"] = DatabaseConfig{DSN: "interview.db"}
	}
	if c.Gateway.Provider == "" {
		c.Gateway.Provider = "gemini"
	}
	if c.Gateway.Timeout <= 0 {
		c.Gateway.Timeout = 30
	}
	if c.Gateway.MaxAttempts <= 0 {
		c.Gateway.MaxAttempts = 2
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	for name, model := range defaultModels {
		p := c.Providers[name]
		if p.Model == "" {
			p.Model = model
		}
		c.Providers[name] = p
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * 60
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if !contains(supportedDrivers, c.driver()) {
		return fmt.Errorf("unsupported db_type %q (must be one of: %s)", c.BasicConfig.DBType, strings.Join(supportedDrivers, ", "))
	}
	if _, ok := c.Databases[c.driver()]; !ok {
		return fmt.Errorf("database config for %s not found", c.driver())
	}
	if !contains(supportedProviders, c.provider()) {
		return fmt.Errorf("unsupported gateway provider %q (must be one of: %s)", c.Gateway.Provider, strings.Join(supportedProviders, ", "))
	}
	if c.Redis.Enabled && (c.Redis.Port < 0 || c.Redis.Port > 65535) {
		return fmt.Errorf("invalid redis port: %d", c.Redis.Port)
	}
	return nil
}

// Driver returns the normalized database driver name.
func (c *Config) Driver() string {
	return c.driver()
}

func (c *Config) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.BasicConfig.DBType))
	switch d {
	case "", "sqlite", "sqlite3":
		return "sqlite3"
	case "postgresql", "pgx":
		return "postgres"
	}
	return d
}

func (c *Config) provider() string {
	return strings.ToLower(strings.TrimSpace(c.Gateway.Provider))
}

// ActiveProvider returns the gateway provider name and its settings.
func (c *Config) ActiveProvider() (string, ProviderConfig) {
	name := c.provider()
	return name, c.Providers[name]
}

// TokenTTL reports the auth token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Minute
}

// GatewayTimeout reports the per-call LLM timeout.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeout) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.BasicConfig.ShutdownTimeout) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.BasicConfig.Env == "development"
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, found := strings.Cut(addr, ":")
	if !found {
		return addr, 6379, nil
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}
