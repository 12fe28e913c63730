package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      *DatabaseConfig // Optional: nil disables the generation log
	Providers     ProvidersConfig
	Orchestrator  OrchestratorConfig
	Cache         CacheConfig
	Redis         RedisConfig
	Translation   TranslationConfig
	GenerationLog GenerationLogConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ProvidersConfig holds generation backend configurations
type ProvidersConfig struct {
	OpenAI    ProviderConfig
	Anthropic ProviderConfig
	Gemini    ProviderConfig
	Groq      ProviderConfig
	DeepSeek  ProviderConfig
}

// ProviderConfig holds the settings shared by every generation backend
type ProviderConfig struct {
	Name              string
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	Priority          int
	RequestsPerMinute int      // 0 disables the client-side limiter
	Capabilities      []string // generate, translate
}

// Configured reports whether credentials are present
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}

// All returns every provider config in declaration order
func (p ProvidersConfig) All() []ProviderConfig {
	return []ProviderConfig{p.OpenAI, p.Anthropic, p.Gemini, p.Groq, p.DeepSeek}
}

// OrchestratorConfig holds provider walk settings
type OrchestratorConfig struct {
	MinResponseLength int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	RequestBudget     time.Duration
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	Backend         string // memory or redis
	TTL             time.Duration
	Retention       time.Duration
	Shards          int
	CleanupInterval time.Duration // 0 keeps eviction opportunistic only
}

// RedisConfig holds Redis connection settings for the redis cache backend
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// TranslationConfig holds translation pass settings
type TranslationConfig struct {
	Enabled bool
	Timeout time.Duration
}

// GenerationLogConfig holds settings for the asynchronous generation log
type GenerationLogConfig struct {
	Workers    int
	BufferSize int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel          string
	LogFormat         string // json or text
	TracingEnabled    bool
	TracingSampleRate float64
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxBodyBytes:    int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", 64*1024)),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: loadDatabaseConfig(),
		Providers: ProvidersConfig{
			OpenAI:    loadProviderConfig("openai", "OPENAI", "https://api.openai.com/v1", "gpt-4o-mini", 10),
			Anthropic: loadProviderConfig("anthropic", "ANTHROPIC", "https://api.anthropic.com", "claude-3-5-haiku-latest", 20),
			Gemini:    loadProviderConfig("gemini", "GEMINI", "", "gemini-2.0-flash", 30),
			Groq:      loadProviderConfig("groq", "GROQ", "https://api.groq.com/openai/v1", "llama-3.1-8b-instant", 40),
			DeepSeek:  loadProviderConfig("deepseek", "DEEPSEEK", "https://api.deepseek.com/v1", "deepseek-chat", 50),
		},
		Orchestrator: OrchestratorConfig{
			MinResponseLength: getEnvAsInt("ORCHESTRATOR_MIN_RESPONSE_LENGTH", 200),
			RetryBaseDelay:    getEnvAsDuration("ORCHESTRATOR_RETRY_BASE_DELAY", 500*time.Millisecond),
			RetryMaxDelay:     getEnvAsDuration("ORCHESTRATOR_RETRY_MAX_DELAY", 4*time.Second),
			RequestBudget:     getEnvAsDuration("ORCHESTRATOR_REQUEST_BUDGET", 60*time.Second),
		},
		Cache: CacheConfig{
			Backend:         strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			TTL:             getEnvAsDuration("CACHE_TTL", 30*time.Minute),
			Retention:       getEnvAsDuration("CACHE_RETENTION", 2*time.Hour),
			Shards:          getEnvAsInt("CACHE_SHARDS", 16),
			CleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 0),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "news:"),
		},
		Translation: TranslationConfig{
			Enabled: getEnvAsBool("TRANSLATION_ENABLED", true),
			Timeout: getEnvAsDuration("TRANSLATION_TIMEOUT", 20*time.Second),
		},
		GenerationLog: GenerationLogConfig{
			Workers:    getEnvAsInt("GENERATION_LOG_WORKERS", 2),
			BufferSize: getEnvAsInt("GENERATION_LOG_BUFFER", 1000),
		},
		Observability: ObservabilityConfig{
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			LogFormat:         getEnv("LOG_FORMAT", "json"),
			TracingEnabled:    getEnvAsBool("TRACING_ENABLED", false),
			TracingSampleRate: getEnvAsFloat("TRACING_SAMPLE_RATE", 1.0),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database != nil && c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	for _, p := range c.Providers.All() {
		if p.Timeout <= 0 {
			return fmt.Errorf("%s timeout must be positive", p.Name)
		}
		if p.MaxRetries < 0 {
			return fmt.Errorf("%s max retries cannot be negative", p.Name)
		}
	}

	if c.Orchestrator.MinResponseLength <= 0 {
		return fmt.Errorf("minimum response length must be positive")
	}
	if c.Orchestrator.RequestBudget <= 0 {
		return fmt.Errorf("request budget must be positive")
	}
	if c.Translation.Enabled && c.Translation.Timeout <= 0 {
		return fmt.Errorf("translation timeout must be positive")
	}
	if c.Server.WriteTimeout > 0 && c.HandlerTimeout() >= c.Server.WriteTimeout {
		return fmt.Errorf("request budget plus translation timeout (%s) must be shorter than server write timeout (%s)",
			c.HandlerTimeout(), c.Server.WriteTimeout)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Cache.Retention < c.Cache.TTL {
		return fmt.Errorf("cache retention (%s) must not be shorter than TTL (%s)", c.Cache.Retention, c.Cache.TTL)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// HandlerTimeout is the longest a news request can take: the provider
// walk budget plus the translation pass
func (c *Config) HandlerTimeout() time.Duration {
	d := c.Orchestrator.RequestBudget
	if c.Translation.Enabled {
		d += c.Translation.Timeout
	}
	return d
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars.
// Returns nil when neither is set.
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return &DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	if getEnv("DB_HOST", "") == "" {
		return nil
	}
	return &DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "news"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "news"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// loadProviderConfig reads the <PREFIX>_* variables for one backend
func loadProviderConfig(name, prefix, baseURL, model string, priority int) ProviderConfig {
	return ProviderConfig{
		Name:              name,
		APIKey:            getEnv(prefix+"_API_KEY", ""),
		BaseURL:           getEnv(prefix+"_BASE_URL", baseURL),
		Model:             getEnv(prefix+"_MODEL", model),
		Timeout:           getEnvAsDuration(prefix+"_TIMEOUT", 15*time.Second),
		MaxRetries:        getEnvAsInt(prefix+"_MAX_RETRIES", 1),
		Priority:          getEnvAsInt(prefix+"_PRIORITY", priority),
		RequestsPerMinute: getEnvAsInt(prefix+"_RPM", 0),
		Capabilities:      getEnvAsList(prefix+"_CAPABILITIES", []string{"generate", "translate"}),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
