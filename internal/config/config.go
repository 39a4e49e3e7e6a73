package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the immutable runtime configuration, loaded once from the
// environment at startup.
type Config struct {
	HTTP          HTTPConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Verification  VerificationConfig
	Providers     ProvidersConfig
	SMTP          SMTPConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
}

type HTTPConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	MaxBodyBytes    int64
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret    string
	Issuer    string
	Audience  string
	AccessTTL time.Duration
}

type PasswordConfig struct {
	BcryptCost int
}

type VerificationConfig struct {
	CodeTTL         time.Duration
	CleanupInterval time.Duration
}

type ProvidersConfig struct {
	GoogleClientID      string
	LinkedInClientID    string
	LinkedInSecret      string
	LinkedInRedirectURL string
	FacebookEnabled     bool
	TwitterEnabled      bool
	PlaceholderDomain   string
	HTTPTimeout         time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	Window            time.Duration
	FailOpen          bool
}

type ObservabilityConfig struct {
	ServiceName           string
	Environment           string
	OTLPEndpoint          string
	OTLPInsecure          bool
	MetricsEnabled        bool
	MetricsExportInterval time.Duration
	TracingEnabled        bool
	TraceSamplingRatio    float64
	LogsEnabled           bool
	LogLevel              string
}

// Load reads configuration from the environment, applying defaults for
// everything optional. Call Validate before use.
func Load() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:            getEnvInt("HTTP_PORT", 8080),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
			AllowedOrigins:  splitCSV(getEnv("HTTP_ALLOWED_ORIGINS", "")),
			MaxBodyBytes:    int64(getEnvInt("HTTP_MAX_BODY_BYTES", 1<<20)),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "careerconnect"),
			Audience:  getEnv("JWT_AUDIENCE", "careerconnect-api"),
			AccessTTL: getEnvDuration("JWT_ACCESS_TTL", 24*time.Hour),
		},
		Password: PasswordConfig{
			BcryptCost: getEnvInt("PASSWORD_BCRYPT_COST", 10),
		},
		Verification: VerificationConfig{
			CodeTTL:         getEnvDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
			CleanupInterval: getEnvDuration("VERIFICATION_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Providers: ProvidersConfig{
			GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
			LinkedInClientID:    getEnv("LINKEDIN_CLIENT_ID", ""),
			LinkedInSecret:      getEnv("LINKEDIN_CLIENT_SECRET", ""),
			LinkedInRedirectURL: getEnv("LINKEDIN_REDIRECT_URL", ""),
			FacebookEnabled:     getEnvBool("FACEBOOK_LOGIN_ENABLED", true),
			TwitterEnabled:      getEnvBool("TWITTER_LOGIN_ENABLED", true),
			PlaceholderDomain:   getEnv("EMAIL_PLACEHOLDER_DOMAIN", "careerconnect.temp"),
			HTTPTimeout:         getEnvDuration("PROVIDER_HTTP_TIMEOUT", 15*time.Second),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 20),
			Window:            getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			FailOpen:          getEnvBool("RATE_LIMIT_FAIL_OPEN", true),
		},
		Observability: ObservabilityConfig{
			ServiceName:           getEnv("OTEL_SERVICE_NAME", "careerconnect-api"),
			Environment:           getEnv("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			OTLPInsecure:          getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			MetricsEnabled:        getEnvBool("OTEL_METRICS_ENABLED", false),
			MetricsExportInterval: getEnvDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second),
			TracingEnabled:        getEnvBool("OTEL_TRACING_ENABLED", false),
			TraceSamplingRatio:    getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
			LogsEnabled:           getEnvBool("OTEL_LOGS_ENABLED", false),
			LogLevel:              getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Validate checks the loaded configuration and reports every problem at
// once rather than failing on the first.
func (c *Config) Validate() error {
	var errs []string

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("HTTP_PORT must be in [1, 65535], got %d", c.HTTP.Port))
	}
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(c.JWT.Secret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		errs = append(errs, "JWT_ACCESS_TTL must be positive")
	}
	if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
		errs = append(errs, fmt.Sprintf("PASSWORD_BCRYPT_COST must be in [4, 31], got %d", c.Password.BcryptCost))
	}
	if c.Verification.CodeTTL <= 0 {
		errs = append(errs, "VERIFICATION_CODE_TTL must be positive")
	}
	if c.Verification.CleanupInterval <= 0 {
		errs = append(errs, "VERIFICATION_CLEANUP_INTERVAL must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerWindow < 1 {
		errs = append(errs, "RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, "SMTP_FROM is required when SMTP_HOST is set")
	}
	if c.Providers.LinkedInClientID != "" && c.Providers.LinkedInSecret == "" {
		errs = append(errs, "LINKEDIN_CLIENT_SECRET is required when LINKEDIN_CLIENT_ID is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
