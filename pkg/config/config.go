package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// JWT configuration
	JWT JWTConfig `mapstructure:"jwt"`

	// One-time credential configuration
	OTP OTPConfig `mapstructure:"otp"`

	// Password reset configuration
	PasswordReset PasswordResetConfig `mapstructure:"password_reset"`

	// Outbound mail configuration
	SMTP SMTPConfig `mapstructure:"smtp"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	OpsPort      int    `mapstructure:"ops_port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	AccessTokenTTL int    `mapstructure:"access_token_ttl"`
	Issuer         string `mapstructure:"issuer"`
	Audience       string `mapstructure:"audience"`
	CookieName     string `mapstructure:"cookie_name"`
	CookieSecure   bool   `mapstructure:"cookie_secure"`
}

// OTPConfig holds one-time code configuration
type OTPConfig struct {
	Digits     int `mapstructure:"digits"`
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// PasswordResetConfig holds password reset token configuration
type PasswordResetConfig struct {
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	LinkBase   string `mapstructure:"link_base"`
}

// SMTPConfig holds outbound mail configuration
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	From     string `mapstructure:"from"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Enabled  bool   `mapstructure:"enabled"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	RequestsPerMin  int  `mapstructure:"requests_per_min"`
	BurstSize       int  `mapstructure:"burst_size"`
	CleanupInterval int  `mapstructure:"cleanup_interval"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/medicus")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.ops_port", 9090)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "medicus")
	viper.SetDefault("database.user", "medicus")
	viper.SetDefault("database.ssl_mode", "require")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// JWT defaults
	viper.SetDefault("jwt.access_token_ttl", 3600) // 1 hour
	viper.SetDefault("jwt.issuer", "medicus-api")
	viper.SetDefault("jwt.audience", "medicus-users")
	viper.SetDefault("jwt.cookie_name", "jwt")
	viper.SetDefault("jwt.cookie_secure", false)

	// One-time credential defaults
	viper.SetDefault("otp.digits", 6)
	viper.SetDefault("otp.ttl_seconds", 300)       // 5 minutes
	viper.SetDefault("password_reset.ttl_seconds", 3600) // 1 hour
	viper.SetDefault("password_reset.link_base", "http://localhost:3000/reset-password")

	// SMTP defaults
	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from", "no-reply@medicus.local")
	viper.SetDefault("smtp.enabled", false)

	// Rate limiting defaults
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_min", 100)
	viper.SetDefault("rate_limit.burst_size", 10)
	viper.SetDefault("rate_limit.cleanup_interval", 60)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if jwtSecret := os.Getenv("JWT_SECRET_KEY"); jwtSecret != "" {
		config.JWT.SecretKey = jwtSecret
	}

	if smtpPassword := os.Getenv("SMTP_PASSWORD"); smtpPassword != "" {
		config.SMTP.Password = smtpPassword
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.JWT.SecretKey == "" {
		return fmt.Errorf("JWT secret key is required")
	}

	if config.Database.Password == "" {
		return fmt.Errorf("database password is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.OTP.Digits < 4 || config.OTP.Digits > 10 {
		return fmt.Errorf("invalid otp digits: %d", config.OTP.Digits)
	}

	return nil
}
