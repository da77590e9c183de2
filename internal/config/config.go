package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Database  DatabaseConfig  `yaml:"database"`
	Mail      MailConfig      `yaml:"mail"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Weather   WeatherConfig   `yaml:"weather"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AuthConfig enables bearer token authentication. Without a secret the API
// trusts the gateway-provided user id header.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// MailConfig selects the delivery transport
type MailConfig struct {
	Transport string `yaml:"transport"` // "smtp", "sendgrid" or "sandbox"
	From      string `yaml:"from"`
	FromName  string `yaml:"from_name"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type SendGridConfig struct {
	APIKey string `yaml:"api_key"`
}

// WeatherConfig contains forecast provider settings. An empty APIKey turns
// the provider into an always-empty source.
type WeatherConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// RedisConfig is optional; without an address job leases are process-local
// and forecasts are not cached.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RabbitMQConfig is optional; without a URL integration events are dropped.
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type MetricsConfig struct {
	Address string `yaml:"address"`
}

// DispatchConfig controls the notification outbox worker
type DispatchConfig struct {
	BatchSize         int           `yaml:"batch_size"`
	Workers           int           `yaml:"workers"`
	MaxAttempts       int           `yaml:"max_attempts"`
	VisibilityTimeout time.Duration `yaml:"visibility_timeout"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings (seconds precision)
type SchedulerConfig struct {
	AdvanceTourStatuses   string        `yaml:"advance_tour_statuses"`
	RefreshWeather        string        `yaml:"refresh_weather"`
	SendTourReminders     string        `yaml:"send_tour_reminders"`
	DispatchNotifications string        `yaml:"dispatch_notifications"`
	LeaseTTL              time.Duration `yaml:"lease_ttl"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Auth.JWTSecret = val
	}

	// Mail
	if val := os.Getenv("MAIL_TRANSPORT"); val != "" {
		c.Mail.Transport = val
	}
	if val := os.Getenv("MAIL_FROM"); val != "" {
		c.Mail.From = val
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}

	// Weather
	if val := os.Getenv("OPENWEATHER_API_KEY"); val != "" {
		c.Weather.APIKey = val
	}

	// Redis / RabbitMQ
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("RABBITMQ_URL"); val != "" {
		c.RabbitMQ.URL = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = time.Hour
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Mail.Transport == "" {
		c.Mail.Transport = "sandbox"
	}
	switch c.Mail.Transport {
	case "sandbox":
	case "smtp":
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
		}
	case "sendgrid":
		if c.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
	default:
		return fmt.Errorf("unknown mail transport: %s", c.Mail.Transport)
	}
	if c.Mail.From == "" {
		return fmt.Errorf("mail from address is required")
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Tour Booking"
	}

	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.openweathermap.org"
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = 10 * time.Second
	}

	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "tours"
	}

	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9102"
	}

	if c.Dispatch.BatchSize <= 0 {
		c.Dispatch.BatchSize = 50
	}
	if c.Dispatch.Workers <= 0 {
		c.Dispatch.Workers = 4
	}
	if c.Dispatch.MaxAttempts <= 0 {
		c.Dispatch.MaxAttempts = 5
	}
	if c.Dispatch.VisibilityTimeout == 0 {
		c.Dispatch.VisibilityTimeout = 5 * time.Minute
	}

	if c.Scheduler.AdvanceTourStatuses == "" {
		c.Scheduler.AdvanceTourStatuses = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.RefreshWeather == "" {
		c.Scheduler.RefreshWeather = "0 0 */3 * * *" // every 3 hours
	}
	if c.Scheduler.SendTourReminders == "" {
		c.Scheduler.SendTourReminders = "0 0 * * * *" // hourly, matches the 1h reminder windows
	}
	if c.Scheduler.DispatchNotifications == "" {
		c.Scheduler.DispatchNotifications = "*/30 * * * * *" // every 30 seconds
	}
	if c.Scheduler.LeaseTTL == 0 {
		c.Scheduler.LeaseTTL = 10 * time.Minute
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP API address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
