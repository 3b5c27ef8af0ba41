package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds the configuration for the Simmer server and its dependencies.
type Config struct {
	// Listen is the address the Simmer server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the base URL of the Simmer server, used in notification links.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to encrypt session data.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// LogLevel is the log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Digest holds the like digest job configuration.
	Digest *DigestConfig `yaml:"digest" mapstructure:"digest"`
	// Queue holds the delivery queue configuration.
	Queue *QueueConfig `yaml:"queue" mapstructure:"queue"`
	// Email holds the email notification configuration.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// WebPush holds the webpush notification configuration.
	WebPush *WebPushConfig `yaml:"webpush" mapstructure:"webpush"`
	// Cache holds the feed cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the directory where the sqlite database file is stored.
	Path string `yaml:"path" mapstructure:"path"`
}

// DigestConfig holds the configuration for the periodic like digest job.
type DigestConfig struct {
	// JobName is the stable identifier the persisted schedule is bound to.
	// Changing it orphans the previous schedule record, so leave it alone.
	JobName string `yaml:"job_name" mapstructure:"job_name"`
	// Subject is the subject line of the digest email.
	Subject string `yaml:"subject" mapstructure:"subject"`
	// WindowHours is the trailing window in hours over which likes are counted.
	WindowHours int `yaml:"window_hours" mapstructure:"window_hours"`
	// BatchSize is the number of users loaded per batch during aggregation.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	// Schedule defines when the digest job runs.
	Schedule *ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
}

// ScheduleConfig defines a recurring trigger, either cron-style or interval-style.
type ScheduleConfig struct {
	// Kind selects the schedule shape, either "cron" or "interval".
	Kind string `yaml:"kind" mapstructure:"kind"`
	// Minute is the cron minute field.
	Minute string `yaml:"minute" mapstructure:"minute"`
	// Hour is the cron hour field.
	Hour string `yaml:"hour" mapstructure:"hour"`
	// DayOfWeek is the cron day-of-week field.
	DayOfWeek string `yaml:"day_of_week" mapstructure:"day_of_week"`
	// DayOfMonth is the cron day-of-month field.
	DayOfMonth string `yaml:"day_of_month" mapstructure:"day_of_month"`
	// MonthOfYear is the cron month field.
	MonthOfYear string `yaml:"month_of_year" mapstructure:"month_of_year"`
	// Timezone is the IANA timezone the cron fields are evaluated in.
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
	// Every is the interval count for interval-style schedules.
	Every int `yaml:"every" mapstructure:"every"`
	// Period is the interval unit for interval-style schedules ("hours" or "days").
	Period string `yaml:"period" mapstructure:"period"`
}

// QueueConfig holds the configuration for the delivery work queue.
type QueueConfig struct {
	// Workers is the number of concurrent delivery workers.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// Buffer is the size of the pending task buffer.
	Buffer int `yaml:"buffer" mapstructure:"buffer"`
}

// EmailConfig holds the email notification configuration.
type EmailConfig struct {
	// Enabled indicates whether email notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which notifications are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which notifications are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// UseTLS indicates whether to use STARTTLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use implicit SSL for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// WebPushConfig holds the webpush notification configuration.
type WebPushConfig struct {
	// Enabled indicates whether webpush notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// VAPIDEmail is the email associated with the VAPID keys.
	VAPIDEmail string `yaml:"vapid_email" mapstructure:"vapid_email"`
	// PublicKey is the VAPID public key.
	PublicKey string `yaml:"public_key" mapstructure:"public_key"`
	// PrivateKey is the VAPID private key.
	PrivateKey string `yaml:"private_key" mapstructure:"private_key"`
}

// CacheConfig holds the feed cache configuration.
type CacheConfig struct {
	// Type is the cache backend, either "memory" or "redis".
	Type string `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the redis server when Type is "redis".
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTLSeconds is the lifetime of cached feed entries in seconds.
	TTLSeconds int `yaml:"ttl_seconds" mapstructure:"ttl_seconds"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar avatars are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the fallback image when no Gravatar exists.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images ("g", "pg", "r", "x").
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("SIMMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.simmer")
		v.AddConfigPath("/etc/simmer")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3002")
	v.SetDefault("server_url", "http://localhost:3002")
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("log_level", "info")

	v.SetDefault("database.path", "./data")

	v.SetDefault("digest.job_name", "daily-like-digest")
	v.SetDefault("digest.subject", "Daily Likes Notification")
	v.SetDefault("digest.window_hours", 24)
	v.SetDefault("digest.batch_size", 200)
	v.SetDefault("digest.schedule.kind", "cron")
	v.SetDefault("digest.schedule.minute", "0")
	v.SetDefault("digest.schedule.hour", "8")
	v.SetDefault("digest.schedule.day_of_week", "*")
	v.SetDefault("digest.schedule.day_of_month", "*")
	v.SetDefault("digest.schedule.month_of_year", "*")
	v.SetDefault("digest.schedule.timezone", "UTC")
	v.SetDefault("digest.schedule.every", 1)
	v.SetDefault("digest.schedule.period", "days")

	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.buffer", 256)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from_name", "Simmer")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)

	v.SetDefault("webpush.enabled", false)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl_seconds", 300)

	v.SetDefault("gravatar.enabled", true)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing simmer config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("missing session_key")
	}

	if c.Digest == nil || c.Digest.Schedule == nil {
		return fmt.Errorf("missing digest config")
	}
	switch c.Digest.Schedule.Kind {
	case "cron":
	case "interval":
		if c.Digest.Schedule.Every <= 0 {
			return fmt.Errorf("digest.schedule.every must be positive")
		}
		switch c.Digest.Schedule.Period {
		case "hours", "days":
		default:
			return fmt.Errorf("invalid digest.schedule.period %q, must be hours or days", c.Digest.Schedule.Period)
		}
	default:
		return fmt.Errorf("invalid digest.schedule.kind %q, must be cron or interval", c.Digest.Schedule.Kind)
	}
	if c.Digest.WindowHours <= 0 {
		return fmt.Errorf("digest.window_hours must be positive")
	}

	if c.Queue == nil || c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("missing email.smtp_host")
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("missing email.from_email")
		}
	}

	if c.WebPush != nil && c.WebPush.Enabled {
		if c.WebPush.PublicKey == "" || c.WebPush.PrivateKey == "" {
			return fmt.Errorf("webpush requires a VAPID key pair, run `simmer generate-vapid-keys`")
		}
	}

	if c.Cache != nil && c.Cache.Type == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("missing cache.redis_url")
	}

	return nil
}
