package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Environment string          `yaml:"environment" validate:"oneof=development production test"`
	Server      ServerConfig    `yaml:"server"`
	Discord     DiscordConfig   `yaml:"discord"`
	Sheets      SheetsConfig    `yaml:"sheets"`
	Access      AccessConfig    `yaml:"access"`
	RateLimit   RateLimitConfig `yaml:"rateLimit"`
	Database    DatabaseConfig  `yaml:"database"`
	Logging     LoggingConfig   `yaml:"logging"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	VerifyTimeout   time.Duration `yaml:"verifyTimeout" validate:"gt=0"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes" validate:"gt=0"`
	MetricsPort     int           `yaml:"metricsPort" validate:"min=0,max=65535"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
}

type DiscordConfig struct {
	BotToken       string `yaml:"botToken"`
	PublicKey      string `yaml:"publicKey" validate:"required,hexadecimal,len=64"`
	ApplicationID  string `yaml:"applicationID" validate:"required"`
	MemberPageSize int    `yaml:"memberPageSize" validate:"min=1,max=1000"`
}

type SheetsConfig struct {
	SpreadsheetID       string        `yaml:"spreadsheetID"`
	MembersRange        string        `yaml:"membersRange"`
	RegistrationsRange  string        `yaml:"registrationsRange"`
	ServiceAccountEmail string        `yaml:"serviceAccountEmail"`
	PrivateKey          string        `yaml:"privateKey"`
	Timeout             time.Duration `yaml:"timeout"`
}

// AccessConfig holds the channel and user ids the validation chain checks.
type AccessConfig struct {
	RegisterChannelID string `yaml:"registerChannelID"`
	TestChannelID     string `yaml:"testChannelID"`
	AdminChannelID    string `yaml:"adminChannelID"`
	PrivilegedUserID  string `yaml:"privilegedUserID"`
}

type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Requests    int           `yaml:"requests" validate:"min=1"`
	Window      time.Duration `yaml:"window" validate:"gt=0"`
	MaxKeys     int           `yaml:"maxKeys" validate:"min=1"`
	PruneChance float64       `yaml:"pruneChance" validate:"min=0,max=1"`
}

type DatabaseConfig struct {
	SQLite SQLiteConfig `yaml:"sqlite"`
}

type SQLiteConfig struct {
	Path              string `yaml:"path" validate:"required"`
	MaxOpenConns      int    `yaml:"maxOpenConns"`
	PragmaJournalMode string `yaml:"pragmaJournalMode"`
	PragmaBusyTimeout int    `yaml:"pragmaBusyTimeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
}

// envBindings lists the environment variables that override file values.
// Unset variables leave the file/default value in place.
type envBindings struct {
	Environment         string `envconfig:"ENVIRONMENT"`
	Port                int    `envconfig:"PORT"`
	BotToken            string `envconfig:"DISCORD_TOKEN"`
	PublicKey           string `envconfig:"DISCORD_PUBLIC_KEY"`
	ApplicationID       string `envconfig:"DISCORD_APPLICATION_ID"`
	SpreadsheetID       string `envconfig:"GOOGLE_SHEETS_ID"`
	ServiceAccountEmail string `envconfig:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	PrivateKey          string `envconfig:"GOOGLE_PRIVATE_KEY"`
	RegisterChannelID   string `envconfig:"REGISTER_CHANNEL_ID"`
	TestChannelID       string `envconfig:"TEST_CHANNEL_ID"`
	AdminChannelID      string `envconfig:"ADMIN_CHANNEL_ID"`
	PrivilegedUserID    string `envconfig:"PRIVILEGED_USER_ID"`
	LogLevel            string `envconfig:"LOG_LEVEL"`
	LogFormat           string `envconfig:"LOG_FORMAT"`
	DatabasePath        string `envconfig:"DATABASE_PATH"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// env-only deployments have no file
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvProduction,
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			VerifyTimeout:   2 * time.Second,
			MaxBodyBytes:    1 << 20,
			MetricsPort:     9090,
			AllowedOrigins:  []string{"*"},
		},
		Discord: DiscordConfig{
			MemberPageSize: 1000,
		},
		Sheets: SheetsConfig{
			MembersRange:       "Members!A:D",
			RegistrationsRange: "Registrations!A:F",
			Timeout:            20 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			Requests:    30,
			Window:      time.Minute,
			MaxKeys:     10000,
			PruneChance: 0.01,
		},
		Database: DatabaseConfig{
			SQLite: SQLiteConfig{
				Path:              "/data/sheetbot-audit.db",
				MaxOpenConns:      1,
				PragmaJournalMode: "wal",
				PragmaBusyTimeout: 5000,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "sheetbot",
		},
	}
}

func applyEnv(cfg *Config) error {
	var env envBindings
	if err := envconfig.Process("", &env); err != nil {
		return err
	}

	setString(&cfg.Environment, env.Environment)
	if env.Port != 0 {
		cfg.Server.Port = env.Port
	}
	setString(&cfg.Discord.BotToken, env.BotToken)
	setString(&cfg.Discord.PublicKey, env.PublicKey)
	setString(&cfg.Discord.ApplicationID, env.ApplicationID)
	setString(&cfg.Sheets.SpreadsheetID, env.SpreadsheetID)
	setString(&cfg.Sheets.ServiceAccountEmail, env.ServiceAccountEmail)
	setString(&cfg.Sheets.PrivateKey, env.PrivateKey)
	setString(&cfg.Access.RegisterChannelID, env.RegisterChannelID)
	setString(&cfg.Access.TestChannelID, env.TestChannelID)
	setString(&cfg.Access.AdminChannelID, env.AdminChannelID)
	setString(&cfg.Access.PrivilegedUserID, env.PrivilegedUserID)
	setString(&cfg.Logging.Level, env.LogLevel)
	setString(&cfg.Logging.Format, env.LogFormat)
	setString(&cfg.Database.SQLite.Path, env.DatabasePath)

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// expandEnvVars replaces ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "${" + key + "}"
	})
}

// IsDevelopment reports whether the bot runs against the test channel.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.Environment == EnvDevelopment
}
