package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mind-engage/mindengage-exam/internal/db"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL must be set")

type Config struct {
	Env      string `mapstructure:"env"`
	HTTPAddr string `mapstructure:"http_addr"`
	SiteID   string `mapstructure:"site_id"`

	DBDriver db.Driver `mapstructure:"-"`
	DBDSN    string    `mapstructure:"-"`

	// SessionSecret signs session cookies. When unset a random secret is
	// generated and GeneratedSecret is true: sessions die on restart.
	SessionSecret   []byte        `mapstructure:"-"`
	GeneratedSecret bool          `mapstructure:"-"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`

	// Admin login is disabled unless both are set.
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassHash string `mapstructure:"admin_pass_hash"` // bcrypt

	CORSOrigins     []string `mapstructure:"-"`
	LoginRatePerMin int      `mapstructure:"login_rate_per_min"`

	Log Log `mapstructure:"log"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // empty logs to stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func (c Config) Production() bool { return c.Env == "prod" || c.Env == "production" }

// Load reads ./config/config.yaml when present, then the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("site_id", "local")
	v.SetDefault("session_ttl", "8h")
	v.SetDefault("login_rate_per_min", 20)
	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("db_driver", "DB_DRIVER")
	_ = v.BindEnv("session_secret", "SESSION_SECRET")
	_ = v.BindEnv("admin_user", "ADMIN_USER")
	_ = v.BindEnv("admin_pass_hash", "ADMIN_PASS_HASH")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.file", "LOG_FILE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.DBDSN = v.GetString("database_url")
	if cfg.DBDSN == "" {
		return nil, ErrMissingDatabaseURL
	}
	if d := v.GetString("db_driver"); d != "" {
		cfg.DBDriver = db.Driver(d)
	} else {
		cfg.DBDriver = db.DriverForDSN(cfg.DBDSN)
	}

	if s := v.GetString("session_secret"); s != "" {
		cfg.SessionSecret = []byte(s)
	} else {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
		cfg.GeneratedSecret = true
	}

	cfg.CORSOrigins = splitCSV(v.GetString("cors_origins"))
	if cfg.LoginRatePerMin < 1 {
		cfg.LoginRatePerMin = 1
	}
	return &cfg, nil
}

func randomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return []byte(hex.EncodeToString(b)), nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
