package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig     `yaml:"databaseConfig"`
	RedisConfig    RedisConfig        `yaml:"redisConfig"`
	ServerAddr     string             `yaml:"serverAddr"`
	S3Config       S3Config           `yaml:"s3Config"`
	JWT            JWTConfig          `yaml:"jwt"`
	Security       SecurityConfig     `yaml:"security"`
	External       ExternalAuthConfig `yaml:"external"`
	Cleanup        CleanupConfig      `yaml:"cleanup"`
	Archive        ArchiveConfig      `yaml:"archive"`
	Log            LogConfig          `yaml:"log"`
}

// LoadConfig читает yaml, подставляя ${VAR} из окружения, чтобы секреты не лежали в файле
func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseConfig(file)
}

func ParseConfig(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.JWT.AccessTokenTTL == "" {
		c.JWT.AccessTokenTTL = "15m"
	}
	if c.JWT.RefreshTokenTTL == "" {
		c.JWT.RefreshTokenTTL = "720h"
	}
	if c.Security.BlacklistCacheTTL == "" {
		c.Security.BlacklistCacheTTL = "5s"
	}
	if c.Security.BlacklistCheckTimeout == "" {
		c.Security.BlacklistCheckTimeout = "300ms"
	}
	if c.Security.LoginRateWindow == "" {
		c.Security.LoginRateWindow = "1m"
	}
	if c.Security.LoginRateLimit == 0 {
		c.Security.LoginRateLimit = 20
	}
	if c.Security.FailureWindowMinutes == 0 {
		c.Security.FailureWindowMinutes = 15
	}
	if c.Security.MaxFailuresPerIP == 0 {
		c.Security.MaxFailuresPerIP = 10
	}
	if c.Security.SuspiciousFailedLogins == 0 {
		c.Security.SuspiciousFailedLogins = 5
	}
	if c.Security.SuspiciousLookbackEvents == 0 {
		c.Security.SuspiciousLookbackEvents = 10
	}
	if c.Security.SuspiciousWindow == "" {
		c.Security.SuspiciousWindow = "1h"
	}
	if c.Security.SessionLookback == "" {
		c.Security.SessionLookback = "720h"
	}
	if c.Security.SessionSuspicionScore == 0 {
		c.Security.SessionSuspicionScore = 0.7
	}
	if c.Security.ReuseRevokeRetries == 0 {
		c.Security.ReuseRevokeRetries = 3
	}
	if c.External.CookieName == "" {
		c.External.CookieName = "idp_session"
	}
	if c.Cleanup.Interval == "" {
		c.Cleanup.Interval = "1h"
	}
	if c.Archive.RetentionDays == 0 {
		c.Archive.RetentionDays = 90
	}
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = 1000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate : проверяет секреты и длительности до старта сервера
func (c *AppConfig) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt.access_secret и jwt.refresh_secret обязательны")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("секреты access и refresh токенов должны различаться")
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		return errors.New("jwt.issuer и jwt.audience обязательны")
	}

	durations := map[string]string{
		"jwt.access_token_ttl":             c.JWT.AccessTokenTTL,
		"jwt.refresh_token_ttl":            c.JWT.RefreshTokenTTL,
		"security.blacklist_cache_ttl":     c.Security.BlacklistCacheTTL,
		"security.blacklist_check_timeout": c.Security.BlacklistCheckTimeout,
		"security.login_rate_window":       c.Security.LoginRateWindow,
		"security.suspicious_window":       c.Security.SuspiciousWindow,
		"security.session_lookback":        c.Security.SessionLookback,
		"cleanup.interval":                 c.Cleanup.Interval,
	}
	for name, value := range durations {
		if _, err := Duration(value, 0); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Archive.Enabled {
		if c.S3Config.Bucket == "" {
			return errors.New("archive.enabled требует s3Config.bucket")
		}
		// локальный S3 только с явными ключами
		if c.S3Config.Local && (c.S3Config.AccessKey == "" || c.S3Config.SecretKey == "") {
			return errors.New("archive.enabled с s3Config.local требует access_key и secret_key")
		}
	}

	return nil
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupDatabase(cfg *DatabaseConfig) (*Database, error) {
	return NewDatabaseConnection("postgres", cfg)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
