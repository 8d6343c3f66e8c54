package config

import (
	"fmt"
	"time"
)

type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Local     bool   `yaml:"local"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// JWTConfig : секреты подписи раздельные для access и refresh токенов
type JWTConfig struct {
	AccessSecret    string `yaml:"access_secret"`
	RefreshSecret   string `yaml:"refresh_secret"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
	Issuer          string `yaml:"issuer"`
	Audience        string `yaml:"audience"`
}

type SecurityConfig struct {
	BlacklistCacheTTL        string  `yaml:"blacklist_cache_ttl"`
	BlacklistCheckTimeout    string  `yaml:"blacklist_check_timeout"`
	LoginRateLimit           int     `yaml:"login_rate_limit"`
	LoginRateWindow          string  `yaml:"login_rate_window"`
	FailureWindowMinutes     int     `yaml:"failure_window_minutes"`
	MaxFailuresPerIP         int     `yaml:"max_failures_per_ip"`
	SuspiciousFailedLogins   int     `yaml:"suspicious_failed_logins"`
	SuspiciousLookbackEvents int     `yaml:"suspicious_lookback_events"`
	SuspiciousWindow         string  `yaml:"suspicious_window"`
	SessionLookback          string  `yaml:"session_lookback"`
	SessionSuspicionScore    float64 `yaml:"session_suspicion_score"`
	ReuseRevokeRetries       int     `yaml:"reuse_revoke_retries"`
}

type ExternalAuthConfig struct {
	CookieName string `yaml:"cookie_name"`
}

type CleanupConfig struct {
	Interval string `yaml:"interval"`
}

type ArchiveConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
	BatchSize     int  `yaml:"batch_size"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
}

// Duration : парсит строку вида "15m", пустая строка даёт fallback
func Duration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность %q: %w", value, err)
	}
	return d, nil
}
