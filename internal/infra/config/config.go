package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	OTP       OTPSettings       `mapstructure:"otp"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Device    DeviceSettings    `mapstructure:"device"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection used by transport rate limiting.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the security-event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// OTPSettings governs challenge generation and validation.
type OTPSettings struct {
	CodeLength     int           `mapstructure:"code_length"`
	Expiry         time.Duration `mapstructure:"expiry"`
	ResendCooldown time.Duration `mapstructure:"resend_cooldown"`
	MaxPerHour     int           `mapstructure:"max_per_hour"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
}

// JWTSettings governs access and refresh token issuance.
type JWTSettings struct {
	Secret          string        `mapstructure:"secret"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// DeviceSettings governs the device trust layer.
type DeviceSettings struct {
	SlidingExpiry time.Duration `mapstructure:"sliding_expiry"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RateLimitSettings configures per-client-IP sliding windows at the transport edge.
type RateLimitSettings struct {
	WindowDuration    time.Duration `mapstructure:"window_duration"`
	ChallengeMaxPerIP int           `mapstructure:"challenge_max_per_ip"`
	VerifyMaxPerIP    int           `mapstructure:"verify_max_per_ip"`
	RefreshMaxPerIP   int           `mapstructure:"refresh_max_per_ip"`
}

type TelemetrySettings struct {
	MetricsNamespace string `mapstructure:"metrics_namespace"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("MMC")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"otp.code_length",
		"otp.expiry",
		"otp.resend_cooldown",
		"otp.max_per_hour",
		"otp.max_attempts",
		"jwt.secret",
		"jwt.issuer",
		"jwt.audience",
		"jwt.access_token_ttl",
		"jwt.refresh_token_ttl",
		"device.sliding_expiry",
		"device.sweep_interval",
		"rate_limit.window_duration",
		"rate_limit.challenge_max_per_ip",
		"rate_limit.verify_max_per_ip",
		"rate_limit.refresh_max_per_ip",
		"telemetry.metrics_namespace",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" && cfg.App.Env == "production" {
		return nil, fmt.Errorf("jwt.secret is required in production")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mastermind-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "mastermind")
	v.SetDefault("postgres.password", "mastermind_password")
	v.SetDefault("postgres.database", "mastermind")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "auth")

	v.SetDefault("otp.code_length", 6)
	v.SetDefault("otp.expiry", "5m")
	v.SetDefault("otp.resend_cooldown", "45s")
	v.SetDefault("otp.max_per_hour", 5)
	v.SetDefault("otp.max_attempts", 5)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "mastermind-auth")
	v.SetDefault("jwt.audience", "mastermind-backoffice")
	v.SetDefault("jwt.access_token_ttl", "30m")
	v.SetDefault("jwt.refresh_token_ttl", "720h")

	v.SetDefault("device.sliding_expiry", "720h")
	v.SetDefault("device.sweep_interval", "1h")

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.challenge_max_per_ip", 10)
	v.SetDefault("rate_limit.verify_max_per_ip", 15)
	v.SetDefault("rate_limit.refresh_max_per_ip", 30)

	v.SetDefault("telemetry.metrics_namespace", "mastermind_auth")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "MMC_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
