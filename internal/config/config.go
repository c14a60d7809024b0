package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode" validate:"oneof=release debug test"`
	Port       int           `mapstructure:"port" validate:"min=1,max=65535"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit" validate:"min=512"`
	PingPeriod time.Duration `mapstructure:"ping_period" validate:"min=1s"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`

	Room        RoomConfig      `mapstructure:"room"`
	Timeouts    TimeoutConfig   `mapstructure:"timeouts"`
	Limits      LimitConfig     `mapstructure:"limits"`
	CORSOrigins []string        `mapstructure:"cors_origins"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
}

type RoomConfig struct {
	AdminPassword     string `mapstructure:"admin_password"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
	HistorySize       int    `mapstructure:"history_size" validate:"min=1,max=10000"`
	MaxPending        int    `mapstructure:"max_pending" validate:"min=0"`
}

type TimeoutConfig struct {
	SweepInterval     time.Duration `mapstructure:"sweep_interval" validate:"min=1s"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout" validate:"min=1s"`
	SessionLimit      time.Duration `mapstructure:"session_limit" validate:"min=1s"`
	SessionWarning    time.Duration `mapstructure:"session_warning" validate:"min=1s,ltfield=SessionLimit"`
}

type LimitConfig struct {
	MaxMessageLength int           `mapstructure:"max_message_length" validate:"min=1"`
	RateLimit        int           `mapstructure:"rate_limit" validate:"min=1"`
	RateWindow       time.Duration `mapstructure:"rate_window" validate:"min=1ms"`
	Backpressure     string        `mapstructure:"backpressure" validate:"oneof=kick drop"`
}

type RedisConfig struct {
	Addr    string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Channel string `mapstructure:"channel" validate:"required"`
}

type AssistantConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model       string        `mapstructure:"model" validate:"required"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"min=1"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MinDelay    time.Duration `mapstructure:"min_delay" validate:"min=0"`
	MaxDelay    time.Duration `mapstructure:"max_delay" validate:"gtefield=MinDelay"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"min=1s"`
	Name        string        `mapstructure:"name" validate:"required,max=36"`
	History     int           `mapstructure:"history" validate:"min=0"`
}

// Enabled reports whether an API key was configured.
func (a AssistantConfig) Enabled() bool { return a.APIKey != "" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("room.admin_password", "")
	v.SetDefault("room.admin_password_hash", "")
	v.SetDefault("room.history_size", 100)
	v.SetDefault("room.max_pending", 0)

	v.SetDefault("timeouts.sweep_interval", "30s")
	v.SetDefault("timeouts.inactivity_timeout", "90s")
	v.SetDefault("timeouts.session_limit", "300s")
	v.SetDefault("timeouts.session_warning", "240s")

	v.SetDefault("limits.max_message_length", 2000)
	v.SetDefault("limits.rate_limit", 20)
	v.SetDefault("limits.rate_window", "10s")
	v.SetDefault("limits.backpressure", "kick")

	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.channel", "duet:room:events")

	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.base_url", "")
	v.SetDefault("assistant.model", "gpt-4.1-mini")
	v.SetDefault("assistant.max_tokens", 150)
	v.SetDefault("assistant.temperature", 0.7)
	v.SetDefault("assistant.min_delay", "1s")
	v.SetDefault("assistant.max_delay", "3s")
	v.SetDefault("assistant.timeout", "20s")
	v.SetDefault("assistant.name", "AI Assistant")
	v.SetDefault("assistant.history", 10)
}

// Load reads config/config.<CONFIG_ENV>.yaml, then DUET_* environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Str("module", "config").Err(err).Msg(".env not loaded")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("DUET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("static", cfg.StaticPath).Bool("assistant", cfg.Assistant.Enabled()).
		Bool("mirror", cfg.Redis.Addr != "").Msg("config ready")
	return &cfg, nil
}
