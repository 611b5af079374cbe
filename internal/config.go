package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	RosterFile         string        `env:"ROSTER_FILE,default=players.json" validate:"required"`
	CacheDir           string        `env:"CACHE_DIR,default=cache" validate:"required"`
	WatchURL           string        `env:"WATCH_URL,default=http://127.0.0.1:3030" validate:"required,url"`
	ProfileURL         string        `env:"PROFILE_URL,default=https://zwiftpower.com/profile.php" validate:"required,url"`
	PollInterval       time.Duration `env:"POLL_INTERVAL,default=200ms" validate:"gt=0"`
	StaleCheckInterval time.Duration `env:"STALE_CHECK_INTERVAL,default=5s" validate:"gt=0"`
	ResetTimeout       time.Duration `env:"RESET_TIMEOUT,default=5s" validate:"gt=0"`
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT,default=10s" validate:"gt=0"`
	UserAgent          string        `env:"USER_AGENT"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	LogFile            string        `env:"LOG_FILE"`
	RecordSamples      bool          `env:"RECORD_SAMPLES,default=false"`
	BadgerFilepath     string        `env:"BADGER_FILEPATH,default=data/samples" validate:"required_if=RecordSamples true"`
	RecordBufferSize   int           `env:"RECORD_BUFFER_SIZE,default=256" validate:"gt=0"`
	LimitSamples       *int          `env:"LIMIT_SAMPLES"`
	DebugPort          int           `env:"DEBUG_PORT,default=0" validate:"gte=0,lte=65535"`
	Console            bool          `env:"CONSOLE,default=false"`
	ConsoleInterval    time.Duration `env:"CONSOLE_INTERVAL,default=1s" validate:"gt=0"`
	ReportInterval     time.Duration `env:"REPORT_INTERVAL,default=30s" validate:"gte=0"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
