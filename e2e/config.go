package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// WATCH_ADDR is the base URL of a running watch service, e.g. http://127.0.0.1:3030
	WatchAddr string `envconfig:"WATCH_ADDR"`
	// E2E_PARTICIPANTS lists the participants registered by the scenarios
	Participants []string `envconfig:"E2E_PARTICIPANTS" default:"101,102"`
	// E2E_DEBUG_JSON dumps every telemetry batch received
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
