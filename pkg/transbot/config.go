package transbot

import (
	"flag"
	"time"

	"github.com/robotalks/transbot.go/pkg/l1"
)

// Controller defaults.
const (
	DefaultTelemetryInterval = 200 * time.Millisecond
	DefaultQueryTimeout      = time.Second
)

// Config defines the settings of the Controller.
type Config struct {
	TelemetryInterval time.Duration `toml:"telemetry-interval"`
	QueryTimeout      time.Duration `toml:"query-timeout"`
	AutoReport        bool          `toml:"auto-report"`
}

var defaultConfig = Config{
	TelemetryInterval: DefaultTelemetryInterval,
	QueryTimeout:      DefaultQueryTimeout,
	AutoReport:        true,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.TelemetryInterval, "telemetry-interval", defaultConfig.TelemetryInterval, "Interval of publishing status.")
	flag.DurationVar(&defaultConfig.QueryTimeout, "query-timeout", defaultConfig.QueryTimeout, "Max time waiting for a board response.")
	flag.BoolVar(&defaultConfig.AutoReport, "auto-report", defaultConfig.AutoReport, "Ask the board to report motion status periodically.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller using the config.
func (c *Config) NewController(robot *Robot, reg l1.Registrar) *Controller {
	ctl := NewController(robot, reg)
	ctl.TelemetryInterval = c.TelemetryInterval
	ctl.QueryTimeout = c.QueryTimeout
	ctl.AutoReport = c.AutoReport
	return ctl
}
