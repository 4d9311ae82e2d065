package sim

import (
	"flag"
	"time"
)

// Config defines the settings of the simulated board.
type Config struct {
	Enabled        bool          `toml:"enabled"`
	ReportInterval time.Duration `toml:"report-interval"`
}

var defaultConfig = Config{
	ReportInterval: DefaultReportInterval,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&defaultConfig.Enabled, "sim", defaultConfig.Enabled, "Use a simulated board instead of the serial device.")
	flag.DurationVar(&defaultConfig.ReportInterval, "sim-report-interval", defaultConfig.ReportInterval, "Motion report interval of the simulated board.")
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

// NewBoard creates a Board using the config.
func (c *Config) NewBoard() *Board {
	b := NewBoard()
	b.ReportInterval = c.ReportInterval
	return b
}
