package serial

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config defines the serial link settings.
type Config struct {
	Device      string        `toml:"device"`
	BaudRate    int           `toml:"baud-rate"`
	ReadTimeout time.Duration `toml:"read-timeout"`
}

var defaultConfig = Config{
	Device:      DefaultDevice,
	BaudRate:    DefaultBaudRate,
	ReadTimeout: DefaultReadTimeout,
}

func init() {
	if dev := os.Getenv("TRANSBOT_DEVICE"); dev != "" {
		defaultConfig.Device = dev
	}
	if baud, err := strconv.Atoi(os.Getenv("TRANSBOT_BAUD")); err == nil && baud > 0 {
		defaultConfig.BaudRate = baud
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "serial-device", defaultConfig.Device, "Serial device of the expansion board, env TRANSBOT_DEVICE.")
	flag.IntVar(&defaultConfig.BaudRate, "serial-baud", defaultConfig.BaudRate, "Serial baud rate, env TRANSBOT_BAUD.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "serial-read-timeout", defaultConfig.ReadTimeout, "Max time a serial read blocks.")
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

// NewPort creates a Port using the config.
func (c *Config) NewPort() *Port {
	p := NewPort(c.Device)
	if c.BaudRate > 0 {
		p.BaudRate = c.BaudRate
	}
	p.ReadTimeout = c.ReadTimeout
	return p
}
