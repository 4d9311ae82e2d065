package joystick

import (
	"flag"

	"github.com/robotalks/transbot.go/pkg/l1"
)

// Config defines the configurations for Teleop.
type Config struct {
	DeviceIndex int
	Verbose     bool
	Mapping     Mapping
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Mapping:     DefaultMapping,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "joystick", defaultConfig.DeviceIndex, "Joystick index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Log joystick events.")
	flag.IntVar(&defaultConfig.Mapping.MaxLinear, "max-linear", defaultConfig.Mapping.MaxLinear, "Linear velocity at full stick in cm/s.")
	flag.IntVar(&defaultConfig.Mapping.MaxAngular, "max-angular", defaultConfig.Mapping.MaxAngular, "Angular velocity at full stick in 0.01 rad/s.")
	flag.IntVar(&defaultConfig.Mapping.Deadzone, "deadzone", defaultConfig.Mapping.Deadzone, "Axis values around center treated as 0.")
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

// NewTeleop creates a Teleop using the config.
func (c *Config) NewTeleop(conn l1.ControllerConn) *Teleop {
	t := NewTeleop(conn)
	t.DeviceIndex = c.DeviceIndex
	t.Verbose = c.Verbose
	t.Mapping = c.Mapping
	return t
}
