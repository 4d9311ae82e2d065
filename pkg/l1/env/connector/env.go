// Package connector sets up connections from clients to L1 controllers.
package connector

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/transbot.go/pkg/l1"
	"github.com/robotalks/transbot.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/transbot.go/pkg/l1/comm/websocket"
)

// DefaultDialTimeout bounds Connect when the caller's context has no deadline.
const DefaultDialTimeout = 10 * time.Second

// ErrNoController is returned by Connect without a complete ControllerRef.
var ErrNoController = errors.New("controller type and id must be specified")

// Config selects a controller and the registry used to reach it.
type Config struct {
	Ref l1.ControllerRef

	// RegistryURL is an MQTT broker, mqtt://host:port/topic-prefix,
	// or a websocket endpoint, ws://host:port/path.
	RegistryURL string
	DialTimeout time.Duration
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/robo/",
	DialTimeout: DefaultDialTimeout,
}

func init() {
	for name, dst := range map[string]*string{
		"ROBO_TYPE":         &defaultConfig.Ref.Type,
		"ROBO_ID":           &defaultConfig.Ref.ID,
		"ROBO_REGISTRY_URL": &defaultConfig.RegistryURL,
	} {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "robot-type", defaultConfig.Ref.Type, "Controller type to connect, env ROBO_TYPE.")
	flag.StringVar(&defaultConfig.Ref.ID, "robot-id", defaultConfig.Ref.ID, "Controller ID to connect, env ROBO_ID.")
	flag.StringVar(&defaultConfig.RegistryURL, "robot-reg", defaultConfig.RegistryURL, "Registry URL, env ROBO_REGISTRY_URL.")
	flag.DurationVar(&defaultConfig.DialTimeout, "dial-timeout", defaultConfig.DialTimeout, "Timeout connecting to a controller.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig copies the default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector picks the Connector from the scheme of RegistryURL.
func (c *Config) NewConnector() (l1.Connector, error) {
	u, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("registry url: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "tcp", "ssl", "tls":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return websocket.NewConnector(c.RegistryURL)
	}
	return nil, fmt.Errorf("registry url: unsupported scheme %q", u.Scheme)
}

// MustNewConnector is NewConnector that exits on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		glog.Exit(err)
	}
	return conn
}

// Connect connects straight to the controller of Ref.
func (c *Config) Connect(ctx context.Context) (l1.ControllerConn, error) {
	if !c.Ref.IsValid() {
		return nil, ErrNoController
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok && c.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.DialTimeout)
		defer cancel()
	}
	glog.V(1).Infof("connecting %s via %s", c.Ref, c.RegistryURL)
	return connector.Connect(ctx, c.Ref)
}
