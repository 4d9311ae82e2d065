package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"github.com/robotalks/transbot.go/pkg/l0/comm"
	"github.com/robotalks/transbot.go/pkg/l0/serial"
	"github.com/robotalks/transbot.go/pkg/l1"
	env "github.com/robotalks/transbot.go/pkg/l1/env/controller"
	"github.com/robotalks/transbot.go/pkg/sim"
	"github.com/robotalks/transbot.go/pkg/transbot"
)

// daemonConfig points to the settings bound to command line flags.
type daemonConfig struct {
	Serial     *serial.Config
	Sim        *sim.Config
	Engine     *comm.Config
	Controller *transbot.Config
	Env        *env.Config
}

// transbotd config.toml sections.
type fileConfig struct {
	Serial     serial.Config   `toml:"serial"`
	Sim        sim.Config      `toml:"sim"`
	Engine     engineFile      `toml:"engine"`
	Controller transbot.Config `toml:"controller"`
	Registry   registryFile    `toml:"registry"`
}

type engineFile struct {
	ArenaSize       int           `toml:"arena-size"`
	BlockTableSize  int           `toml:"block-table-size"`
	SlotCapacity    int           `toml:"slot-capacity"`
	RetryDelay      time.Duration `toml:"retry-delay"`
	MaxRetries      int           `toml:"max-retries"`
	AllowClearFlash bool          `toml:"allow-clear-flash"`
}

type registryFile struct {
	ID        string            `toml:"id"`
	MQTT      string            `toml:"mqtt"`
	Websocket string            `toml:"websocket"`
	Meta      l1.ControllerMeta `toml:"meta"`
}

var engineConfig = comm.DefaultConfig()

func setupEngineFlags() {
	flag.IntVar(&engineConfig.ArenaSize, "arena-size", engineConfig.ArenaSize, "Bytes of frame storage.")
	flag.IntVar(&engineConfig.BlockTableSize, "block-table-size", engineConfig.BlockTableSize, "Max live frames plus 2.")
	flag.IntVar(&engineConfig.SlotCapacity, "slot-capacity", engineConfig.SlotCapacity, "Pending frames kept per response code.")
	flag.DurationVar(&engineConfig.RetryDelay, "retry-delay", engineConfig.RetryDelay, "Delay between reopen attempts after link loss.")
	flag.IntVar(&engineConfig.MaxRetries, "max-retries", engineConfig.MaxRetries, "Max reopen attempts, 0 for unlimited.")
	flag.BoolVar(&engineConfig.AllowClearFlash, "allow-clear-flash", engineConfig.AllowClearFlash, "Allow sending CLEAR_FLASH.")
}

// loadConfigFile overlays keys defined in the file onto conf. Flags
// explicitly given on fs keep their values.
func loadConfigFile(fs *flag.FlagSet, path string, conf daemonConfig) error {
	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	raw := fileConfig{
		Serial:     *conf.Serial,
		Sim:        *conf.Sim,
		Controller: *conf.Controller,
	}
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for n, key := range keys {
			names[n] = key.String()
		}
		return fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(names, ", "))
	}

	*conf.Serial = raw.Serial
	*conf.Sim = raw.Sim
	*conf.Controller = raw.Controller

	eng := conf.Engine
	if meta.IsDefined("engine", "arena-size") {
		eng.ArenaSize = raw.Engine.ArenaSize
	}
	if meta.IsDefined("engine", "block-table-size") {
		eng.BlockTableSize = raw.Engine.BlockTableSize
	}
	if meta.IsDefined("engine", "slot-capacity") {
		eng.SlotCapacity = raw.Engine.SlotCapacity
	}
	if meta.IsDefined("engine", "retry-delay") {
		eng.RetryDelay = raw.Engine.RetryDelay
	}
	if meta.IsDefined("engine", "max-retries") {
		eng.MaxRetries = raw.Engine.MaxRetries
	}
	if meta.IsDefined("engine", "allow-clear-flash") {
		eng.AllowClearFlash = raw.Engine.AllowClearFlash
	}

	reg := conf.Env
	if meta.IsDefined("registry", "id") {
		reg.Info.Ref.ID = strings.TrimSpace(raw.Registry.ID)
	}
	if meta.IsDefined("registry", "mqtt") {
		reg.MQTTBrokerURL = strings.TrimSpace(raw.Registry.MQTT)
	}
	if meta.IsDefined("registry", "websocket") {
		reg.WebsocketAddr = strings.TrimSpace(raw.Registry.Websocket)
	}
	if meta.IsDefined("registry", "meta", "description") {
		reg.Info.Meta.Description = raw.Registry.Meta.Description
	}
	if meta.IsDefined("registry", "meta", "labels") {
		reg.Info.Meta.Labels = raw.Registry.Meta.Labels
	}

	for name, val := range explicit {
		if err := fs.Set(name, val); err != nil {
			return fmt.Errorf("restore flag -%s: %w", name, err)
		}
	}
	glog.Infof("config loaded from %s", path)
	return nil
}
