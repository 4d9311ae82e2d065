package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"

	"github.com/golang/glog"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l0/comm"
	"github.com/robotalks/transbot.go/pkg/l0/serial"
	"github.com/robotalks/transbot.go/pkg/l1"
	env "github.com/robotalks/transbot.go/pkg/l1/env/controller"
	"github.com/robotalks/transbot.go/pkg/sim"
	"github.com/robotalks/transbot.go/pkg/transbot"
)

var configFile = os.Getenv("TRANSBOT_CONFIG")

func init() {
	env.SetControllerType("transbot", l1.ControllerMeta{Description: "Transbot Controller"})
	env.SetupFlags()
	serial.SetupFlags()
	sim.SetupFlags()
	transbot.SetupFlags()
	setupEngineFlags()
	flag.StringVar(&configFile, "config", configFile, "TOML config file, env TRANSBOT_CONFIG.")
}

func main() {
	flag.Parse()
	if configFile != "" {
		err := loadConfigFile(flag.CommandLine, configFile, daemonConfig{
			Serial:     serial.Default(),
			Sim:        sim.Default(),
			Engine:     &engineConfig,
			Controller: transbot.Default(),
			Env:        env.Default(),
		})
		if err != nil {
			glog.Exit(err)
		}
	}

	var transport comm.Transport
	var device string
	if simConf := sim.NewConfig(); simConf.Enabled {
		transport, device = simConf.NewBoard(), "simulated board"
	} else {
		port := serial.NewConfig().NewPort()
		transport, device = port, port.Device
	}
	engine := comm.NewEngine(transport, engineConfig)
	if err := engine.Open(); err != nil {
		glog.Exitf("open %s: %v", device, err)
	}

	e := env.NewConfig().MustNewEnv()
	robot := transbot.New(engine)
	ctl := transbot.NewConfig().NewController(robot, e.Registrar)
	glog.Infof("%s serving %s on %v", e.Config.Info.Ref.Name(), device, e.RegistryURLs)

	fx.NewLoop().
		Add(e, ctl).
		AddRunnable(fx.NamedRun("engine", engine)).
		RunOrFail()
}
