package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/joystick"
	env "github.com/robotalks/transbot.go/pkg/l1/env/connector"
)

func init() {
	env.SetupFlags()
	joystick.SetupFlags()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	if conf.Ref.Type == "" {
		conf.Ref.Type = "transbot"
	}
	conn, err := conf.Connect(context.Background())
	if err != nil {
		glog.Exitf("connect %s: %v", conf.Ref.Name(), err)
	}
	loop := fx.NewLoop()
	if adder, ok := conn.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	glog.Infof("driving %s", conf.Ref.Name())
	loop.Add(joystick.NewConfig().NewTeleop(conn)).RunOrFail()
}
