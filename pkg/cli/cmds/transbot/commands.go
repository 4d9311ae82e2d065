// Package transbot exposes Transbot commands in the shell.
package transbot

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/transbot.go/pkg/cli/sh"
	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/transbot/msgs"
)

// parseArgs parses c.Args into ints, named by names. Names after
// required are optional and keep their defaults in vals.
func parseArgs(args []string, required int, names []string, vals []int64) error {
	if len(args) < required {
		return fmt.Errorf("%s required", names[len(args)])
	}
	for n, arg := range args {
		if n >= len(names) {
			return fmt.Errorf("too many arguments")
		}
		val, err := strconv.ParseInt(arg, 0, 32)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", names[n], err)
		}
		vals[n] = val
	}
	return nil
}

func parseBool(args []string, name string) (bool, error) {
	if len(args) < 1 {
		return false, fmt.Errorf("%s required", name)
	}
	switch args[0] {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	val, err := strconv.ParseBool(args[0])
	if err != nil {
		return false, fmt.Errorf("invalid %s: %v", name, err)
	}
	return val, nil
}

// intCmd builds a command taking integer arguments.
func intCmd(name, alias, help string, required int, names []string, defaults []int64, build func([]int64) fx.Message) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: []string{alias},
		Help:    help,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals := make([]int64, len(names))
			copy(vals, defaults)
			if err := parseArgs(c.Args, required, names, vals); err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, build(vals))
		}),
	}
}

func queryCmd(name, alias string, msg fx.Message) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: []string{alias},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, msg.NewMessage())
		}),
	}
}

var (
	// DriveCmd exposes Drive command.
	DriveCmd = intCmd("transbot.drive", "tbd", "LINEAR(cm/s) [ANGULAR(0.01rad/s)]", 1,
		[]string{"LINEAR", "ANGULAR"}, nil,
		func(v []int64) fx.Message { return &msgs.Drive{Linear: int32(v[0]), Angular: int32(v[1])} })

	// StopCmd stops the chassis.
	StopCmd = ishell.Cmd{
		Name:    "transbot.stop",
		Aliases: []string{"tbs"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.Drive{})
		}),
	}

	// BeepCmd exposes Beep command.
	BeepCmd = intCmd("transbot.beep", "tbb", "DURATION(ms)", 1,
		[]string{"DURATION"}, nil,
		func(v []int64) fx.Message { return &msgs.Beep{DurationMs: uint32(v[0])} })

	// LightCmd exposes Light command.
	LightCmd = intCmd("transbot.light", "tbl", "LEVEL(0-100)", 1,
		[]string{"LEVEL"}, nil,
		func(v []int64) fx.Message { return &msgs.Light{Level: uint32(v[0])} })

	// LEDCmd exposes LEDStrip command.
	LEDCmd = intCmd("transbot.led", "tbled", "ID(255 for all) R G B", 4,
		[]string{"ID", "R", "G", "B"}, nil,
		func(v []int64) fx.Message {
			return &msgs.LEDStrip{ID: uint32(v[0]), R: uint32(v[1]), G: uint32(v[2]), B: uint32(v[3])}
		})

	// EffectCmd exposes StripEffect command.
	EffectCmd = intCmd("transbot.effect", "tbe", "EFFECT(0-6) [SPEED(1-10)] [PARAM(0-6)]", 1,
		[]string{"EFFECT", "SPEED", "PARAM"}, []int64{0, 5, 0},
		func(v []int64) fx.Message {
			return &msgs.StripEffect{Effect: uint32(v[0]), Speed: uint32(v[1]), Param: uint32(v[2])}
		})

	// CameraCmd exposes CameraAngle command.
	CameraCmd = intCmd("transbot.camera", "tbc", "CHANNEL(1 yaw, 2 pitch) ANGLE(0-180)", 2,
		[]string{"CHANNEL", "ANGLE"}, nil,
		func(v []int64) fx.Message { return &msgs.CameraAngle{Channel: uint32(v[0]), Angle: uint32(v[1])} })

	// ArmCmd exposes ArmJoints command.
	ArmCmd = intCmd("transbot.arm", "tba", "POS7 POS8 POS9", 3,
		[]string{"POS7", "POS8", "POS9"}, nil,
		func(v []int64) fx.Message {
			return &msgs.ArmJoints{Positions: []uint32{uint32(v[0]), uint32(v[1]), uint32(v[2])}}
		})

	// ServoCmd exposes ArmServo command.
	ServoCmd = intCmd("transbot.servo", "tbsv", "ID(7-9) POSITION [TIME(ms)]", 2,
		[]string{"ID", "POSITION", "TIME"}, []int64{0, 0, 500},
		func(v []int64) fx.Message {
			return &msgs.ArmServo{ID: uint32(v[0]), Position: uint32(v[1]), TimeMs: uint32(v[2])}
		})

	// TorqueCmd exposes ArmTorque command.
	TorqueCmd = ishell.Cmd{
		Name:    "transbot.torque",
		Aliases: []string{"tbt"},
		Help:    "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			enable, err := parseBool(c.Args, "STATE")
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msgs.ArmTorque{Enable: enable})
		}),
	}

	// GyroCmd exposes GyroAssist command.
	GyroCmd = ishell.Cmd{
		Name:    "transbot.gyro",
		Aliases: []string{"tbg"},
		Help:    "on|off [save]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			enable, err := parseBool(c.Args, "STATE")
			if err != nil {
				c.Err(err)
				return
			}
			msg := &msgs.GyroAssist{Enable: enable}
			if len(c.Args) > 1 {
				if c.Args[1] != "save" {
					c.Err(fmt.Errorf("unknown option %q", c.Args[1]))
					return
				}
				msg.Save = true
			}
			sh.DoCommand(c, msg)
		}),
	}

	// StatusCmd queries the latest status.
	StatusCmd = queryCmd("transbot.status", "tbst", &msgs.StatusQuery{})
	// VersionCmd queries the firmware version.
	VersionCmd = queryCmd("transbot.version", "tbv", &msgs.VersionQuery{})
	// YawCmd queries the yaw angle.
	YawCmd = queryCmd("transbot.yaw", "tby", &msgs.YawQuery{})
)

func init() {
	sh.AddCmds(
		&DriveCmd,
		&StopCmd,
		&BeepCmd,
		&LightCmd,
		&LEDCmd,
		&EffectCmd,
		&CameraCmd,
		&ArmCmd,
		&ServoCmd,
		&TorqueCmd,
		&GyroCmd,
		&StatusCmd,
		&VersionCmd,
		&YawCmd,
	)
}
