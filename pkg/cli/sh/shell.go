// Package sh is an interactive shell talking to L1 controllers.
package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l1"
	env "github.com/robotalks/transbot.go/pkg/l1/env/connector"
	"github.com/robotalks/transbot.go/pkg/l1/msgs"
)

// ErrNotConnected is reported by commands requiring a connection.
var ErrNotConnected = errors.New("not connected")

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive    bool
	OutputJSON     bool
	AutoConnect    bool
	CommandTimeout time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is a connected controller served by its own Loop.
type Conn struct {
	Ref    l1.ControllerRef
	Conn   l1.ControllerConn
	cancel func()
}

// Close stops the Loop of the connection.
func (c *Conn) Close() {
	c.cancel()
	if closer, ok := c.Conn.(interface{ Close() error }); ok {
		closer.Close()
	}
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly       bool
	outputJSON     bool
	commandTimeout = time.Second

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&commandTimeout, "timeout", commandTimeout, "Max time waiting for a command reply.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive:    !evalOnly,
		OutputJSON:     outputJSON,
		CommandTimeout: commandTimeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// FormatInfo prints ControllerInfo into friendly string for display.
func FormatInfo(info l1.ControllerInfo) string {
	var sb strings.Builder
	sb.WriteString(info.Ref.Name())
	if info.Meta.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(info.Meta.Description)
	}
	return sb.String()
}

// FormatMsg prints a message as TYPE {fields}.
func FormatMsg(msg fx.Message) string {
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	if sm, ok := msg.(msgs.SerializableMessage); ok {
		return name + " " + sm.Serializable().String()
	}
	return name
}

// DoCommand runs a command and prints the reply.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		c.Err(ErrNotConnected)
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.CommandTimeout)
	defer cancel()
	reply, err := l1.Do(ctx, s.Conn.Conn, msg)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("command %T timeout", msg)
	}
	if err != nil {
		c.Err(err)
		return err
	}
	s.Print(c, reply)
	return nil
}

// Print prints a reply in the configured format.
func (s *Shell) Print(c *ishell.Context, msg fx.Message) {
	if s.OutputJSON {
		var v interface{} = msg
		if sm, ok := msg.(msgs.SerializableMessage); ok {
			v = sm.Serializable()
		}
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if _, ok := msg.(*msgs.CommandOK); ok {
		c.Println("OK")
		return
	}
	c.Println(FormatMsg(msg))
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverControllers discovers controllers accepted by filter.
func (s *Shell) DiscoverControllers(filter func(l1.ControllerInfo) bool) ([]l1.ControllerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.CommandTimeout+time.Second)
	defer cancel()
	infoList, err := connector.Discover(ctx)
	if err != nil || filter == nil {
		return infoList, err
	}
	items := infoList[:0]
	for _, info := range infoList {
		if filter(info) {
			items = append(items, info)
		}
	}
	return items, nil
}

// SelectController discovers controllers and asks for a choice.
func (s *Shell) SelectController(filter func(l1.ControllerInfo) bool) (*l1.ControllerInfo, error) {
	infoList, err := s.DiscoverControllers(filter)
	if err != nil || len(infoList) == 0 {
		return nil, err
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("%d controllers discovered in non-interactive mode", len(infoList))
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
		if index < 0 {
			return nil, nil
		}
	}
	return &infoList[index], nil
}

// Connect connects controller with ref.
func (s *Shell) Connect(ref l1.ControllerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return err
	}
	loop := fx.NewLoop()
	if adder, ok := conn.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	s.Disconnect()
	s.Conn = &Conn{Ref: ref, Conn: conn, cancel: cancel}
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			glog.Errorf("connection %s: %v", ref.Name(), err)
		}
	}()
	s.Shell.SetPrompt(ref.Name() + " > ")
	return nil
}

// Disconnect disconnects current controller.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Ref.Name())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			glog.Exitf("connect %q failed: %v", s.Config.Ref.Name(), err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

var (
	// DiscoverCmd discovers controllers.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "[TYPE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.DiscoverControllers(typeFilter(c.Args))
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if infoList == nil {
					infoList = []l1.ControllerInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No controllers found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE [ID]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref l1.ControllerRef
			if len(c.Args) >= 2 {
				ref.Type, ref.ID = c.Args[0], c.Args[1]
			} else {
				info, err := s.SelectController(typeFilter(c.Args))
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(errors.New("no controller discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current controller.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

func typeFilter(args []string) func(l1.ControllerInfo) bool {
	if len(args) == 0 {
		return nil
	}
	return func(info l1.ControllerInfo) bool {
		return info.Ref.Type == args[0]
	}
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
