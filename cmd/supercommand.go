// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
)

// LoggingConfigEnvKey names the environment variable holding the default
// logging configuration.
const LoggingConfigEnvKey = "CONTRACTS_LOGGING_CONFIG"

var logger = loggo.GetLogger("contracts.cmd")

// Log configures loggo from the --logging-config flag.
type Log struct {
	// DefaultConfig is used when the flag is not given.
	DefaultConfig string
	Config        string
}

// AddFlags adds the logging flags to f.
func (l *Log) AddFlags(f *gnuflag.FlagSet) {
	f.StringVar(&l.Config, "logging-config", l.DefaultConfig, "specify log levels for modules")
}

// Start routes log output to the context's stderr and applies the
// configuration.
func (l *Log) Start(ctx *Context) error {
	if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(ctx.Stderr, loggo.DefaultFormatter)); err != nil {
		return errors.Trace(err)
	}
	if err := loggo.ConfigureLoggers(l.Config); err != nil {
		return errors.Annotate(err, "logging config")
	}
	return nil
}

// SuperCommandParams provides a way to have default parameter to the
// NewSuperCommand call.
type SuperCommandParams struct {
	Name    string
	Purpose string
	Doc     string

	// Flags adds application wide flags, parsed before the subcommand name.
	Flags func(f *gnuflag.FlagSet)
}

// SuperCommand is a Command that selects a subcommand and assumes its
// properties.
type SuperCommand struct {
	CommandBase
	Name    string
	Purpose string
	Doc     string
	Log     *Log

	flags    func(f *gnuflag.FlagSet)
	subcmds  map[string]Command
	subcmd   Command
	showHelp bool
}

// NewSuperCommand creates and initializes a new SuperCommand. The default
// logging configuration is taken from the environment.
func NewSuperCommand(p SuperCommandParams) *SuperCommand {
	c := &SuperCommand{
		Name:    p.Name,
		Purpose: p.Purpose,
		Doc:     p.Doc,
		Log:     &Log{DefaultConfig: os.Getenv(LoggingConfigEnvKey)},
		flags:   p.Flags,
		subcmds: make(map[string]Command),
	}
	c.Register(&helpCommand{super: c})
	return c
}

// Register makes a subcommand available for use on the command line. The
// command will be available via its own name.
func (c *SuperCommand) Register(subcmd Command) {
	name := subcmd.Info().Name
	if _, found := c.subcmds[name]; found {
		panic(fmt.Sprintf("command already registered: %q", name))
	}
	c.subcmds[name] = subcmd
}

// Info returns a description of the currently selected subcommand, or of
// the SuperCommand itself if no subcommand has been specified.
func (c *SuperCommand) Info() *Info {
	if c.subcmd != nil {
		info := *c.subcmd.Info()
		info.Name = fmt.Sprintf("%s %s", c.Name, info.Name)
		return &info
	}
	doc := strings.TrimSpace(c.Doc)
	if doc != "" {
		doc += "\n\n"
	}
	return &Info{
		Name:    c.Name,
		Args:    "<command> ...",
		Purpose: c.Purpose,
		Doc:     doc + "commands:\n" + c.describeCommands(),
	}
}

func (c *SuperCommand) describeCommands() string {
	names := make([]string, 0, len(c.subcmds))
	width := 0
	for name := range c.subcmds {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("    %-*s - %s", width, name, c.subcmds[name].Info().Purpose)
	}
	return strings.Join(lines, "\n")
}

// AllowInterspersedFlags stops flag parsing at the subcommand name.
func (c *SuperCommand) AllowInterspersedFlags() bool {
	return false
}

// SetFlags adds the logging and application flags, plus the selected
// subcommand's flags once one is chosen.
func (c *SuperCommand) SetFlags(f *gnuflag.FlagSet) {
	c.Log.AddFlags(f)
	if c.flags != nil {
		c.flags(f)
	}
	if c.subcmd != nil {
		c.subcmd.SetFlags(f)
	}
}

// Init selects the subcommand named by the first arg and parses the rest
// of the args on it.
func (c *SuperCommand) Init(args []string) error {
	if len(args) == 0 {
		c.subcmd = c.subcmds["help"]
		return nil
	}
	subcmd, found := c.subcmds[args[0]]
	if !found {
		return errors.Errorf("unrecognized command: %s %s", c.Name, args[0])
	}
	f := gnuflag.NewFlagSet(c.Name+" "+args[0], gnuflag.ContinueOnError)
	f.SetOutput(io.Discard)
	subcmd.SetFlags(f)
	if err := f.Parse(true, args[1:]); err != nil {
		if err == gnuflag.ErrHelp {
			c.subcmd = c.subcmds["help"]
			return c.subcmd.Init([]string{args[0]})
		}
		return errors.Annotatef(err, "%s %s", c.Name, args[0])
	}
	c.subcmd = subcmd
	return subcmd.Init(f.Args())
}

// Run executes the subcommand that was selected in Init.
func (c *SuperCommand) Run(ctx *Context) error {
	if c.subcmd == nil {
		return errors.New("Run: missing subcommand; Init failed or not called")
	}
	if err := c.Log.Start(ctx); err != nil {
		return errors.Trace(err)
	}
	logger.Debugf("running %s %s [%s %s]", c.Name, c.subcmd.Info().Name, runtime.Compiler, runtime.Version())
	return c.subcmd.Run(ctx)
}

type helpCommand struct {
	CommandBase
	super *SuperCommand
	topic string
}

func (c *helpCommand) Info() *Info {
	return &Info{
		Name:    "help",
		Args:    "[command]",
		Purpose: "show help on a command",
	}
}

func (c *helpCommand) Init(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		c.topic = args[0]
	default:
		return CheckEmpty(args[1:])
	}
	return nil
}

func (c *helpCommand) Run(ctx *Context) error {
	if c.topic == "" {
		c.super.subcmd = nil
		PrintUsage(ctx.Stdout, c.super)
		return nil
	}
	subcmd, found := c.super.subcmds[c.topic]
	if !found {
		return errors.Errorf("unknown command or topic for %s", c.topic)
	}
	info := *subcmd.Info()
	info.Name = fmt.Sprintf("%s %s", c.super.Name, info.Name)
	PrintUsage(ctx.Stdout, &infoCommand{Command: subcmd, info: &info})
	return nil
}

// infoCommand overrides the Info of a command, for usage output.
type infoCommand struct {
	Command
	info *Info
}

func (c *infoCommand) Info() *Info {
	return c.info
}
