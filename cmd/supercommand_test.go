// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd_test

import (
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
	"github.com/juju/testing"
	gc "gopkg.in/check.v1"

	"github.com/ondemandenv/contracts/cmd"
)

type superCommandSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&superCommandSuite{})

func (s *superCommandSuite) newSuperCommand(global *string) *cmd.SuperCommand {
	sc := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "contracts",
		Purpose: "inspect things",
		Doc:     "contracts-doc",
		Flags: func(f *gnuflag.FlagSet) {
			f.StringVar(global, "env-file", "", "env file")
		},
	})
	sc.Register(&TestCommand{Name: "verb"})
	sc.Register(&TestCommand{Name: "noun", Minimal: true})
	return sc
}

func (s *superCommandSuite) TestDispatch(c *gc.C) {
	var global string
	ctx := dummyContext(c)
	code := cmd.Main(s.newSuperCommand(&global), ctx, []string{"--env-file", "x.env", "verb", "--option", "picked"})
	c.Check(code, gc.Equals, 0)
	c.Check(bufferString(ctx.Stdout), gc.Equals, "picked\n")
	c.Check(global, gc.Equals, "x.env")
}

func (s *superCommandSuite) TestNoCommandPrintsHelp(c *gc.C) {
	var global string
	ctx := dummyContext(c)
	code := cmd.Main(s.newSuperCommand(&global), ctx, nil)
	c.Check(code, gc.Equals, 0)
	c.Check(bufferString(ctx.Stdout), gc.Equals, `usage: contracts <command> ...
purpose: inspect things

options:
--env-file (= "")
    env file
--logging-config (= "")
    specify log levels for modules

contracts-doc

commands:
    help - show help on a command
    noun - 
    verb - verb the graph
`)
}

func (s *superCommandSuite) TestHelpOnCommand(c *gc.C) {
	var global string
	ctx := dummyContext(c)
	code := cmd.Main(s.newSuperCommand(&global), ctx, []string{"help", "verb"})
	c.Check(code, gc.Equals, 0)
	c.Check(bufferString(ctx.Stdout), gc.Equals, `usage: contracts verb <something>
purpose: verb the graph

options:
--option (= "")
    option-doc

verb-doc
`)

	ctx = dummyContext(c)
	code = cmd.Main(s.newSuperCommand(&global), ctx, []string{"help", "adverb"})
	c.Check(code, gc.Equals, 1)
	c.Check(bufferString(ctx.Stderr), gc.Equals, "ERROR unknown command or topic for adverb\n")
}

func (s *superCommandSuite) TestUnknownCommand(c *gc.C) {
	var global string
	ctx := dummyContext(c)
	code := cmd.Main(s.newSuperCommand(&global), ctx, []string{"adverb"})
	c.Check(code, gc.Equals, 2)
	c.Check(bufferString(ctx.Stderr), gc.Equals, "ERROR unrecognized command: contracts adverb\n")
}

func (s *superCommandSuite) TestRegisterTwicePanics(c *gc.C) {
	var global string
	sc := s.newSuperCommand(&global)
	c.Check(func() { sc.Register(&TestCommand{Name: "verb"}) }, gc.PanicMatches, `command already registered: "verb"`)
}

func (s *superCommandSuite) TestLoggingConfig(c *gc.C) {
	var global string
	ctx := dummyContext(c)
	code := cmd.Main(s.newSuperCommand(&global), ctx, []string{"--logging-config", "contracts=DEBUG", "noun"})
	c.Check(code, gc.Equals, 0)
	c.Check(loggo.GetLogger("contracts").LogLevel(), gc.Equals, loggo.DEBUG)
	c.Check(bufferString(ctx.Stderr), gc.Matches, `(?s).*running contracts noun.*`)
}

func (s *superCommandSuite) TestLoggingConfigFromEnvironment(c *gc.C) {
	s.PatchEnvironment(cmd.LoggingConfigEnvKey, "contracts.registry=TRACE")
	var global string
	ctx := dummyContext(c)
	code := cmd.Main(s.newSuperCommand(&global), ctx, []string{"noun"})
	c.Check(code, gc.Equals, 0)
	c.Check(loggo.GetLogger("contracts.registry").LogLevel(), gc.Equals, loggo.TRACE)
}
