// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/core/naming"
)

const trustDoc = `
Reports whether the identity is trusted by the wildcard pattern, e.g.

    contracts trust --account 111 embedding/* embedding/processor-111-us-east-1

The pattern is always scoped to an account, and optionally to a region.
Exits with status 1 when the identity does not match.
`

type trustCommand struct {
	cmd.CommandBase
	account  string
	region   string
	pattern  string
	identity string
}

func (c *trustCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "trust",
		Args:    "<pattern> <identity>",
		Purpose: "match an identity against a trust pattern",
		Doc:     trustDoc,
	}
}

func (c *trustCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account the pattern is scoped to")
	f.StringVar(&c.region, "region", "", "region the pattern is scoped to")
}

func (c *trustCommand) Init(args []string) error {
	if len(args) < 2 {
		return errors.New("pattern and identity required")
	}
	c.pattern, c.identity = args[0], args[1]
	return cmd.CheckEmpty(args[2:])
}

func (c *trustCommand) Run(ctx *cmd.Context) error {
	pattern, err := naming.ParseTrustPattern(c.pattern, c.account, c.region)
	if err != nil {
		return errors.Trace(err)
	}
	id, err := naming.ParseIdentity(c.identity)
	if err != nil {
		return errors.Trace(err)
	}
	if !pattern.Matches(id) {
		fmt.Fprintf(ctx.Stdout, "%s is not trusted by %s\n", id, pattern.RoleNamePattern())
		return cmd.ErrSilent
	}
	fmt.Fprintf(ctx.Stdout, "%s is trusted by %s\n", id, pattern.RoleNamePattern())
	return nil
}
