// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/internal/registry"
)

const orderDoc = `
Prints the builds in the order their consumers were wired, with the builds
each one requires. The order is CONTRACTS_WIRING_ORDER when set, otherwise
it is computed from the declared requirements.
`

type orderCommand struct {
	cmd.CommandBase
	app *app
}

func (c *orderCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "order",
		Purpose: "print the wiring order",
		Doc:     orderDoc,
	}
}

func (c *orderCommand) Run(ctx *cmd.Context) error {
	return c.app.run(ctx, func(reg *registry.Registry) error {
		for i, name := range reg.Order() {
			build, err := reg.Build(name)
			if err != nil {
				return errors.Trace(err)
			}
			line := fmt.Sprintf("%d. %s", i+1, name)
			if requires := build.Requires(); len(requires) > 0 {
				line += " (requires " + strings.Join(requires, ", ") + ")"
			}
			fmt.Fprintln(ctx.Stdout, line)
		}
		return nil
	})
}
