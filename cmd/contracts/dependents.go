// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/registry"
)

const dependentsDoc = `
Prints the consumers of the node at <address>, or of any node below it, and
the environments to redeploy when its value changes. Consumers that do not
propagate changes are listed but never redeployed.

Addresses have the form <build>/<enver>:<root>/<child>/..., e.g.

    contracts dependents document-processing/dev:processedContent/processedContentBucket
`

type dependentsCommand struct {
	cmd.CommandBase
	app  *app
	addr contract.Address
}

func (c *dependentsCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "dependents",
		Args:    "<address>",
		Purpose: "print the consumers of a node",
		Doc:     dependentsDoc,
	}
}

func (c *dependentsCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no address specified")
	}
	addr, err := contract.ParseAddress(args[0])
	if err != nil {
		return errors.Trace(err)
	}
	c.addr = addr
	return cmd.CheckEmpty(args[1:])
}

func (c *dependentsCommand) Run(ctx *cmd.Context) error {
	return c.app.run(ctx, func(reg *registry.Registry) error {
		consumers, err := reg.Dependents(c.addr)
		if err != nil {
			return errors.Trace(err)
		}
		targets, err := reg.RedeployTargets(c.addr)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Fprintf(ctx.Stdout, "consumers:\n")
		for _, consumer := range consumers {
			fmt.Fprintf(ctx.Stdout, "  %s (%s)\n", consumer.Key(), consumer.Propagation())
		}
		fmt.Fprintf(ctx.Stdout, "redeploy:\n")
		for _, enver := range targets {
			fmt.Fprintf(ctx.Stdout, "  %s\n", enver.Key())
		}
		return nil
	})
}
