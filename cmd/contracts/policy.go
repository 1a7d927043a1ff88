// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/provider/aws"
	"github.com/ondemandenv/contracts/internal/registry"
)

const policyDoc = `
Renders the S3 bucket policy the trust grants of the node at <address>
translate to. Nothing is applied, see provision.
`

type policyCommand struct {
	cmd.CommandBase
	app  *app
	addr contract.Address
}

func (c *policyCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "policy",
		Args:    "<address>",
		Purpose: "render the bucket policy of a node",
		Doc:     policyDoc,
	}
}

func (c *policyCommand) Init(args []string) error {
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

func (c *policyCommand) Run(ctx *cmd.Context) error {
	return c.app.run(ctx, func(reg *registry.Registry) error {
		node, err := reg.Lookup(c.addr)
		if err != nil {
			return errors.Trace(err)
		}
		policy, err := aws.BucketPolicy(aws.BucketName(node), node)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Fprintln(ctx.Stdout, policy.String())
		return nil
	})
}
