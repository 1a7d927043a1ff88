// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"fmt"

	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/provider/aws"
	"github.com/ondemandenv/contracts/internal/registry"
)

const provisionDoc = `
Creates the IAM role of every identity the environment declares, under its
service's path, and puts the bucket policy of every granted resource it
exposes. Existing roles are kept. When CONTRACTS_VALUE_BUCKET is set the
roles may read the values shared with the environment.
`

type provisionCommand struct {
	cmd.CommandBase
	app *app
	key contract.EnverKey
}

func (c *provisionCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "provision",
		Args:    "<build>/<enver>",
		Purpose: "create the roles and bucket policies of an environment",
		Doc:     provisionDoc,
	}
}

func (c *provisionCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no environment specified")
	}
	c.key = contract.EnverKey(args[0])
	if err := c.key.Validate(); err != nil {
		return errors.Trace(err)
	}
	return cmd.CheckEmpty(args[1:])
}

func (c *provisionCommand) Run(ctx *cmd.Context) error {
	return c.app.run(ctx, func(reg *registry.Registry) error {
		enver, err := reg.Enver(c.key)
		if err != nil {
			return errors.Trace(err)
		}
		stdctx := context.Background()
		s3Client, iamClient, err := c.app.newClients(stdctx, enver.Region())
		if err != nil {
			return errors.Trace(err)
		}
		roles, err := aws.NewRoleProvisioner(iamClient, reg.Config().ValueBucket).ProvisionEnver(stdctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		for _, role := range roles {
			fmt.Fprintf(ctx.Stdout, "role %s\n", role)
		}
		buckets, err := aws.NewPolicyApplier(s3Client).ApplyEnver(stdctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		for _, bucket := range buckets {
			fmt.Fprintf(ctx.Stdout, "bucket policy %s\n", bucket)
		}
		return nil
	})
}
