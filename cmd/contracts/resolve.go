// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/core/contract"
	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/provider/aws"
	"github.com/ondemandenv/contracts/internal/registry"
	"github.com/ondemandenv/contracts/internal/resolver"
)

const resolveDoc = `
Resolves the value of every consumer of the environment from the value
bucket named by CONTRACTS_VALUE_BUCKET. Consumers whose producer never
published a value get their fallback; without one the command fails.
`

type resolveCommand struct {
	cmd.CommandBase
	app *app
	out cmd.Output
	key contract.EnverKey
}

func newResolveCommand(a *app) *resolveCommand {
	return &resolveCommand{app: a}
}

func (c *resolveCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "resolve",
		Args:    "<build>/<enver>",
		Purpose: "resolve the consumed values of an environment",
		Doc:     resolveDoc,
	}
}

func (c *resolveCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters)
}

func (c *resolveCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no environment specified")
	}
	c.key = contract.EnverKey(args[0])
	if err := c.key.Validate(); err != nil {
		return errors.Trace(err)
	}
	return cmd.CheckEmpty(args[1:])
}

func (c *resolveCommand) Run(ctx *cmd.Context) error {
	return c.app.run(ctx, func(reg *registry.Registry) error {
		bucket := reg.Config().ValueBucket
		if bucket == "" {
			return errors.Annotate(coreerrors.MissingConfiguration, config.ValueBucketKey)
		}
		enver, err := reg.Enver(c.key)
		if err != nil {
			return errors.Trace(err)
		}
		stdctx := context.Background()
		s3Client, _, err := c.app.newClients(stdctx, enver.Region())
		if err != nil {
			return errors.Trace(err)
		}
		source, err := aws.NewS3Source(aws.S3SourceConfig{
			Client: s3Client,
			Bucket: bucket,
			Clock:  c.app.clock,
		})
		if err != nil {
			return errors.Trace(err)
		}
		cached, err := resolver.NewCachingSource(source, resolver.DefaultCacheSize)
		if err != nil {
			return errors.Trace(err)
		}
		r, err := resolver.New(resolver.Config{
			Source:  cached,
			Graph:   reg,
			Clock:   c.app.clock,
			Metrics: c.app.resolverMetrics,
		})
		if err != nil {
			return errors.Trace(err)
		}
		values, err := r.ResolveEnver(stdctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(c.out.Write(ctx, values))
	})
}
