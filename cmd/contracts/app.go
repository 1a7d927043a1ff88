// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/provider/aws"
	"github.com/ondemandenv/contracts/internal/registry"
	"github.com/ondemandenv/contracts/internal/resolver"
	"github.com/ondemandenv/contracts/internal/services"
)

// clientsFunc returns the API clients of a region.
type clientsFunc func(ctx context.Context, region string) (aws.S3Client, aws.IAMClient, error)

// app holds the state shared by the subcommands: the application flags,
// the metrics and the registry built from the configuration.
type app struct {
	envFile cmd.FileVar
	metrics bool

	clock           clock.Clock
	guard           *registry.Guard
	newClients      clientsFunc
	registryMetrics *registry.Collector
	resolverMetrics *resolver.Collector
}

// newApp returns the application state constructing its registry through
// guard, which is given the app's clock and registry metrics.
func newApp(guard *registry.Guard) *app {
	a := &app{
		clock:           clock.WallClock,
		guard:           guard,
		newClients:      defaultClients,
		registryMetrics: registry.NewMetricsCollector(),
		resolverMetrics: resolver.NewMetricsCollector(),
	}
	guard.Clock = a.clock
	guard.Metrics = a.registryMetrics
	return a
}

func defaultClients(ctx context.Context, region string) (aws.S3Client, aws.IAMClient, error) {
	clients, err := aws.NewClients(ctx, region)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return clients.S3, clients.IAM, nil
}

func (a *app) addFlags(f *gnuflag.FlagSet) {
	f.Var(&a.envFile, "env-file", "load configuration from this dotenv file (default "+config.DefaultEnvFile+")")
	f.BoolVar(&a.metrics, "metrics", false, "print the registry and resolver metrics after the command ran")
}

// run builds the registry from the configuration and passes it to fn.
func (a *app) run(ctx *cmd.Context, fn func(*registry.Registry) error) error {
	envFile := a.envFile.AbsPath(ctx)
	if envFile == "" {
		envFile = ctx.AbsPath(config.DefaultEnvFile)
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return errors.Trace(err)
	}
	reg, err := services.Register(a.guard, cfg)
	if err != nil {
		return errors.Trace(err)
	}
	if err := fn(reg); err != nil {
		return errors.Trace(err)
	}
	if a.metrics {
		return errors.Trace(a.writeMetrics(ctx))
	}
	return nil
}

func (a *app) writeMetrics(ctx *cmd.Context) error {
	gatherer := prometheus.NewRegistry()
	if err := gatherer.Register(a.registryMetrics); err != nil {
		return errors.Trace(err)
	}
	if err := gatherer.Register(a.resolverMetrics); err != nil {
		return errors.Trace(err)
	}
	families, err := gatherer.Gather()
	if err != nil {
		return errors.Annotate(err, "gathering metrics")
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(ctx.Stdout, family); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
