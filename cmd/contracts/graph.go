// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/registry"
)

const graphDoc = `
Prints every build of the registry with its environments, the producers
they expose and the consumers they wired.
`

type graphCommand struct {
	cmd.CommandBase
	app *app
	out cmd.Output
}

func newGraphCommand(a *app) *graphCommand {
	return &graphCommand{app: a}
}

func (c *graphCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "graph",
		Purpose: "print the contract graph",
		Doc:     graphDoc,
	}
}

func (c *graphCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters)
}

type graphOutput struct {
	Order  []string      `yaml:"order" json:"order"`
	Builds []buildOutput `yaml:"builds" json:"builds"`
}

type buildOutput struct {
	Name       string        `yaml:"name" json:"name"`
	Repository string        `yaml:"repository" json:"repository"`
	Requires   []string      `yaml:"requires,omitempty" json:"requires,omitempty"`
	Envers     []enverOutput `yaml:"environments" json:"environments"`
}

type enverOutput struct {
	Key        string           `yaml:"key" json:"key"`
	Account    string           `yaml:"account" json:"account"`
	Region     string           `yaml:"region" json:"region"`
	Revision   string           `yaml:"revision" json:"revision"`
	Mutability string           `yaml:"mutability" json:"mutability"`
	Identities []string         `yaml:"identities,omitempty" json:"identities,omitempty"`
	Producers  []producerOutput `yaml:"producers,omitempty" json:"producers,omitempty"`
	Consumers  []consumerOutput `yaml:"consumers,omitempty" json:"consumers,omitempty"`
}

type producerOutput struct {
	Root  string       `yaml:"root" json:"root"`
	Late  bool         `yaml:"late" json:"late"`
	Nodes []nodeOutput `yaml:"nodes" json:"nodes"`
}

type nodeOutput struct {
	Address string   `yaml:"address" json:"address"`
	Kind    string   `yaml:"kind" json:"kind"`
	Grants  []string `yaml:"grants,omitempty" json:"grants,omitempty"`
}

type consumerOutput struct {
	Target      string  `yaml:"target" json:"target"`
	Propagation string  `yaml:"propagation" json:"propagation"`
	Fallback    *string `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

func (c *graphCommand) Run(ctx *cmd.Context) error {
	return c.app.run(ctx, func(reg *registry.Registry) error {
		out, err := formatGraph(reg)
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(c.out.Write(ctx, out))
	})
}

func formatGraph(reg *registry.Registry) (graphOutput, error) {
	out := graphOutput{Order: reg.Order()}
	for _, build := range reg.Builds() {
		b := buildOutput{
			Name:       build.Name(),
			Repository: build.Repository().String(),
			Requires:   build.Requires(),
		}
		for _, enver := range build.Envers() {
			e, err := formatEnver(enver)
			if err != nil {
				return graphOutput{}, err
			}
			b.Envers = append(b.Envers, e)
		}
		out.Builds = append(out.Builds, b)
	}
	return out, nil
}

func formatEnver(enver *contract.Enver) (enverOutput, error) {
	out := enverOutput{
		Key:        string(enver.Key()),
		Account:    enver.AccountID(),
		Region:     enver.Region(),
		Revision:   enver.Revision().String(),
		Mutability: string(enver.Mutability()),
	}
	for _, id := range enver.Identities() {
		out.Identities = append(out.Identities, id.String())
	}
	for _, producer := range enver.Producers() {
		p := producerOutput{Root: producer.Name(), Late: producer.Late()}
		for _, node := range producer.Nodes() {
			n := nodeOutput{Address: node.Address().String(), Kind: node.Kind().String()}
			for _, grant := range node.Grants() {
				n.Grants = append(n.Grants, grant.RoleNamePattern())
			}
			p.Nodes = append(p.Nodes, n)
		}
		out.Producers = append(out.Producers, p)
	}
	consumers, err := enver.Consumers()
	if err != nil {
		return enverOutput{}, err
	}
	for _, consumer := range consumers {
		co := consumerOutput{
			Target:      consumer.Target().Address().String(),
			Propagation: string(consumer.Propagation()),
		}
		if fallback, ok := consumer.Fallback(); ok {
			co.Fallback = &fallback
		}
		out.Consumers = append(out.Consumers, co)
	}
	return out, nil
}
