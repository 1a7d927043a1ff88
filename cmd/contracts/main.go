// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"os"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/internal/registry"
)

const contractsDoc = `
contracts builds the cross-service contract graph of the pipeline services
from the environment configuration and lets you inspect it: the wiring
order, the producers and consumers of every environment, the environments
affected by a change to a node, and the trust rendered for its resources.
`

func main() {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		os.Exit(2)
	}
	os.Exit(cmd.Main(NewContractsCommand(newApp(registry.Default())), ctx, os.Args[1:]))
}

// NewContractsCommand returns the contracts command with every subcommand
// registered against a.
func NewContractsCommand(a *app) *cmd.SuperCommand {
	c := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "contracts",
		Purpose: "inspect the cross-service contract graph",
		Doc:     contractsDoc,
		Flags:   a.addFlags,
	})
	c.Register(&orderCommand{app: a})
	c.Register(newGraphCommand(a))
	c.Register(&dependentsCommand{app: a})
	c.Register(&trustCommand{})
	c.Register(&policyCommand{app: a})
	c.Register(&provisionCommand{app: a})
	c.Register(newResolveCommand(a))
	return c
}
