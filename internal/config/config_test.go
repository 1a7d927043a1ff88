// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package config_test

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/internal/config"
)

type configSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&configSuite{})

func (s *configSuite) writeEnvFile(c *gc.C, content string) string {
	path := filepath.Join(c.MkDir(), "contracts.env")
	err := os.WriteFile(path, []byte(content), 0644)
	c.Assert(err, jc.ErrorIsNil)
	return path
}

func (s *configSuite) TestFromEnv(c *gc.C) {
	s.PatchEnvironment(config.AccountIDKey, "111")
	s.PatchEnvironment(config.RegionKey, "us-east-1")
	s.PatchEnvironment(config.ProdAccountIDKey, "222")
	s.PatchEnvironment(config.WiringOrderKey, "document-ingestion, embedding,,web-ui")

	cfg, err := config.FromEnv()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg, jc.DeepEquals, config.Config{
		AccountID:     "111",
		Region:        "us-east-1",
		DevAccountID:  "111",
		ProdAccountID: "222",
		WiringOrder:   []string{"document-ingestion", "embedding", "web-ui"},
	})
	c.Check(cfg.DevAccount(), gc.Equals, "111")
	c.Check(cfg.ProdAccount(), gc.Equals, "222")
}

func (s *configSuite) TestMissingAccount(c *gc.C) {
	s.PatchEnvironment(config.RegionKey, "us-east-1")
	_, err := config.FromEnv()
	c.Check(err, jc.ErrorIs, coreerrors.MissingConfiguration)
	c.Check(err, gc.ErrorMatches, `CONTRACTS_ACCOUNT_ID: missing configuration`)
}

func (s *configSuite) TestMissingRegion(c *gc.C) {
	s.PatchEnvironment(config.AccountIDKey, "111")
	_, err := config.FromEnv()
	c.Check(err, jc.ErrorIs, coreerrors.MissingConfiguration)
	c.Check(err, gc.ErrorMatches, `CONTRACTS_REGION: missing configuration`)
}

func (s *configSuite) TestInvalidValues(c *gc.C) {
	s.PatchEnvironment(config.AccountIDKey, "12ab")
	s.PatchEnvironment(config.RegionKey, "us-east-1")
	_, err := config.FromEnv()
	c.Check(err, jc.Satisfies, errors.IsNotValid)

	s.PatchEnvironment(config.AccountIDKey, "111")
	s.PatchEnvironment(config.RegionKey, "moon")
	_, err = config.FromEnv()
	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *configSuite) TestInvalidAccountsReportedInOrder(c *gc.C) {
	cfg := config.Config{
		AccountID:     "111",
		Region:        "us-east-1",
		DevAccountID:  "dev",
		ProdAccountID: "prod",
	}
	for i := 0; i < 10; i++ {
		c.Check(cfg.Validate(), gc.ErrorMatches, `CONTRACTS_DEV_ACCOUNT_ID "dev" not valid`)
	}
	cfg.AccountID = "main"
	c.Check(cfg.Validate(), gc.ErrorMatches, `CONTRACTS_ACCOUNT_ID "main" not valid`)
}

func (s *configSuite) TestLoadEnvFile(c *gc.C) {
	path := s.writeEnvFile(c, `
CONTRACTS_ACCOUNT_ID=111
CONTRACTS_REGION=eu-west-2
CONTRACTS_VALUE_BUCKET=contracts-values
`)
	cfg, err := config.Load(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg.AccountID, gc.Equals, "111")
	c.Check(cfg.Region, gc.Equals, "eu-west-2")
	c.Check(cfg.ValueBucket, gc.Equals, "contracts-values")
	c.Check(cfg.ProdAccount(), gc.Equals, "111")
}

func (s *configSuite) TestLoadDoesNotOverrideEnvironment(c *gc.C) {
	path := s.writeEnvFile(c, "CONTRACTS_ACCOUNT_ID=111\nCONTRACTS_REGION=eu-west-2\n")
	s.PatchEnvironment(config.AccountIDKey, "333")

	cfg, err := config.Load(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg.AccountID, gc.Equals, "333")
}

func (s *configSuite) TestLoadMissingFileTolerated(c *gc.C) {
	s.PatchEnvironment(config.AccountIDKey, "111")
	s.PatchEnvironment(config.RegionKey, "us-east-1")

	cfg, err := config.Load(filepath.Join(c.MkDir(), "missing.env"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cfg.Region, gc.Equals, "us-east-1")
}
