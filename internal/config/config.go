// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config reads the deployment context the contracts registry is
// constructed with.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/core/naming"
)

var logger = loggo.GetLogger("contracts.config")

// Environment variables read by Load.
const (
	AccountIDKey     = "CONTRACTS_ACCOUNT_ID"
	RegionKey        = "CONTRACTS_REGION"
	DevAccountIDKey  = "CONTRACTS_DEV_ACCOUNT_ID"
	ProdAccountIDKey = "CONTRACTS_PROD_ACCOUNT_ID"
	WiringOrderKey   = "CONTRACTS_WIRING_ORDER"
	ValueBucketKey   = "CONTRACTS_VALUE_BUCKET"
)

// DefaultEnvFile is loaded when no env file is given.
const DefaultEnvFile = ".env"

// Config is the deployment context of the registry.
type Config struct {
	// AccountID is the account the platform deploys from.
	AccountID string

	// Region is the region every environment deploys to.
	Region string

	// DevAccountID and ProdAccountID are the accounts of the dev and prod
	// environments. They default to AccountID.
	DevAccountID  string
	ProdAccountID string

	// WiringOrder, when set, replaces the computed wiring order.
	WiringOrder []string

	// ValueBucket holds published shared values, optional.
	ValueBucket string
}

// Load reads envFile into the process environment, without overriding
// variables already set, then builds a Config from the environment. A
// missing env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return Config{}, errors.Annotatef(err, "loading %q", envFile)
		}
		logger.Debugf("no env file at %q", envFile)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		AccountID:     getenv(AccountIDKey),
		Region:        getenv(RegionKey),
		DevAccountID:  getenv(DevAccountIDKey),
		ProdAccountID: getenv(ProdAccountIDKey),
		WiringOrder:   splitList(getenv(WiringOrderKey)),
		ValueBucket:   getenv(ValueBucketKey),
	}
	if cfg.DevAccountID == "" {
		cfg.DevAccountID = cfg.AccountID
	}
	if cfg.ProdAccountID == "" {
		cfg.ProdAccountID = cfg.AccountID
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Trace(err)
	}
	return cfg, nil
}

// Validate checks the required values are present and well formed.
func (c Config) Validate() error {
	if c.AccountID == "" {
		return errors.Annotatef(coreerrors.MissingConfiguration, "%s", AccountIDKey)
	}
	if c.Region == "" {
		return errors.Annotatef(coreerrors.MissingConfiguration, "%s", RegionKey)
	}
	for _, account := range []struct {
		key, value string
	}{
		{AccountIDKey, c.AccountID},
		{DevAccountIDKey, c.DevAccountID},
		{ProdAccountIDKey, c.ProdAccountID},
	} {
		if account.value != "" && !naming.IsValidAccount(account.value) {
			return errors.NotValidf("%s %q", account.key, account.value)
		}
	}
	if !naming.IsValidRegion(c.Region) {
		return errors.NotValidf("%s %q", RegionKey, c.Region)
	}
	return nil
}

// DevAccount returns the account of dev environments.
func (c Config) DevAccount() string {
	if c.DevAccountID != "" {
		return c.DevAccountID
	}
	return c.AccountID
}

// ProdAccount returns the account of prod environments.
func (c Config) ProdAccount() string {
	if c.ProdAccountID != "" {
		return c.ProdAccountID
	}
	return c.AccountID
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
