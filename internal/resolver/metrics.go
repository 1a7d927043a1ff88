// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package resolver

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ondemandenv/contracts/core/contract"
)

const metricsNamespace = "contracts_resolver"

const (
	failureUnresolved  = "unresolved"
	failureNotDeployed = "not-deployed"
	failureSource      = "source"
)

// Collector is a prometheus.Collector that collects metrics about value
// resolution.
type Collector struct {
	resolutions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "resolutions_total",
				Help:      "The number of resolved edges by origin of the value.",
			}, []string{"origin"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "failures_total",
				Help:      "The number of edges that could not be resolved.",
			}, []string{"reason"},
		),
	}
}

func (c *Collector) resolved(origin contract.Origin) {
	if c == nil {
		return
	}
	c.resolutions.WithLabelValues(string(origin)).Inc()
}

func (c *Collector) failure(reason string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(reason).Inc()
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.resolutions.Describe(ch)
	c.failures.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.resolutions.Collect(ch)
	c.failures.Collect(ch)
}
