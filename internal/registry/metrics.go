// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "contracts_registry"

// Collector is a prometheus.Collector describing the constructed graph.
type Collector struct {
	builds         prometheus.Gauge
	envers         *prometheus.GaugeVec
	producers      *prometheus.GaugeVec
	consumers      *prometheus.GaugeVec
	wiringDuration *prometheus.HistogramVec
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		builds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "builds",
				Help:      "The number of builds in the registry.",
			},
		),
		envers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "environments",
				Help:      "The number of environments per build and mutability.",
			}, []string{"build", "mutability"},
		),
		producers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "producers",
				Help:      "The number of producers per environment.",
			}, []string{"enver", "late"},
		),
		consumers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "consumers",
				Help:      "The number of consumers per environment and propagation.",
			}, []string{"enver", "propagation"},
		),
		wiringDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "wiring_duration_seconds",
				Help:      "The time taken to wire a build.",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1},
			}, []string{"build"},
		),
	}
}

func (c *Collector) observeWiring(build string, d time.Duration) {
	if c == nil {
		return
	}
	c.wiringDuration.WithLabelValues(build).Observe(d.Seconds())
}

func (c *Collector) observeRegistry(r *Registry) {
	if c == nil {
		return
	}
	c.builds.Set(float64(len(r.entries)))
	for _, enver := range r.enverOrder {
		c.envers.WithLabelValues(enver.Build(), string(enver.Mutability())).Inc()
		c.producers.WithLabelValues(string(enver.Key()), "false")
		c.producers.WithLabelValues(string(enver.Key()), "true")
		for _, producer := range enver.Producers() {
			c.producers.WithLabelValues(string(enver.Key()), strconv.FormatBool(producer.Late())).Inc()
		}
	}
	for _, consumer := range r.consumers {
		c.consumers.WithLabelValues(string(consumer.Owner().Key()), string(consumer.Propagation())).Inc()
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.builds.Describe(ch)
	c.envers.Describe(ch)
	c.producers.Describe(ch)
	c.consumers.Describe(ch)
	c.wiringDuration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.builds.Collect(ch)
	c.envers.Collect(ch)
	c.producers.Collect(ch)
	c.consumers.Collect(ch)
	c.wiringDuration.Collect(ch)
}
