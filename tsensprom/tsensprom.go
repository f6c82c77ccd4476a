// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tsensprom exports on-die temperature readings to Prometheus.
//
// The sensor is read when the registry is scraped; nothing runs in the
// background. The raw code is taken by its own conversion, right after the
// temperature one, so it is not the code the exported temperature was
// computed from.
package tsensprom

import (
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GermanBionicSystems/tempsensor/tsens"
)

// Reader is the part of the sensor the collector needs.
type Reader interface {
	ReadCelsius() (float32, error)
	ReadRaw() (uint32, error)
}

// Opts holds the options of a Collector.
type Opts struct {
	// Namespace defaults to "sensors".
	Namespace string
	// Labels are added to every metric.
	Labels prometheus.Labels
}

// Collector is a prometheus.Collector reading a sensor on every scrape.
type Collector struct {
	r Reader
	// mu serializes scrapes so the errors counter matches the readings.
	mu          sync.Mutex
	temperature *prometheus.Desc
	raw         *prometheus.Desc
	errors      prometheus.Counter
}

// New returns a Collector for r. opts can be nil.
func New(r Reader, opts *Opts) *Collector {
	ns := "sensors"
	var labels prometheus.Labels
	if opts != nil {
		if opts.Namespace != "" {
			ns = opts.Namespace
		}
		labels = opts.Labels
	}
	return &Collector{
		r: r,
		temperature: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "tsens", "temperature_celsius"),
			"Calibrated on-die temperature.", nil, labels),
		raw: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "tsens", "raw_code"),
			"Raw code of a conversion taken after the temperature reading.", nil, labels),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "tsens",
			Name:        "read_errors_total",
			Help:        "Failed sensor reads.",
			ConstLabels: labels,
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.temperature
	ch <- c.raw
	c.errors.Describe(ch)
}

// Collect implements prometheus.Collector. It runs two conversions, the
// calibrated reading first. A failed read drops its metric from the scrape
// and counts an error.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, err := c.r.ReadCelsius(); err != nil {
		c.errors.Inc()
	} else {
		ch <- prometheus.MustNewConstMetric(c.temperature, prometheus.GaugeValue, round(float64(v), 2))
	}
	if v, err := c.r.ReadRaw(); err != nil {
		c.errors.Inc()
	} else {
		ch <- prometheus.MustNewConstMetric(c.raw, prometheus.GaugeValue, float64(v))
	}
	ch <- c.errors
}

func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

var _ Reader = (*tsens.Dev)(nil)
var _ prometheus.Collector = (*Collector)(nil)
