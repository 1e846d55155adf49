// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pysource

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSource holds Prometheus metrics for source parsing.
type metricsSource struct {
	once sync.Once

	parseSeconds prometheus.Histogram
	defs         prometheus.Counter
}

var srcMetrics metricsSource

func (m *metricsSource) init() {
	m.once.Do(func() {
		m.parseSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "siginspect_source_parse_seconds",
			Help:    "Time spent parsing a Python source file",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		})
		m.defs = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siginspect_source_defs_total",
			Help: "Functions, classes and lambdas extracted from Python source",
		})

		prometheus.MustRegister(m.parseSeconds, m.defs)
	})
}

func observeParse(d time.Duration, defs int) {
	srcMetrics.init()
	srcMetrics.parseSeconds.Observe(d.Seconds())
	srcMetrics.defs.Add(float64(defs))
}
