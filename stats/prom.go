// Package stats keeps the process-wide download statistics: counters,
// speed samples, persistence, and Prometheus export.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "dlsim"

// metric names
const (
	DownloadCount    = "dl_n"
	TransferredBytes = "dl_size"
	SpeedSamples     = "dl_speed_samples_n"
	SpeedHistogram   = "dl_speed_bps"
	ActiveSessions   = "dl_active"
)

type promStats struct {
	parent *Store
	reg    *prometheus.Registry
	speed  prometheus.Histogram
	descs  struct {
		count, size, samples, active *prometheus.Desc
	}
}

// interface guard
var _ prometheus.Collector = (*promStats)(nil)

func newPromStats(parent *Store) *promStats {
	p := &promStats{parent: parent, reg: prometheus.NewRegistry()}
	p.descs.count = prometheus.NewDesc(prometheus.BuildFQName(namespace, "", DownloadCount),
		"total number of completed downloads", nil, nil)
	p.descs.size = prometheus.NewDesc(prometheus.BuildFQName(namespace, "", TransferredBytes),
		"total number of bytes streamed (including cancelled downloads)", nil, nil)
	p.descs.samples = prometheus.NewDesc(prometheus.BuildFQName(namespace, "", SpeedSamples),
		"total number of recorded speed samples", nil, nil)
	p.descs.active = prometheus.NewDesc(prometheus.BuildFQName(namespace, "", ActiveSessions),
		"number of downloads in progress", nil, nil)

	p.speed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      SpeedHistogram,
		Help:      "sampled download speed, bytes per second",
		// 64KiB/s .. 64GiB/s
		Buckets: prometheus.ExponentialBuckets(64*1024, 4, 11),
	})
	p.reg.MustRegister(p, p.speed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *promStats) observe(speed float64) { p.speed.Observe(speed) }

func (p *promStats) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.descs.count
	ch <- p.descs.size
	ch <- p.descs.samples
	ch <- p.descs.active
}

func (p *promStats) Collect(ch chan<- prometheus.Metric) {
	stats := p.parent.Snapshot()
	ch <- prometheus.MustNewConstMetric(p.descs.count, prometheus.CounterValue, float64(stats.DownloadCount))
	ch <- prometheus.MustNewConstMetric(p.descs.size, prometheus.CounterValue, float64(stats.TransferredBytes))
	ch <- prometheus.MustNewConstMetric(p.descs.samples, prometheus.CounterValue, float64(stats.SpeedSampleCount))
	ch <- prometheus.MustNewConstMetric(p.descs.active, prometheus.GaugeValue, float64(p.parent.Active()))
}

// Gatherer is served at /metrics.
func (s *Store) Gatherer() prometheus.Gatherer { return s.prom.reg }
