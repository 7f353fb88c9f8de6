// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/tracepath/internal/tracepath"
	"github.com/telekom/tracepath/pkg/checks"
)

// metrics defines the metric collectors of the tracepath check
type metrics struct {
	pmtu      *prometheus.GaugeVec
	hops      *prometheus.GaugeVec
	backHops  *prometheus.GaugeVec
	reached   *prometheus.GaugeVec
	count     *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// newMetrics initializes metric collectors of the tracepath check
func newMetrics() metrics {
	return metrics{
		pmtu: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracepath_pmtu_bytes",
				Help: "Path MTU discovered towards the target in bytes.",
			},
			[]string{"target"},
		),
		hops: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracepath_hops",
				Help: "Confirmed number of hops to the target, -1 if unknown.",
			},
			[]string{"target"},
		),
		backHops: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracepath_back_hops",
				Help: "Estimated number of hops on the return path from the target, -1 if unknown.",
			},
			[]string{"target"},
		),
		reached: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracepath_reached",
				Help: "Specifies if the last trace reached the target.",
			},
			[]string{"target"},
		),
		count: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracepath_check_count",
				Help: "Total number of traces performed on the target.",
			},
			[]string{"target"},
		),
		histogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tracepath_duration_seconds",
				Help:    "Histogram of trace durations in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"target"},
		),
	}
}

// List returns all metric collectors
func (m *metrics) List() []prometheus.Collector {
	return []prometheus.Collector{
		m.pmtu,
		m.hops,
		m.backHops,
		m.reached,
		m.count,
		m.histogram,
	}
}

// Set sets the metrics of one trace result
func (m *metrics) Set(target string, res traceResult) {
	m.count.WithLabelValues(target).Inc()
	m.histogram.WithLabelValues(target).Observe(res.Duration)

	reached := 0.0
	if res.Error == "" && res.Summary.State == tracepath.StateReached {
		reached = 1
	}
	m.reached.WithLabelValues(target).Set(reached)
	if res.Error != "" {
		return
	}
	m.pmtu.WithLabelValues(target).Set(float64(res.Summary.PMTU))
	m.hops.WithLabelValues(target).Set(float64(res.Summary.HopsTo))
	m.backHops.WithLabelValues(target).Set(float64(res.Summary.HopsFrom))
}

// Remove removes the metrics of one target
func (m *metrics) Remove(target string) error {
	found := false
	for _, c := range []interface{ DeleteLabelValues(...string) bool }{m.pmtu, m.hops, m.backHops, m.reached, m.count, m.histogram} {
		if c.DeleteLabelValues(target) {
			found = true
		}
	}
	if !found {
		return checks.ErrMetricNotFound{Target: target}
	}
	return nil
}
