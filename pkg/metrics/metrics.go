/*
Copyright 2026 The Crossplane Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics records Prometheus metrics for a seed run.
package metrics

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/crossplane/model-seeder/pkg/reconciler/seed"
)

const namespace = "model_seeder"

const errWriteTextfile = "cannot write metrics file"

// Metrics of a seed run. Metrics is a prometheus.Collector.
type Metrics struct {
	decisions   *prometheus.CounterVec
	batches     *prometheus.CounterVec
	batchSize   *prometheus.HistogramVec
	batchTime   *prometheus.HistogramVec
	childErrors *prometheus.CounterVec
}

// New returns new Metrics.
func New() *Metrics {
	return &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Decisions taken per entity type.",
			},
			[]string{"type", "decision"},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "children",
				Name:      "batches_total",
				Help:      "Child batches set up per child type.",
			},
			[]string{"type", "success"},
		),
		batchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "children",
				Name:      "batch_size",
				Help:      "Number of children per batch.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
			},
			[]string{"type"},
		),
		batchTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "children",
				Name:      "batch_duration_seconds",
				Help:      "Time taken to set up a batch of children.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		childErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "children",
				Name:      "failed_batches_total",
				Help:      "Child batches that failed per child type.",
			},
			[]string{"type"},
		),
	}
}

// Describe sends the descriptors of all metrics.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.decisions.Describe(ch)
	m.batches.Describe(ch)
	m.batchSize.Describe(ch)
	m.batchTime.Describe(ch)
	m.childErrors.Describe(ch)
}

// Collect sends all metrics.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.decisions.Collect(ch)
	m.batches.Collect(ch)
	m.batchSize.Collect(ch)
	m.batchTime.Collect(ch)
	m.childErrors.Collect(ch)
}

// RecordDecision counts a decision taken for an entity of the supplied type.
func (m *Metrics) RecordDecision(typ, decision string) {
	m.decisions.WithLabelValues(typ, decision).Inc()
}

// RecordChildBatch records a batch of children of the supplied type.
func (m *Metrics) RecordChildBatch(typ string, size int, took time.Duration, err error) {
	m.batches.WithLabelValues(typ, strconv.FormatBool(err == nil)).Inc()
	m.batchSize.WithLabelValues(typ).Observe(float64(size))
	m.batchTime.WithLabelValues(typ).Observe(took.Seconds())
	if err != nil {
		m.childErrors.WithLabelValues(typ).Inc()
	}
}

// WriteToTextfile writes the metrics in the Prometheus text format, for
// example for the node exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	r := prometheus.NewRegistry()
	if err := r.Register(m); err != nil {
		return errors.Wrap(err, errWriteTextfile)
	}
	return errors.Wrap(prometheus.WriteToTextfile(path, r), errWriteTextfile)
}

var (
	_ prometheus.Collector = &Metrics{}
	_ seed.MetricRecorder  = &Metrics{}
)
