// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "pool"

// Metrics holds the prometheus collectors shared by all pools reporting to
// the same registry. Every series carries a "pool" label.
type Metrics struct {
	JobsSubmitted *prometheus.CounterVec
	JobsRejected  *prometheus.CounterVec
	JobsCompleted *prometheus.CounterVec
	JobsPanicked  *prometheus.CounterVec
	WorkersAlive  *prometheus.GaugeVec
	QueueDepth    *prometheus.GaugeVec
	JobDuration   *prometheus.HistogramVec
}

// NewMetrics creates the pool collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	labels := []string{"pool"}
	m := &Metrics{
		JobsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs accepted by the pool",
		}, labels),
		JobsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "jobs_rejected_total",
			Help:      "Total number of jobs submitted after shutdown",
		}, labels),
		JobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that returned normally",
		}, labels),
		JobsPanicked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "jobs_panicked_total",
			Help:      "Total number of jobs that panicked or exited their worker goroutine",
		}, labels),
		WorkersAlive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "workers_alive",
			Help:      "Number of worker goroutines that have not terminated",
		}, labels),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "queue_depth",
			Help:      "Number of jobs waiting for a worker",
		}, labels),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "job_duration_seconds",
			Help:      "Histogram of job execution time",
			Buckets:   prometheus.DefBuckets,
		}, labels),
	}
	reg.MustRegister(
		m.JobsSubmitted,
		m.JobsRejected,
		m.JobsCompleted,
		m.JobsPanicked,
		m.WorkersAlive,
		m.QueueDepth,
		m.JobDuration,
	)
	return m
}

// poolMetrics is the per-pool view of Metrics. All methods are no-ops on a nil receiver.
type poolMetrics struct {
	submitted prometheus.Counter
	rejected  prometheus.Counter
	completed prometheus.Counter
	panicked  prometheus.Counter
	alive     prometheus.Gauge
	depth     prometheus.Gauge
	duration  prometheus.Observer
}

func (m *Metrics) forPool(name string) *poolMetrics {
	if m == nil {
		return nil
	}
	return &poolMetrics{
		submitted: m.JobsSubmitted.WithLabelValues(name),
		rejected:  m.JobsRejected.WithLabelValues(name),
		completed: m.JobsCompleted.WithLabelValues(name),
		panicked:  m.JobsPanicked.WithLabelValues(name),
		alive:     m.WorkersAlive.WithLabelValues(name),
		depth:     m.QueueDepth.WithLabelValues(name),
		duration:  m.JobDuration.WithLabelValues(name),
	}
}

func (pm *poolMetrics) jobQueued() {
	if pm == nil {
		return
	}
	pm.depth.Inc()
}

func (pm *poolMetrics) jobSubmitted() {
	if pm == nil {
		return
	}
	pm.submitted.Inc()
}

// jobRejected undoes jobQueued for a job the closed queue refused.
func (pm *poolMetrics) jobRejected() {
	if pm == nil {
		return
	}
	pm.depth.Dec()
	pm.rejected.Inc()
}

func (pm *poolMetrics) jobDequeued() {
	if pm == nil {
		return
	}
	pm.depth.Dec()
}

func (pm *poolMetrics) jobDone(d time.Duration, panicked bool) {
	if pm == nil {
		return
	}
	pm.duration.Observe(d.Seconds())
	if panicked {
		pm.panicked.Inc()
		return
	}
	pm.completed.Inc()
}

func (pm *poolMetrics) workerStarted() {
	if pm == nil {
		return
	}
	pm.alive.Inc()
}

func (pm *poolMetrics) workerStopped() {
	if pm == nil {
		return
	}
	pm.alive.Dec()
}
