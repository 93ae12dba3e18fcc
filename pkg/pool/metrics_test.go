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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	p := New(2, WithName("metrics"), WithMetrics(m))
	if got := testutil.ToFloat64(m.WorkersAlive.WithLabelValues("metrics")); got != 2 {
		t.Fatalf("expected 2 alive workers, got %v", got)
	}

	for i := 0; i < 5; i++ {
		if err := p.Execute(func() {}); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Execute(func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Execute(func() {}); err == nil {
		t.Fatal("expected submit after Close to fail")
	}

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{name: "submitted", c: m.JobsSubmitted.WithLabelValues("metrics"), want: 6},
		{name: "completed", c: m.JobsCompleted.WithLabelValues("metrics"), want: 5},
		{name: "panicked", c: m.JobsPanicked.WithLabelValues("metrics"), want: 1},
		{name: "rejected", c: m.JobsRejected.WithLabelValues("metrics"), want: 1},
		{name: "alive", c: m.WorkersAlive.WithLabelValues("metrics"), want: 0},
		{name: "queue depth", c: m.QueueDepth.WithLabelValues("metrics"), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if n := testutil.CollectAndCount(m.JobDuration); n != 1 {
		t.Fatalf("expected one job duration series, got %d", n)
	}
}

func TestMetrics_QueueDepth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")
	depth := m.QueueDepth.WithLabelValues("depth")

	p := New(1, WithName("depth"), WithMetrics(m))
	started := make(chan struct{})
	release := make(chan struct{})
	if err := p.Execute(func() {
		close(started)
		<-release
	}); err != nil {
		t.Fatal(err)
	}
	<-started
	for i := 0; i < 3; i++ {
		if err := p.Execute(func() {}); err != nil {
			t.Fatal(err)
		}
	}
	if got := testutil.ToFloat64(depth); got != 3 {
		t.Fatalf("expected queue depth 3 behind a busy worker, got %v", got)
	}

	close(release)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Execute(func() {}); err == nil {
		t.Fatal("expected submit after Close to fail")
	}
	if got := testutil.ToFloat64(depth); got != 0 {
		t.Fatalf("expected queue depth 0 after Close, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	pm := m.forPool("x")
	pm.jobQueued()
	pm.jobSubmitted()
	pm.jobRejected()
	pm.jobDequeued()
	pm.jobDone(0, true)
	pm.workerStarted()
	pm.workerStopped()
}
