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
	log "github.com/sirupsen/logrus"
)

const defaultName = "default"

// PanicHandler is called on the worker goroutine after a job panicked.
// r is the recovered value.
type PanicHandler func(workerID int, r any)

type options struct {
	name     string
	logger   *log.Entry
	metrics  *Metrics
	onPanic  PanicHandler
	observer func(workerID int, seq uint64)
}

// Option configures a Pool.
type Option func(*options)

// WithName sets the pool name used in log fields and metric labels.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger entry used by the pool and its workers.
func WithLogger(l *log.Entry) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics makes the pool report to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithPanicHandler sets a callback invoked after a job panicked.
func WithPanicHandler(h PanicHandler) Option {
	return func(o *options) {
		o.onPanic = h
	}
}

// WithReceiveObserver sets a callback invoked, while the queue lock is held, each
// time a worker dequeues a job. seq is the job's position in submission order.
// The callback must be fast and must not call back into the pool.
func WithReceiveObserver(fn func(workerID int, seq uint64)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func newOptions(opts ...Option) *options {
	o := &options{name: defaultName}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.WithField("pool", o.name)
	}
	return o
}
