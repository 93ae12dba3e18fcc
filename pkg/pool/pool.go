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
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNilJob is returned when a nil job is submitted.
	ErrNilJob = errors.New("nil job")
	// ErrJobExited is reported by Close for every job that ended its worker
	// goroutine with runtime.Goexit. The worker itself was restarted.
	ErrJobExited = errors.New("job exited the worker goroutine")
)

// Pool is a fixed-size set of worker goroutines fed from one shared FIFO queue.
// Each submitted job runs exactly once on whichever worker dequeues it.
//
// The pool must be shut down with Close, which stops accepting jobs, lets the
// workers drain everything already queued and waits for each of them to exit.
type Pool struct {
	name    string
	workers []*worker
	queue   *Queue[Job]

	log     *log.Entry
	metrics *poolMetrics

	closeOnce sync.Once
	closeErr  error
}

// New starts a pool of size workers. It panics if size is not positive: a pool
// without workers would accept jobs that never run.
func New(size int, opts ...Option) *Pool {
	if size <= 0 {
		panic(fmt.Sprintf("pool: size must be greater than zero, got %d", size))
	}
	o := newOptions(opts...)

	q := NewQueue[Job]()
	if o.observer != nil {
		q.SetObserver(o.observer)
	}
	p := &Pool{
		name:    o.name,
		queue:   q,
		log:     o.logger,
		metrics: o.metrics.forPool(o.name),
		workers: make([]*worker, 0, size),
	}
	for id := 0; id < size; id++ {
		p.workers = append(p.workers, newWorker(id, q, o, p.metrics))
	}
	p.log.Debugf("started %d workers", size)
	return p
}

// Execute submits f to the pool.
func (p *Pool) Execute(f func()) error {
	if f == nil {
		return ErrNilJob
	}
	return p.Submit(JobFunc(f))
}

// Submit enqueues job and returns without waiting for any worker.
// It fails with ErrClosed once Close has been called and the job is not run.
// Submitting to a closed pool is a bug in the caller: the error must not be
// ignored or retried.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	// counted before Put so that a dequeue never lowers the depth first
	p.metrics.jobQueued()
	if _, err := p.queue.Put(job); err != nil {
		p.metrics.jobRejected()
		p.log.Errorf("job submitted after shutdown: %v", err)
		return fmt.Errorf("pool %q: %w", p.name, err)
	}
	p.metrics.jobSubmitted()
	return nil
}

// Close closes the queue and then joins the workers in index order. Jobs that
// are queued or running when Close is called complete before it returns.
// There is no timeout: a job that never returns blocks Close forever.
//
// The returned error aggregates the failures of workers that stopped abnormally
// and jobs that exited their worker goroutine.
// Calling Close more than once returns the result of the first call.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.queue.Close()
		var merr *multierror.Error
		for _, w := range p.workers {
			p.log.Debugf("shutting down worker %d", w.id)
			if err := w.join(); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
		p.closeErr = merr.ErrorOrNil()
		p.log.Debugf("pool stopped")
	})
	return p.closeErr
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Size returns the number of workers the pool was created with.
func (p *Pool) Size() int { return len(p.workers) }

// Alive returns the number of workers whose goroutine has not terminated.
func (p *Pool) Alive() int {
	n := 0
	for _, w := range p.workers {
		if w.State() != StateTerminated {
			n++
		}
	}
	return n
}

// Pending returns the number of jobs waiting for a worker.
func (p *Pool) Pending() int { return p.queue.Len() }

// Workers returns a snapshot of the worker states in index order.
func (p *Pool) Workers() []WorkerInfo {
	out := make([]WorkerInfo, 0, len(p.workers))
	for _, w := range p.workers {
		out = append(out, WorkerInfo{ID: w.id, State: w.State()})
	}
	return out
}
