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
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

// State is the lifecycle state of a worker.
type State int32

const (
	StateSpawned State = iota
	StatePolling
	StateExecuting
	// StateDraining is entered once the worker observed the closed and empty queue.
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateSpawned:
		return "spawned"
	case StatePolling:
		return "polling"
	case StateExecuting:
		return "executing"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// WorkerInfo is a diagnostic snapshot of one worker.
type WorkerInfo struct {
	ID    int
	State State
}

// handle is the join handle of a worker goroutine.
type handle struct {
	done chan struct{}
	errs *multierror.Error // set before done is closed
}

type worker struct {
	id    int
	state atomic.Int32

	// handle is taken exactly once, by join
	handle *handle

	queue   *Queue[Job]
	log     *log.Entry
	metrics *poolMetrics
	onPanic PanicHandler
}

// newWorker starts the goroutine of worker id and returns with its join handle set.
func newWorker(id int, q *Queue[Job], o *options, pm *poolMetrics) *worker {
	w := &worker{
		id:      id,
		queue:   q,
		log:     o.logger.WithField("worker", id),
		metrics: pm,
		onPanic: o.onPanic,
		handle:  &handle{done: make(chan struct{})},
	}
	w.setState(StateSpawned)
	pm.workerStarted()
	go w.run(w.handle)
	return w
}

func (w *worker) run(h *handle) {
	exited := true
	defer func() {
		if exited {
			// a job called runtime.Goexit, serve the queue from a new goroutine
			w.log.Errorf("worker %d: job exited the worker goroutine, restarting", w.id)
			h.errs = multierror.Append(h.errs, fmt.Errorf("worker %d: %w", w.id, ErrJobExited))
			go w.run(h)
			return
		}
		w.setState(StateTerminated)
		w.metrics.workerStopped()
		close(h.done)
	}()
	err := w.loop()
	exited = false
	if err != nil {
		h.errs = multierror.Append(h.errs, err)
	}
}

func (w *worker) loop() error {
	for {
		w.setState(StatePolling)
		job, err := w.recv()
		if err != nil {
			if errors.Is(err, ErrClosed) {
				w.setState(StateDraining)
				return nil
			}
			w.log.Errorf("worker %d stopped: %v", w.id, err)
			return fmt.Errorf("worker %d: %w", w.id, err)
		}
		w.log.Tracef("worker %d got a job; executing", w.id)
		w.setState(StateExecuting)
		w.execute(job)
	}
}

// recv takes the next job off the shared queue. The queue lock is released
// when recv returns.
func (w *worker) recv() (job Job, err error) {
	defer func() {
		if r := recover(); r != nil {
			// the queue marked itself poisoned while unwinding, after the job was taken off
			w.metrics.jobDequeued()
			err = fmt.Errorf("%w: panic while receiving: %v", ErrPoisoned, r)
		}
	}()
	job, _, err = w.queue.Recv(w.id)
	if err == nil {
		w.metrics.jobDequeued()
	}
	return job, err
}

// execute runs job inside a failure boundary: a panicking job is logged and
// reported, and the worker keeps serving the queue.
func (w *worker) execute(job Job) {
	start := time.Now()
	returned := false
	defer func() {
		w.metrics.jobDone(time.Since(start), !returned)
		if returned {
			return
		}
		r := recover()
		if r == nil {
			// runtime.Goexit cannot be stopped, run replaces the goroutine
			return
		}
		w.log.Errorf("worker %d: job panicked: %v\n%s", w.id, r, debug.Stack())
		w.reportPanic(r)
	}()
	job.Run()
	returned = true
}

func (w *worker) reportPanic(r any) {
	if w.onPanic == nil {
		return
	}
	defer func() {
		if hr := recover(); hr != nil {
			w.log.Errorf("worker %d: panic handler panicked: %v", w.id, hr)
		}
	}()
	w.onPanic(w.id, r)
}

// join waits for the worker goroutine to exit and returns its exit error.
// Only the first call waits; later calls find the handle already taken.
func (w *worker) join() error {
	h := w.handle
	w.handle = nil
	if h == nil {
		return nil
	}
	<-h.done
	return h.errs.ErrorOrNil()
}

func (w *worker) setState(s State) {
	w.state.Store(int32(s))
}

func (w *worker) State() State {
	return State(w.state.Load())
}
