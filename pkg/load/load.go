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

// Package load drives a pool with a synthetic workload from concurrent producers.
package load

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sdcio/threadpool/pkg/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Submitter accepts jobs for asynchronous execution.
type Submitter interface {
	Execute(f func()) error
}

type Stats struct {
	Submitted int64
	Completed int64
	Elapsed   time.Duration
}

// Throughput returns completed jobs per second.
func (s *Stats) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Completed) / s.Elapsed.Seconds()
}

func (s *Stats) String() string {
	return fmt.Sprintf("submitted=%d completed=%d elapsed=%s throughput=%.1f jobs/s",
		s.Submitted, s.Completed, s.Elapsed, s.Throughput())
}

// Run submits cfg.Producers*cfg.Jobs jobs to s and waits until all of them finished.
// At most cfg.MaxInflight jobs are submitted but not finished at any time.
// Cancelling ctx stops the producers; jobs already submitted keep running.
func Run(ctx context.Context, s Submitter, cfg *config.LoadConfig) (*Stats, error) {
	if cfg.MaxInflight <= 0 {
		return nil, fmt.Errorf("max-inflight must be positive, got %d", cfg.MaxInflight)
	}
	var submitted, completed int64
	sem := semaphore.NewWeighted(cfg.MaxInflight)
	start := time.Now()

	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Producers; i++ {
		producer := i
		eg.Go(func() error {
			for j := 0; j < cfg.Jobs; j++ {
				if err := sem.Acquire(egCtx, 1); err != nil {
					return err
				}
				err := s.Execute(func() {
					defer sem.Release(1)
					if cfg.JobDuration > 0 {
						time.Sleep(cfg.JobDuration)
					}
					atomic.AddInt64(&completed, 1)
				})
				if err != nil {
					sem.Release(1)
					return fmt.Errorf("producer %d: %w", producer, err)
				}
				atomic.AddInt64(&submitted, 1)
				if cfg.Interval > 0 {
					select {
					case <-egCtx.Done():
						return egCtx.Err()
					case <-time.After(cfg.Interval):
					}
				}
			}
			log.Debugf("producer %d submitted %d jobs", producer, cfg.Jobs)
			return nil
		})
	}
	err := eg.Wait()

	// all in-flight jobs have finished once the full weight can be acquired
	if werr := sem.Acquire(ctx, cfg.MaxInflight); werr == nil {
		sem.Release(cfg.MaxInflight)
	} else if err == nil {
		err = werr
	}

	return &Stats{
		Submitted: atomic.LoadInt64(&submitted),
		Completed: atomic.LoadInt64(&completed),
		Elapsed:   time.Since(start),
	}, err
}
