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

package config

import (
	"errors"
	"time"
)

// LoadConfig describes a synthetic workload submitted to the pool.
type LoadConfig struct {
	// Producers is the number of concurrent submitters.
	Producers int `yaml:"producers,omitempty" json:"producers,omitempty"`
	// Jobs is the number of jobs each producer submits.
	Jobs int `yaml:"jobs,omitempty" json:"jobs,omitempty"`
	// JobDuration is how long each synthetic job sleeps.
	JobDuration time.Duration `yaml:"job-duration,omitempty" json:"job-duration,omitempty"`
	// Interval is the pause between two submissions of the same producer.
	Interval time.Duration `yaml:"interval,omitempty" json:"interval,omitempty"`
	// MaxInflight bounds the jobs submitted but not yet finished.
	MaxInflight int64 `yaml:"max-inflight,omitempty" json:"max-inflight,omitempty"`
}

func (l *LoadConfig) validateSetDefaults() error {
	if l.Producers < 0 || l.Jobs < 0 || l.MaxInflight < 0 {
		return errors.New("load: producers, jobs and max-inflight must not be negative")
	}
	if l.JobDuration < 0 || l.Interval < 0 {
		return errors.New("load: durations must not be negative")
	}
	if l.Producers == 0 {
		l.Producers = defaultProducers
	}
	if l.Jobs == 0 {
		l.Jobs = defaultJobs
	}
	if l.JobDuration == 0 {
		l.JobDuration = defaultJobDuration
	}
	if l.MaxInflight == 0 {
		l.MaxInflight = defaultMaxInflight
	}
	return nil
}
