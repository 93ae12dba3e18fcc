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

package cmd

import (
	"fmt"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/spf13/cobra"

	"github.com/sdcio/threadpool/pkg/config"
	"github.com/sdcio/threadpool/pkg/load"
	"github.com/sdcio/threadpool/pkg/pool"
)

var workers int
var producers int
var jobs int
var jobDuration time.Duration
var interval time.Duration
var maxInflight int64

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "submit jobs from concurrent producers and report throughput",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// the config layer replaces zeros with defaults, an explicit zero here is a mistake
		switch {
		case producers <= 0:
			return fmt.Errorf("--producers must be positive, got %d", producers)
		case jobs <= 0:
			return fmt.Errorf("--jobs must be positive, got %d", jobs)
		case maxInflight <= 0:
			return fmt.Errorf("--max-inflight must be positive, got %d", maxInflight)
		case jobDuration < 0:
			return fmt.Errorf("--job-duration must not be negative, got %s", jobDuration)
		}
		pc := &config.PoolConfig{Name: "poolbench", Size: pointer.ToInt(workers)}
		lc := &config.LoadConfig{
			Producers:   producers,
			Jobs:        jobs,
			JobDuration: jobDuration,
			Interval:    interval,
			MaxInflight: maxInflight,
		}
		c := &config.Config{Pool: pc, Load: lc}
		if err := c.Validate(); err != nil {
			return err
		}

		p := pool.New(pc.Workers(), pool.WithName(pc.Name))
		stats, err := load.Run(cmd.Context(), p, lc)
		if cerr := p.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "workers=%d producers=%d %s\n", pc.Workers(), lc.Producers, stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVarP(&workers, "workers", "w", 4, "number of pool workers")
	runCmd.Flags().IntVarP(&producers, "producers", "p", 1, "number of concurrent producers")
	runCmd.Flags().IntVarP(&jobs, "jobs", "n", 1000, "jobs per producer")
	runCmd.Flags().DurationVarP(&jobDuration, "job-duration", "", time.Millisecond, "time each job sleeps, 0 selects the 10ms default")
	runCmd.Flags().DurationVarP(&interval, "interval", "", 0, "pause between two submissions of a producer")
	runCmd.Flags().Int64VarP(&maxInflight, "max-inflight", "", 1024, "maximum jobs submitted but not finished")
}
