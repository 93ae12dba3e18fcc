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
	"bytes"
	"strings"
	"testing"
)

func executeArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCmd(t *testing.T) {
	out, err := executeArgs(t, "run", "-w", "2", "-p", "2", "-n", "20", "--job-duration", "1ms")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"workers=2", "producers=2", "submitted=40", "completed=40"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestRunCmd_ZeroWorkers(t *testing.T) {
	if _, err := executeArgs(t, "run", "-w", "0", "-n", "1"); err == nil {
		t.Fatal("expected an error for a pool without workers")
	}
}

func TestRunCmd_NonPositiveLoad(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "zero jobs", args: []string{"-n", "0"}, want: "--jobs"},
		{name: "zero producers", args: []string{"-p", "0"}, want: "--producers"},
		{name: "zero max inflight", args: []string{"--max-inflight", "0"}, want: "--max-inflight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// flag values persist across executions, reset the ones not under test
			args := append([]string{"run", "-w", "1", "-p", "1", "-n", "1", "--max-inflight", "8"}, tt.args...)
			_, err := executeArgs(t, args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error about %s, got %v", tt.want, err)
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := executeArgs(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "dev-" {
		t.Fatalf("unexpected version output %q", out)
	}
}
