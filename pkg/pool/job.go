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

// Job is a unit of work executed by exactly one worker of the pool.
// The pool does not track a job once it has been submitted and nothing is
// returned to the submitter.
type Job interface {
	Run()
}

// JobFunc convenience adapter so closures are easy to submit.
type JobFunc func()

func (f JobFunc) Run() {
	if f == nil {
		return
	}
	f()
}
