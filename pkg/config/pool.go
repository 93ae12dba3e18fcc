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
	"fmt"
	"runtime"

	"github.com/AlekSi/pointer"
)

type PoolConfig struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Size is the number of workers. Unset means one worker per CPU,
	// an explicit value must be positive.
	Size *int `yaml:"size,omitempty" json:"size,omitempty"`
}

func (p *PoolConfig) validateSetDefaults() error {
	if p.Name == "" {
		p.Name = defaultPoolName
	}
	if p.Size == nil {
		p.Size = pointer.ToInt(runtime.NumCPU())
	}
	if *p.Size <= 0 {
		return fmt.Errorf("pool %q: size must be greater than zero, got %d", p.Name, *p.Size)
	}
	return nil
}

// Workers returns the configured pool size.
func (p *PoolConfig) Workers() int {
	return pointer.GetInt(p.Size)
}
