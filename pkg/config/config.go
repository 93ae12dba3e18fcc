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
	"os"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Pool       *PoolConfig `yaml:"pool,omitempty" json:"pool,omitempty"`
	Load       *LoadConfig `yaml:"load,omitempty" json:"load,omitempty"`
	Prometheus *PromConfig `yaml:"prometheus,omitempty" json:"prometheus,omitempty"`
}

// New reads the YAML config file (if any) and applies defaults.
// A leading ~ in file is expanded to the user's home directory.
func New(file string) (*Config, error) {
	c := new(Config)
	if file != "" {
		path, err := homedir.Expand(file)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(b, c)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	err := c.validateSetDefaults()
	return c, err
}

// Validate checks c and fills in defaults, as New does for a config file.
func (c *Config) Validate() error {
	return c.validateSetDefaults()
}

func (c *Config) validateSetDefaults() error {
	if c.Pool == nil {
		c.Pool = &PoolConfig{}
	}
	if err := c.Pool.validateSetDefaults(); err != nil {
		return err
	}
	// load generator is only enabled when configured
	if c.Load != nil {
		if err := c.Load.validateSetDefaults(); err != nil {
			return err
		}
	}
	if c.Prometheus != nil {
		if err := c.Prometheus.validateSetDefaults(); err != nil {
			return err
		}
	}
	return nil
}

type PromConfig struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

func (p *PromConfig) validateSetDefaults() error {
	if p.Address == "" {
		p.Address = defaultPromAddress
	}
	return nil
}
