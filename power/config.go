// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package power

import (
	"errors"
	"fmt"
)

const (
	OracleTypeFixed = "fixed"
	OracleTypeTable = "table"
)

// OracleConfig describes an oracle to register at an address
type OracleConfig struct {
	Powers  map[string]uint64 `yaml:"powers,omitempty"`
	Address string            `yaml:"address"`
	Type    string            `yaml:"type"`
	Power   uint64            `yaml:"power,omitempty"`
	Default uint64            `yaml:"default,omitempty"`
	Strict  bool              `yaml:"strict,omitempty"`
}

// NewRouterFromConfig builds a router with one oracle per config entry
func NewRouterFromConfig(configs []OracleConfig) (*Router, error) {
	r := NewRouter()
	for _, cfg := range configs {
		if cfg.Address == "" {
			return nil, errors.New("power oracle without address")
		}
		if _, ok := r.Lookup(cfg.Address); ok {
			return nil, fmt.Errorf("duplicate power oracle address %q", cfg.Address)
		}
		switch cfg.Type {
		case OracleTypeFixed, "":
			r.Register(cfg.Address, NewFixed(cfg.Power))
		case OracleTypeTable:
			t := NewTable(cfg.Powers, cfg.Default)
			t.Strict = cfg.Strict
			r.Register(cfg.Address, t)
		default:
			return nil, fmt.Errorf(
				"unknown power oracle type %q for %s",
				cfg.Type,
				cfg.Address,
			)
		}
	}
	return r, nil
}
