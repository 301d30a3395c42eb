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
	"context"
	"fmt"
	"maps"
	"sync"
)

// Table looks voters up in a static power table
type Table struct {
	powers map[string]uint64
	mu     sync.RWMutex
	// Default is used for voters missing from the table
	Default uint64
	// Strict rejects voters missing from the table
	Strict bool
}

func NewTable(powers map[string]uint64, defaultPower uint64) *Table {
	return &Table{
		powers:  maps.Clone(powers),
		Default: defaultPower,
	}
}

// Set updates the power of a voter
func (t *Table) Set(voter string, power uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.powers == nil {
		t.powers = make(map[string]uint64)
	}
	t.powers[voter] = power
}

func (t *Table) GetVotingPower(_ context.Context, req Request) (Response, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.powers[req.Voter]
	if !ok {
		if t.Strict {
			return Response{}, fmt.Errorf("voter %q not in power table", req.Voter)
		}
		p = t.Default
	}
	return Response{Power: p}, nil
}
