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

package governance_test

import (
	"math"
	"testing"

	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/governance"
	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	testDefs := []struct {
		name    string
		options []string
		local   map[string]uint64
		remote  []map[string]uint64
		winner  string
		totals  []uint64
	}{
		{
			name:    "tie goes to first option",
			options: []string{"A", "B"},
			local:   map[string]uint64{"A": 1, "B": 1},
			winner:  "A",
			totals:  []uint64{1, 1},
		},
		{
			name:    "all zero",
			options: []string{"x", "y", "z"},
			winner:  "x",
			totals:  []uint64{0, 0, 0},
		},
		{
			name:    "later option wins with strictly more",
			options: []string{"approve", "reject"},
			local:   map[string]uint64{"approve": 2, "reject": 3},
			winner:  "reject",
			totals:  []uint64{2, 3},
		},
		{
			name:    "remote tallies are summed in",
			options: []string{"approve", "reject"},
			local:   map[string]uint64{"approve": 2, "reject": 3},
			remote: []map[string]uint64{
				{"approve": 4},
				{"approve": 1, "reject": 1, "other": 100},
			},
			winner: "approve",
			totals: []uint64{7, 4},
		},
		{
			name:    "votes for unknown options are ignored",
			options: []string{"a"},
			local:   map[string]uint64{"b": 9},
			winner:  "a",
			totals:  []uint64{0},
		},
		{
			name:    "saturates instead of overflowing",
			options: []string{"a", "b"},
			local:   map[string]uint64{"a": math.MaxUint64},
			remote:  []map[string]uint64{{"a": 5}},
			winner:  "a",
			totals:  []uint64{math.MaxUint64, 0},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			winner, totals := governance.Tally(testDef.options, testDef.local, testDef.remote)
			assert.Equal(t, testDef.winner, winner)
			expected := make([]models.OptionTotal, len(testDef.options))
			for i, opt := range testDef.options {
				expected[i] = models.OptionTotal{Option: opt, Votes: testDef.totals[i]}
			}
			assert.Equal(t, expected, totals)
		})
	}
}

func TestTallyNoOptions(t *testing.T) {
	winner, totals := governance.Tally(nil, nil, nil)
	assert.Empty(t, winner)
	assert.Nil(t, totals)
}
