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

package governance

import (
	"math"

	"github.com/blinklabs-io/ccgov/database/models"
)

// Tally adds up local votes and the tallies of resolved prerequisites for
// each option. Totals follow the order of options. The winner is the first
// option reaching the highest total, so ties go to the earlier option.
func Tally(
	options []string,
	local map[string]uint64,
	remote []map[string]uint64,
) (string, []models.OptionTotal) {
	if len(options) == 0 {
		return "", nil
	}
	totals := make([]models.OptionTotal, 0, len(options))
	for _, opt := range options {
		sum := local[opt]
		for _, r := range remote {
			sum = addSaturating(sum, r[opt])
		}
		totals = append(totals, models.OptionTotal{Option: opt, Votes: sum})
	}
	winner := 0
	for i := 1; i < len(totals); i++ {
		if totals[i].Votes > totals[winner].Votes {
			winner = i
		}
	}
	return totals[winner].Option, totals
}

func addSaturating(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// localTally sums vote power by option
func localTally(votes []models.Vote) map[string]uint64 {
	ret := make(map[string]uint64)
	for _, v := range votes {
		ret[v.Option] = addSaturating(ret[v.Option], v.Power)
	}
	return ret
}

func totalsMap(totals []models.OptionTotal) map[string]uint64 {
	ret := make(map[string]uint64, len(totals))
	for _, t := range totals {
		ret[t.Option] = t.Votes
	}
	return ret
}
