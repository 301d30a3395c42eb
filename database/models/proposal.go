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

package models

import (
	"errors"
	"slices"
	"time"

	"github.com/blinklabs-io/gouroboros/cbor"
)

var ErrProposalNotFound = errors.New("proposal not found")

// Proposal is a governance proposal. Only the execution fields change after creation.
type Proposal struct {
	cbor.StructAsArray
	ID              uint64        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Proposer        string        `json:"proposer"`
	StartTime       int64         `json:"start_time"` // unix nanoseconds
	Options         []string      `json:"options"`
	PowerContract   string        `json:"power_contract"`
	PrereqProposals []uint64      `json:"prereq_proposals"`
	Executed        bool          `json:"executed"`
	ChosenOption    string        `json:"chosen_option,omitempty"`
	Totals          []OptionTotal `json:"totals,omitempty"`
}

// OptionTotal is the weighted vote total of one option
type OptionTotal struct {
	cbor.StructAsArray
	Option string `json:"option"`
	Votes  uint64 `json:"votes"`
}

func (p *Proposal) StartedAt() time.Time {
	return time.Unix(0, p.StartTime)
}

// VotingEnd returns the instant at which voting closes for the given period
func (p *Proposal) VotingEnd(period time.Duration) time.Time {
	return p.StartedAt().Add(period)
}

func (p *Proposal) HasOption(option string) bool {
	return slices.Contains(p.Options, option)
}
