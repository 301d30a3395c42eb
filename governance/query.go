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
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/ccgov/database"
	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/message"
)

// PrereqProgress describes the resolution state of one prerequisite
type PrereqProgress struct {
	Tally map[string]uint64        `json:"tally,omitempty"`
	Ref   models.RemoteProposalRef `json:"ref"`
	State models.PrereqState       `json:"state"`
}

func (e *Engine) QueryProposal(_ context.Context, propId uint64) (*models.Proposal, error) {
	var ret *models.Proposal
	err := e.view(func(txn *database.Txn) error {
		var err error
		ret, err = e.getProposal(propId, txn)
		return err
	})
	return ret, err
}

func (e *Engine) ListProposals(_ context.Context) ([]models.Proposal, error) {
	return e.db.ListProposals(nil)
}

func (e *Engine) QueryVote(
	_ context.Context,
	propId uint64,
	voter string,
) (*models.Vote, error) {
	vote, err := e.db.GetVote(propId, voter, nil)
	if err != nil {
		if errors.Is(err, models.ErrVoteNotFound) {
			return nil, fmt.Errorf("%w: proposal %d voter %s", ErrVoteNotFound, propId, voter)
		}
		return nil, err
	}
	return vote, nil
}

// QueryTotalVotedPower returns the summed power of all local votes on a proposal
func (e *Engine) QueryTotalVotedPower(_ context.Context, propId uint64) (uint64, error) {
	var ret uint64
	err := e.view(func(txn *database.Txn) error {
		if _, err := e.getProposal(propId, txn); err != nil {
			return err
		}
		votes, err := e.db.VotesByProposal(propId, txn)
		if err != nil {
			return err
		}
		for _, v := range votes {
			ret = addSaturating(ret, v.Power)
		}
		return nil
	})
	return ret, err
}

// QueryExecutedProposals returns the execution log in execution order
func (e *Engine) QueryExecutedProposals(_ context.Context) ([]models.ExecutedProposal, error) {
	return e.db.ListExecuted(nil)
}

// QueryTally returns the tally of an executed proposal
func (e *Engine) QueryTally(_ context.Context, propId uint64) (*message.TallyResponse, error) {
	var ret *message.TallyResponse
	err := e.view(func(txn *database.Txn) error {
		var err error
		ret, err = e.tallyResponse(propId, txn)
		return err
	})
	return ret, err
}

// QueryPrerequisites reports the resolution progress of each prerequisite
// in declaration order
func (e *Engine) QueryPrerequisites(_ context.Context, propId uint64) ([]PrereqProgress, error) {
	var ret []PrereqProgress
	err := e.view(func(txn *database.Txn) error {
		prop, err := e.getProposal(propId, txn)
		if err != nil {
			return err
		}
		ret = make([]PrereqProgress, 0, len(prop.PrereqProposals))
		for _, prereqId := range prop.PrereqProposals {
			ref, err := e.db.GetRemoteRef(prereqId, txn)
			if err != nil {
				return err
			}
			state, err := e.db.GetPrereqState(prereqId, txn)
			if err != nil {
				return err
			}
			p := PrereqProgress{Ref: *ref, State: *state}
			if state.Resolved() {
				if p.Tally, err = e.db.RemoteTallies(prereqId, txn); err != nil {
					return err
				}
			}
			ret = append(ret, p)
		}
		return nil
	})
	return ret, err
}
