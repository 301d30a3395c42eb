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
	"github.com/blinklabs-io/ccgov/database/types"
	"github.com/blinklabs-io/ccgov/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Vote records a ballot weighted by the voting power the proposal's oracle
// reports for the voter at this moment
func (e *Engine) Vote(
	ctx context.Context,
	voter string,
	propId uint64,
	option string,
) (voteId uint64, err error) {
	ctx, span := e.tracer.Start(ctx, "governance.Vote", trace.WithAttributes(
		attribute.Int64("prop_id", int64(propId)), //nolint:gosec
		attribute.String("voter", voter),
		attribute.String("option", option),
	))
	defer func() { endSpan(span, err) }()
	var vote *models.Vote
	err = e.update(func(txn *database.Txn) error {
		prop, err := e.getProposal(propId, txn)
		if err != nil {
			return err
		}
		now := e.now()
		// The deadline instant itself still accepts votes
		if now.After(prop.VotingEnd(e.config.VotingPeriod)) {
			return ErrVotingPeriodHasEnded
		}
		if !prop.HasOption(option) {
			return fmt.Errorf("%w: %q", ErrInvalidOption, option)
		}
		if _, err := e.db.GetVote(propId, voter, txn); err == nil {
			return ErrAlreadyVoted
		} else if !errors.Is(err, models.ErrVoteNotFound) {
			return err
		}
		votePower, err := e.oracles.GetVotingPower(ctx, prop.PowerContract, voter)
		if err != nil {
			return &PowerOracleError{
				Address: prop.PowerContract,
				Voter:   voter,
				Err:     err,
			}
		}
		id, err := e.db.NextSequence(types.SequenceNameVote, txn)
		if err != nil {
			return err
		}
		vote = &models.Vote{
			ID:     id,
			PropID: propId,
			Voter:  voter,
			Option: option,
			Power:  votePower,
			CastAt: now.UnixNano(),
		}
		return e.db.SetVote(vote, txn)
	})
	if err != nil {
		return 0, err
	}
	e.metrics.votesCast.Inc()
	e.metrics.votedPower.Add(float64(vote.Power))
	e.logger.Debug(
		"recorded vote",
		"component", "governance",
		"prop_id", propId,
		"vote_id", vote.ID,
		"voter", voter,
		"option", option,
		"power", vote.Power,
	)
	e.publish(
		event.VoteCastEventType,
		event.VoteCastEvent{
			PropID: propId,
			VoteID: vote.ID,
			Voter:  voter,
			Option: option,
			Power:  vote.Power,
		},
	)
	return vote.ID, nil
}
