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
	"github.com/blinklabs-io/ccgov/event"
	"github.com/blinklabs-io/ccgov/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ExecuteStatus string

const (
	ExecuteStatusExecuted   ExecuteStatus = "executed"
	ExecuteStatusUnresolved ExecuteStatus = "unresolved"
)

// ExecuteResult is the outcome of ExecuteProposal. An unresolved result is
// not an error: execution is retried once the dispatched queries are answered.
type ExecuteResult struct {
	Status          ExecuteStatus        `json:"status"`
	ChosenOption    string               `json:"chosen_option,omitempty"`
	Totals          []models.OptionTotal `json:"totals,omitempty"`
	Resolved        []uint64             `json:"resolved,omitempty"`
	Unresolved      []uint64             `json:"unresolved,omitempty"`
	Dispatched      []uint64             `json:"dispatched,omitempty"`
	PropID          uint64               `json:"prop_id"`
	AlreadyExecuted bool                 `json:"already_executed,omitempty"`
}

// outboundQuery is a tally query committed as in flight but not yet sent
type outboundQuery struct {
	dest     message.Destination
	packet   *message.QueryTally
	prereqId uint64
	propId   uint64
	attempt  uint32
}

func executedResult(prop *models.Proposal, already bool) *ExecuteResult {
	return &ExecuteResult{
		Status:          ExecuteStatusExecuted,
		PropID:          prop.ID,
		ChosenOption:    prop.ChosenOption,
		Totals:          prop.Totals,
		Resolved:        prop.PrereqProposals,
		AlreadyExecuted: already,
	}
}

// ExecuteProposal finalizes a proposal after its voting period. While any
// prerequisite is unresolved it dispatches tally queries for prerequisites
// that have none in flight and reports the proposal as unresolved.
func (e *Engine) ExecuteProposal(
	ctx context.Context,
	propId uint64,
) (result *ExecuteResult, err error) {
	ctx, span := e.tracer.Start(ctx, "governance.ExecuteProposal", trace.WithAttributes(
		attribute.Int64("prop_id", int64(propId)), //nolint:gosec
	))
	defer func() { endSpan(span, err) }()
	var outbound []outboundQuery
	err = e.update(func(txn *database.Txn) error {
		outbound = nil
		prop, err := e.getProposal(propId, txn)
		if err != nil {
			return err
		}
		if e.now().Before(prop.VotingEnd(e.config.VotingPeriod)) {
			return ErrVotingPeriodNotEnded
		}
		if prop.Executed {
			result = executedResult(prop, true)
			return nil
		}
		res := &ExecuteResult{PropID: propId}
		for _, prereqId := range prop.PrereqProposals {
			state, err := e.db.GetPrereqState(prereqId, txn)
			if err != nil {
				return fmt.Errorf("prerequisite %d: %w", prereqId, err)
			}
			if state.Resolved() {
				res.Resolved = append(res.Resolved, prereqId)
				continue
			}
			res.Unresolved = append(res.Unresolved, prereqId)
			if !state.Status.Dispatchable() {
				// A query is already in flight
				continue
			}
			ref, err := e.db.GetRemoteRef(prereqId, txn)
			if err != nil {
				return fmt.Errorf("prerequisite %d: %w", prereqId, err)
			}
			token := uuid.NewString()
			state.Status = models.PrereqStatusQueried
			state.Token = token
			state.Attempts++
			if err := e.db.SetPendingQuery(
				&models.PendingQuery{
					Token:    token,
					PrereqID: prereqId,
					PropID:   propId,
				},
				txn,
			); err != nil {
				return err
			}
			if err := e.db.SetPrereqState(state, txn); err != nil {
				return err
			}
			outbound = append(outbound, outboundQuery{
				dest: message.Destination{
					ChainID:  ref.RemoteChainID,
					Contract: ref.RemoteContract,
				},
				packet: &message.QueryTally{
					Token:      token,
					Source:     e.Source(),
					ProposalID: ref.RemoteProposalID,
				},
				prereqId: prereqId,
				propId:   propId,
				attempt:  state.Attempts,
			})
			res.Dispatched = append(res.Dispatched, prereqId)
		}
		if len(res.Unresolved) > 0 {
			res.Status = ExecuteStatusUnresolved
			result = res
			return nil
		}
		return e.finalize(prop, txn, func(r *ExecuteResult) { result = r })
	})
	if err != nil {
		e.metrics.executions.WithLabelValues("error").Inc()
		return nil, err
	}
	span.SetAttributes(attribute.String("status", string(result.Status)))
	switch {
	case result.AlreadyExecuted:
		e.metrics.executions.WithLabelValues("already_executed").Inc()
	case result.Status == ExecuteStatusExecuted:
		e.metrics.executions.WithLabelValues("executed").Inc()
		e.logger.Info(
			fmt.Sprintf("executed proposal %d", propId),
			"component", "governance",
			"prop_id", propId,
			"chosen_option", result.ChosenOption,
		)
		e.publish(
			event.ProposalExecutedEventType,
			event.ProposalExecutedEvent{
				PropID:       propId,
				ChosenOption: result.ChosenOption,
				Totals:       totalsMap(result.Totals),
			},
		)
	default:
		e.metrics.executions.WithLabelValues("unresolved").Inc()
		e.logger.Debug(
			"proposal has unresolved prerequisites",
			"component", "governance",
			"prop_id", propId,
			"unresolved", result.Unresolved,
			"dispatched", result.Dispatched,
		)
	}
	e.dispatch(ctx, outbound)
	return result, nil
}

// finalize computes the tally and records the execution
func (e *Engine) finalize(
	prop *models.Proposal,
	txn *database.Txn,
	setResult func(*ExecuteResult),
) error {
	winner, totals, err := e.computeTally(prop, txn)
	if err != nil {
		return err
	}
	prop.Executed = true
	prop.ChosenOption = winner
	prop.Totals = totals
	if err := e.db.SetProposal(prop, txn); err != nil {
		return err
	}
	if _, err := e.db.AppendExecuted(prop.ID, winner, txn); err != nil {
		return err
	}
	setResult(executedResult(prop, false))
	return nil
}

// computeTally sums local votes and the stored tallies of all prerequisites
func (e *Engine) computeTally(
	prop *models.Proposal,
	txn *database.Txn,
) (string, []models.OptionTotal, error) {
	votes, err := e.db.VotesByProposal(prop.ID, txn)
	if err != nil {
		return "", nil, err
	}
	remote := make([]map[string]uint64, 0, len(prop.PrereqProposals))
	for _, prereqId := range prop.PrereqProposals {
		tallies, err := e.db.RemoteTallies(prereqId, txn)
		if err != nil {
			return "", nil, err
		}
		remote = append(remote, tallies)
	}
	winner, totals := Tally(prop.Options, localTally(votes), remote)
	return winner, totals, nil
}

// dispatch sends committed queries. A query that cannot be sent returns its
// prerequisite to the failed state so the next execution sends it again.
func (e *Engine) dispatch(ctx context.Context, outbound []outboundQuery) {
	if len(outbound) == 0 {
		return
	}
	messenger := e.getMessenger()
	for _, q := range outbound {
		var sendErr error
		if messenger == nil {
			sendErr = errors.New("no messenger configured")
		} else {
			sendErr = messenger.SendQuery(ctx, q.dest, q.packet)
		}
		if sendErr != nil {
			e.metrics.remoteQueries.WithLabelValues("send_failed").Inc()
			e.logger.Warn(
				"failed to send tally query",
				"component", "governance",
				"prop_id", q.propId,
				"prereq_id", q.prereqId,
				"destination", q.dest.String(),
				"error", sendErr,
			)
			if err := e.markSendFailed(q, sendErr); err != nil {
				e.logger.Error(
					"failed to record tally query send failure",
					"component", "governance",
					"prereq_id", q.prereqId,
					"error", err,
				)
			}
			continue
		}
		e.metrics.remoteQueries.WithLabelValues("dispatched").Inc()
		e.publish(
			event.RemoteQueryDispatchedEventType,
			event.RemoteQueryDispatchedEvent{
				PropID:        q.propId,
				PrereqID:      q.prereqId,
				Token:         q.packet.Token,
				RemoteChainID: q.dest.ChainID,
				Attempt:       q.attempt,
			},
		)
	}
}

func (e *Engine) markSendFailed(q outboundQuery, sendErr error) error {
	err := e.update(func(txn *database.Txn) error {
		state, err := e.db.GetPrereqState(q.prereqId, txn)
		if err != nil {
			return err
		}
		// Leave the state alone if the query was already answered
		if state.Status != models.PrereqStatusQueried ||
			state.Token != q.packet.Token {
			return nil
		}
		state.Status = models.PrereqStatusFailed
		state.LastError = sendErr.Error()
		if err := e.db.SetPrereqState(state, txn); err != nil {
			return err
		}
		return e.db.DeletePendingQuery(q.packet.Token, txn)
	})
	if err != nil {
		return err
	}
	e.publish(
		event.RemoteQueryFailedEventType,
		event.RemoteQueryFailedEvent{
			PropID:   q.propId,
			PrereqID: q.prereqId,
			Reason:   sendErr.Error(),
		},
	)
	return nil
}
