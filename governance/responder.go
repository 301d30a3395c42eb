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
	"fmt"

	"github.com/blinklabs-io/ccgov/database"
	"github.com/blinklabs-io/ccgov/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HandleQueryTally answers a tally query from another chain. Only engines in
// the same namespace may query, and only executed proposals have a tally.
func (e *Engine) HandleQueryTally(
	ctx context.Context,
	packet *message.QueryTally,
) (resp *message.TallyResponse, err error) {
	_, span := e.tracer.Start(ctx, "governance.HandleQueryTally", trace.WithAttributes(
		attribute.Int64("prop_id", int64(packet.ProposalID)), //nolint:gosec
		attribute.String("source_chain", packet.Source.ChainID),
	))
	defer func() {
		endSpan(span, err)
		result := "ok"
		switch {
		case err == nil:
		case IsAuthorization(err):
			result = "unauthorized"
		case IsNotFound(err):
			result = "not_found"
		case IsValidation(err):
			result = "not_executed"
		default:
			result = "error"
		}
		e.metrics.tallyQueries.WithLabelValues(result).Inc()
	}()
	if packet.Source.Namespace != e.config.Namespace {
		return nil, fmt.Errorf(
			"%w: namespace %q",
			ErrUnauthorized,
			packet.Source.Namespace,
		)
	}
	err = e.view(func(txn *database.Txn) error {
		var err error
		resp, err = e.tallyResponse(packet.ProposalID, txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug(
		"answered tally query",
		"component", "governance",
		"prop_id", packet.ProposalID,
		"source_chain", packet.Source.ChainID,
		"token", packet.Token,
	)
	return resp, nil
}

// tallyResponse computes the tally of an executed proposal from stored votes
// and prerequisite tallies
func (e *Engine) tallyResponse(
	propId uint64,
	txn *database.Txn,
) (*message.TallyResponse, error) {
	prop, err := e.getProposal(propId, txn)
	if err != nil {
		return nil, err
	}
	if !prop.Executed {
		return nil, fmt.Errorf("%w: %d", ErrProposalNotExecuted, propId)
	}
	_, totals, err := e.computeTally(prop, txn)
	if err != nil {
		return nil, err
	}
	resp := &message.TallyResponse{
		ProposalID:   propId,
		ChosenOption: prop.ChosenOption,
		Tally:        make([]message.OptionVotes, 0, len(totals)),
	}
	for _, t := range totals {
		resp.Tally = append(resp.Tally, message.OptionVotes{
			Option: t.Option,
			Votes:  t.Votes,
		})
	}
	return resp, nil
}

// ServeQuery answers a tally query packet with a callback result. Refusals
// become query errors for the sender.
func (e *Engine) ServeQuery(
	ctx context.Context,
	packet *message.QueryTally,
) *message.CallbackResult {
	resp, err := e.HandleQueryTally(ctx, packet)
	if err != nil {
		return message.NewQueryErrorResult(err)
	}
	return message.NewTallyResult(resp)
}
