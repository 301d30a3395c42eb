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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OnRemoteTallyCallback applies the result of a dispatched tally query. A
// failed query is recorded before the error is returned, so the next
// ExecuteProposal sends a new query for the prerequisite.
func (e *Engine) OnRemoteTallyCallback(
	ctx context.Context,
	token string,
	result *message.CallbackResult,
) (err error) {
	_, span := e.tracer.Start(ctx, "governance.OnRemoteTallyCallback", trace.WithAttributes(
		attribute.String("token", token),
	))
	defer func() { endSpan(span, err) }()
	if result == nil {
		return &ProtocolError{Token: token, Reason: "empty callback result"}
	}
	span.SetAttributes(attribute.String("kind", result.Kind.String()))
	if result.Kind == message.ResultKindExecute {
		e.metrics.callbacks.WithLabelValues("unauthorized").Inc()
		return ErrUnauthorizedIbcMessage
	}
	// Failures are committed and reported through callbackErr
	var callbackErr error
	var pending *models.PendingQuery
	err = e.update(func(txn *database.Txn) error {
		pq, err := e.db.GetPendingQuery(token, txn)
		if err != nil {
			if errors.Is(err, models.ErrPendingQueryNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownCorrelation, token)
			}
			return err
		}
		pending = pq
		state, err := e.db.GetPrereqState(pq.PrereqID, txn)
		if err != nil {
			return err
		}
		if state.Status != models.PrereqStatusQueried || state.Token != token {
			return fmt.Errorf("%w: %s", ErrUnknownCorrelation, token)
		}
		if err := e.db.DeletePendingQuery(token, txn); err != nil {
			return err
		}
		callbackErr = e.checkResult(pq, result, txn)
		var protoErr *ProtocolError
		if callbackErr != nil &&
			!errors.Is(callbackErr, ErrRemoteQueryFailed) &&
			!errors.As(callbackErr, &protoErr) {
			// Storage failure
			return callbackErr
		}
		if callbackErr != nil {
			state.Status = models.PrereqStatusFailed
			state.LastError = failureReason(result, callbackErr)
			return e.db.SetPrereqState(state, txn)
		}
		for _, ov := range result.Tally.Tally {
			if err := e.db.SetRemoteTally(pq.PrereqID, ov.Option, ov.Votes, txn); err != nil {
				return err
			}
		}
		state.Status = models.PrereqStatusResolved
		state.LastError = ""
		return e.db.SetPrereqState(state, txn)
	})
	if err != nil {
		e.metrics.callbacks.WithLabelValues("rejected").Inc()
		return err
	}
	if callbackErr != nil {
		e.metrics.callbacks.WithLabelValues("failed").Inc()
		e.logger.Warn(
			"tally query failed",
			"component", "governance",
			"prop_id", pending.PropID,
			"prereq_id", pending.PrereqID,
			"error", callbackErr,
		)
		e.publish(
			event.RemoteQueryFailedEventType,
			event.RemoteQueryFailedEvent{
				PropID:   pending.PropID,
				PrereqID: pending.PrereqID,
				Reason:   callbackErr.Error(),
			},
		)
		return callbackErr
	}
	e.metrics.callbacks.WithLabelValues("resolved").Inc()
	e.logger.Info(
		fmt.Sprintf("resolved prerequisite %d of proposal %d", pending.PrereqID, pending.PropID),
		"component", "governance",
		"prop_id", pending.PropID,
		"prereq_id", pending.PrereqID,
	)
	e.publish(
		event.RemoteResolvedEventType,
		event.RemoteResolvedEvent{
			PropID:   pending.PropID,
			PrereqID: pending.PrereqID,
		},
	)
	return nil
}

// checkResult returns nil for a usable tally, or the error reported for the failed query
func (e *Engine) checkResult(
	pq *models.PendingQuery,
	result *message.CallbackResult,
	txn *database.Txn,
) error {
	switch result.Kind {
	case message.ResultKindQuery:
		if result.Error != "" {
			return fmt.Errorf("%w: %s", ErrRemoteQueryFailed, result.Error)
		}
		if result.Tally == nil {
			return &ProtocolError{
				Token:    pq.Token,
				PrereqID: pq.PrereqID,
				Reason:   "query result without tally",
			}
		}
		ref, err := e.db.GetRemoteRef(pq.PrereqID, txn)
		if err != nil {
			return err
		}
		if result.Tally.ProposalID != ref.RemoteProposalID {
			return &ProtocolError{
				Token:    pq.Token,
				PrereqID: pq.PrereqID,
				Reason: fmt.Sprintf(
					"tally for proposal %d, expected %d",
					result.Tally.ProposalID,
					ref.RemoteProposalID,
				),
			}
		}
		return nil
	case message.ResultKindFatal:
		return &ProtocolError{
			Token:    pq.Token,
			PrereqID: pq.PrereqID,
			Reason:   result.Error,
		}
	default:
		return &ProtocolError{
			Token:    pq.Token,
			PrereqID: pq.PrereqID,
			Reason:   "unexpected result kind " + result.Kind.String(),
		}
	}
}

func failureReason(result *message.CallbackResult, err error) string {
	if result.Error != "" {
		return result.Error
	}
	return err.Error()
}
