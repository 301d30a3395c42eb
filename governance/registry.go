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

// PrereqRef names a proposal on another chain whose tally must be known
// before the dependent proposal can be executed
type PrereqRef struct {
	RemoteChainID    string `json:"remote_chain_id"`
	RemoteContract   string `json:"remote_contract"`
	RemoteProposalID uint64 `json:"remote_proposal_id"`
}

type CreateProposalRequest struct {
	Proposer      string      `json:"proposer"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	PowerContract string      `json:"power_contract"`
	Options       []string    `json:"options"`
	Prerequisites []PrereqRef `json:"prerequisites"`
}

func validateOptions(options []string) error {
	if len(options) == 0 {
		return ErrInvalidOptions
	}
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if _, ok := seen[opt]; ok {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidOptions, opt)
		}
		seen[opt] = struct{}{}
	}
	return nil
}

// CreateProposal registers a proposal and its prerequisites. Voting opens immediately.
func (e *Engine) CreateProposal(
	ctx context.Context,
	req CreateProposalRequest,
) (propId uint64, err error) {
	_, span := e.tracer.Start(ctx, "governance.CreateProposal", trace.WithAttributes(
		attribute.String("proposer", req.Proposer),
		attribute.Int("prerequisites", len(req.Prerequisites)),
	))
	defer func() { endSpan(span, err) }()
	if err := validateOptions(req.Options); err != nil {
		return 0, err
	}
	if e.whitelist != nil {
		if _, ok := e.whitelist[req.PowerContract]; !ok {
			return 0, fmt.Errorf(
				"%w: %s",
				ErrPowerContractNotWhitelisted,
				req.PowerContract,
			)
		}
	}
	err = e.update(func(txn *database.Txn) error {
		id, err := e.db.NextSequence(types.SequenceNameProposal, txn)
		if err != nil {
			return err
		}
		prop := &models.Proposal{
			ID:            id,
			Title:         req.Title,
			Description:   req.Description,
			Proposer:      req.Proposer,
			StartTime:     e.now().UnixNano(),
			Options:       req.Options,
			PowerContract: req.PowerContract,
		}
		for _, ref := range req.Prerequisites {
			prereqId, err := e.db.NextSequence(types.SequenceNamePrereq, txn)
			if err != nil {
				return err
			}
			if err := e.db.SetRemoteRef(
				&models.RemoteProposalRef{
					ID:               prereqId,
					PropID:           id,
					RemoteProposalID: ref.RemoteProposalID,
					RemoteChainID:    ref.RemoteChainID,
					RemoteContract:   ref.RemoteContract,
				},
				txn,
			); err != nil {
				return err
			}
			if err := e.db.SetPrereqState(
				&models.PrereqState{
					PrereqID: prereqId,
					PropID:   id,
					Status:   models.PrereqStatusUnqueried,
				},
				txn,
			); err != nil {
				return err
			}
			prop.PrereqProposals = append(prop.PrereqProposals, prereqId)
		}
		if err := e.db.SetProposal(prop, txn); err != nil {
			return err
		}
		propId = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("prop_id", int64(propId))) //nolint:gosec
	e.metrics.proposalsCreated.Inc()
	e.logger.Info(
		fmt.Sprintf("created proposal %d", propId),
		"component", "governance",
		"prop_id", propId,
		"proposer", req.Proposer,
		"prerequisites", len(req.Prerequisites),
	)
	e.publish(
		event.ProposalCreatedEventType,
		event.ProposalCreatedEvent{
			PropID:      propId,
			Proposer:    req.Proposer,
			Title:       req.Title,
			PrereqCount: len(req.Prerequisites),
		},
	)
	return propId, nil
}

// getProposal maps a missing record to ErrProposalNotFound
func (e *Engine) getProposal(propId uint64, txn *database.Txn) (*models.Proposal, error) {
	prop, err := e.db.GetProposal(propId, txn)
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, propId)
		}
		return nil, err
	}
	return prop, nil
}
