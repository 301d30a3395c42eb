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

package api

import (
	"context"

	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/governance"
	"github.com/blinklabs-io/ccgov/message"
)

// GovernanceNode is the interface that the API server uses to reach the
// governance engine. It is satisfied by *governance.Engine.
type GovernanceNode interface {
	CreateProposal(ctx context.Context, req governance.CreateProposalRequest) (uint64, error)
	Vote(ctx context.Context, voter string, propId uint64, option string) (uint64, error)
	ExecuteProposal(ctx context.Context, propId uint64) (*governance.ExecuteResult, error)
	QueryProposal(ctx context.Context, propId uint64) (*models.Proposal, error)
	ListProposals(ctx context.Context) ([]models.Proposal, error)
	QueryVote(ctx context.Context, propId uint64, voter string) (*models.Vote, error)
	QueryTotalVotedPower(ctx context.Context, propId uint64) (uint64, error)
	QueryExecutedProposals(ctx context.Context) ([]models.ExecutedProposal, error)
	QueryTally(ctx context.Context, propId uint64) (*message.TallyResponse, error)
	QueryPrerequisites(ctx context.Context, propId uint64) ([]governance.PrereqProgress, error)

	// ServeQuery and OnRemoteTallyCallback make the node a relay endpoint
	ServeQuery(ctx context.Context, packet *message.QueryTally) *message.CallbackResult
	OnRemoteTallyCallback(ctx context.Context, token string, result *message.CallbackResult) error
}
