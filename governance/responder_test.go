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
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/governance"
	"github.com/blinklabs-io/ccgov/internal/test/testutil"
	"github.com/blinklabs-io/ccgov/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryPacket(propId uint64, namespace string) *message.QueryTally {
	return &message.QueryTally{
		Token:      "token",
		Source:     message.Source{Namespace: namespace, ChainID: "chain-x", Address: "gov-x"},
		ProposalID: propId,
	}
}

func TestHandleQueryTally(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	propId := env.createProposal(t, tableOracle, []string{"yes", "no"})
	env.vote(t, "carol", propId, "yes")

	_, err := env.engine.HandleQueryTally(ctx, queryPacket(propId, "other-ns"))
	require.ErrorIs(t, err, governance.ErrUnauthorized)
	_, err = env.engine.HandleQueryTally(ctx, queryPacket(77, message.DefaultNamespace))
	require.ErrorIs(t, err, governance.ErrProposalNotFound)
	_, err = env.engine.HandleQueryTally(ctx, queryPacket(propId, message.DefaultNamespace))
	require.ErrorIs(t, err, governance.ErrProposalNotExecuted)

	result := env.engine.ServeQuery(ctx, queryPacket(propId, message.DefaultNamespace))
	assert.Equal(t, message.ResultKindQuery, result.Kind)
	assert.False(t, result.Success())
	assert.Contains(t, result.Error, "not executed")

	env.clock.Advance(testVotingPeriod)
	_, err = env.engine.ExecuteProposal(ctx, propId)
	require.NoError(t, err)

	resp, err := env.engine.HandleQueryTally(ctx, queryPacket(propId, message.DefaultNamespace))
	require.NoError(t, err)
	assert.Equal(t, propId, resp.ProposalID)
	assert.Equal(t, "yes", resp.ChosenOption)
	assert.Equal(t, []message.OptionVotes{{Option: "yes", Votes: 5}, {Option: "no", Votes: 0}}, resp.Tally)

	result = env.engine.ServeQuery(ctx, queryPacket(propId, message.DefaultNamespace))
	assert.True(t, result.Success())
}

func TestHandleQueryTallyDuringWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	propId := env.createProposal(t, tableOracle, []string{"yes", "no"})
	env.vote(t, "carol", propId, "no")
	env.clock.Advance(testVotingPeriod)
	_, err := env.engine.ExecuteProposal(ctx, propId)
	require.NoError(t, err)

	// Queries are answered while another operation holds the write lock
	release := env.engine.HoldLock()
	defer release()
	done := make(chan *message.TallyResponse, 1)
	go func() {
		resp, err := env.engine.HandleQueryTally(ctx, queryPacket(propId, message.DefaultNamespace))
		if err != nil {
			resp = nil
		}
		done <- resp
	}()
	resp := testutil.RequireReceive(t, done, 5*time.Second, "tally query blocked on engine lock")
	require.NotNil(t, resp)
	assert.Equal(t, "no", resp.ChosenOption)
}

func TestHandleQueryTallyCustomNamespace(t *testing.T) {
	env := newTestEnv(t, func(cfg *governance.EngineConfig) {
		cfg.Namespace = "private-ns"
	})
	_, err := env.engine.HandleQueryTally(context.Background(), queryPacket(0, message.DefaultNamespace))
	require.ErrorIs(t, err, governance.ErrUnauthorized)
	assert.Equal(t, "private-ns", env.engine.Source().Namespace)
}

// relayPending hands every query sent by the dependent engine to the source
// engine and delivers the answers back, returning the callback errors
func relayPending(t *testing.T, from, to *testEnv, seen int) (int, []error) {
	t.Helper()
	ctx := context.Background()
	sent := from.messenger.Sent()
	var errs []error
	for _, q := range sent[seen:] {
		result := to.engine.ServeQuery(ctx, q.packet)
		errs = append(errs, from.engine.OnRemoteTallyCallback(ctx, q.packet.Token, result))
	}
	return len(sent), errs
}

func TestCrossChainDependencyScenario(t *testing.T) {
	ctx := context.Background()
	chainA := newTestEnv(t, func(cfg *governance.EngineConfig) {
		cfg.ChainID = "chain-a"
		cfg.Address = "gov-a"
	})
	chainB := newTestEnv(t)

	// Proposal A on chain 1
	propA := chainA.createProposal(t, tableOracle, []string{"approve", "reject"})
	require.Equal(t, uint64(0), propA)
	chainA.vote(t, "alice", propA, "approve") // 3
	chainA.vote(t, "bob", propA, "reject")    // 2

	// Proposal B on chain 2 depends on A
	propB := chainB.createProposal(t, tableOracle, []string{"approve", "reject"}, prereqA)
	chainB.vote(t, "carol", propB, "reject") // 5
	chainB.clock.Advance(testVotingPeriod)

	// B cannot execute before A
	res, err := chainB.engine.ExecuteProposal(ctx, propB)
	require.NoError(t, err)
	assert.Equal(t, governance.ExecuteStatusUnresolved, res.Status)
	seen, errs := relayPending(t, chainB, chainA, 0)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], governance.ErrRemoteQueryFailed)

	res, err = chainB.engine.ExecuteProposal(ctx, propB)
	require.NoError(t, err)
	assert.Equal(t, governance.ExecuteStatusUnresolved, res.Status)

	// A executes, then the retried query resolves B's prerequisite
	chainA.clock.Advance(testVotingPeriod)
	resA, err := chainA.engine.ExecuteProposal(ctx, propA)
	require.NoError(t, err)
	assert.Equal(t, "approve", resA.ChosenOption)

	_, errs = relayPending(t, chainB, chainA, seen)
	require.Len(t, errs, 1)
	require.NoError(t, errs[0])

	res, err = chainB.engine.ExecuteProposal(ctx, propB)
	require.NoError(t, err)
	assert.Equal(t, governance.ExecuteStatusExecuted, res.Status)
	// A's counts are summed into B's local tally
	assert.Equal(t, []models.OptionTotal{{Option: "approve", Votes: 3}, {Option: "reject", Votes: 7}}, res.Totals)
	assert.Equal(t, "reject", res.ChosenOption)

	executed, err := chainB.engine.QueryExecutedProposals(ctx)
	require.NoError(t, err)
	require.Len(t, executed, 1)
	assert.Equal(t, propB, executed[0].PropID)

	// B now answers queries with the combined tally
	resp, err := chainB.engine.HandleQueryTally(ctx, queryPacket(propB, message.DefaultNamespace))
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"approve": 3, "reject": 7}, resp.Map())
}
