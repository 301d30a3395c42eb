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

package ccgov_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ccgov"
	"github.com/blinklabs-io/ccgov/event"
	"github.com/blinklabs-io/ccgov/governance"
	"github.com/blinklabs-io/ccgov/internal/test/testutil"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/blinklabs-io/ccgov/relay"
)

func TestNodesOverRelayHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := relay.NewHub(relay.HubConfig{})
	defer hub.Stop()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	nodes := make(map[string]*ccgov.Node)
	for _, chainId := range []string{"chain-a", "chain-b"} {
		oracles, err := power.NewRouterFromConfig([]power.OracleConfig{
			{Address: "power", Type: power.OracleTypeFixed, Power: 2},
		})
		require.NoError(t, err)
		n, err := ccgov.New(ccgov.NewConfig(
			ccgov.WithChainID(chainId),
			ccgov.WithContract("gov"),
			ccgov.WithPowerOracles(oracles),
			ccgov.WithMessenger(hub.Messenger(chainId, "gov")),
			ccgov.WithClock(clock),
			ccgov.WithVotingPeriod(time.Hour),
			ccgov.WithBlobPlugin("sqlite"),
		))
		require.NoError(t, err)
		require.NoError(t, n.Start(ctx))
		require.ErrorIs(t, n.Start(ctx), ccgov.ErrNodeStarted)
		hub.Register(chainId, "gov", n.Engine())
		nodes[chainId] = n
	}
	a := nodes["chain-a"].Engine()
	b := nodes["chain-b"].Engine()
	_, executedCh := nodes["chain-b"].EventBus().Subscribe(event.ProposalExecutedEventType)

	propA, err := a.CreateProposal(ctx, governance.CreateProposalRequest{
		PowerContract: "power",
		Options:       []string{"yes", "no"},
	})
	require.NoError(t, err)
	_, err = a.Vote(ctx, "alice", propA, "no")
	require.NoError(t, err)
	propB, err := b.CreateProposal(ctx, governance.CreateProposalRequest{
		PowerContract: "power",
		Options:       []string{"yes", "no"},
		Prerequisites: []governance.PrereqRef{{
			RemoteChainID:    "chain-a",
			RemoteContract:   "gov",
			RemoteProposalID: propA,
		}},
	})
	require.NoError(t, err)
	_, err = b.Vote(ctx, "bob", propB, "yes")
	require.NoError(t, err)

	// Both engines share the clock, which only moves here
	now = now.Add(2 * time.Hour)
	_, err = a.ExecuteProposal(ctx, propA)
	require.NoError(t, err)
	res, err := b.ExecuteProposal(ctx, propB)
	require.NoError(t, err)
	require.Equal(t, governance.ExecuteStatusUnresolved, res.Status)
	hub.Flush()
	res, err = b.ExecuteProposal(ctx, propB)
	require.NoError(t, err)
	require.Equal(t, governance.ExecuteStatusExecuted, res.Status)
	// Tie between local yes and remote no goes to the earlier option
	assert.Equal(t, "yes", res.ChosenOption)
	executed := testutil.RequireEvent[event.ProposalExecutedEvent](
		t,
		executedCh,
		event.ProposalExecutedEventType,
		5*time.Second,
	)
	assert.Equal(t, propB, executed.PropID)
	assert.Equal(t, map[string]uint64{"yes": 2, "no": 2}, executed.Totals)

	for _, n := range nodes {
		require.NoError(t, n.Stop())
		require.NoError(t, n.Stop())
	}
}

func TestNodeRunStopsOnCancel(t *testing.T) {
	n, err := ccgov.New(ccgov.NewConfig(
		ccgov.WithChainID("chain-a"),
		ccgov.WithContract("gov"),
		ccgov.WithPowerOracles(power.NewRouter()),
	))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.Start(ctx))
	require.NotNil(t, n.Engine())
	errCh := make(chan error, 1)
	go func() { errCh <- n.Run(ctx) }()
	cancel()
	err = testutil.RequireReceive(t, errCh, 10*time.Second, "node did not stop")
	require.NoError(t, err)
}
