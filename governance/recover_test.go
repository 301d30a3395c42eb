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

	"github.com/blinklabs-io/ccgov/database"
	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/event"
	"github.com/blinklabs-io/ccgov/governance"
	"github.com/blinklabs-io/ccgov/internal/test/testutil"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestartRedispatchesInFlightQuery(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := newFakeClock()
	oracles := power.NewRouter()
	oracles.Register(fixedOracle, power.NewFixed(1))
	openEngine := func(messenger *fakeMessenger, eventBus *event.EventBus) (*governance.Engine, *database.Database) {
		db, err := database.New(&database.Config{BlobPlugin: "badger", DataDir: dir})
		require.NoError(t, err)
		engine, err := governance.NewEngine(governance.EngineConfig{
			Database:     db,
			Oracles:      oracles,
			Messenger:    messenger,
			EventBus:     eventBus,
			Now:          clock.Now,
			ChainID:      "chain-b",
			Address:      "gov-b",
			VotingPeriod: testVotingPeriod,
		})
		require.NoError(t, err)
		return engine, db
	}

	first := &fakeMessenger{}
	engine, db := openEngine(first, nil)
	propId, err := engine.CreateProposal(ctx, governance.CreateProposalRequest{
		PowerContract: fixedOracle,
		Options:       []string{"approve", "reject"},
		Prerequisites: []governance.PrereqRef{prereqA},
	})
	require.NoError(t, err)
	clock.Advance(testVotingPeriod)
	res, err := engine.ExecuteProposal(ctx, propId)
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, res.Dispatched)
	require.Len(t, first.Sent(), 1)
	staleToken := first.Sent()[0].packet.Token
	// The process stops before the callback arrives
	require.NoError(t, db.Close())

	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	_, failedCh := eventBus.Subscribe(event.RemoteQueryFailedEventType)
	second := &fakeMessenger{}
	engine, db = openEngine(second, eventBus)
	defer db.Close() //nolint:errcheck

	failed := testutil.RequireEvent[event.RemoteQueryFailedEvent](
		t,
		failedCh,
		event.RemoteQueryFailedEventType,
		time.Second,
	)
	assert.Equal(t, propId, failed.PropID)
	progress, err := engine.QueryPrerequisites(ctx, propId)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, models.PrereqStatusFailed, progress[0].State.Status)
	pending, err := db.PendingQueries(nil)
	require.NoError(t, err)
	assert.Empty(t, pending)

	res, err = engine.ExecuteProposal(ctx, propId)
	require.NoError(t, err)
	assert.Equal(t, governance.ExecuteStatusUnresolved, res.Status)
	assert.Equal(t, []uint64{0}, res.Dispatched)
	sent := second.Sent()
	require.Len(t, sent, 1)
	assert.NotEqual(t, staleToken, sent[0].packet.Token)

	// A late answer to the old query is not accepted
	err = engine.OnRemoteTallyCallback(
		ctx,
		staleToken,
		tallyResult(0, map[string]uint64{"approve": 1}, "approve", "reject"),
	)
	require.ErrorIs(t, err, governance.ErrUnknownCorrelation)

	err = engine.OnRemoteTallyCallback(
		ctx,
		sent[0].packet.Token,
		tallyResult(0, map[string]uint64{"approve": 1}, "approve", "reject"),
	)
	require.NoError(t, err)
	res, err = engine.ExecuteProposal(ctx, propId)
	require.NoError(t, err)
	assert.Equal(t, governance.ExecuteStatusExecuted, res.Status)
	assert.Equal(t, "approve", res.ChosenOption)
}
