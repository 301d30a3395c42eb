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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/ccgov/database"
	"github.com/blinklabs-io/ccgov/governance"
	"github.com/blinklabs-io/ccgov/message"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testVotingPeriod = time.Hour
	fixedOracle      = "fixed-power"
	tableOracle      = "table-power"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentQuery struct {
	dest   message.Destination
	packet *message.QueryTally
}

// fakeMessenger records tally queries instead of delivering them
type fakeMessenger struct {
	err  error
	sent []sentQuery
	mu   sync.Mutex
}

func (m *fakeMessenger) SendQuery(
	_ context.Context,
	dest message.Destination,
	packet *message.QueryTally,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentQuery{dest: dest, packet: packet})
	return nil
}

func (m *fakeMessenger) Sent() []sentQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentQuery(nil), m.sent...)
}

func (m *fakeMessenger) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

var errOracleDown = errors.New("oracle down")

type testEnv struct {
	engine    *governance.Engine
	db        *database.Database
	clock     *fakeClock
	messenger *fakeMessenger
	table     *power.Table
	registry  *prometheus.Registry
}

type envOption func(*governance.EngineConfig)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	env := &testEnv{
		db:        db,
		clock:     newFakeClock(),
		messenger: &fakeMessenger{},
		table:     power.NewTable(map[string]uint64{"alice": 3, "bob": 2, "carol": 5}, 0),
		registry:  prometheus.NewRegistry(),
	}
	oracles := power.NewRouter()
	oracles.Register(fixedOracle, power.NewFixed(1))
	oracles.Register(tableOracle, env.table)
	oracles.Register("broken", power.OracleFunc(func(context.Context, power.Request) (power.Response, error) {
		return power.Response{}, errOracleDown
	}))
	cfg := governance.EngineConfig{
		PromRegistry: env.registry,
		Database:     db,
		Oracles:      oracles,
		Messenger:    env.messenger,
		Now:          env.clock.Now,
		ChainID:      "chain-b",
		Address:      "gov-b",
		VotingPeriod: testVotingPeriod,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.engine, err = governance.NewEngine(cfg)
	require.NoError(t, err)
	return env
}

func (env *testEnv) createProposal(
	t *testing.T,
	oracle string,
	options []string,
	prereqs ...governance.PrereqRef,
) uint64 {
	t.Helper()
	propId, err := env.engine.CreateProposal(
		context.Background(),
		governance.CreateProposalRequest{
			Proposer:      "proposer",
			Title:         "test proposal",
			Description:   "description",
			PowerContract: oracle,
			Options:       options,
			Prerequisites: prereqs,
		},
	)
	require.NoError(t, err)
	return propId
}

func (env *testEnv) vote(t *testing.T, voter string, propId uint64, option string) {
	t.Helper()
	_, err := env.engine.Vote(context.Background(), voter, propId, option)
	require.NoError(t, err)
}

// executionCount returns the execution counter value for a status label
func executionCount(t *testing.T, env *testEnv, status string) float64 {
	t.Helper()
	families, err := env.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "governance_executions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" && lp.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
