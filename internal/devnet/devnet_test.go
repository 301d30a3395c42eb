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

package devnet

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyScenario(t *testing.T) {
	for _, blobPlugin := range []string{"badger", "sqlite"} {
		t.Run(blobPlugin, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.BlobPlugin = blobPlugin
			reg := prometheus.NewRegistry()
			d, err := New(cfg, nil, reg)
			require.NoError(t, err)
			defer func() { require.NoError(t, d.Stop()) }()
			ctx := context.Background()
			require.NoError(t, d.Start(ctx))
			assert.Equal(t, []string{"chain-a", "chain-b"}, d.Chains())

			report, err := d.RunDependencyScenario(ctx, "chain-a", "chain-b", "")
			require.NoError(t, err)
			assert.Equal(t, "reject", report.ChosenOption)
			assert.Equal(t, map[string]uint64{"approve": 3, "reject": 7}, report.Tally)
			assert.Equal(t, uint32(2), report.QueryAttempts)
			assert.NotEmpty(t, report.Steps)

			// Both chains report metrics under their own label
			count, err := testutil.GatherAndCount(reg, "governance_votes_cast_total")
			require.NoError(t, err)
			assert.Equal(t, 2, count)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devnet.yaml")
	content := `
votingPeriod: 30m
maxDelay: 1ms
chains:
  - chainId: "x"
  - chainId: "y"
    contract: "gov-y"
    powerOracles:
      - address: "flat"
        type: "fixed"
        power: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.VotingPeriod)
	assert.Equal(t, time.Millisecond, cfg.MaxDelay)
	require.Len(t, cfg.Chains, 2)
	assert.Equal(t, DefaultContract, cfg.Chains[0].Contract)
	assert.NotEmpty(t, cfg.Chains[0].PowerOracles)
	assert.Equal(t, "gov-y", cfg.Chains[1].Contract)
	assert.Equal(t, uint64(7), cfg.Chains[1].PowerOracles[0].Power)

	require.NoError(t, os.WriteFile(path, []byte("chains:\n  - chainId: x\n  - chainId: x\n"), 0o644))
	_, err = LoadConfig(path)
	require.ErrorContains(t, err, "duplicate chain ID")
	require.NoError(t, os.WriteFile(path, []byte("chains: []\n"), 0o644))
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start)
	assert.Equal(t, start, c.Now())
	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())
}

func TestEngineUnknownChain(t *testing.T) {
	d, err := New(nil, nil, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Stop()) }()
	_, err = d.Engine("chain-a")
	require.Error(t, err)
	require.NoError(t, d.Start(context.Background()))
	_, err = d.Engine("chain-z")
	require.Error(t, err)
	_, err = d.Engine("chain-a")
	require.NoError(t, err)
}
