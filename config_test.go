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

package ccgov

import (
	"testing"
	"time"

	"github.com/blinklabs-io/ccgov/power"
	"github.com/blinklabs-io/ccgov/relay/httprelay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigOptions(t *testing.T) {
	oracles := power.NewRouter()
	cfg := NewConfig(
		WithChainID("chain-a"),
		WithContract("gov-a"),
		WithNamespace("ns"),
		WithVotingPeriod(time.Minute),
		WithPowerOracles(oracles),
		WithPowerWhitelist(true, "fixed"),
		WithBlobPlugin("sqlite"),
		WithDatabasePath("/tmp/ccgov"),
		WithApiListenAddress(":8080"),
		WithShutdownTimeout(5*time.Second),
		WithTracing(true),
		WithTracingStdout(true),
	)
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, "chain-a", cfg.chainId)
	assert.Equal(t, "gov-a", cfg.contract)
	assert.Equal(t, "ns", cfg.namespace)
	assert.Equal(t, time.Minute, cfg.votingPeriod)
	assert.Same(t, oracles, cfg.oracles)
	assert.True(t, cfg.enforceWhitelist)
	assert.Equal(t, []string{"fixed"}, cfg.powerWhitelist)
	assert.Equal(t, "sqlite", cfg.blobPlugin)
	assert.Equal(t, "/tmp/ccgov", cfg.dataDir)
	assert.Equal(t, ":8080", cfg.apiListenAddress)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
}

func TestConfigValidate(t *testing.T) {
	oracles := power.NewRouter()
	testDefs := []struct {
		name    string
		opts    []ConfigOptionFunc
		wantErr string
	}{
		{
			name:    "missing chain",
			opts:    []ConfigOptionFunc{WithContract("gov"), WithPowerOracles(oracles)},
			wantErr: "no chain ID",
		},
		{
			name:    "missing contract",
			opts:    []ConfigOptionFunc{WithChainID("c"), WithPowerOracles(oracles)},
			wantErr: "no governance contract",
		},
		{
			name:    "missing oracles",
			opts:    []ConfigOptionFunc{WithChainID("c"), WithContract("gov")},
			wantErr: "no power oracles",
		},
		{
			name: "negative voting period",
			opts: []ConfigOptionFunc{
				WithChainID("c"),
				WithContract("gov"),
				WithPowerOracles(oracles),
				WithVotingPeriod(-time.Second),
			},
			wantErr: "voting period",
		},
		{
			name: "peers and messenger",
			opts: []ConfigOptionFunc{
				WithChainID("c"),
				WithContract("gov"),
				WithPowerOracles(oracles),
				WithPeers(httprelay.Peer{ChainID: "d", Contract: "gov", URL: "http://d"}),
				WithMessenger(httprelay.NewClient(httprelay.ClientConfig{})),
			},
			wantErr: "peers cannot be combined",
		},
		{
			name: "valid",
			opts: []ConfigOptionFunc{
				WithChainID("c"),
				WithContract("gov"),
				WithPowerOracles(oracles),
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			n, err := New(NewConfig(testDef.opts...))
			if testDef.wantErr != "" {
				require.ErrorContains(t, err, testDef.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, n.Stop())
		})
	}
}
