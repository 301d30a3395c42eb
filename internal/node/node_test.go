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

package node

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/ccgov"
	"github.com/blinklabs-io/ccgov/internal/config"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNodeOptions(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := &config.Config{
		ChainID:      "chain-a",
		Contract:     "gov-a",
		BindAddr:     "127.0.0.1",
		VotingPeriod: "2h",
		PowerOracles: []power.OracleConfig{{Address: "fixed", Type: power.OracleTypeFixed}},
	}
	opts, err := NodeOptions(cfg, logger, prometheus.NewRegistry())
	require.NoError(t, err)
	n, err := ccgov.New(ccgov.NewConfig(opts...))
	require.NoError(t, err)
	require.NoError(t, n.Stop())

	cfg.VotingPeriod = "whenever"
	_, err = NodeOptions(cfg, logger, nil)
	require.Error(t, err)

	cfg.VotingPeriod = ""
	cfg.PowerOracles = []power.OracleConfig{{Address: "x", Type: "bogus"}}
	_, err = NodeOptions(cfg, logger, nil)
	require.ErrorContains(t, err, "invalid power oracle config")
}
