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

// Package devnet runs several governance chains in one process, connected by
// an in-process relay hub, with a shared adjustable clock.
package devnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/blinklabs-io/ccgov"
	"github.com/blinklabs-io/ccgov/governance"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/blinklabs-io/ccgov/relay"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultContract     = "governance"
	DefaultPowerOracle  = "table-power"
	DefaultVotingPeriod = time.Hour
)

// ChainConfig describes one chain of the devnet
type ChainConfig struct {
	ChainID      string               `yaml:"chainId"`
	Contract     string               `yaml:"contract"`
	PowerOracles []power.OracleConfig `yaml:"powerOracles"`
}

type Config struct {
	Chains       []ChainConfig `yaml:"chains"`
	VotingPeriod time.Duration `yaml:"votingPeriod"`
	// MaxDelay is the upper bound of the random relay delay
	MaxDelay time.Duration `yaml:"maxDelay"`
	// BlobPlugin selects the state store of every chain. Stores are in memory.
	BlobPlugin string `yaml:"blobPlugin"`
}

func defaultOracles() []power.OracleConfig {
	return []power.OracleConfig{
		{
			Address: DefaultPowerOracle,
			Type:    power.OracleTypeTable,
			Powers: map[string]uint64{
				"alice": 3,
				"bob":   2,
				"carol": 5,
			},
		},
		{Address: "fixed-power", Type: power.OracleTypeFixed, Power: 1},
	}
}

// DefaultConfig returns a two chain devnet
func DefaultConfig() *Config {
	return &Config{
		Chains: []ChainConfig{
			{ChainID: "chain-a", Contract: DefaultContract, PowerOracles: defaultOracles()},
			{ChainID: "chain-b", Contract: DefaultContract, PowerOracles: defaultOracles()},
		},
		VotingPeriod: DefaultVotingPeriod,
		MaxDelay:     5 * time.Millisecond,
	}
}

// LoadConfig reads a devnet config from a YAML file
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read devnet config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parse devnet config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Chains) == 0 {
		return errors.New("devnet has no chains")
	}
	seen := make(map[string]struct{}, len(c.Chains))
	for i := range c.Chains {
		chain := &c.Chains[i]
		if chain.ChainID == "" {
			return fmt.Errorf("chain %d has no chain ID", i)
		}
		if _, ok := seen[chain.ChainID]; ok {
			return fmt.Errorf("duplicate chain ID %q", chain.ChainID)
		}
		seen[chain.ChainID] = struct{}{}
		if chain.Contract == "" {
			chain.Contract = DefaultContract
		}
		if len(chain.PowerOracles) == 0 {
			chain.PowerOracles = defaultOracles()
		}
	}
	if c.VotingPeriod < 0 || c.MaxDelay < 0 {
		return errors.New("devnet durations must not be negative")
	}
	return nil
}

// Clock is the time source shared by every chain of a devnet
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type Devnet struct {
	config Config
	logger *slog.Logger
	hub    *relay.Hub
	clock  *Clock
	nodes  map[string]*ccgov.Node
	order  []string
}

// New builds the chains of a devnet. Metrics of each chain carry a chain_id label.
func New(
	cfg *Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Devnet, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.VotingPeriod == 0 {
		cfg.VotingPeriod = DefaultVotingPeriod
	}
	d := &Devnet{
		config: *cfg,
		logger: logger,
		clock:  NewClock(time.Now().UTC()),
		nodes:  make(map[string]*ccgov.Node),
		hub: relay.NewHub(relay.HubConfig{
			PromRegistry: promRegistry,
			Logger:       logger,
			MaxDelay:     cfg.MaxDelay,
		}),
	}
	for _, chain := range cfg.Chains {
		oracles, err := power.NewRouterFromConfig(chain.PowerOracles)
		if err != nil {
			d.hub.Stop()
			return nil, fmt.Errorf("chain %s: %w", chain.ChainID, err)
		}
		var chainRegistry prometheus.Registerer
		if promRegistry != nil {
			chainRegistry = prometheus.WrapRegistererWith(
				prometheus.Labels{"chain_id": chain.ChainID},
				promRegistry,
			)
		}
		n, err := ccgov.New(ccgov.NewConfig(
			ccgov.WithLogger(logger.With("chain_id", chain.ChainID)),
			ccgov.WithPrometheusRegistry(chainRegistry),
			ccgov.WithBlobPlugin(cfg.BlobPlugin),
			ccgov.WithChainID(chain.ChainID),
			ccgov.WithContract(chain.Contract),
			ccgov.WithPowerOracles(oracles),
			ccgov.WithVotingPeriod(cfg.VotingPeriod),
			ccgov.WithClock(d.clock.Now),
			ccgov.WithMessenger(d.hub.Messenger(chain.ChainID, chain.Contract)),
		))
		if err != nil {
			_ = d.Stop()
			return nil, fmt.Errorf("chain %s: %w", chain.ChainID, err)
		}
		d.nodes[chain.ChainID] = n
		d.order = append(d.order, chain.ChainID)
	}
	return d, nil
}

// Start starts every chain and registers it with the relay hub
func (d *Devnet) Start(ctx context.Context) error {
	for _, chainId := range d.order {
		n := d.nodes[chainId]
		if err := n.Start(ctx); err != nil {
			return fmt.Errorf("start chain %s: %w", chainId, err)
		}
		d.hub.Register(chainId, d.contract(chainId), n.Engine())
		d.logger.Info(
			"devnet chain started",
			"component", "devnet",
			"chain_id", chainId,
		)
	}
	return nil
}

func (d *Devnet) contract(chainId string) string {
	for _, chain := range d.config.Chains {
		if chain.ChainID == chainId {
			return chain.Contract
		}
	}
	return ""
}

// Chains returns the chain IDs in config order
func (d *Devnet) Chains() []string {
	return append([]string(nil), d.order...)
}

// Engine returns the engine of a started chain
func (d *Devnet) Engine(chainId string) (*governance.Engine, error) {
	n, ok := d.nodes[chainId]
	if !ok || n.Engine() == nil {
		return nil, fmt.Errorf("unknown or stopped chain %q", chainId)
	}
	return n.Engine(), nil
}

// PrereqRef references a proposal on a devnet chain
func (d *Devnet) PrereqRef(chainId string, propId uint64) governance.PrereqRef {
	return governance.PrereqRef{
		RemoteChainID:    chainId,
		RemoteContract:   d.contract(chainId),
		RemoteProposalID: propId,
	}
}

func (d *Devnet) Clock() *Clock {
	return d.clock
}

// EndVoting moves the clock past the voting period
func (d *Devnet) EndVoting() {
	d.clock.Advance(d.config.VotingPeriod + time.Second)
}

// Settle waits for every relayed packet and callback to be delivered
func (d *Devnet) Settle() {
	d.hub.Flush()
}

// Stop stops the relay hub and every chain
func (d *Devnet) Stop() error {
	d.hub.Stop()
	var err error
	for _, chainId := range d.order {
		if stopErr := d.nodes[chainId].Stop(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("stop chain %s: %w", chainId, stopErr))
		}
	}
	return err
}
