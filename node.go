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

// Package ccgov runs a cross-chain governance node: a governance engine over
// a persistent state store, its HTTP API, and the transport that carries tally
// queries to other chains.
package ccgov

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/ccgov/api"
	"github.com/blinklabs-io/ccgov/database"
	"github.com/blinklabs-io/ccgov/event"
	"github.com/blinklabs-io/ccgov/governance"
	"github.com/blinklabs-io/ccgov/relay/httprelay"
)

const defaultShutdownTimeout = 30 * time.Second

var ErrNodeStarted = errors.New("node already started")

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	engine        *governance.Engine
	api           *api.Server
	relayClient   *httprelay.Client
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	startOnce     sync.Once
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		n.eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Start opens the state store and starts the engine and its listeners
func (n *Node) Start(ctx context.Context) error {
	err := ErrNodeStarted
	n.startOnce.Do(func() {
		err = n.start(ctx)
	})
	return err
}

func (n *Node) start(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:      n.config.dataDir,
		BlobPlugin:   n.config.blobPlugin,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Cross-chain transport
	messenger := n.config.messenger
	if messenger == nil {
		n.relayClient = httprelay.NewClient(httprelay.ClientConfig{
			Logger: n.config.logger,
			Peers:  n.config.peers,
		})
		messenger = n.relayClient
	}
	// Load governance engine
	engine, err := governance.NewEngine(governance.EngineConfig{
		PromRegistry:     n.config.promRegistry,
		Logger:           n.config.logger,
		EventBus:         n.eventBus,
		Database:         n.db,
		Oracles:          n.config.oracles,
		Messenger:        messenger,
		Now:              n.config.now,
		Namespace:        n.config.namespace,
		ChainID:          n.config.chainId,
		Address:          n.config.contract,
		PowerWhitelist:   n.config.powerWhitelist,
		EnforceWhitelist: n.config.enforceWhitelist,
		VotingPeriod:     n.config.votingPeriod,
	})
	if err != nil {
		return fmt.Errorf("failed to load governance engine: %w", err)
	}
	n.engine = engine
	if n.relayClient != nil {
		n.relayClient.SetEndpoint(n.engine)
	}
	n.subscribeEvents()
	// API server
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{
				ListenAddress:   n.config.apiListenAddress,
				TlsCertFilePath: n.config.tlsCertFilePath,
				TlsKeyFilePath:  n.config.tlsKeyFilePath,
				ChainID:         n.config.chainId,
			},
			n.engine,
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
	}
	n.config.logger.Info(
		fmt.Sprintf(
			"governance node started for %s/%s",
			n.config.chainId,
			n.config.contract,
		),
		"component", "node",
	)
	return nil
}

// subscribeEvents logs governance events
func (n *Node) subscribeEvents() {
	for _, eventType := range []event.EventType{
		event.ProposalCreatedEventType,
		event.VoteCastEventType,
		event.RemoteQueryDispatchedEventType,
		event.RemoteResolvedEventType,
		event.RemoteQueryFailedEventType,
		event.ProposalExecutedEventType,
	} {
		n.eventBus.SubscribeFunc(eventType, func(evt event.Event) {
			n.config.logger.Debug(
				"governance event",
				"component", "node",
				"type", string(evt.Type),
				"data", fmt.Sprintf("%+v", evt.Data),
			)
		})
	}
}

// Run starts the node if needed and blocks until ctx is cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(ctx); err != nil && !errors.Is(err, ErrNodeStarted) {
		return errors.Join(err, n.Stop())
	}
	select {
	case <-ctx.Done():
		return n.Stop()
	case <-n.done:
		return nil
	}
}

// Engine returns the governance engine. It is nil before Start.
func (n *Node) Engine() *governance.Engine {
	return n.engine
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
		close(n.done)
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := defaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Phase 1: Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain in-flight queries
	if n.relayClient != nil {
		n.relayClient.Stop()
	}
	n.eventBus.Stop()

	// Phase 3: Close database
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown func: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	return err
}
