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

// Package governance implements the proposal lifecycle and the resolution of
// prerequisite proposals that live on other chains.
package governance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/ccgov/database"
	"github.com/blinklabs-io/ccgov/event"
	"github.com/blinklabs-io/ccgov/message"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultVotingPeriod = 24 * time.Hour
	tracerName          = "github.com/blinklabs-io/ccgov/governance"
)

// Messenger hands tally queries to the cross-chain transport. Results come
// back later through Engine.OnRemoteTallyCallback with the packet token.
type Messenger interface {
	SendQuery(ctx context.Context, dest message.Destination, packet *message.QueryTally) error
}

type EngineConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Database     *database.Database
	Oracles      *power.Router
	Messenger    Messenger
	// Now returns the current time. Defaults to time.Now
	Now func() time.Time
	// Namespace is required of query sources. Defaults to message.DefaultNamespace
	Namespace string
	ChainID   string
	Address   string
	// PowerWhitelist restricts proposal oracle addresses when EnforceWhitelist is set
	PowerWhitelist   []string
	VotingPeriod     time.Duration
	EnforceWhitelist bool
}

// Engine is the governance state machine of one chain. Every state changing
// operation runs under a single lock in one store transaction.
type Engine struct {
	messenger Messenger
	db        *database.Database
	oracles   *power.Router
	eventBus  *event.EventBus
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	whitelist map[string]struct{}
	metrics   engineMetrics
	config    EngineConfig
	mu        sync.Mutex
	msgMu     sync.RWMutex
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if cfg.Oracles == nil {
		return nil, errors.New("no power oracle router provided")
	}
	if cfg.VotingPeriod <= 0 {
		cfg.VotingPeriod = DefaultVotingPeriod
	}
	if cfg.Namespace == "" {
		cfg.Namespace = message.DefaultNamespace
	}
	e := &Engine{
		config:    cfg,
		messenger: cfg.Messenger,
		db:        cfg.Database,
		oracles:   cfg.Oracles,
		eventBus:  cfg.EventBus,
		logger:    cfg.Logger,
		now:       cfg.Now,
		tracer:    otel.Tracer(tracerName),
	}
	if e.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if cfg.EnforceWhitelist {
		e.whitelist = make(map[string]struct{}, len(cfg.PowerWhitelist))
		for _, addr := range cfg.PowerWhitelist {
			e.whitelist[addr] = struct{}{}
		}
	}
	e.initMetrics(cfg.PromRegistry)
	if err := e.abandonPendingQueries(); err != nil {
		return nil, err
	}
	return e, nil
}

// SetMessenger sets the transport used for tally queries. Transports that
// deliver callbacks to the engine are usually built after it.
func (e *Engine) SetMessenger(m Messenger) {
	e.msgMu.Lock()
	defer e.msgMu.Unlock()
	e.messenger = m
}

func (e *Engine) getMessenger() Messenger {
	e.msgMu.RLock()
	defer e.msgMu.RUnlock()
	return e.messenger
}

// Source identifies this engine as the sender of tally queries
func (e *Engine) Source() message.Source {
	return message.Source{
		Namespace: e.config.Namespace,
		ChainID:   e.config.ChainID,
		Address:   e.config.Address,
	}
}

func (e *Engine) ChainID() string {
	return e.config.ChainID
}

func (e *Engine) VotingPeriod() time.Duration {
	return e.config.VotingPeriod
}

// update runs fn in a read-write transaction while holding the engine lock
func (e *Engine) update(fn func(*database.Txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.Transaction(true).Do(fn)
}

// view runs fn in a read-only transaction
func (e *Engine) view(fn func(*database.Txn) error) error {
	return e.db.Transaction(false).Do(fn)
}

func (e *Engine) publish(eventType event.EventType, data any) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.PublishAsync(eventType, event.NewEvent(eventType, data))
}

// endSpan records err on the span before ending it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
