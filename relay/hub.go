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

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/blinklabs-io/ccgov/message"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultHubQueueSize   = 256
	DefaultHubWorkerCount = 4
)

var (
	ErrHubStopped   = errors.New("relay hub stopped")
	ErrHubQueueFull = errors.New("relay hub queue full")
)

type HubConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	QueueSize    int
	Workers      int
	// MaxDelay adds a random delay up to this duration before each delivery
	MaxDelay time.Duration
}

type delivery struct {
	packet *message.QueryTally
	from   message.Destination
	to     message.Destination
}

// Hub connects engines running in the same process
type Hub struct {
	config    HubConfig
	endpoints map[message.Destination]Endpoint
	queue     chan delivery
	logger    *slog.Logger
	metrics   *hubMetrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	inflight  sync.WaitGroup
	mu        sync.RWMutex
	stopOnce  sync.Once
	stopped   bool
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultHubQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultHubWorkerCount
	}
	h := &Hub{
		config:    cfg,
		endpoints: make(map[message.Destination]Endpoint),
		queue:     make(chan delivery, cfg.QueueSize),
		logger:    cfg.Logger,
	}
	if h.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		h.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	h.metrics = newHubMetrics(cfg.PromRegistry)
	h.ctx, h.cancel = context.WithCancel(context.Background())
	for range cfg.Workers {
		h.wg.Add(1)
		go h.worker()
	}
	return h
}

// Register makes an endpoint reachable at the given chain and contract
func (h *Hub) Register(chainID string, contract string, ep Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endpoints[message.Destination{ChainID: chainID, Contract: contract}] = ep
}

func (h *Hub) endpoint(dest message.Destination) (Endpoint, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ep, ok := h.endpoints[message.Destination{ChainID: dest.ChainID, Contract: dest.Contract}]
	return ep, ok
}

// Messenger returns a sender whose callbacks are delivered to the endpoint
// registered at from
func (h *Hub) Messenger(chainID string, contract string) *HubMessenger {
	return &HubMessenger{
		hub:  h,
		from: message.Destination{ChainID: chainID, Contract: contract},
	}
}

func (h *Hub) enqueue(d delivery) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stopped {
		return ErrHubStopped
	}
	h.inflight.Add(1)
	select {
	case h.queue <- d:
		return nil
	default:
		h.inflight.Done()
		h.metrics.dropped.Inc()
		return ErrHubQueueFull
	}
}

func (h *Hub) worker() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case d := <-h.queue:
			h.process(d)
			h.inflight.Done()
		}
	}
}

// process serves a query and hands its result back to the sender. The
// callback is delivered by the same worker so it cannot be dropped once the
// remote has answered.
func (h *Hub) process(d delivery) {
	if !h.delay() {
		h.metrics.dropped.Inc()
		return
	}
	h.metrics.packets.WithLabelValues("query").Inc()
	var result *message.CallbackResult
	if ep, ok := h.endpoint(d.to); ok {
		result = ep.ServeQuery(h.ctx, d.packet)
	} else {
		result = message.NewFatalResult(
			fmt.Errorf("no endpoint registered at %s", d.to),
		)
	}
	if !h.delay() {
		h.metrics.dropped.Inc()
		h.logger.Warn(
			"dropped tally query callback on stop",
			"component", "relay",
			"destination", d.from.String(),
			"token", d.packet.Token,
		)
		return
	}
	h.metrics.packets.WithLabelValues("callback").Inc()
	ep, ok := h.endpoint(d.from)
	if !ok {
		h.logger.Warn(
			"no endpoint for callback",
			"component", "relay",
			"destination", d.from.String(),
			"token", d.packet.Token,
		)
		return
	}
	if err := ep.OnRemoteTallyCallback(h.ctx, d.packet.Token, result); err != nil {
		h.metrics.callbackErrors.Inc()
		h.logger.Debug(
			"callback returned error",
			"component", "relay",
			"destination", d.from.String(),
			"token", d.packet.Token,
			"error", err,
		)
	}
}

// delay waits a random time up to MaxDelay. It returns false if the hub
// stopped meanwhile
func (h *Hub) delay() bool {
	if h.config.MaxDelay <= 0 {
		return h.ctx.Err() == nil
	}
	delay := rand.N(h.config.MaxDelay) //nolint:gosec
	select {
	case <-time.After(delay):
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Flush waits until every accepted query has been answered and its callback
// delivered
func (h *Hub) Flush() {
	h.inflight.Wait()
}

// Stop halts the workers. Queries still queued are dropped.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()
		h.cancel()
		h.wg.Wait()
		for {
			select {
			case <-h.queue:
				h.metrics.dropped.Inc()
				h.inflight.Done()
			default:
				return
			}
		}
	})
}

// HubMessenger sends tally queries through a Hub
type HubMessenger struct {
	hub  *Hub
	from message.Destination
}

func (m *HubMessenger) SendQuery(
	_ context.Context,
	dest message.Destination,
	packet *message.QueryTally,
) error {
	return m.hub.enqueue(delivery{
		from:   m.from,
		to:     dest,
		packet: packet,
	})
}
