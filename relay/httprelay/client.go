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

package httprelay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/blinklabs-io/ccgov/message"
	"github.com/blinklabs-io/ccgov/relay"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultRetryMax       = 3
)

var (
	ErrUnknownPeer   = errors.New("no peer configured for destination")
	ErrClientStopped = errors.New("relay client stopped")
)

// Peer is a remote governance contract and the base URL of its node
type Peer struct {
	ChainID  string `yaml:"chainId"  envconfig:"CHAIN_ID"`
	Contract string `yaml:"contract" envconfig:"CONTRACT"`
	URL      string `yaml:"url"      envconfig:"URL"`
}

type ClientConfig struct {
	Logger         *slog.Logger
	Endpoint       relay.Endpoint
	HTTPClient     *http.Client
	Peers          []Peer
	RequestTimeout time.Duration
	RetryMax       int
}

// Client sends tally queries to peer nodes and hands each response to the
// local endpoint as a callback
type Client struct {
	config   ClientConfig
	logger   *slog.Logger
	http     *retryablehttp.Client
	peers    map[message.Destination]string
	endpoint relay.Endpoint
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = DefaultRetryMax
	}
	c := &Client{
		config:   cfg,
		logger:   cfg.Logger,
		peers:    make(map[message.Destination]string),
		endpoint: cfg.Endpoint,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	httpClient.Timeout = cfg.RequestTimeout
	c.http = retryablehttp.NewClient()
	c.http.HTTPClient = httpClient
	c.http.RetryMax = cfg.RetryMax
	c.http.RetryWaitMin = 100 * time.Millisecond
	c.http.RetryWaitMax = 2 * time.Second
	c.http.Logger = c.logger.With("component", "httprelay")
	for _, peer := range cfg.Peers {
		c.AddPeer(peer)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

func (c *Client) AddPeer(peer Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dest := message.Destination{ChainID: peer.ChainID, Contract: peer.Contract}
	c.peers[dest] = strings.TrimSuffix(peer.URL, "/")
}

// SetEndpoint sets the receiver of callbacks
func (c *Client) SetEndpoint(endpoint relay.Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = endpoint
}

// SendQuery posts the packet in the background. Only an unknown destination
// or a stopped client fails synchronously.
func (c *Client) SendQuery(
	_ context.Context,
	dest message.Destination,
	packet *message.QueryTally,
) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		return ErrClientStopped
	}
	baseUrl, ok := c.peers[message.Destination{ChainID: dest.ChainID, Contract: dest.Contract}]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, dest)
	}
	body, err := packet.Encode()
	if err != nil {
		return fmt.Errorf("encode packet: %w", err)
	}
	endpoint := c.endpoint
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result := c.post(baseUrl+QueryTallyPath, body)
		if endpoint == nil {
			c.logger.Warn(
				"dropped callback without endpoint",
				"component", "httprelay",
				"token", packet.Token,
			)
			return
		}
		if err := endpoint.OnRemoteTallyCallback(c.ctx, packet.Token, result); err != nil {
			c.logger.Debug(
				"callback returned error",
				"component", "httprelay",
				"destination", dest.String(),
				"token", packet.Token,
				"error", err,
			)
		}
	}()
	return nil
}

// post delivers a packet. Transport failures become fatal results, the way an
// undeliverable packet times out on a real channel.
func (c *Client) post(url string, body []byte) *message.CallbackResult {
	req, err := retryablehttp.NewRequestWithContext(c.ctx, http.MethodPost, url, body)
	if err != nil {
		return message.NewFatalResult(err)
	}
	req.Header.Set("Content-Type", ContentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return message.NewFatalResult(fmt.Errorf("deliver packet: %w", err))
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPacketSize))
	if err != nil {
		return message.NewFatalResult(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return message.NewFatalResult(
			fmt.Errorf(
				"peer returned %d: %s",
				resp.StatusCode,
				strings.TrimSpace(string(data)),
			),
		)
	}
	result, err := message.DecodeCallbackResult(data)
	if err != nil {
		return message.NewFatalResult(fmt.Errorf("decode response: %w", err))
	}
	return result
}

// Wait blocks until every sent packet has had its callback delivered
func (c *Client) Wait() {
	c.wg.Wait()
}

// Stop cancels in-flight requests and waits for their callbacks
func (c *Client) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}
