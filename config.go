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
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/ccgov/governance"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/blinklabs-io/ccgov/relay/httprelay"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	oracles          *power.Router
	messenger        governance.Messenger
	now              func() time.Time
	dataDir          string
	blobPlugin       string
	chainId          string
	contract         string
	namespace        string
	apiListenAddress string
	tlsCertFilePath  string
	tlsKeyFilePath   string
	powerWhitelist   []string
	peers            []httprelay.Peer
	votingPeriod     time.Duration
	shutdownTimeout  time.Duration
	enforceWhitelist bool
	tracing          bool
	tracingStdout    bool
}

func (n *Node) configValidate() error {
	if n.config.chainId == "" {
		return errors.New("no chain ID defined")
	}
	if n.config.contract == "" {
		return errors.New("no governance contract address defined")
	}
	if n.config.oracles == nil {
		return errors.New("no power oracles defined")
	}
	if n.config.votingPeriod < 0 {
		return errors.New("voting period must not be negative")
	}
	if n.config.messenger != nil && len(n.config.peers) > 0 {
		return errors.New("peers cannot be combined with a custom messenger")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new ccgov config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the state store plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithChainID specifies the identifier of the chain this node governs
func WithChainID(chainId string) ConfigOptionFunc {
	return func(c *Config) {
		c.chainId = chainId
	}
}

// WithContract specifies the address of the governance contract on this chain
func WithContract(contract string) ConfigOptionFunc {
	return func(c *Config) {
		c.contract = contract
	}
}

// WithNamespace specifies the namespace required of cross-chain query senders
func WithNamespace(namespace string) ConfigOptionFunc {
	return func(c *Config) {
		c.namespace = namespace
	}
}

func WithVotingPeriod(period time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.votingPeriod = period
	}
}

// WithPowerOracles specifies the voting power oracles proposals may reference
func WithPowerOracles(oracles *power.Router) ConfigOptionFunc {
	return func(c *Config) {
		c.oracles = oracles
	}
}

// WithPowerWhitelist restricts the power oracles new proposals may use
func WithPowerWhitelist(enforce bool, addresses ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.enforceWhitelist = enforce
		c.powerWhitelist = addresses
	}
}

// WithApiListenAddress specifies the HTTP API listen address. The API is disabled when empty
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

func WithTlsCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = path
	}
}

func WithTlsKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsKeyFilePath = path
	}
}

// WithPeers specifies the remote governance nodes reachable over HTTP
func WithPeers(peers ...httprelay.Peer) ConfigOptionFunc {
	return func(c *Config) {
		c.peers = peers
	}
}

// WithMessenger specifies a custom cross-chain transport, such as a relay hub
func WithMessenger(messenger governance.Messenger) ConfigOptionFunc {
	return func(c *Config) {
		c.messenger = messenger
	}
}

// WithClock overrides the time source of the governance engine
func WithClock(now func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.now = now
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
