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

// Package power provides voting power oracles and routes queries to them by
// the oracle address recorded on a proposal.
package power

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownOracle = errors.New("unknown power oracle")

type Request struct {
	Voter string
}

type Response struct {
	Power uint64
}

// Oracle reports the voting power of a voter
type Oracle interface {
	GetVotingPower(context.Context, Request) (Response, error)
}

// OracleFunc adapts a function to the Oracle interface
type OracleFunc func(context.Context, Request) (Response, error)

func (f OracleFunc) GetVotingPower(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Router resolves oracle addresses to registered oracles
type Router struct {
	oracles map[string]Oracle
	mu      sync.RWMutex
}

func NewRouter() *Router {
	return &Router{
		oracles: make(map[string]Oracle),
	}
}

// Register binds an oracle to an address, replacing any previous binding
func (r *Router) Register(address string, oracle Oracle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.oracles[address] = oracle
}

func (r *Router) Lookup(address string) (Oracle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.oracles[address]
	return o, ok
}

// Addresses returns the registered oracle addresses
func (r *Router) Addresses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.oracles))
	for addr := range r.oracles {
		ret = append(ret, addr)
	}
	return ret
}

// GetVotingPower queries the oracle registered at address
func (r *Router) GetVotingPower(
	ctx context.Context,
	address string,
	voter string,
) (uint64, error) {
	oracle, ok := r.Lookup(address)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownOracle, address)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	resp, err := oracle.GetVotingPower(ctx, Request{Voter: voter})
	if err != nil {
		return 0, err
	}
	return resp.Power, nil
}
