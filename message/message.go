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

// Package message contains the cross-chain wire types exchanged between
// governance engines. All types are CBOR encoded as arrays.
package message

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// DefaultNamespace is the namespace shared by cooperating governance engines
const DefaultNamespace = "ccgov-ns"

// Source identifies the sender of a cross-chain packet
type Source struct {
	cbor.StructAsArray
	Namespace string
	ChainID   string
	Address   string
}

// Destination addresses a governance engine on another chain
type Destination struct {
	cbor.StructAsArray
	ChainID  string
	Contract string
}

func (d Destination) String() string {
	return d.ChainID + "/" + d.Contract
}

// QueryTally asks a remote engine for the tally of one of its executed proposals
type QueryTally struct {
	cbor.StructAsArray
	Token      string
	Source     Source
	ProposalID uint64
}

func (q *QueryTally) Encode() ([]byte, error) {
	return cbor.Encode(q)
}

func DecodeQueryTally(data []byte) (*QueryTally, error) {
	var ret QueryTally
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, fmt.Errorf("decode query tally packet: %w", err)
	}
	return &ret, nil
}

type OptionVotes struct {
	cbor.StructAsArray
	Option string
	Votes  uint64
}

// TallyResponse is the answer to a QueryTally
type TallyResponse struct {
	cbor.StructAsArray
	ProposalID   uint64
	ChosenOption string
	Tally        []OptionVotes
}

// Map returns the tally keyed by option
func (t *TallyResponse) Map() map[string]uint64 {
	ret := make(map[string]uint64, len(t.Tally))
	for _, ov := range t.Tally {
		ret[ov.Option] = ov.Votes
	}
	return ret
}

type ResultKind uint8

const (
	// ResultKindQuery answers a QueryTally, with either a tally or an error
	ResultKindQuery ResultKind = 1
	// ResultKindExecute is the acknowledgement of an execute message
	ResultKindExecute ResultKind = 2
	// ResultKindFatal reports a transport or protocol failure
	ResultKindFatal ResultKind = 3
)

func (k ResultKind) String() string {
	switch k {
	case ResultKindQuery:
		return "query"
	case ResultKindExecute:
		return "execute"
	case ResultKindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// CallbackResult is delivered back to the querying engine
type CallbackResult struct {
	cbor.StructAsArray
	Kind  ResultKind
	Tally *TallyResponse
	Error string
}

// Success reports whether the result carries a tally
func (r *CallbackResult) Success() bool {
	return r.Kind == ResultKindQuery && r.Error == "" && r.Tally != nil
}

func (r *CallbackResult) Encode() ([]byte, error) {
	return cbor.Encode(r)
}

func DecodeCallbackResult(data []byte) (*CallbackResult, error) {
	var ret CallbackResult
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, fmt.Errorf("decode callback result: %w", err)
	}
	return &ret, nil
}

// NewTallyResult wraps a tally in a successful query result
func NewTallyResult(tally *TallyResponse) *CallbackResult {
	return &CallbackResult{Kind: ResultKindQuery, Tally: tally}
}

// NewQueryErrorResult reports that the remote engine refused the query
func NewQueryErrorResult(err error) *CallbackResult {
	return &CallbackResult{Kind: ResultKindQuery, Error: err.Error()}
}

// NewFatalResult reports a failure to deliver or process the query
func NewFatalResult(err error) *CallbackResult {
	return &CallbackResult{Kind: ResultKindFatal, Error: err.Error()}
}
