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

package models

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
)

var (
	ErrRemoteRefNotFound    = errors.New("remote proposal reference not found")
	ErrPrereqStateNotFound  = errors.New("prerequisite state not found")
	ErrPendingQueryNotFound = errors.New("pending query not found")
)

// RemoteProposalRef maps a locally minted prerequisite id to a proposal on another chain
type RemoteProposalRef struct {
	cbor.StructAsArray
	ID               uint64 `json:"id"`
	PropID           uint64 `json:"prop_id"`
	RemoteProposalID uint64 `json:"remote_proposal_id"`
	RemoteChainID    string `json:"remote_chain_id"`
	RemoteContract   string `json:"remote_contract"`
}

func (r *RemoteProposalRef) String() string {
	return fmt.Sprintf(
		"%s/%s#%d",
		r.RemoteChainID,
		r.RemoteContract,
		r.RemoteProposalID,
	)
}

type PrereqStatus uint8

const (
	PrereqStatusUnqueried PrereqStatus = iota
	PrereqStatusQueried
	PrereqStatusResolved
	PrereqStatusFailed
)

func (s PrereqStatus) String() string {
	switch s {
	case PrereqStatusUnqueried:
		return "unqueried"
	case PrereqStatusQueried:
		return "queried"
	case PrereqStatusResolved:
		return "resolved"
	case PrereqStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func (s PrereqStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Dispatchable reports whether a query may be sent for a prerequisite in this status
func (s PrereqStatus) Dispatchable() bool {
	return s == PrereqStatusUnqueried || s == PrereqStatusFailed
}

// PrereqState tracks resolution of one prerequisite
type PrereqState struct {
	cbor.StructAsArray
	PrereqID  uint64       `json:"prereq_id"`
	PropID    uint64       `json:"prop_id"`
	Status    PrereqStatus `json:"status"`
	Token     string       `json:"token,omitempty"`
	Attempts  uint32       `json:"attempts"`
	LastError string       `json:"last_error,omitempty"`
}

func (s *PrereqState) Resolved() bool {
	return s.Status == PrereqStatusResolved
}

// PendingQuery correlates an in-flight tally query with its prerequisite.
// It exists exactly while the prerequisite is queried.
type PendingQuery struct {
	cbor.StructAsArray
	Token    string
	PrereqID uint64
	PropID   uint64
}
