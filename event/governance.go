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

package event

const (
	ProposalCreatedEventType       = EventType("governance.proposal_created")
	VoteCastEventType              = EventType("governance.vote_cast")
	RemoteQueryDispatchedEventType = EventType("governance.remote_query_dispatched")
	RemoteResolvedEventType        = EventType("governance.remote_resolved")
	RemoteQueryFailedEventType     = EventType("governance.remote_query_failed")
	ProposalExecutedEventType      = EventType("governance.proposal_executed")
)

type ProposalCreatedEvent struct {
	Proposer    string
	Title       string
	PropID      uint64
	PrereqCount int
}

type VoteCastEvent struct {
	Voter  string
	Option string
	PropID uint64
	VoteID uint64
	Power  uint64
}

// RemoteQueryDispatchedEvent is emitted after a tally query for a
// prerequisite has been handed to the messenger
type RemoteQueryDispatchedEvent struct {
	Token         string
	RemoteChainID string
	PropID        uint64
	PrereqID      uint64
	Attempt       uint32
}

type RemoteResolvedEvent struct {
	PropID   uint64
	PrereqID uint64
}

// RemoteQueryFailedEvent is emitted when a query callback reports failure or
// the query could not be sent. The prerequisite is re-queried by the next execution.
type RemoteQueryFailedEvent struct {
	Reason   string
	PropID   uint64
	PrereqID uint64
}

type ProposalExecutedEvent struct {
	ChosenOption string
	Totals       map[string]uint64
	PropID       uint64
}
