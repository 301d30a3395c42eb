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

package api

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type HealthResponse struct {
	IsHealthy bool   `json:"is_healthy"`
	ChainID   string `json:"chain_id,omitempty"`
}

type ProposalCreatedResponse struct {
	PropID uint64 `json:"prop_id"`
}

// VoteRequest is the body of a vote. Voter is used only when the sender
// header is absent.
type VoteRequest struct {
	Voter  string `json:"voter,omitempty"`
	Option string `json:"option"`
}

type VoteCastResponse struct {
	VoteID uint64 `json:"vote_id"`
}

type VotedPowerResponse struct {
	PropID uint64 `json:"prop_id"`
	Power  uint64 `json:"power"`
}

type OptionTally struct {
	Option string `json:"option"`
	Votes  uint64 `json:"votes"`
}

// TallyResponse lists the tally in the proposal's declared option order
type TallyResponse struct {
	ChosenOption string        `json:"chosen_option"`
	Tally        []OptionTally `json:"tally"`
	PropID       uint64        `json:"prop_id"`
}
