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

package governance

import (
	"errors"
	"fmt"
)

var (
	ErrProposalNotFound            = errors.New("proposal not found")
	ErrVoteNotFound                = errors.New("vote not found")
	ErrInvalidOption               = errors.New("option is not an option of the proposal")
	ErrInvalidOptions              = errors.New("proposal options must be non-empty and unique")
	ErrVotingPeriodHasEnded        = errors.New("voting period for proposal has ended")
	ErrVotingPeriodNotEnded        = errors.New("voting period for proposal has not ended yet")
	ErrAlreadyVoted                = errors.New("voter has already voted")
	ErrUnauthorized                = errors.New("unauthorized")
	ErrUnauthorizedIbcMessage      = errors.New("unauthorized IBC message")
	ErrPowerContractNotWhitelisted = errors.New("power contract not whitelisted")
	ErrProposalNotExecuted         = errors.New("proposal not executed yet")
	ErrIbcError                    = errors.New("error while executing IBC message")
	ErrRemoteQueryFailed           = errors.New("remote tally query failed")
	ErrUnknownCorrelation          = errors.New("unknown correlation token")
)

// PowerOracleError is returned when the voting power of a voter cannot be
// determined. The vote is not recorded.
type PowerOracleError struct {
	Err     error
	Address string
	Voter   string
}

func (e *PowerOracleError) Error() string {
	return fmt.Sprintf(
		"power oracle %s failed for voter %s: %s",
		e.Address,
		e.Voter,
		e.Err,
	)
}

func (e *PowerOracleError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a fatal callback for a dispatched tally query. The
// prerequisite stays unresolved and is queried again on the next execution.
type ProtocolError struct {
	Token    string
	Reason   string
	PrereqID uint64
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf(
		"%s: prerequisite %d (token %s): %s",
		ErrIbcError,
		e.PrereqID,
		e.Token,
		e.Reason,
	)
}

func (e *ProtocolError) Unwrap() error {
	return ErrIbcError
}

// IsValidation reports whether err was caused by invalid caller input
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidOption,
		ErrInvalidOptions,
		ErrVotingPeriodHasEnded,
		ErrVotingPeriodNotEnded,
		ErrAlreadyVoted,
		ErrProposalNotExecuted,
		ErrUnknownCorrelation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthorization reports whether err rejects the caller
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrUnauthorizedIbcMessage) ||
		errors.Is(err, ErrPowerContractNotWhitelisted)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrProposalNotFound) ||
		errors.Is(err, ErrVoteNotFound)
}
