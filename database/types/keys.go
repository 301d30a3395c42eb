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

package types

import (
	"encoding/binary"
	"slices"
)

const (
	SequenceKeyPrefix       = "n/"
	ProposalKeyPrefix       = "p"
	VoteKeyPrefix           = "v"
	RemoteRefKeyPrefix      = "r"
	RemoteTallyKeyPrefix    = "t"
	PrereqStateKeyPrefix    = "s"
	PendingQueryKeyPrefix   = "q"
	ExecutedLogKeyPrefix    = "x"
	SequenceNameProposal    = "proposal"
	SequenceNameVote        = "vote"
	SequenceNamePrereq      = "prereq"
	SequenceNameExecutedLog = "executed"
)

func KeyUint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

func KeyBytesToUint64(input []byte) uint64 {
	if len(input) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(input[:8])
}

func SequenceKey(name string) []byte {
	return []byte(SequenceKeyPrefix + name)
}

func ProposalKey(propId uint64) []byte {
	return slices.Concat([]byte(ProposalKeyPrefix), KeyUint64ToBytes(propId))
}

// VotePrefix returns the key prefix shared by all votes on a proposal
func VotePrefix(propId uint64) []byte {
	return slices.Concat([]byte(VoteKeyPrefix), KeyUint64ToBytes(propId))
}

func VoteKey(propId uint64, voter string) []byte {
	return slices.Concat(VotePrefix(propId), []byte(voter))
}

func RemoteRefKey(prereqId uint64) []byte {
	return slices.Concat([]byte(RemoteRefKeyPrefix), KeyUint64ToBytes(prereqId))
}

// RemoteTallyPrefix returns the key prefix shared by all tally entries of a prerequisite
func RemoteTallyPrefix(prereqId uint64) []byte {
	return slices.Concat(
		[]byte(RemoteTallyKeyPrefix),
		KeyUint64ToBytes(prereqId),
	)
}

func RemoteTallyKey(prereqId uint64, option string) []byte {
	return slices.Concat(RemoteTallyPrefix(prereqId), []byte(option))
}

func PrereqStateKey(prereqId uint64) []byte {
	return slices.Concat([]byte(PrereqStateKeyPrefix), KeyUint64ToBytes(prereqId))
}

func PendingQueryKey(token string) []byte {
	return slices.Concat([]byte(PendingQueryKeyPrefix), []byte(token))
}

func ExecutedLogKey(seq uint64) []byte {
	return slices.Concat([]byte(ExecutedLogKeyPrefix), KeyUint64ToBytes(seq))
}
