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

package types_test

import (
	"bytes"
	"testing"

	"github.com/blinklabs-io/ccgov/database/types"
	"github.com/stretchr/testify/assert"
)

func TestKeyUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 255, 256, 1 << 40, ^uint64(0)} {
		assert.Equal(t, v, types.KeyBytesToUint64(types.KeyUint64ToBytes(v)))
	}
	assert.Equal(t, uint64(0), types.KeyBytesToUint64([]byte{0x01}))
}

func TestVoteKeysShareProposalPrefix(t *testing.T) {
	prefix := types.VotePrefix(7)
	assert.True(t, bytes.HasPrefix(types.VoteKey(7, "alice"), prefix))
	assert.True(t, bytes.HasPrefix(types.VoteKey(7, ""), prefix))
	assert.False(t, bytes.HasPrefix(types.VoteKey(8, "alice"), prefix))
}

func TestProposalKeysSortNumerically(t *testing.T) {
	// Big-endian encoding keeps lexical order equal to numeric order
	assert.Negative(t, bytes.Compare(types.ProposalKey(9), types.ProposalKey(10)))
	assert.Negative(t, bytes.Compare(types.ExecutedLogKey(255), types.ExecutedLogKey(256)))
}

func TestRemoteTallyKeys(t *testing.T) {
	prefix := types.RemoteTallyPrefix(3)
	key := types.RemoteTallyKey(3, "approve")
	assert.True(t, bytes.HasPrefix(key, prefix))
	assert.Equal(t, "approve", string(key[len(prefix):]))
}

func TestKeyPrefixesDoNotOverlap(t *testing.T) {
	keys := [][]byte{
		types.SequenceKey(types.SequenceNameProposal),
		types.ProposalKey(1),
		types.VoteKey(1, "v"),
		types.RemoteRefKey(1),
		types.RemoteTallyKey(1, "a"),
		types.PrereqStateKey(1),
		types.PendingQueryKey("tok"),
		types.ExecutedLogKey(1),
	}
	for i, a := range keys {
		for j, b := range keys {
			if i == j {
				continue
			}
			assert.NotEqual(t, a[0], b[0], "keys %d and %d share a prefix", i, j)
		}
	}
}
