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

	"github.com/blinklabs-io/gouroboros/cbor"
)

var ErrVoteNotFound = errors.New("vote not found")

// Vote is a ballot with the voting power frozen at the time it was cast
type Vote struct {
	cbor.StructAsArray
	ID     uint64 `json:"id"`
	PropID uint64 `json:"prop_id"`
	Voter  string `json:"voter"`
	Option string `json:"option"`
	Power  uint64 `json:"power"`
	CastAt int64  `json:"cast_at"` // unix nanoseconds
}
