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

// Package httprelay carries tally queries between chains over HTTP. Packets
// and responses are CBOR encoded.
package httprelay

const (
	QueryTallyPath = "/ibc/v1/query-tally"
	ContentType    = "application/cbor"

	// maxPacketSize bounds request and response bodies
	maxPacketSize = 1 << 20
)
