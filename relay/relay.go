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

// Package relay delivers tally queries and their callbacks between governance
// engines. Deliveries are asynchronous and unordered.
package relay

import (
	"context"

	"github.com/blinklabs-io/ccgov/message"
)

// Endpoint is a governance engine reachable through a relay
type Endpoint interface {
	// ServeQuery answers a tally query from another chain
	ServeQuery(ctx context.Context, packet *message.QueryTally) *message.CallbackResult
	// OnRemoteTallyCallback receives the answer to a query this endpoint sent
	OnRemoteTallyCallback(ctx context.Context, token string, result *message.CallbackResult) error
}
