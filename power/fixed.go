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

package power

import "context"

// DefaultFixedPower is the power every voter gets from a zero Fixed oracle
const DefaultFixedPower = 1

// Fixed gives every voter the same power
type Fixed struct {
	Power uint64
}

func NewFixed(power uint64) *Fixed {
	return &Fixed{Power: power}
}

func (f *Fixed) GetVotingPower(_ context.Context, _ Request) (Response, error) {
	if f.Power == 0 {
		return Response{Power: DefaultFixedPower}, nil
	}
	return Response{Power: f.Power}, nil
}
