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

package database

import (
	"fmt"

	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/database/types"
	"github.com/blinklabs-io/gouroboros/cbor"
)

// GetVote returns the vote cast by voter on a proposal
func (d *Database) GetVote(
	propId uint64,
	voter string,
	txn *Txn,
) (*models.Vote, error) {
	var ret models.Vote
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.getRecord(
			txn,
			types.VoteKey(propId, voter),
			models.ErrVoteNotFound,
			&ret,
		)
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (d *Database) SetVote(vote *models.Vote, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.putRecord(txn, types.VoteKey(vote.PropID, vote.Voter), vote)
	})
}

// VotesByProposal returns every vote cast on a proposal, ordered by voter
func (d *Database) VotesByProposal(
	propId uint64,
	txn *Txn,
) ([]models.Vote, error) {
	var ret []models.Vote
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.scanPrefix(
			txn,
			types.VotePrefix(propId),
			func(key, val []byte) error {
				var vote models.Vote
				if _, err := cbor.Decode(val, &vote); err != nil {
					return fmt.Errorf("decode vote %x: %w", key, err)
				}
				ret = append(ret, vote)
				return nil
			},
		)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
