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

// GetProposal returns the proposal with the given id
func (d *Database) GetProposal(propId uint64, txn *Txn) (*models.Proposal, error) {
	var ret models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.getRecord(
			txn,
			types.ProposalKey(propId),
			models.ErrProposalNotFound,
			&ret,
		)
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// SetProposal stores a proposal, replacing any existing record with the same id
func (d *Database) SetProposal(prop *models.Proposal, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.putRecord(txn, types.ProposalKey(prop.ID), prop)
	})
}

// ListProposals returns all proposals in id order
func (d *Database) ListProposals(txn *Txn) ([]models.Proposal, error) {
	var ret []models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.scanPrefix(
			txn,
			[]byte(types.ProposalKeyPrefix),
			func(key, val []byte) error {
				var prop models.Proposal
				if _, err := cbor.Decode(val, &prop); err != nil {
					return fmt.Errorf("decode proposal %x: %w", key, err)
				}
				ret = append(ret, prop)
				return nil
			},
		)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
