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

// AppendExecuted adds an entry to the execution log
func (d *Database) AppendExecuted(
	propId uint64,
	chosenOption string,
	txn *Txn,
) (*models.ExecutedProposal, error) {
	var ret *models.ExecutedProposal
	err := d.withTxn(txn, true, func(txn *Txn) error {
		seq, err := d.NextSequence(types.SequenceNameExecutedLog, txn)
		if err != nil {
			return err
		}
		ret = &models.ExecutedProposal{
			Seq:          seq,
			PropID:       propId,
			ChosenOption: chosenOption,
		}
		return d.putRecord(txn, types.ExecutedLogKey(seq), ret)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ListExecuted returns the execution log in execution order
func (d *Database) ListExecuted(txn *Txn) ([]models.ExecutedProposal, error) {
	var ret []models.ExecutedProposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.scanPrefix(
			txn,
			[]byte(types.ExecutedLogKeyPrefix),
			func(key, val []byte) error {
				var entry models.ExecutedProposal
				if _, err := cbor.Decode(val, &entry); err != nil {
					return fmt.Errorf("decode executed entry %x: %w", key, err)
				}
				ret = append(ret, entry)
				return nil
			},
		)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
