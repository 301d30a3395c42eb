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
	"errors"
	"fmt"

	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/database/types"
	"github.com/blinklabs-io/gouroboros/cbor"
)

func (d *Database) GetRemoteRef(
	prereqId uint64,
	txn *Txn,
) (*models.RemoteProposalRef, error) {
	var ret models.RemoteProposalRef
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.getRecord(
			txn,
			types.RemoteRefKey(prereqId),
			models.ErrRemoteRefNotFound,
			&ret,
		)
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (d *Database) SetRemoteRef(ref *models.RemoteProposalRef, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.putRecord(txn, types.RemoteRefKey(ref.ID), ref)
	})
}

// GetRemoteTally returns the stored votes of one option of a prerequisite.
// A missing entry counts as zero votes.
func (d *Database) GetRemoteTally(
	prereqId uint64,
	option string,
	txn *Txn,
) (uint64, error) {
	var ret uint64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		val, err := d.blob.Get(
			txn.Blob(),
			types.RemoteTallyKey(prereqId, option),
		)
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return nil
			}
			return err
		}
		ret = types.KeyBytesToUint64(val)
		return nil
	})
	return ret, err
}

// SetRemoteTally stores the votes of one option of a prerequisite
func (d *Database) SetRemoteTally(
	prereqId uint64,
	option string,
	votes uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.blob.Set(
			txn.Blob(),
			types.RemoteTallyKey(prereqId, option),
			types.KeyUint64ToBytes(votes),
		)
	})
}

// RemoteTallies returns all stored option votes of a prerequisite
func (d *Database) RemoteTallies(
	prereqId uint64,
	txn *Txn,
) (map[string]uint64, error) {
	ret := make(map[string]uint64)
	prefix := types.RemoteTallyPrefix(prereqId)
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.scanPrefix(txn, prefix, func(key, val []byte) error {
			ret[string(key[len(prefix):])] = types.KeyBytesToUint64(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *Database) GetPrereqState(
	prereqId uint64,
	txn *Txn,
) (*models.PrereqState, error) {
	var ret models.PrereqState
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.getRecord(
			txn,
			types.PrereqStateKey(prereqId),
			models.ErrPrereqStateNotFound,
			&ret,
		)
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (d *Database) SetPrereqState(state *models.PrereqState, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.putRecord(txn, types.PrereqStateKey(state.PrereqID), state)
	})
}

func (d *Database) GetPendingQuery(
	token string,
	txn *Txn,
) (*models.PendingQuery, error) {
	var ret models.PendingQuery
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.getRecord(
			txn,
			types.PendingQueryKey(token),
			models.ErrPendingQueryNotFound,
			&ret,
		)
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (d *Database) SetPendingQuery(query *models.PendingQuery, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.putRecord(txn, types.PendingQueryKey(query.Token), query)
	})
}

func (d *Database) DeletePendingQuery(token string, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.blob.Delete(txn.Blob(), types.PendingQueryKey(token))
	})
}

// PendingQueries returns every in-flight tally query
func (d *Database) PendingQueries(txn *Txn) ([]models.PendingQuery, error) {
	var ret []models.PendingQuery
	prefix := []byte(types.PendingQueryKeyPrefix)
	err := d.withTxn(txn, false, func(txn *Txn) error {
		return d.scanPrefix(txn, prefix, func(key, val []byte) error {
			var pq models.PendingQuery
			if _, err := cbor.Decode(val, &pq); err != nil {
				return fmt.Errorf("decode record %x: %w", key, err)
			}
			ret = append(ret, pq)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
