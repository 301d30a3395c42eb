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

	"github.com/blinklabs-io/ccgov/database/types"
	"github.com/blinklabs-io/gouroboros/cbor"
)

// withTxn runs fn in the given transaction, or in a transaction of its own
// when txn is nil
func (d *Database) withTxn(txn *Txn, readWrite bool, fn func(*Txn) error) error {
	if txn != nil {
		return fn(txn)
	}
	return d.Transaction(readWrite).Do(fn)
}

func (d *Database) getRecord(txn *Txn, key []byte, notFound error, dest any) error {
	val, err := d.blob.Get(txn.Blob(), key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return notFound
		}
		return err
	}
	if _, err := cbor.Decode(val, dest); err != nil {
		return fmt.Errorf("decode record %x: %w", key, err)
	}
	return nil
}

func (d *Database) putRecord(txn *Txn, key []byte, src any) error {
	val, err := cbor.Encode(src)
	if err != nil {
		return fmt.Errorf("encode record %x: %w", key, err)
	}
	return d.blob.Set(txn.Blob(), key, val)
}

// scanPrefix calls fn for every key with the prefix, in key order
func (d *Database) scanPrefix(
	txn *Txn,
	prefix []byte,
	fn func(key []byte, val []byte) error,
) error {
	it := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(item.Key(), val); err != nil {
			return err
		}
	}
	return it.Err()
}

// NextSequence returns the next value of the named sequence and advances it.
// Sequences start at zero and values are never reused.
func (d *Database) NextSequence(name string, txn *Txn) (uint64, error) {
	var ret uint64
	err := d.withTxn(txn, true, func(txn *Txn) error {
		key := types.SequenceKey(name)
		val, err := d.blob.Get(txn.Blob(), key)
		switch {
		case err == nil:
			ret = types.KeyBytesToUint64(val)
		case errors.Is(err, types.ErrBlobKeyNotFound):
			ret = 0
		default:
			return err
		}
		return d.blob.Set(txn.Blob(), key, types.KeyUint64ToBytes(ret+1))
	})
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, err)
	}
	return ret, nil
}
