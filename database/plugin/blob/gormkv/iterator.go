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

package gormkv

import (
	"bytes"

	"github.com/blinklabs-io/ccgov/database/types"
)

// sliceIterator walks rows that were loaded up front
type sliceIterator struct {
	err     error
	entries []StateEntry
	pos     int
	reverse bool
}

func (it *sliceIterator) Rewind() { it.pos = 0 }

func (it *sliceIterator) Seek(key []byte) {
	for it.pos = 0; it.pos < len(it.entries); it.pos++ {
		cmp := bytes.Compare(it.entries[it.pos].Key, key)
		if (!it.reverse && cmp >= 0) || (it.reverse && cmp <= 0) {
			return
		}
	}
}

func (it *sliceIterator) Valid() bool {
	return it.err == nil && it.pos < len(it.entries)
}

func (it *sliceIterator) ValidForPrefix(prefix []byte) bool {
	return it.Valid() && bytes.HasPrefix(it.entries[it.pos].Key, prefix)
}

func (it *sliceIterator) Next() { it.pos++ }

func (it *sliceIterator) Item() types.BlobItem {
	if !it.Valid() {
		return nil
	}
	return &sliceItem{entry: it.entries[it.pos]}
}

func (it *sliceIterator) Close()     { it.entries = nil }
func (it *sliceIterator) Err() error { return it.err }

type sliceItem struct {
	entry StateEntry
}

func (i *sliceItem) Key() []byte {
	return bytes.Clone(i.entry.Key)
}

func (i *sliceItem) ValueCopy(dst []byte) ([]byte, error) {
	return append(dst[:0], i.entry.Value...), nil
}
