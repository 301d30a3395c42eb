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

package sqlite_test

import (
	"testing"

	"github.com/blinklabs-io/ccgov/database/plugin/blob/sqlite"
	"github.com/blinklabs-io/ccgov/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...sqlite.SqliteOptionFunc) *sqlite.BlobStoreSqlite {
	t.Helper()
	s, err := sqlite.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(t)
	txn := s.NewTransaction(true)
	require.NoError(t, s.Set(txn, []byte("k1"), []byte("v1")))
	// Upsert replaces the existing value
	require.NoError(t, s.Set(txn, []byte("k1"), []byte("v2")))
	require.NoError(t, txn.Commit())

	txn = s.NewTransaction(false)
	val, err := s.Get(txn, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)
	_, err = s.Get(txn, []byte("missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.ErrorIs(t, s.Set(txn, []byte("k2"), []byte("x")), types.ErrTxnReadOnly)
	require.NoError(t, txn.Rollback())

	txn = s.NewTransaction(true)
	require.NoError(t, s.Delete(txn, []byte("k1")))
	require.NoError(t, txn.Commit())

	txn = s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = s.Get(txn, []byte("k1"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := newTestStore(t)
	txn := s.NewTransaction(true)
	require.NoError(t, s.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())
	// Finished transactions are rejected
	_, err := s.Get(txn, []byte("k"))
	require.Error(t, err)

	txn = s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = s.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestIteratorPrefix(t *testing.T) {
	s := newTestStore(t)
	txn := s.NewTransaction(true)
	for _, k := range []string{"a1", "b3", "b1", "b2", "c1"} {
		require.NoError(t, s.Set(txn, []byte(k), []byte("val-"+k)))
	}
	require.NoError(t, s.Set(txn, []byte{'b', 0xff}, []byte("edge")))
	require.NoError(t, txn.Commit())

	txn = s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	prefix := []byte("b")
	it := s.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix})
	defer it.Close()
	var keys []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		keys = append(keys, string(item.Key()))
		val, err := item.ValueCopy(nil)
		require.NoError(t, err)
		assert.NotEmpty(t, val)
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"b1", "b2", "b3", string([]byte{'b', 0xff})}, keys)

	rev := s.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix, Reverse: true})
	defer rev.Close()
	rev.Rewind()
	require.True(t, rev.Valid())
	assert.Equal(t, []byte{'b', 0xff}, rev.Item().Key())
}

func TestStoresAreIsolated(t *testing.T) {
	s1 := newTestStore(t)
	s2 := newTestStore(t)
	txn := s1.NewTransaction(true)
	require.NoError(t, s1.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())

	txn = s2.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err := s2.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	// Transactions cannot cross stores
	_, err = s1.Get(txn, []byte("k"))
	require.Error(t, err)
}

func TestPersistenceAndMetrics(t *testing.T) {
	dir := t.TempDir()
	reg := prometheus.NewRegistry()
	s, err := sqlite.New(sqlite.WithDataDir(dir), sqlite.WithPromRegistry(reg))
	require.NoError(t, err)
	txn := s.NewTransaction(true)
	require.NoError(t, s.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	count, err := testutil.GatherAndCount(reg, "database_state_commits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, s.Close())

	s = newTestStore(t, sqlite.WithDataDir(dir))
	txn = s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := s.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}
