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

package badger_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/ccgov/database/plugin/blob/badger"
	"github.com/blinklabs-io/ccgov/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDataDir(t *testing.T) {
	b := &badger.BlobStoreBadger{}
	badger.WithDataDir("/tmp/test")(b)
	assert.Equal(t, "/tmp/test", b.DataDir)
}

func TestWithCacheSizes(t *testing.T) {
	b := &badger.BlobStoreBadger{}
	badger.WithBlockCacheSize(123456789)(b)
	badger.WithIndexCacheSize(987654321)(b)
	assert.Equal(t, uint64(123456789), b.BlockCacheSize)
	assert.Equal(t, uint64(987654321), b.IndexCacheSize)
}

func TestInMemoryReadWrite(t *testing.T) {
	store, err := badger.New()
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k1"), []byte("v1")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
	_, err = store.Get(txn, []byte("missing"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	assert.ErrorIs(t, store.Set(txn, []byte("k2"), nil), types.ErrTxnReadOnly)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store, err := badger.New()
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k1"), []byte("v1")))
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.Get(txn, []byte("k1"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestCommitMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	store, err := badger.New(
		badger.WithPromRegistry(registry),
		badger.WithGcInterval(time.Hour),
	)
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	count, err := testutil.GatherAndCount(
		registry,
		"database_state_commits_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := badger.New(badger.WithDataDir(dir), badger.WithGc(false))
	require.NoError(t, err)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())

	store, err = badger.New(badger.WithDataDir(dir), badger.WithGc(false))
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}
