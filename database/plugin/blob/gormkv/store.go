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

// Package gormkv implements the state store on a single key/value table
// through GORM, shared by the relational blob plugins
package gormkv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/ccgov/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Config describes how a Store opens its database
type Config struct {
	Dialector    gorm.Dialector
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Backend names the database in logs
	Backend string
	// MaxOpenConns limits the connection pool when non-zero
	MaxOpenConns int
	PrepareStmt  bool
}

// Store keeps governance state as rows of the state_entry table
type Store struct {
	promRegistry prometheus.Registerer
	db           *gorm.DB
	logger       *slog.Logger
	backend      string
	commits      prometheus.Counter
}

type gormTxn struct {
	store     *Store
	tx        *gorm.DB
	readWrite bool
	finished  bool
}

func (t *gormTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if !t.readWrite {
		return t.tx.Rollback().Error
	}
	if err := t.tx.Commit().Error; err != nil {
		return err
	}
	if t.store.commits != nil {
		t.store.commits.Inc()
	}
	return nil
}

func (t *gormTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.tx.Rollback().Error
}

// Open connects to the database and creates the state table
func Open(cfg Config) (*Store, error) {
	if cfg.Dialector == nil {
		return nil, errors.New("no database dialector")
	}
	s := &Store{
		logger:  cfg.Logger,
		backend: cfg.Backend,
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	db, err := gorm.Open(
		cfg.Dialector,
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			PrepareStmt:            cfg.PrepareStmt,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.backend, err)
	}
	s.db = db
	if cfg.MaxOpenConns > 0 {
		sqlDb, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	// Configure tracing for GORM
	if err := s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	s.RegisterMetrics(cfg.PromRegistry)
	s.logger.Debug(
		fmt.Sprintf("creating table: %#v", &StateEntry{}),
		"component", "database",
		"backend", s.backend,
	)
	if err := s.db.AutoMigrate(&StateEntry{}); err != nil {
		return nil, err
	}
	return s, nil
}

// SetLogger replaces the logger of a store created through the plugin registry
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// RegisterMetrics registers the store metrics once
func (s *Store) RegisterMetrics(registry prometheus.Registerer) {
	if registry == nil || s.promRegistry != nil {
		return
	}
	s.promRegistry = registry
	factory := promauto.With(registry)
	s.commits = factory.NewCounter(prometheus.CounterOpts{
		Name: "database_state_commits_total",
		Help: "Total number of committed read-write state transactions",
	})
}

// Start implements the plugin.Plugin interface
func (s *Store) Start() error {
	return nil
}

// Stop implements the plugin.Plugin interface
func (s *Store) Stop() error {
	return s.Close()
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDb, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDb.Close()
}

// DB returns the underlying GORM database handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) NewTransaction(readWrite bool) types.Txn {
	return &gormTxn{
		store:     s,
		tx:        s.db.Begin(),
		readWrite: readWrite,
	}
}

func (s *Store) validateTxn(txn types.Txn) (*gormTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	gTxn, ok := txn.(*gormTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if gTxn.store != s {
		return nil, errors.New("transaction from different store")
	}
	if gTxn.finished {
		return nil, errors.New("transaction already finished")
	}
	if gTxn.tx.Error != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrBlobStoreUnavailable, gTxn.tx.Error)
	}
	return gTxn, nil
}

func (s *Store) Get(txn types.Txn, key []byte) ([]byte, error) {
	gTxn, err := s.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	var entry StateEntry
	result := gTxn.tx.Where("state_key = ?", key).Take(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, result.Error
	}
	return entry.Value, nil
}

func (s *Store) Set(txn types.Txn, key, val []byte) error {
	gTxn, err := s.validateTxn(txn)
	if err != nil {
		return err
	}
	if !gTxn.readWrite {
		return types.ErrTxnReadOnly
	}
	if val == nil {
		val = []byte{}
	}
	entry := StateEntry{
		Key:   bytes.Clone(key),
		Value: bytes.Clone(val),
	}
	// Translated by each dialect (ON CONFLICT / ON DUPLICATE KEY)
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"state_value"}),
	}
	return gTxn.tx.Clauses(onConflict).Create(&entry).Error
}

func (s *Store) Delete(txn types.Txn, key []byte) error {
	gTxn, err := s.validateTxn(txn)
	if err != nil {
		return err
	}
	if !gTxn.readWrite {
		return types.ErrTxnReadOnly
	}
	return gTxn.tx.Where("state_key = ?", key).Delete(&StateEntry{}).Error
}

// NewIterator loads all rows matching the prefix in key order. Governance
// prefixes (votes of one proposal, tally of one prerequisite) are small
func (s *Store) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	gTxn, err := s.validateTxn(txn)
	if err != nil {
		return &sliceIterator{err: err}
	}
	query := gTxn.tx.Model(&StateEntry{})
	if len(opts.Prefix) > 0 {
		query = query.Where("state_key >= ?", opts.Prefix)
		if end := PrefixEnd(opts.Prefix); end != nil {
			query = query.Where("state_key < ?", end)
		}
	}
	order := "state_key ASC"
	if opts.Reverse {
		order = "state_key DESC"
	}
	var entries []StateEntry
	if result := query.Order(order).Find(&entries); result.Error != nil {
		return &sliceIterator{err: result.Error}
	}
	return &sliceIterator{entries: entries, reverse: opts.Reverse}
}

// PrefixEnd returns the smallest key greater than every key with the prefix,
// or nil if there is none
func PrefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
