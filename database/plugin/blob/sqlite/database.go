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

package sqlite

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/ccgov/database/plugin/blob/gormkv"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// BlobStoreSqlite keeps governance state in a SQLite key/value table
type BlobStoreSqlite struct {
	*gormkv.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	dataDir      string
}

// New creates a SQLite state store. Uses a private in-memory database if dataDir is empty.
func New(opts ...SqliteOptionFunc) (*BlobStoreSqlite, error) {
	s := &BlobStoreSqlite{}
	for _, opt := range opts {
		opt(s)
	}
	var dsn string
	maxConns := 0
	if s.dataDir == "" {
		// Each store gets its own named in-memory database
		dsn = fmt.Sprintf(
			"file:ccgov-%s?mode=memory&cache=shared",
			uuid.NewString(),
		)
		// A single connection keeps the in-memory database alive and
		// matches the one-transaction-at-a-time engine
		maxConns = 1
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		// WAL journal mode, wait on locks instead of failing immediately
		dsn = fmt.Sprintf(
			"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
			filepath.Join(s.dataDir, "state.sqlite"),
		)
	}
	store, err := gormkv.Open(gormkv.Config{
		Dialector:    sqlite.Open(dsn),
		Logger:       s.logger,
		PromRegistry: s.promRegistry,
		Backend:      "sqlite",
		MaxOpenConns: maxConns,
	})
	if err != nil {
		return nil, err
	}
	s.Store = store
	return s, nil
}
