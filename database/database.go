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
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/ccgov/database/plugin"
	"github.com/blinklabs-io/ccgov/database/plugin/blob"
	"github.com/prometheus/client_golang/prometheus"

	// Register the bundled blob store plugins
	_ "github.com/blinklabs-io/ccgov/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/ccgov/database/plugin/blob/mysql"
	_ "github.com/blinklabs-io/ccgov/database/plugin/blob/postgres"
	_ "github.com/blinklabs-io/ccgov/database/plugin/blob/sqlite"
)

const DefaultBlobPlugin = "badger"

// Config holds the configuration for the governance state database
type Config struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	BlobPlugin   string
	// DataDir is the storage directory. An empty value keeps state in memory
	DataDir string
}

type Database struct {
	config    *Config
	logger    *slog.Logger
	blob      blob.BlobStore
	closeOnce sync.Once
	closeErr  error
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.config.DataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	d.closeOnce.Do(func() {
		var err error
		if d.blob != nil {
			err = errors.Join(err, d.blob.Close())
		}
		d.closeErr = err
	})
	return d.closeErr
}

// New creates a new database instance with optional persistence using the provided data directory
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	if config.BlobPlugin == "" {
		config.BlobPlugin = DefaultBlobPlugin
	}
	logger := config.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := plugin.SetPluginOption(
		plugin.PluginTypeBlob,
		config.BlobPlugin,
		"data-dir",
		config.DataDir,
	); err != nil {
		return nil, fmt.Errorf("configure blob plugin: %w", err)
	}
	blobDb, err := blob.New(config.BlobPlugin)
	if err != nil {
		return nil, err
	}
	if inst, ok := blobDb.(blob.Instrumented); ok {
		inst.SetLogger(logger)
		inst.RegisterMetrics(config.PromRegistry)
	}
	db := &Database{
		config: config,
		logger: logger,
		blob:   blobDb,
	}
	logger.Debug(
		"opened state database",
		"component", "database",
		"plugin", config.BlobPlugin,
		"data_dir", config.DataDir,
	)
	return db, nil
}
