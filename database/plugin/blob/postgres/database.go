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

package postgres

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blinklabs-io/ccgov/database/plugin/blob/gormkv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
)

// BlobStorePostgres keeps governance state in a Postgres key/value table.
// The connection is opened by Start
type BlobStorePostgres struct {
	*gormkv.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	host         string
	port         uint
	user         string
	password     string
	database     string
	sslMode      string
	timeZone     string
	dsn          string
	maxConns     int
}

// New creates an unconnected Postgres state store
func New(opts ...PostgresOptionFunc) *BlobStorePostgres {
	s := &BlobStorePostgres{}
	for _, opt := range opts {
		opt(s)
	}
	if s.host == "" {
		s.host = "localhost"
	}
	if s.port == 0 {
		s.port = 5432
	}
	if s.user == "" {
		s.user = "postgres"
	}
	if s.database == "" {
		s.database = "postgres"
	}
	if s.sslMode == "" {
		s.sslMode = "disable"
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return s
}

// DSN returns the connection string, preferring an explicit DSN
func (s *BlobStorePostgres) DSN() string {
	if dsn := strings.TrimSpace(s.dsn); dsn != "" {
		return dsn
	}
	parts := []string{
		"host=" + s.host,
		"user=" + s.user,
		"password=" + s.password,
		"dbname=" + s.database,
		"port=" + strconv.FormatUint(uint64(s.port), 10),
		"sslmode=" + s.sslMode,
	}
	if s.timeZone != "" {
		parts = append(parts, "TimeZone="+s.timeZone)
	}
	return strings.Join(parts, " ")
}

// Start implements the plugin.Plugin interface
func (s *BlobStorePostgres) Start() error {
	if s.Store != nil {
		return nil
	}
	store, err := gormkv.Open(gormkv.Config{
		Dialector:    postgres.Open(s.DSN()),
		Logger:       s.logger,
		PromRegistry: s.promRegistry,
		Backend:      "postgres",
		MaxOpenConns: s.maxConns,
		PrepareStmt:  true,
	})
	if err != nil {
		return err
	}
	s.logger.Info(
		"connected to postgres state store",
		"component", "database",
		"host", s.host,
		"port", s.port,
		"database", s.database,
	)
	s.Store = store
	return nil
}

// Stop implements the plugin.Plugin interface
func (s *BlobStorePostgres) Stop() error {
	return s.Close()
}

// Close closes the connection if Start opened one
func (s *BlobStorePostgres) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}

// SetLogger replaces the logger of a store created through the plugin registry
func (s *BlobStorePostgres) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger
	if s.Store != nil {
		s.Store.SetLogger(logger)
	}
}

// RegisterMetrics registers the store metrics once connected
func (s *BlobStorePostgres) RegisterMetrics(registry prometheus.Registerer) {
	if s.Store == nil {
		s.promRegistry = registry
		return
	}
	s.Store.RegisterMetrics(registry)
}
