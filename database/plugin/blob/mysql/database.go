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

package mysql

import (
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/ccgov/database/plugin/blob/gormkv"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
)

// BlobStoreMysql keeps governance state in a MySQL key/value table. The
// connection is opened by Start
type BlobStoreMysql struct {
	*gormkv.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	host         string
	port         uint
	user         string
	password     string
	database     string
	tlsMode      string
	timeZone     string
	dsn          string
	maxConns     int
}

// New creates an unconnected MySQL state store
func New(opts ...MysqlOptionFunc) *BlobStoreMysql {
	s := &BlobStoreMysql{}
	for _, opt := range opts {
		opt(s)
	}
	if s.host == "" {
		s.host = "localhost"
	}
	if s.port == 0 {
		s.port = 3306
	}
	if s.user == "" {
		s.user = "root"
	}
	if s.database == "" {
		s.database = "ccgov"
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return s
}

// DSN returns the connection string, preferring an explicit DSN
func (s *BlobStoreMysql) DSN() string {
	if dsn := strings.TrimSpace(s.dsn); dsn != "" {
		return dsn
	}
	cfg := mysql.NewConfig()
	cfg.User = s.user
	cfg.Passwd = s.password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(
		s.host,
		strconv.FormatUint(uint64(s.port), 10),
	)
	cfg.DBName = s.database
	cfg.ParseTime = true
	cfg.AllowNativePasswords = true
	if s.timeZone != "" {
		loc, err := time.LoadLocation(s.timeZone)
		if err != nil {
			loc = time.UTC
		}
		cfg.Loc = loc
	}
	if s.tlsMode != "" {
		cfg.Params = map[string]string{"tls": s.tlsMode}
	}
	return cfg.FormatDSN()
}

// Start implements the plugin.Plugin interface
func (s *BlobStoreMysql) Start() error {
	if s.Store != nil {
		return nil
	}
	store, err := gormkv.Open(gormkv.Config{
		Dialector:    gormmysql.Open(s.DSN()),
		Logger:       s.logger,
		PromRegistry: s.promRegistry,
		Backend:      "mysql",
		MaxOpenConns: s.maxConns,
	})
	if err != nil {
		return err
	}
	s.logger.Info(
		"connected to mysql state store",
		"component", "database",
		"host", s.host,
		"port", s.port,
		"database", s.database,
	)
	s.Store = store
	return nil
}

// Stop implements the plugin.Plugin interface
func (s *BlobStoreMysql) Stop() error {
	return s.Close()
}

// Close closes the connection if Start opened one
func (s *BlobStoreMysql) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}

// SetLogger replaces the logger of a store created through the plugin registry
func (s *BlobStoreMysql) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger
	if s.Store != nil {
		s.Store.SetLogger(logger)
	}
}

// RegisterMetrics registers the store metrics once connected
func (s *BlobStoreMysql) RegisterMetrics(registry prometheus.Registerer) {
	if s.Store == nil {
		s.promRegistry = registry
		return
	}
	s.Store.RegisterMetrics(registry)
}
