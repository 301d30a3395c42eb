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

package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/blinklabs-io/ccgov/power"
	"github.com/blinklabs-io/ccgov/relay/httprelay"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "ccgov.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tmpFile
}

func TestLoad_CompareFullStruct(t *testing.T) {
	yamlContent := `
chainId: "chain-a"
contract: "gov-a"
namespace: "custom-ns"
bindAddr: "127.0.0.1"
databasePath: "/var/lib/ccgov"
blobPlugin: "sqlite"
votingPeriod: "1h"
shutdownTimeout: "10s"
apiPort: 9000
metricsPort: 9001
enforceWhitelist: true
powerWhitelist:
  - "table-power"
powerOracles:
  - address: "table-power"
    type: "table"
    default: 1
    powers:
      alice: 5
peers:
  - chainId: "chain-b"
    contract: "gov-b"
    url: "http://chain-b:9000"
tracing: true
`
	expected := &Config{
		ChainID:          "chain-a",
		Contract:         "gov-a",
		Namespace:        "custom-ns",
		BindAddr:         "127.0.0.1",
		DatabasePath:     "/var/lib/ccgov",
		BlobPlugin:       "sqlite",
		VotingPeriod:     "1h",
		ShutdownTimeout:  "10s",
		ApiPort:          9000,
		MetricsPort:      9001,
		EnforceWhitelist: true,
		PowerWhitelist:   []string{"table-power"},
		PowerOracles: []power.OracleConfig{
			{
				Address: "table-power",
				Type:    "table",
				Default: 1,
				Powers:  map[string]uint64{"alice": 5},
			},
		},
		Peers: []httprelay.Peer{
			{ChainID: "chain-b", Contract: "gov-b", URL: "http://chain-b:9000"},
		},
		Tracing: true,
	}

	actual, err := LoadConfig(writeConfig(t, yamlContent))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
	if GetConfig() != actual {
		t.Errorf("expected GetConfig to return the loaded config")
	}
}

func TestLoad_ConfigSection(t *testing.T) {
	yamlContent := `
config:
  chainId: "chain-z"
  metricsPort: 9100
database:
  blob:
    plugin: "sqlite"
`
	cfg, err := LoadConfig(writeConfig(t, yamlContent))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.ChainID != "chain-z" {
		t.Errorf("expected chain ID chain-z, got: %s", cfg.ChainID)
	}
	if cfg.BlobPlugin != "sqlite" {
		t.Errorf("expected blob plugin sqlite, got: %s", cfg.BlobPlugin)
	}
	if cfg.MetricsPort != 9100 {
		t.Errorf("expected metrics port 9100, got: %d", cfg.MetricsPort)
	}
	// Defaults survive the overlay
	expected := defaultConfig()
	expected.ChainID = "chain-z"
	expected.MetricsPort = 9100
	expected.BlobPlugin = "sqlite"
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf("expected defaults to survive:\n got: %#v\nwant: %#v", cfg, expected)
	}
	if cfg.DatabasePath != ".ccgov" {
		t.Errorf("expected default database path, got: %q", cfg.DatabasePath)
	}
	if len(cfg.PowerOracles) != 1 || cfg.PowerOracles[0].Address != "fixed-power" {
		t.Errorf("expected default power oracle, got: %+v", cfg.PowerOracles)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CCGOV_CHAIN_ID", "chain-env")
	t.Setenv("CCGOV_VOTING_PERIOD", "90m")
	t.Setenv("CCGOV_DATABASE_BLOB_PLUGIN", "sqlite")
	t.Setenv("CCGOV_POWER_WHITELIST", "a,b")
	cfg, err := LoadConfig(writeConfig(t, "chainId: \"chain-file\"\n"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.ChainID != "chain-env" {
		t.Errorf("expected env chain ID, got: %s", cfg.ChainID)
	}
	if cfg.BlobPlugin != "sqlite" {
		t.Errorf("expected env blob plugin, got: %s", cfg.BlobPlugin)
	}
	if !reflect.DeepEqual(cfg.PowerWhitelist, []string{"a", "b"}) {
		t.Errorf("unexpected whitelist: %v", cfg.PowerWhitelist)
	}
	d, err := cfg.VotingPeriodDuration()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if d != 90*time.Minute {
		t.Errorf("expected 90m voting period, got: %s", d)
	}
}

func TestLoad_Invalid(t *testing.T) {
	testDefs := map[string]string{
		"voting period":   "votingPeriod: \"soon\"\n",
		"negative":        "votingPeriod: \"-1h\"\n",
		"shutdown":        "shutdownTimeout: \"later\"\n",
		"oracle type":     "powerOracles:\n  - address: \"x\"\n    type: \"bogus\"\n",
		"incomplete peer": "peers:\n  - chainId: \"chain-b\"\n",
		"bad yaml":        "chainId: [\n",
	}
	for name, content := range testDefs {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, content)); err == nil {
				t.Errorf("expected error for %s", name)
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Errorf("expected no config in empty context")
	}
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	if FromContext(ctx) != cfg {
		t.Errorf("expected config from context")
	}
}
