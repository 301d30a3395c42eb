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
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/ccgov/database/plugin"
	"github.com/blinklabs-io/ccgov/message"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/blinklabs-io/ccgov/relay/httprelay"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "ccgov.config"

const (
	DefaultBlobPlugin      = "badger"
	DefaultShutdownTimeout = "30s"
	DefaultVotingPeriod    = "24h"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
}

type databaseConfig struct {
	Blob map[string]any `yaml:"blob,omitempty"`
}

type Config struct {
	ChainID          string               `yaml:"chainId,omitempty"          split_words:"true"`
	Contract         string               `yaml:"contract,omitempty"`
	Namespace        string               `yaml:"namespace,omitempty"`
	BindAddr         string               `yaml:"bindAddr,omitempty"         split_words:"true"`
	DatabasePath     string               `yaml:"databasePath,omitempty"     split_words:"true"`
	BlobPlugin       string               `yaml:"blobPlugin,omitempty"       envconfig:"DATABASE_BLOB_PLUGIN"`
	TlsCertFilePath  string               `yaml:"tlsCertFilePath,omitempty"  envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath   string               `yaml:"tlsKeyFilePath,omitempty"   envconfig:"TLS_KEY_FILE_PATH"`
	VotingPeriod     string               `yaml:"votingPeriod,omitempty"     split_words:"true"`
	ShutdownTimeout  string               `yaml:"shutdownTimeout,omitempty"  split_words:"true"`
	PowerWhitelist   []string             `yaml:"powerWhitelist,omitempty"   split_words:"true"`
	PowerOracles     []power.OracleConfig `yaml:"powerOracles,omitempty"     ignored:"true"`
	Peers            []httprelay.Peer     `yaml:"peers,omitempty"            ignored:"true"`
	ApiPort          uint                 `yaml:"apiPort,omitempty"          split_words:"true"`
	MetricsPort      uint                 `yaml:"metricsPort,omitempty"      split_words:"true"`
	EnforceWhitelist bool                 `yaml:"enforceWhitelist,omitempty" split_words:"true"`
	Tracing          bool                 `yaml:"tracing,omitempty"`
	TracingStdout    bool                 `yaml:"tracingStdout,omitempty"    split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		ChainID:         "ccgov-local",
		Contract:        "governance",
		Namespace:       message.DefaultNamespace,
		BindAddr:        "0.0.0.0",
		DatabasePath:    ".ccgov",
		BlobPlugin:      DefaultBlobPlugin,
		VotingPeriod:    DefaultVotingPeriod,
		ShutdownTimeout: DefaultShutdownTimeout,
		ApiPort:         8080,
		MetricsPort:     12798,
		PowerOracles: []power.OracleConfig{
			{Address: "fixed-power", Type: power.OracleTypeFixed, Power: 1},
		},
	}
}

var globalConfig = defaultConfig()

// VotingPeriodDuration parses the configured voting period
func (c *Config) VotingPeriodDuration() (time.Duration, error) {
	if c.VotingPeriod == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.VotingPeriod)
	if err != nil {
		return 0, fmt.Errorf("invalid voting period: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("voting period must be positive: %s", c.VotingPeriod)
	}
	return d, nil
}

// ShutdownTimeoutDuration parses the configured shutdown timeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return d, nil
}

func (c *Config) validate() error {
	if _, err := c.VotingPeriodDuration(); err != nil {
		return err
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if _, err := power.NewRouterFromConfig(c.PowerOracles); err != nil {
		return err
	}
	for _, peer := range c.Peers {
		if peer.ChainID == "" || peer.Contract == "" || peer.URL == "" {
			return fmt.Errorf("incomplete peer definition: %+v", peer)
		}
	}
	return nil
}

func LoadConfig(configFile string) (*Config, error) {
	cfg := defaultConfig()
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.ccgov/ccgov.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".ccgov", "ccgov.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/ccgov/ccgov.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/ccgov/ccgov.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// If config section exists, use it for main config
		if !tempCfg.Config.IsZero() {
			// Decode onto the defaults so unset keys keep their values
			if err := tempCfg.Config.Decode(cfg); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			// Otherwise unmarshal the whole file as main config
			err = yaml.Unmarshal(buf, cfg)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		// Process plugin configurations
		pluginConfig := make(map[string]map[string]map[string]any)
		if tempCfg.Blob != nil {
			pluginConfig["blob"] = tempCfg.Blob
		}
		if tempCfg.Database != nil && tempCfg.Database.Blob != nil {
			// Extract plugin name if specified
			if pluginVal, exists := tempCfg.Database.Blob["plugin"]; exists {
				if pluginName, ok := pluginVal.(string); ok {
					cfg.BlobPlugin = pluginName
					delete(tempCfg.Database.Blob, "plugin")
				}
			}
			blobConfig := make(map[string]map[string]any)
			for k, v := range tempCfg.Database.Blob {
				if val, ok := v.(map[string]any); ok {
					blobConfig[k] = val
				} else if val, ok := v.(map[any]any); ok {
					// Convert map[any]any to map[string]any
					stringAnyMap := make(map[string]any)
					for vk, vv := range val {
						if keyStr, ok := vk.(string); ok {
							stringAnyMap[keyStr] = vv
						}
					}
					blobConfig[k] = stringAnyMap
				} else {
					fmt.Fprintf(os.Stderr, "warning: skipping blob config entry %q: expected map, got %T\n", k, v)
				}
			}
			// Merge with existing blob config instead of overwriting
			if pluginConfig["blob"] == nil {
				pluginConfig["blob"] = blobConfig
			} else {
				maps.Copy(pluginConfig["blob"], blobConfig)
			}
		}
		if len(pluginConfig) > 0 {
			err = plugin.ProcessConfig(pluginConfig)
			if err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("ccgov", cfg)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	globalConfig = cfg
	return cfg, nil
}

func GetConfig() *Config {
	return globalConfig
}
