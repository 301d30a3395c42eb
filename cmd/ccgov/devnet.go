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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/ccgov/internal/devnet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func devnetCommand() *cobra.Command {
	var devnetConfigFile string
	var remoteChain, localChain, oracle string
	cmd := &cobra.Command{
		Use:   "devnet",
		Short: "Run an in-process multi-chain devnet and replay the cross-chain dependency scenario",
		Run: func(cmd *cobra.Command, args []string) {
			logger := commonRun()
			if err := devnetRun(logger, devnetConfigFile, remoteChain, localChain, oracle); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&devnetConfigFile, "devnet-config", "", "path to devnet config file")
	cmd.Flags().StringVar(&remoteChain, "remote-chain", "chain-a", "chain holding the prerequisite proposal")
	cmd.Flags().StringVar(&localChain, "local-chain", "chain-b", "chain holding the dependent proposal")
	cmd.Flags().StringVar(&oracle, "oracle", devnet.DefaultPowerOracle, "power oracle used by the scenario proposals")
	return cmd
}

func devnetRun(
	logger *slog.Logger,
	configFile string,
	remoteChain string,
	localChain string,
	oracle string,
) error {
	cfg := devnet.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = devnet.LoadConfig(configFile)
		if err != nil {
			return err
		}
	}
	d, err := devnet.New(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()
	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start devnet: %w", err)
	}
	report, runErr := d.RunDependencyScenario(ctx, remoteChain, localChain, oracle)
	if stopErr := d.Stop(); stopErr != nil {
		logger.Error("devnet shutdown error", "error", stopErr, "component", "devnet")
	}
	if runErr != nil {
		return runErr
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
