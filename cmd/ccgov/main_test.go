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
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestListPlugins(t *testing.T) {
	out := listPlugins()
	assert.Contains(t, out, "badger")
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "postgres")
	assert.Contains(t, out, "mysql")
}

func TestCommands(t *testing.T) {
	cmds := map[string]*cobra.Command{
		"serve":   serveCommand(),
		"devnet":  devnetCommand(),
		"list":    listCommand(),
		"version": versionCommand(),
	}
	for name, cmd := range cmds {
		assert.Equal(t, name, cmd.Name())
	}
	for _, flag := range []string{"devnet-config", "remote-chain", "local-chain", "oracle"} {
		assert.NotNil(t, cmds["devnet"].Flags().Lookup(flag), flag)
	}
}
