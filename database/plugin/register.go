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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = 1
)

const envVarPrefix = "CCGOV"

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	default:
		return ""
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = 1
	PluginOptionTypeBool   PluginOptionType = 2
	PluginOptionTypeInt    PluginOptionType = 3
	PluginOptionTypeUint   PluginOptionType = 4
)

type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var pluginEntries []PluginEntry

// Register adds a plugin entry to the registry. It is expected to be called from init()
func Register(pluginEntry PluginEntry) {
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns all registered entries for a plugin type
func GetPlugins(pluginType PluginType) []PluginEntry {
	ret := []PluginEntry{}
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin instantiates the named plugin from its current options
func GetPlugin(pluginType PluginType, name string) Plugin {
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == name {
			return p.NewFromOptionsFunc()
		}
	}
	return nil
}

func flagName(p PluginEntry, o PluginOption) string {
	return fmt.Sprintf("%s-%s-%s", PluginTypeName(p.Type), p.Name, o.Name)
}

func envVarName(p PluginEntry, o PluginOption) string {
	ret := fmt.Sprintf(
		"%s_%s_%s_%s",
		envVarPrefix,
		PluginTypeName(p.Type),
		p.Name,
		o.Name,
	)
	return strings.ToUpper(strings.ReplaceAll(ret, "-", "_"))
}

// PopulateCmdlineOptions adds a flag for every registered plugin option
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, p := range pluginEntries {
		for _, o := range p.Options {
			name := flagName(p, o)
			desc := fmt.Sprintf("%s: %s", p.Name, o.Description)
			switch o.Type {
			case PluginOptionTypeString:
				dest, ok := o.Dest.(*string)
				def, ok2 := o.DefaultValue.(string)
				if !ok || !ok2 {
					return fmt.Errorf("invalid string option %s", name)
				}
				fs.StringVar(dest, name, def, desc)
			case PluginOptionTypeBool:
				dest, ok := o.Dest.(*bool)
				def, ok2 := o.DefaultValue.(bool)
				if !ok || !ok2 {
					return fmt.Errorf("invalid bool option %s", name)
				}
				fs.BoolVar(dest, name, def, desc)
			case PluginOptionTypeInt:
				dest, ok := o.Dest.(*int)
				def, ok2 := o.DefaultValue.(int)
				if !ok || !ok2 {
					return fmt.Errorf("invalid int option %s", name)
				}
				fs.IntVar(dest, name, def, desc)
			case PluginOptionTypeUint:
				dest, ok := o.Dest.(*uint64)
				def, ok2 := o.DefaultValue.(uint64)
				if !ok || !ok2 {
					return fmt.Errorf("invalid uint option %s", name)
				}
				fs.Uint64Var(dest, name, def, desc)
			default:
				return fmt.Errorf("unknown plugin option type %d for option %s", o.Type, name)
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from the config file. The map is keyed
// by plugin type name, then plugin name, then option name
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for i := range pluginEntries {
		p := &pluginEntries[i]
		typeCfg, ok := pluginConfig[PluginTypeName(p.Type)]
		if !ok {
			continue
		}
		optCfg, ok := typeCfg[p.Name]
		if !ok {
			continue
		}
		for _, o := range p.Options {
			val, ok := optCfg[o.Name]
			if !ok {
				continue
			}
			if err := o.assign(val); err != nil {
				return fmt.Errorf("plugin %s: %w", p.Name, err)
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from environment variables named
// CCGOV_<TYPE>_<PLUGIN>_<OPTION>
func ProcessEnvVars() error {
	for i := range pluginEntries {
		p := &pluginEntries[i]
		for _, o := range p.Options {
			name := envVarName(*p, o)
			raw, ok := os.LookupEnv(name)
			if !ok {
				continue
			}
			var val any
			var err error
			switch o.Type {
			case PluginOptionTypeString:
				val = raw
			case PluginOptionTypeBool:
				val, err = strconv.ParseBool(raw)
			case PluginOptionTypeInt:
				val, err = strconv.Atoi(raw)
			case PluginOptionTypeUint:
				val, err = strconv.ParseUint(raw, 10, 64)
			}
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if err := o.assign(val); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}
