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
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/ticketd/database/plugin"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "ticketd.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultReceiverTimeout = "10s"
	DefaultStorageByteCost = "10000000000000000000"
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

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	BlobPlugin        string `yaml:"blobPlugin"        envconfig:"TICKETD_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin    string `yaml:"metadataPlugin"    envconfig:"TICKETD_DATABASE_METADATA_PLUGIN"`
	DatabasePath      string `yaml:"databasePath"                                              split_words:"true"`
	BindAddr          string `yaml:"bindAddr"                                                  split_words:"true"`
	OwnerID           string `yaml:"ownerId"                                                   split_words:"true"`
	AccountID         string `yaml:"accountId"                                                 split_words:"true"`
	StorageByteCost   string `yaml:"storageByteCost"                                           split_words:"true"`
	ReceiverTimeout   string `yaml:"receiverTimeout"                                           split_words:"true"`
	ShutdownTimeout   string `yaml:"shutdownTimeout"                                           split_words:"true"`
	ContractName      string `yaml:"contractName"                                              split_words:"true"`
	ContractSymbol    string `yaml:"contractSymbol"                                            split_words:"true"`
	ContractBaseURI   string `yaml:"contractBaseUri"   envconfig:"CONTRACT_BASE_URI"`
	ContractIcon      string `yaml:"contractIcon"                                              split_words:"true"`
	ApiPort           uint   `yaml:"apiPort"                                                   split_words:"true"`
	MetricsPort       uint   `yaml:"metricsPort"                                               split_words:"true"`
	DispatchWorkers   int    `yaml:"dispatchWorkers"                                           split_words:"true"`
	DispatchQueueSize int    `yaml:"dispatchQueueSize"                                         split_words:"true"`
	Tracing           bool   `yaml:"tracing"`
	TracingStdout     bool   `yaml:"tracingStdout"                                             split_words:"true"`
}

// ParsedStorageByteCost returns the configured storage byte cost
func (c *Config) ParsedStorageByteCost() (types.Balance, error) {
	ret, err := types.ParseBalance(c.StorageByteCost)
	if err != nil {
		return ret, fmt.Errorf("invalid storage byte cost: %w", err)
	}
	return ret, nil
}

// ParsedReceiverTimeout returns the configured receiver call timeout
func (c *Config) ParsedReceiverTimeout() (time.Duration, error) {
	ret, err := time.ParseDuration(c.ReceiverTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid receiver timeout: %w", err)
	}
	return ret, nil
}

// ParsedShutdownTimeout returns the configured graceful shutdown timeout
func (c *Config) ParsedShutdownTimeout() (time.Duration, error) {
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return ret, nil
}

func defaultConfig() *Config {
	return &Config{
		BindAddr:          "0.0.0.0",
		DatabasePath:      ".ticketd",
		BlobPlugin:        DefaultBlobPlugin,
		MetadataPlugin:    DefaultMetadataPlugin,
		StorageByteCost:   DefaultStorageByteCost,
		ReceiverTimeout:   DefaultReceiverTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
		ContractName:      "Raffle Tickets",
		ContractSymbol:    "TICKET",
		ApiPort:           8080,
		MetricsPort:       12799,
		DispatchWorkers:   4,
		DispatchQueueSize: 1000,
	}
}

var globalConfig = defaultConfig()

// pluginSection pulls the "plugin" name out of a database section and
// returns the remaining per-plugin option maps
func pluginSection(
	kind string,
	section map[string]any,
	pluginName *string,
) map[string]map[string]any {
	if pluginVal, exists := section["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			*pluginName = name
			delete(section, "plugin")
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				kind,
				k,
				v,
			)
		}
	}
	return ret
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config.Kind != 0 {
		// Decode the section straight onto the defaults so omitted keys
		// keep their default values
		if err := tempCfg.Config.Decode(globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else if err := yaml.Unmarshal(buf, globalConfig); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			blobConfig := pluginSection(
				"blob",
				tempCfg.Database.Blob,
				&globalConfig.BlobPlugin,
			)
			if pluginConfig["blob"] == nil {
				pluginConfig["blob"] = blobConfig
			} else {
				maps.Copy(pluginConfig["blob"], blobConfig)
			}
		}
		if tempCfg.Database.Metadata != nil {
			metadataConfig := pluginSection(
				"metadata",
				tempCfg.Database.Metadata,
				&globalConfig.MetadataPlugin,
			)
			if pluginConfig["metadata"] == nil {
				pluginConfig["metadata"] = metadataConfig
			} else {
				maps.Copy(pluginConfig["metadata"], metadataConfig)
			}
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		// Check for config file in this path: ~/.ticketd/ticketd.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".ticketd", "ticketd.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		// Try to check for /etc/ticketd/ticketd.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/ticketd/ticketd.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process("ticketd", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func (c *Config) validate() error {
	if _, err := c.ParsedStorageByteCost(); err != nil {
		return err
	}
	if _, err := c.ParsedReceiverTimeout(); err != nil {
		return err
	}
	if _, err := c.ParsedShutdownTimeout(); err != nil {
		return err
	}
	if c.DispatchWorkers < 0 || c.DispatchQueueSize < 0 {
		return errors.New("dispatch workers and queue size must not be negative")
	}
	return nil
}

func GetConfig() *Config {
	return globalConfig
}
