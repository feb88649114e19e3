// RomHoard
// Copyright (c) 2026 The RomHoard Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of RomHoard.
//
// RomHoard is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// RomHoard is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with RomHoard.  If not, see <http://www.gnu.org/licenses/>.

// Package config is the user-facing TOML configuration: library
// directories, region preferences, lookup service settings and
// credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "ROMHOARD_CFG"
)

type Values struct {
	Regions      Regions `toml:"regions,omitempty"`
	Library      Library `toml:"library,omitempty"`
	Lookups      Lookups `toml:"lookups,omitempty"`
	ConfigSchema int     `toml:"config_schema"`
	DebugLogging bool    `toml:"debug_logging"`
}

type Library struct {
	Dirs     []string `toml:"dirs,omitempty,multiline"`
	Database string   `toml:"database,omitempty"`
}

type Regions struct {
	// Aliases maps extra filename tags to canonical region names, on
	// top of the built-in table.
	Aliases map[string]string `toml:"aliases,omitempty"`
	// Weights overrides the default-variant region scores.
	Weights map[string]int `toml:"weights,omitempty"`
}

type Auth struct {
	Creds map[string]CredentialEntry `toml:"creds,omitempty"`
}

type CredentialEntry struct {
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	DevID       string `toml:"dev_id"`
	DevPassword string `toml:"dev_password"`
	Bearer      string `toml:"bearer"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Lookups: Lookups{
		HashDB: LookupService{
			Enabled: true,
			BaseURL: HashDBDefaultURL,
		},
		MetadataIndex: LookupService{
			Enabled: true,
			BaseURL: MetadataIndexDefaultURL,
		},
	},
}

type Instance struct {
	vals     Values
	defaults Values
	cfgPath  string
	authPath string
	mu       sync.RWMutex
}

var authCfg atomic.Value

func GetAuthCfg() Auth {
	val := authCfg.Load()
	if val == nil {
		return Auth{}
	}
	auth, ok := val.(Auth)
	if !ok {
		return Auth{}
	}
	return auth
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	cfg.authPath = filepath.Join(filepath.Dir(cfgPath), AuthFile)

	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	if _, err := os.Stat(c.cfgPath); err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top so
	// fields absent from the file keep their default values.
	newVals := c.defaults
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	c.vals = newVals

	if _, err := os.Stat(c.authPath); err == nil {
		log.Info().Msg("loading auth file")
		authData, err := os.ReadFile(c.authPath)
		if err != nil {
			return fmt.Errorf("failed to read auth file: %w", err)
		}

		var authVals Auth
		if err := toml.Unmarshal(authData, &authVals); err != nil {
			return fmt.Errorf("failed to unmarshal auth file: %w", err)
		}

		log.Info().Msgf("loaded %d auth entries", len(authVals.Creds))

		authCfg.Store(authVals)
	}

	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

// LibraryDirs returns the configured ROM library roots.
func (c *Instance) LibraryDirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dirs := make([]string, len(c.vals.Library.Dirs))
	copy(dirs, c.vals.Library.Dirs)
	return dirs
}

// DatabasePath returns the catalog database path, defaulting to
// CatalogDbFile under configDir when unset.
func (c *Instance) DatabasePath(configDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Library.Database != "" {
		return c.vals.Library.Database
	}
	return filepath.Join(configDir, CatalogDbFile)
}

// RegionAliases returns the user's extra region alias table.
func (c *Instance) RegionAliases() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	aliases := make(map[string]string, len(c.vals.Regions.Aliases))
	for k, v := range c.vals.Regions.Aliases {
		aliases[k] = v
	}
	return aliases
}

// RegionWeights returns the user's region score overrides.
func (c *Instance) RegionWeights() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	weights := make(map[string]int, len(c.vals.Regions.Weights))
	for k, v := range c.vals.Regions.Weights {
		weights[k] = v
	}
	return weights
}
