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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, CfgFile))
	require.NoError(t, err)

	assert.False(t, cfg.DebugLogging())
	assert.True(t, cfg.HashDBLookup().Enabled)
	assert.Equal(t, HashDBDefaultURL, cfg.HashDBLookup().BaseURL)
	assert.Equal(t, MetadataIndexDefaultURL, cfg.MetadataLookup().BaseURL)
	assert.Equal(t, filepath.Join(dir, CatalogDbFile), cfg.DatabasePath(dir))
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	contents := `
config_schema = 1
debug_logging = true

[library]
dirs = ["/roms/snes", "/roms/genesis"]
database = "/data/catalog.db"

[regions]
[regions.aliases]
scandinavia = "Europe"
[regions.weights]
Japan = 1200

[lookups]
[lookups.metadata]
enabled = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(contents), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, []string{"/roms/snes", "/roms/genesis"}, cfg.LibraryDirs())
	assert.Equal(t, "/data/catalog.db", cfg.DatabasePath(dir))
	assert.Equal(t, "Europe", cfg.RegionAliases()["scandinavia"])
	assert.Equal(t, 1200, cfg.RegionWeights()["Japan"])
	assert.False(t, cfg.MetadataLookup().Enabled)
	// Fields absent from the file keep their defaults.
	assert.True(t, cfg.HashDBLookup().Enabled)
	assert.Equal(t, HashDBDefaultURL, cfg.HashDBLookup().BaseURL)
}

func TestLoadRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, CfgFile),
		[]byte("config_schema = 99\n"), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version mismatch")
}

func TestAuthFileCredentials(t *testing.T) {
	dir := t.TempDir()
	auth := `
[creds.screenscraper]
username = "player1"
password = "hunter2"
dev_id = "romhoard"
dev_password = "devpass"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, AuthFile), []byte(auth), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	creds := LookupCredentials(MetadataIndexAuthKey)
	assert.Equal(t, "player1", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Equal(t, "romhoard", creds.DevID)
	assert.Equal(t, "devpass", creds.DevPassword)

	assert.Empty(t, LookupCredentials("unknown").Username)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	cfg.SetDebugLogging(true)
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.True(t, reloaded.DebugLogging())
}
