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

const (
	HashDBDefaultURL        = "https://hasheous.org/api/v1"
	MetadataIndexDefaultURL = "https://api.screenscraper.fr/api2"

	// Credential keys in auth.toml's creds table.
	HashDBAuthKey        = "hasheous"
	MetadataIndexAuthKey = "screenscraper"
)

type Lookups struct {
	HashDB        LookupService `toml:"hashdb,omitempty"`
	MetadataIndex LookupService `toml:"metadata,omitempty"`
}

type LookupService struct {
	BaseURL string `toml:"base_url,omitempty"`
	Enabled bool   `toml:"enabled"`
}

// HashDBLookup returns the hash database service settings.
func (c *Instance) HashDBLookup() LookupService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Lookups.HashDB
}

// MetadataLookup returns the metadata index service settings.
func (c *Instance) MetadataLookup() LookupService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Lookups.MetadataIndex
}

// LookupCredentials returns the auth.toml credentials stored under
// key, or a zero entry when none are configured.
func LookupCredentials(key string) CredentialEntry {
	return GetAuthCfg().Creds[key]
}
