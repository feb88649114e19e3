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

package catalogdb

import "time"

// Name provenance values, ranked by authority. Collection-signature
// sources (NoIntros, Redump) come straight from the hash database's
// signature field.
const (
	SourceNoIntros      = "NoIntros"
	SourceRedump        = "Redump"
	SourceHashDB        = "hasheous"
	SourceMetadataIndex = "screenscraper"
	SourceCollection    = "collection"
	SourceFilename      = "filename"
	SourceManual        = "manual"
)

var sourceRanks = map[string]int{
	SourceNoIntros:      100,
	SourceRedump:        90,
	SourceHashDB:        80,
	SourceMetadataIndex: 70,
	SourceCollection:    60,
	SourceFilename:      50,
	SourceManual:        40,
}

// SourceRank returns the authority rank of a name provenance tag.
// Unknown tags rank below every known one.
func SourceRank(source string) int {
	return sourceRanks[source]
}

// Title is one canonical game, unique by (Name, PlatformSlug).
// ExternalID and DefaultVariantID are 0 when unset.
type Title struct {
	Name             string
	PlatformSlug     string
	NameSource       string
	DBID             int64
	ExternalID       int64
	DefaultVariantID int64
	CreatedAt        time.Time
	MetadataFetched  bool
}

// Variant is one region/revision/source grouping of files for a Title.
type Variant struct {
	Region     string
	Revision   string
	SourcePath string
	DBID       int64
	TitleID    int64
	CreatedAt  time.Time
}

// ContentFile is one physical ROM unit. For loose files FilePath is
// the absolute path and ArchivePath is empty; for archive entries
// FilePath is the internal path and ArchivePath the archive. Disc is 0
// when the file carries no disc marker.
type ContentFile struct {
	FilePath    string
	ArchivePath string
	FileName    string
	CRC32       string
	SHA1        string
	ContentType string
	ROMNumber   string
	Tags        []string
	DBID        int64
	VariantID   int64
	FileSize    int64
	Disc        int
}

// Location returns the on-disk path that must exist for this file to
// still be present: the archive for archived entries, the file itself
// otherwise.
func (c *ContentFile) Location() string {
	if c.ArchivePath != "" {
		return c.ArchivePath
	}
	return c.FilePath
}

// Image is one artwork file associated with a Title.
type Image struct {
	Path      string
	ImageType string
	DBID      int64
	TitleID   int64
}

// CacheEntry is one persisted lookup result, positive or negative,
// keyed by (Service, Kind, Value, PlatformKey).
type CacheEntry struct {
	Service          string
	Kind             string
	Value            string
	PlatformKey      string
	ResultName       string
	ResultRegion     string
	ResultRevision   string
	ResultSource     string
	DBID             int64
	ResultExternalID int64
	CreatedAt        time.Time
	Hit              bool
}
