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

// Package parser turns bare ROM filenames into structured components:
// base name, region, revision, free-form tags, disc number, catalog
// number prefix and extension.
package parser

import (
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// Matches revision tags like "Rev 1", "rev A", "v1.2".
	revisionPattern = regexp.MustCompile(`(?i)^(rev\s*[a-z0-9]+|v\d+(\.\d+)*)$`)

	// Matches a catalog number prefix: "123 - Game" or "42. Game".
	romNumberPattern = regexp.MustCompile(`^(\d+)\s*[-.]\s+`)

	// Matches disc/track tags: "Disc 1", "Track 2", "Disc 1 of 2".
	discPattern = regexp.MustCompile(`(?i)^(?:disc|track)\s*(\d+)`)

	// Matches dash-separated disc indicators at the end of a name:
	// " - CD1", " - Disc 2", " - Track 1".
	dashDiscPattern = regexp.MustCompile(`(?i)\s*-\s*(?:cd|disc|track)\s*(\d+)\s*$`)

	tagPattern      = regexp.MustCompile(`[([]([^)\]]+)[)\]]`)
	firstTagPattern = regexp.MustCompile(`[([]`)
	allTagsPattern  = regexp.MustCompile(`[([][^)\]]+[)\]]`)
)

// Compound extensions that end with an image suffix but are ROM formats.
var compoundExtensions = []string{".p8.png"}

// Parsed holds the components of a ROM filename. Disc is 0 when the
// filename carries no disc or track marker.
type Parsed struct {
	Name      string
	Region    string
	Revision  string
	Extension string
	ROMNumber string
	Tags      []string
	Disc      int
}

// Parser classifies filename tags against a region alias table. The
// zero value is not usable; construct with New or NewWithAliases.
type Parser struct {
	aliases map[string]string
}

// New returns a Parser using the built-in region alias table.
func New() *Parser {
	return NewWithAliases(nil)
}

// NewWithAliases returns a Parser whose alias table is the built-in
// defaults overlaid with extra. Keys are matched case-insensitively.
func NewWithAliases(extra map[string]string) *Parser {
	aliases := make(map[string]string, len(defaultRegionAliases)+len(extra))
	for k, v := range defaultRegionAliases {
		aliases[k] = v
	}
	for k, v := range extra {
		aliases[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Parser{aliases: aliases}
}

// RegionAlias resolves a single region token to its normalized form.
func (p *Parser) RegionAlias(token string) (string, bool) {
	normalized, ok := p.aliases[strings.ToLower(strings.TrimSpace(token))]
	return normalized, ok
}

// StemAndExtension splits a filename into stem and lowercased extension,
// handling compound extensions like ".p8.png".
func StemAndExtension(filename string) (stem, ext string) {
	base := path.Base(filepath.ToSlash(filename))
	lower := strings.ToLower(base)
	for _, compound := range compoundExtensions {
		if strings.HasSuffix(lower, compound) {
			return base[:len(base)-len(compound)], compound
		}
	}
	ext = strings.ToLower(path.Ext(base))
	return base[:len(base)-len(ext)], ext
}

// Parse breaks a ROM filename into its components. Tag groups that are
// neither a revision, a disc marker, nor a fully region-mapped list are
// preserved verbatim in Tags. When several region tags are present the
// first one wins.
func (p *Parser) Parse(filename string) Parsed {
	stem, ext := StemAndExtension(filename)

	romNumber := ""
	if m := romNumberPattern.FindStringSubmatch(stem); m != nil {
		romNumber = m[1]
		stem = strings.TrimSpace(romNumberPattern.ReplaceAllString(stem, ""))
	}

	disc := 0
	var baseName, remainder string

	if loc := dashDiscPattern.FindStringSubmatchIndex(stem); loc != nil {
		baseName = strings.TrimSpace(stem[:loc[0]])
		disc, _ = strconv.Atoi(stem[loc[2]:loc[3]])
		remainder = ""
	} else if loc := firstTagPattern.FindStringIndex(stem); loc != nil {
		prefix := strings.TrimSpace(stem[:loc[0]])
		remainder = stem[loc[0]:]
		if prefix != "" {
			baseName = prefix
		} else {
			// Name starts with a tag, e.g. "[BIOS] Game Name".
			// Strip every tag group to recover the name.
			baseName = strings.TrimSpace(allTagsPattern.ReplaceAllString(stem, ""))
			if baseName == "" {
				baseName = stem
			}
		}
	} else {
		baseName = strings.TrimSpace(stem)
		remainder = ""
	}

	baseName = strings.Trim(strings.ReplaceAll(baseName, "_", " "), " -")

	var regions []string
	revision := ""
	var tags []string

	for _, m := range tagPattern.FindAllStringSubmatch(remainder, -1) {
		tag := strings.TrimSpace(m[1])

		if disc == 0 {
			if dm := discPattern.FindStringSubmatch(tag); dm != nil {
				disc, _ = strconv.Atoi(dm[1])
				continue
			}
		}

		if revisionPattern.MatchString(tag) {
			revision = tag
			continue
		}

		// A tag counts as a region list only if every comma-separated
		// part maps through the alias table. A partial match like
		// (En,Fr,De) stays a generic tag, never split.
		parts := strings.Split(tag, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		matched := make([]string, 0, len(parts))
		allRegions := true
		for _, part := range parts {
			normalized, ok := p.aliases[strings.ToLower(part)]
			if !ok {
				allRegions = false
				break
			}
			matched = append(matched, normalized)
		}
		if allRegions && len(matched) > 0 {
			regions = append(regions, matched...)
			continue
		}

		tags = append(tags, parts...)
	}

	region := ""
	if len(regions) > 0 {
		region = regions[0]
	}

	log.Debug().
		Str("filename", filename).
		Str("name", baseName).
		Str("region", region).
		Str("revision", revision).
		Int("disc", disc).
		Msg("parsed rom filename")

	return Parsed{
		Name:      baseName,
		Region:    region,
		Revision:  revision,
		Extension: ext,
		ROMNumber: romNumber,
		Tags:      tags,
		Disc:      disc,
	}
}
