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

// Package platforms holds the configured platform table and the layered
// extension/folder heuristics that associate a file path with a
// platform.
package platforms

// Platform describes one emulated system: which extensions and folder
// names identify it, whether an archive itself is the content unit
// (arcade ROM sets) and which external service IDs it maps to.
type Platform struct {
	Slug                string
	Name                string
	Extensions          []string
	ExclusiveExtensions []string
	FolderNames         []string
	ExternalIDs         []int
	ArchiveIsContent    bool
	UsesContentTypes    bool
}

// PrimaryExternalID returns the first external service identifier, or 0
// when the platform has none.
func (p *Platform) PrimaryExternalID() int {
	if len(p.ExternalIDs) == 0 {
		return 0
	}
	return p.ExternalIDs[0]
}

// Defaults is the reference set of platforms seeded into the catalog on
// first run. Config may overlay additional platforms; rows are upserted
// by slug and never deleted.
func Defaults() []Platform {
	return []Platform{
		{
			Slug:                "nes",
			Name:                "Nintendo Entertainment System",
			Extensions:          []string{".nes", ".unf", ".fds"},
			ExclusiveExtensions: []string{".nes", ".fds"},
			FolderNames:         []string{"NES", "Nintendo", "Famicom", "FC"},
			ExternalIDs:         []int{3},
		},
		{
			Slug:                "snes",
			Name:                "Super Nintendo Entertainment System",
			Extensions:          []string{".sfc", ".smc", ".swc", ".fig"},
			ExclusiveExtensions: []string{".sfc", ".smc"},
			FolderNames:         []string{"SNES", "Super Nintendo", "SFC", "Super Famicom"},
			ExternalIDs:         []int{4},
		},
		{
			Slug:                "n64",
			Name:                "Nintendo 64",
			Extensions:          []string{".n64", ".z64", ".v64"},
			ExclusiveExtensions: []string{".n64", ".z64", ".v64"},
			FolderNames:         []string{"N64", "Nintendo 64"},
			ExternalIDs:         []int{14},
		},
		{
			Slug:                "gb",
			Name:                "Game Boy",
			Extensions:          []string{".gb"},
			ExclusiveExtensions: []string{".gb"},
			FolderNames:         []string{"GB", "Game Boy", "Gameboy"},
			ExternalIDs:         []int{9},
		},
		{
			Slug:                "gbc",
			Name:                "Game Boy Color",
			Extensions:          []string{".gbc"},
			ExclusiveExtensions: []string{".gbc"},
			FolderNames:         []string{"GBC", "Game Boy Color"},
			ExternalIDs:         []int{10},
		},
		{
			Slug:                "gba",
			Name:                "Game Boy Advance",
			Extensions:          []string{".gba"},
			ExclusiveExtensions: []string{".gba"},
			FolderNames:         []string{"GBA", "Game Boy Advance"},
			ExternalIDs:         []int{12},
		},
		{
			Slug:                "genesis",
			Name:                "Sega Genesis",
			Extensions:          []string{".md", ".gen", ".smd", ".bin"},
			ExclusiveExtensions: []string{".md", ".gen", ".smd"},
			FolderNames:         []string{"Genesis", "Mega Drive", "MegaDrive", "MD"},
			ExternalIDs:         []int{1},
		},
		{
			Slug:                "sms",
			Name:                "Sega Master System",
			Extensions:          []string{".sms"},
			ExclusiveExtensions: []string{".sms"},
			FolderNames:         []string{"SMS", "Master System"},
			ExternalIDs:         []int{2},
		},
		{
			Slug:                "gamegear",
			Name:                "Sega Game Gear",
			Extensions:          []string{".gg"},
			ExclusiveExtensions: []string{".gg"},
			FolderNames:         []string{"Game Gear", "GameGear", "GG"},
			ExternalIDs:         []int{21},
		},
		{
			Slug:        "psx",
			Name:        "Sony PlayStation",
			Extensions:  []string{".bin", ".cue", ".img", ".chd", ".pbp", ".iso"},
			FolderNames: []string{"PSX", "PS1", "PlayStation"},
			ExternalIDs: []int{57},
		},
		{
			Slug:        "ps2",
			Name:        "Sony PlayStation 2",
			Extensions:  []string{".iso", ".chd", ".cso"},
			FolderNames: []string{"PS2", "PlayStation 2"},
			ExternalIDs: []int{58},
		},
		{
			Slug:        "psp",
			Name:        "Sony PlayStation Portable",
			Extensions:  []string{".iso", ".cso", ".pbp"},
			FolderNames: []string{"PSP", "PlayStation Portable"},
			ExternalIDs: []int{61},
		},
		{
			Slug:                "dreamcast",
			Name:                "Sega Dreamcast",
			Extensions:          []string{".gdi", ".cdi", ".chd"},
			ExclusiveExtensions: []string{".gdi", ".cdi"},
			FolderNames:         []string{"Dreamcast", "DC"},
			ExternalIDs:         []int{23},
		},
		{
			Slug:        "saturn",
			Name:        "Sega Saturn",
			Extensions:  []string{".bin", ".cue", ".chd", ".iso"},
			FolderNames: []string{"Saturn", "Sega Saturn"},
			ExternalIDs: []int{22},
		},
		{
			Slug:                "nds",
			Name:                "Nintendo DS",
			Extensions:          []string{".nds"},
			ExclusiveExtensions: []string{".nds"},
			FolderNames:         []string{"NDS", "Nintendo DS", "DS"},
			ExternalIDs:         []int{15},
		},
		{
			Slug:                "3ds",
			Name:                "Nintendo 3DS",
			Extensions:          []string{".3ds", ".cia"},
			ExclusiveExtensions: []string{".3ds", ".cia"},
			FolderNames:         []string{"3DS", "Nintendo 3DS"},
			ExternalIDs:         []int{17},
		},
		{
			Slug:                "switch",
			Name:                "Nintendo Switch",
			Extensions:          []string{".nsp", ".xci", ".nsz", ".xcz"},
			ExclusiveExtensions: []string{".nsp", ".xci", ".nsz", ".xcz"},
			FolderNames:         []string{"Switch", "Nintendo Switch", "NSW"},
			ExternalIDs:         []int{225},
			UsesContentTypes:    true,
		},
		{
			Slug:                "gamecube",
			Name:                "Nintendo GameCube",
			Extensions:          []string{".gcm", ".iso", ".rvz", ".ciso"},
			ExclusiveExtensions: []string{".gcm", ".rvz"},
			FolderNames:         []string{"GameCube", "GC", "NGC"},
			ExternalIDs:         []int{13},
		},
		{
			Slug:                "wii",
			Name:                "Nintendo Wii",
			Extensions:          []string{".wbfs", ".iso", ".rvz", ".wad"},
			ExclusiveExtensions: []string{".wbfs", ".wad"},
			FolderNames:         []string{"Wii"},
			ExternalIDs:         []int{16},
		},
		{
			Slug:                "pico8",
			Name:                "PICO-8",
			Extensions:          []string{".p8", ".p8.png"},
			ExclusiveExtensions: []string{".p8", ".p8.png"},
			FolderNames:         []string{"PICO-8", "Pico8"},
			ExternalIDs:         []int{234},
		},
		{
			Slug:             "arcade",
			Name:             "Arcade",
			Extensions:       []string{".zip", ".7z"},
			FolderNames:      []string{"Arcade", "MAME", "FBNeo"},
			ExternalIDs:      []int{75},
			ArchiveIsContent: true,
		},
		{
			Slug:             "neogeo",
			Name:             "SNK Neo Geo",
			Extensions:       []string{".zip", ".7z"},
			FolderNames:      []string{"Neo Geo", "NeoGeo", "NG"},
			ExternalIDs:      []int{142},
			ArchiveIsContent: true,
		},
	}
}
