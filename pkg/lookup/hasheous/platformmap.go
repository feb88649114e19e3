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

package hasheous

import (
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/rs/zerolog/log"
)

// platformSlugs maps hasheous platform labels to platform slugs.
var platformSlugs = map[string]string{
	"Nintendo Entertainment System":                "nes",
	"Super Nintendo Entertainment System":          "snes",
	"Nintendo Super Nintendo Entertainment System": "snes",
	"Nintendo 64":                                  "n64",
	"Nintendo Game Boy":                            "gb",
	"Nintendo Game Boy Color":                      "gbc",
	"Nintendo Game Boy Advance":                    "gba",
	"Nintendo DS":                                  "nds",
	"Nintendo 3DS":                                 "3ds",
	"Nintendo GameCube":                            "gamecube",
	"Nintendo Wii":                                 "wii",
	"Nintendo Switch":                              "switch",
	"Sega Master System":                           "sms",
	"Sega Genesis":                                 "genesis",
	"Sega Mega Drive":                              "genesis",
	"Sega Game Gear":                               "gamegear",
	"Sega Saturn":                                  "saturn",
	"Sega Dreamcast":                               "dreamcast",
	"Sony PlayStation":                             "psx",
	"Sony PlayStation 2":                           "ps2",
	"Sony PlayStation Portable":                    "psp",
	"Neo Geo":                                      "neogeo",
	"SNK Neo Geo AES":                              "neogeo",
	"Arcade":                                       "arcade",
}

// platformMatches reports whether a hasheous platform label refers to
// the queried platform. Unknown labels always mismatch and are logged
// so the table can grow.
func platformMatches(label string, platform *platforms.Platform) bool {
	if platform == nil {
		return true
	}
	slug, ok := platformSlugs[label]
	if !ok {
		log.Warn().Str("platform", label).
			Msg("hasheous returned unknown platform label")
		return false
	}
	return slug == platform.Slug
}
