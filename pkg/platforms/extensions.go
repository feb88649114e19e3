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

package platforms

import (
	"strings"

	"github.com/cubicalbatch/romhoard-sub001/pkg/parser"
)

// archiveExtensions are the supported container formats. They can hold
// ROMs for any platform so they are never exclusive to one.
var archiveExtensions = map[string]bool{
	".zip": true,
	".7z":  true,
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// nonROMExtensions is a blocklist of extensions that are never ROMs no
// matter which folder they sit in.
var nonROMExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".txt":  true,
	".nfo":  true,
	".pdf":  true,
	".doc":  true,
	".html": true,
	".htm":  true,
	".xml":  true,
	".mp3":  true,
	".ogg":  true,
	".wav":  true,
	".mp4":  true,
	".avi":  true,
	".exe":  true,
	".dll":  true,
	".dat":  true,
	".sav":  true,
	".srm":  true,
	".st8":  true,
	".cfg":  true,
	".ini":  true,
}

// IsArchiveExtension reports whether ext is a supported archive format.
func IsArchiveExtension(ext string) bool {
	return archiveExtensions[strings.ToLower(ext)]
}

// IsImageExtension reports whether ext is a game artwork format.
func IsImageExtension(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}

// IsNonROMExtension reports whether ext is a known non-ROM type.
// Compound ROM extensions like ".p8.png" are checked before this by
// callers going through FullExtension.
func IsNonROMExtension(ext string) bool {
	return nonROMExtensions[strings.ToLower(ext)]
}

// FullExtension returns the lowercased extension of filename, keeping
// compound ROM extensions intact.
func FullExtension(filename string) string {
	_, ext := parser.StemAndExtension(filename)
	return ext
}

// IsAcceptableExtension reports whether ext may hold content for the
// platform: either listed for it, or a supported archive format.
func IsAcceptableExtension(ext string, p *Platform) bool {
	lower := strings.ToLower(ext)
	if archiveExtensions[lower] {
		return true
	}
	for _, e := range p.Extensions {
		if strings.ToLower(e) == lower {
			return true
		}
	}
	return false
}
