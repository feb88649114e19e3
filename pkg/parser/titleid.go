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

package parser

import (
	"regexp"
	"strings"
)

// Content types carried by platforms that encode a title ID in the
// filename (e.g. Switch dumps).
const (
	ContentTypeBase   = "base"
	ContentTypeUpdate = "update"
	ContentTypeDLC    = "dlc"
)

// Title IDs are 16 hex digits in brackets: [0100000000010000].
var titleIDPattern = regexp.MustCompile(`\[([0-9A-Fa-f]{16})\]`)

// ExtractTitleID returns the bracketed 16-hex-digit platform title ID
// from a filename, uppercased, or "" when absent.
func ExtractTitleID(filename string) string {
	m := titleIDPattern.FindStringSubmatch(filename)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// ContentTypeForTitleID classifies a title ID by its last 3 hex digits:
// 000 is a base game, 800 an update, anything else DLC.
func ContentTypeForTitleID(titleID string) string {
	if len(titleID) != 16 {
		return ""
	}
	switch strings.ToUpper(titleID[13:]) {
	case "000":
		return ContentTypeBase
	case "800":
		return ContentTypeUpdate
	default:
		return ContentTypeDLC
	}
}

// ContentInfo extracts the title ID and content type in one call. Both
// are empty when the filename carries no title ID.
func ContentInfo(filename string) (titleID, contentType string) {
	titleID = ExtractTitleID(filename)
	if titleID == "" {
		return "", ""
	}
	return titleID, ContentTypeForTitleID(titleID)
}
