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

// defaultRegionAliases maps lowercase region tokens found in filenames
// to their normalized display names. Config may overlay extra aliases.
var defaultRegionAliases = map[string]string{
	"usa":            "USA",
	"us":             "USA",
	"u":              "USA",
	"america":        "USA",
	"europe":         "Europe",
	"eu":             "Europe",
	"e":              "Europe",
	"japan":          "Japan",
	"jp":             "Japan",
	"j":              "Japan",
	"world":          "World",
	"w":              "World",
	"france":         "France",
	"fr":             "France",
	"germany":        "Germany",
	"de":             "Germany",
	"spain":          "Spain",
	"es":             "Spain",
	"italy":          "Italy",
	"it":             "Italy",
	"uk":             "UK",
	"united kingdom": "UK",
	"australia":      "Australia",
	"au":             "Australia",
	"korea":          "Korea",
	"kr":             "Korea",
	"china":          "China",
	"cn":             "China",
	"taiwan":         "Taiwan",
	"tw":             "Taiwan",
	"brazil":         "Brazil",
	"br":             "Brazil",
	"canada":         "Canada",
	"ca":             "Canada",
	"netherlands":    "Netherlands",
	"nl":             "Netherlands",
	"sweden":         "Sweden",
	"se":             "Sweden",
	"asia":           "Asia",
	"unknown":        "Unknown",
	"unk":            "Unknown",
}
