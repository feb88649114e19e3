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

package screenscraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"The Legend of Zelda", "legend of zelda"},
		{"Pokémon Rouge", "pokemon rouge"},
		{"Castlevania: Symphony of the Night", "castlevania symphony of the night"},
		{"A Boy and His Blob", "boy and his blob"},
		{"  Spaced   Out  ", "spaced out"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalizeName(tt.in))
		})
	}
}

func TestMatchScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, matchScore("Super Mario World", "Super Mario World"), 0.001)
	assert.InDelta(t, 1.0, matchScore("The Felix Cat", "Felix Cat"), 0.001)
	assert.InDelta(t, 0.85, matchScore("Gradius", "Gradius III"), 0.001)

	// Shared distinctive word boosts otherwise dissimilar names.
	score := matchScore("Rondo of Blood", "Akumajou Dracula X Chi No Rondo")
	assert.InDelta(t, 0.65, score, 0.001)

	// Short or stopword overlap gets no boost.
	assert.Less(t, matchScore("The Game of Life", "War of Kings"), 0.3)

	assert.InDelta(t, 0.0, matchScore("Tetris", "Completely Different"), 0.001)
}

func TestBestMatchUsesRegionalNames(t *testing.T) {
	t.Parallel()
	candidates := []gameResult{
		{ID: 1, Name: "Wrong Game", AllNames: []string{"Wrong Game"}},
		{ID: 2, Name: "Akumajou Dracula X", AllNames: []string{"Castlevania: Rondo of Blood"}},
	}
	best, score := bestMatch("Rondo of Blood", candidates)
	assert.Equal(t, int64(2), best.ID)
	assert.GreaterOrEqual(t, score, 0.85)
}

func TestSearchVariants(t *testing.T) {
	t.Parallel()

	variants := searchVariants("The Castlevania: Symphony of the Night")
	assert.Equal(t, "Castlevania: Symphony of the Night", variants[0])
	assert.Contains(t, variants, "Castlevania Symphony of the Night")
	assert.Contains(t, variants, "Castlevania")
	assert.Contains(t, variants, "Symphony of the Night")
	assert.Contains(t, variants, "Symphony")

	variants = searchVariants("Final Fantasy V")
	assert.Contains(t, variants, "Final Fantasy 5")

	variants = searchVariants("Pokemon Red/Blue")
	assert.Contains(t, variants, "pokémon Red/Blue")
	assert.Contains(t, variants, "Pokemon Red")
	assert.Contains(t, variants, "Pokemon Blue")

	variants = searchVariants("Sonic & Knuckles")
	assert.Contains(t, variants, "Sonic and Knuckles")

	variants = searchVariants("Kid Icarus (Hikari Shinwa: Palutena no Kagami)")
	assert.Contains(t, variants, "Kid Icarus")
	assert.Contains(t, variants, "Hikari Shinwa")

	variants = searchVariants("SNK Gals' Fighters")
	assert.Contains(t, variants, "SNK Gals Fighters")

	// No duplicates.
	seen := map[string]bool{}
	for _, variant := range searchVariants("Metroid - Mission Zero") {
		assert.False(t, seen[variant], "duplicate variant %q", variant)
		seen[variant] = true
	}
}

func TestRomanToArabic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Street Fighter 2", romanToArabic("Street Fighter II"))
	assert.Equal(t, "Final Fantasy 7", romanToArabic("Final Fantasy VII"))
	// V inside a word is untouched.
	assert.Empty(t, romanToArabic("Vega"))
	assert.Empty(t, romanToArabic("no numerals here"))
}
