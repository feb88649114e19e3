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

package scoring

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestRegionScoreIsMaxOfParts(t *testing.T) {
	t.Parallel()
	scorer := NewScorer(nil, nil)

	regions := []string{"USA", "Europe", "Japan", "World", "Brazil", "Korea"}

	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(regions), 1, 4).Draw(t, "parts")

		joined := strings.Join(parts, ", ")
		got := scorer.RegionScore(joined)

		want := 0
		for _, part := range parts {
			if s := scorer.RegionScore(part); s > want {
				want = s
			}
		}
		if got != want {
			t.Fatalf("score(%q) = %d, want max of parts %d", joined, got, want)
		}
	})
}

func TestAddingRegionNeverLowersScore(t *testing.T) {
	t.Parallel()
	scorer := NewScorer(nil, nil)

	regions := []string{"USA", "Europe", "Japan", "World", "Brazil"}

	rapid.Check(t, func(t *rapid.T) {
		base := rapid.SliceOfN(rapid.SampledFrom(regions), 1, 3).Draw(t, "base")
		extra := rapid.SampledFrom(regions).Draw(t, "extra")

		before := scorer.RegionScore(strings.Join(base, ","))
		after := scorer.RegionScore(strings.Join(append(base, extra), ","))
		if after < before {
			t.Fatalf("adding %q lowered score from %d to %d", extra, before, after)
		}
	})
}
