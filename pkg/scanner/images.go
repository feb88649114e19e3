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

package scanner

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/parser"
	"github.com/rs/zerolog/log"
)

var imagePunctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// matchImages assigns the artwork collected during the walk to titles.
// It runs after the walk so every title the images could belong to
// already exists.
func (s *Scanner) matchImages(state *scanState, summary *Summary) {
	titlesBySlug := make(map[string][]*catalogdb.Title)

	for _, image := range state.images {
		existing, err := s.db.FindImageByPath(image.path)
		if err != nil {
			s.recordError(summary, image.path, err)
			continue
		}
		if existing != nil {
			summary.ImagesSkipped++
			continue
		}

		slug := image.platform.Slug
		titles, ok := titlesBySlug[slug]
		if !ok {
			titles, err = s.db.ListTitlesByPlatform(slug)
			if err != nil {
				s.recordError(summary, image.path, err)
				continue
			}
			titlesBySlug[slug] = titles
		}

		stem, _ := parser.StemAndExtension(filepath.Base(image.path))
		title := matchImageToTitle(stem, titles)
		if title == nil {
			continue
		}

		if err := s.db.AddImage(title.DBID, image.path, detectImageType(image.path)); err != nil {
			s.recordError(summary, image.path, err)
			continue
		}
		summary.ImagesAdded++
		log.Debug().
			Str("image", image.path).
			Str("title", title.Name).
			Msg("matched image to title")
	}
}

// matchImageToTitle picks the title an image file belongs to: an
// exact normalized name match wins, otherwise the longest
// word-boundary prefix match in either direction.
func matchImageToTitle(stem string, titles []*catalogdb.Title) *catalogdb.Title {
	normalized := normalizeForMatching(stem)
	if normalized == "" {
		return nil
	}

	for _, title := range titles {
		if normalizeForMatching(title.Name) == normalized {
			return title
		}
	}

	var best *catalogdb.Title
	var bestScore float64
	for _, title := range titles {
		candidate := normalizeForMatching(title.Name)
		if candidate == "" {
			continue
		}
		var short, long string
		if len(candidate) < len(normalized) {
			short, long = candidate, normalized
		} else {
			short, long = normalized, candidate
		}
		if !strings.HasPrefix(long, short) {
			continue
		}
		// The prefix has to end on a word boundary so "mario" does
		// not claim "mario kart" screenshots over "mario" itself
		// while still allowing "mario usa".
		if len(long) > len(short) && long[len(short)] != ' ' {
			continue
		}
		score := float64(len(short)) / float64(len(long))
		if score > bestScore {
			bestScore = score
			best = title
		}
	}
	return best
}

// normalizeForMatching lowercases, turns underscores into spaces,
// strips punctuation and collapses whitespace.
func normalizeForMatching(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", " ")
	name = imagePunctuation.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// detectImageType classifies artwork by its path. Unrecognized paths
// get an empty type rather than a guess.
func detectImageType(imagePath string) string {
	lower := strings.ToLower(imagePath)
	hasBox := strings.Contains(lower, "box") || strings.Contains(lower, "cover")
	hasScreen := strings.Contains(lower, "screenshot")
	switch {
	case strings.Contains(lower, "mix"):
		return "mix"
	case hasBox && hasScreen:
		return "mix"
	case hasBox:
		return "cover"
	case hasScreen:
		return "screenshot"
	}
	return ""
}
