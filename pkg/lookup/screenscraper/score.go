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
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)

	diacriticStripper = transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
)

var scoreStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true,
	"or": true, "vs": true, "no": true, "to": true, "ni": true,
}

// normalizeName prepares a game name for fuzzy comparison: lowercase,
// diacritics stripped, leading articles and punctuation dropped.
func normalizeName(name string) string {
	name = strings.ToLower(name)

	if stripped, _, err := transform.String(diacriticStripper, name); err == nil {
		name = stripped
	}

	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(name, article) {
			name = name[len(article):]
			break
		}
	}

	name = punctuationPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(name, " "))
}

// matchScore rates the similarity of two game names from 0 to 1.
// Exact normalized matches score 1.0, substring containment 0.85,
// anything else by word overlap. A single shared distinctive word is
// boosted to 0.65 so translated titles that keep one word ("Rondo",
// "Gradius") still clear the acceptance threshold.
func matchScore(gameName, apiName string) float64 {
	normGame := normalizeName(gameName)
	normAPI := normalizeName(apiName)

	if normGame == normAPI {
		return 1.0
	}
	if normGame != "" && normAPI != "" &&
		(strings.Contains(normAPI, normGame) || strings.Contains(normGame, normAPI)) {
		return 0.85
	}

	gameWords := wordSet(normGame)
	apiWords := wordSet(normAPI)
	if len(gameWords) == 0 || len(apiWords) == 0 {
		return 0.0
	}

	overlap := 0
	significant := false
	for word := range gameWords {
		if !apiWords[word] {
			continue
		}
		overlap++
		if len(word) >= 5 && !scoreStopwords[word] {
			significant = true
		}
	}
	total := len(gameWords) + len(apiWords) - overlap

	score := float64(overlap) / float64(total)
	if score < 0.3 && significant {
		score = 0.65
	}
	return score
}

func wordSet(name string) map[string]bool {
	words := map[string]bool{}
	for _, word := range strings.Fields(name) {
		words[word] = true
	}
	return words
}

// bestMatch picks the candidate whose best-scoring name (primary or
// any regional) is highest.
func bestMatch(gameName string, candidates []gameResult) (gameResult, float64) {
	var best gameResult
	bestScore := 0.0
	for _, candidate := range candidates {
		names := append([]string{candidate.Name}, candidate.AllNames...)
		candidateScore := 0.0
		for _, name := range names {
			if name == "" {
				continue
			}
			if score := matchScore(gameName, name); score > candidateScore {
				candidateScore = score
			}
		}
		if candidateScore > bestScore {
			bestScore = candidateScore
			best = candidate
		}
	}
	return best, bestScore
}
