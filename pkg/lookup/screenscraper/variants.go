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
)

var (
	dashSpacePattern    = regexp.MustCompile(`\s*-\s*`)
	colonSpacePattern   = regexp.MustCompile(`\s*:\s*`)
	titleSeparator      = regexp.MustCompile(`[:\-]`)
	parenGroupPattern   = regexp.MustCompile(`\s*\([^)]+\)`)
	parenContentPattern = regexp.MustCompile(`\(([^)]+)\)`)
	yearPattern         = regexp.MustCompile(`^'?\d{2,4}$`)
)

var variantStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true,
	"and": true, "or": true, "vs": true, "vs.": true,
}

var romanNumerals = []struct {
	pattern *regexp.Regexp
	arabic  string
}{
	{regexp.MustCompile(`\bVIII\b`), "8"},
	{regexp.MustCompile(`\bVII\b`), "7"},
	{regexp.MustCompile(`\bIII\b`), "3"},
	{regexp.MustCompile(`\bII\b`), "2"},
	{regexp.MustCompile(`\bIV\b`), "4"},
	{regexp.MustCompile(`\bVI\b`), "6"},
	{regexp.MustCompile(`\bIX\b`), "9"},
	{regexp.MustCompile(`\bV\b`), "5"},
	{regexp.MustCompile(`\bX\b`), "10"},
}

var pokemonPattern = regexp.MustCompile(`(?i)pokemon`)

// searchVariants generates query strings to try in order when the
// exact name finds nothing: punctuation reshuffles, title/subtitle
// splits, distinctive single words, Roman numeral and accent fixes,
// and slash-separated multi-version halves.
func searchVariants(name string) []string {
	var variants []string
	seen := map[string]bool{}
	add := func(variant string) {
		variant = strings.TrimSpace(variant)
		if variant == "" || seen[variant] {
			return
		}
		seen[variant] = true
		variants = append(variants, variant)
	}

	// The index stores "Name, The", so strip the leading article.
	base := strings.TrimSpace(name)
	if len(base) >= 4 && strings.EqualFold(base[:4], "the ") {
		base = strings.TrimSpace(base[4:])
	}
	add(base)

	if strings.Contains(base, "&") {
		add(strings.ReplaceAll(base, "&", "and"))
	}
	if strings.Contains(base, "-") {
		add(collapseSpaces(dashSpacePattern.ReplaceAllString(base, " ")))
	}
	if strings.Contains(base, ":") {
		add(collapseSpaces(strings.ReplaceAll(base, ":", " -")))
		add(collapseSpaces(colonSpacePattern.ReplaceAllString(base, " ")))
	}

	if loc := titleSeparator.FindStringIndex(base); loc != nil {
		mainTitle := strings.TrimSpace(base[:loc[0]])
		if len(mainTitle) >= 3 {
			add(mainTitle)
		}
		add(strings.TrimSpace(base[loc[1]:]))
	}

	if strings.Contains(base, "'") {
		add(collapseSpaces(strings.ReplaceAll(base, "'", "")))
	}

	words := strings.Fields(base)
	if len(words) >= 4 {
		if first := firstSignificantWord(words); first != "" {
			add(first)
		}
	}

	// A subtitle like "Rondo of Blood" matched by its one distinctive
	// word finds retitled releases ("Akumajou Dracula X - Chi No Rondo").
	if loc := titleSeparator.FindStringIndex(base); loc != nil {
		subtitleWords := strings.Fields(strings.TrimSpace(base[loc[1]:]))
		if len(subtitleWords) >= 3 && containsStopword(subtitleWords) {
			if first := firstSignificantWord(subtitleWords); first != "" {
				add(first)
			}
		}
	}

	if western := romanToArabic(base); western != "" {
		add(western)
	}
	if accented := pokemonAccent(base); accented != "" {
		add(accented)
	}

	if loc := parenGroupPattern.FindStringIndex(base); loc != nil {
		beforeParen := strings.TrimSpace(base[:loc[0]])
		if len(beforeParen) >= 3 {
			add(beforeParen)
		}
	}
	if match := parenContentPattern.FindStringSubmatch(base); match != nil {
		content := strings.TrimSpace(match[1])
		if !yearPattern.MatchString(content) {
			if inner := titleSeparator.FindStringIndex(content); inner != nil {
				firstPart := strings.TrimSpace(content[:inner[0]])
				if len(firstPart) >= 3 {
					add(firstPart)
				}
			}
			if len(content) >= 3 {
				add(content)
			}
		}
	}

	// "Pokemon Red/Blue" also searches as "Pokemon Red" and
	// "Pokemon Blue".
	if parts := strings.Split(base, "/"); len(parts) == 2 {
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(parts[1])
		if idx := strings.LastIndex(left, " "); idx > 0 {
			prefix := left[:idx]
			add(left)
			add(prefix + " " + right)
		}
	}

	return variants
}

func collapseSpaces(name string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(name, " "))
}

func containsStopword(words []string) bool {
	for _, word := range words {
		if variantStopwords[strings.ToLower(word)] {
			return true
		}
	}
	return false
}

func firstSignificantWord(words []string) string {
	for _, word := range words {
		if len(word) >= 3 && !variantStopwords[strings.ToLower(word)] {
			return word
		}
	}
	return ""
}

// romanToArabic rewrites standalone uppercase Roman numerals II-X as
// numbers. Returns "" when nothing changed.
func romanToArabic(name string) string {
	result := name
	for _, numeral := range romanNumerals {
		result = numeral.pattern.ReplaceAllString(result, numeral.arabic)
	}
	if result == name {
		return ""
	}
	return result
}

// pokemonAccent restores the accent the index spells the franchise
// with. Returns "" when nothing changed.
func pokemonAccent(name string) string {
	result := pokemonPattern.ReplaceAllString(name, "pokémon")
	if result == name {
		return ""
	}
	return result
}
