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

// Package scoring ranks a title's variants to pick the default one:
// preferred regions first, loose files over crowded archives, and
// content bundles that carry a base game over update-only ones.
package scoring

import (
	"fmt"
	"strings"

	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/parser"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/rs/zerolog/log"
)

const (
	defaultRegionWeight = 200

	looseFileBonus   = 150
	soleArchiveBonus = 100
	crowdPenaltyCap  = 75

	missingBasePenalty = 5000
)

// DefaultRegionWeights is the built-in region preference table.
// Unlisted regions score defaultRegionWeight.
var DefaultRegionWeights = map[string]int{
	"USA":    1000,
	"Europe": 800,
	"Japan":  600,
	"World":  400,
}

// Scorer computes variant scores against one catalog.
type Scorer struct {
	db      *catalogdb.CatalogDB
	weights map[string]int
}

// NewScorer builds a scorer. Overrides are merged over the built-in
// region weights.
func NewScorer(db *catalogdb.CatalogDB, overrides map[string]int) *Scorer {
	weights := make(map[string]int, len(DefaultRegionWeights)+len(overrides))
	for region, weight := range DefaultRegionWeights {
		weights[region] = weight
	}
	for region, weight := range overrides {
		weights[region] = weight
	}
	return &Scorer{db: db, weights: weights}
}

// RegionScore scores a region field. Multi-region fields score as
// their best region.
func (s *Scorer) RegionScore(region string) int {
	best := 0
	for _, part := range strings.Split(region, ",") {
		part = strings.TrimSpace(part)
		weight, ok := s.weights[part]
		if !ok {
			weight = defaultRegionWeight
		}
		if weight > best {
			best = weight
		}
	}
	return best
}

// VariantScore scores one variant given its content files. Higher is
// better.
func (s *Scorer) VariantScore(variant *catalogdb.Variant, files []*catalogdb.ContentFile, platform *platforms.Platform) (int, error) {
	score := s.RegionScore(variant.Region)

	adjust, err := s.storageAdjustment(files)
	if err != nil {
		return 0, err
	}
	score += adjust

	if platform != nil && platform.UsesContentTypes && missingBase(files) {
		score -= missingBasePenalty
	}
	return score, nil
}

// storageAdjustment rewards loose files and lone-game archives and
// penalizes archives shared by many games. A variant spanning several
// files takes its worst file's adjustment.
func (s *Scorer) storageAdjustment(files []*catalogdb.ContentFile) (int, error) {
	if len(files) == 0 {
		return 0, nil
	}

	worst := 0
	first := true
	for _, file := range files {
		var adjust int
		if file.ArchivePath == "" {
			adjust = looseFileBonus
		} else {
			count, err := s.db.CountContentFilesInArchive(file.ArchivePath)
			if err != nil {
				return 0, err
			}
			if count <= 1 {
				adjust = soleArchiveBonus
			} else {
				penalty := 2 * count
				if penalty > crowdPenaltyCap {
					penalty = crowdPenaltyCap
				}
				adjust = -penalty
			}
		}
		if first || adjust < worst {
			worst = adjust
			first = false
		}
	}
	return worst, nil
}

// missingBase reports whether the files carry content types but none
// of them is a base game.
func missingBase(files []*catalogdb.ContentFile) bool {
	typed := false
	for _, file := range files {
		if file.ContentType == "" {
			continue
		}
		typed = true
		if file.ContentType == parser.ContentTypeBase {
			return false
		}
	}
	return typed
}

// RecalculateDefaultVariant rescans a title's variants and stores the
// best-scoring one as the default. Only variants that still hold at
// least one content file qualify; ties keep the oldest variant.
func (s *Scorer) RecalculateDefaultVariant(titleID int64, platform *platforms.Platform) error {
	variants, err := s.db.ListVariantsByTitle(titleID)
	if err != nil {
		return err
	}

	var bestID int64
	bestScore := 0
	for _, variant := range variants {
		files, err := s.db.ListContentFilesByVariant(variant.DBID)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			log.Debug().
				Int64("variant", variant.DBID).
				Str("region", variant.Region).
				Msg("skipped empty variant")
			continue
		}
		score, err := s.VariantScore(variant, files, platform)
		if err != nil {
			return err
		}
		log.Debug().
			Int64("variant", variant.DBID).
			Str("region", variant.Region).
			Int("score", score).
			Msg("scored variant")
		if bestID == 0 || score > bestScore {
			bestID = variant.DBID
			bestScore = score
		}
	}

	if err := s.db.SetDefaultVariant(titleID, bestID); err != nil {
		return fmt.Errorf("failed to store default variant: %w", err)
	}
	return nil
}
