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

// Package merge finds duplicate Titles and folds them into a single
// canonical record without losing any content files.
package merge

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/parser"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/cubicalbatch/romhoard-sub001/pkg/scoring"
	"github.com/rs/zerolog/log"
)

var (
	ErrSelfMerge        = errors.New("cannot merge a title into itself")
	ErrPlatformMismatch = errors.New("cannot merge titles from different platforms")
	ErrGroupTooSmall    = errors.New("merge group needs at least two titles")
)

// Engine merges duplicate Titles. The scorer recomputes the default
// Variant after each merge, and the detector resolves platform rules
// for content-type scoring.
type Engine struct {
	db       *catalogdb.CatalogDB
	scorer   *scoring.Scorer
	detector *platforms.Detector
}

func NewEngine(db *catalogdb.CatalogDB, scorer *scoring.Scorer, detector *platforms.Detector) *Engine {
	return &Engine{db: db, scorer: scorer, detector: detector}
}

// Summary reports what one MergeGroup call moved and removed. Callers
// that queue identification work externally re-home their pending jobs
// from MergedTitleIDs to CanonicalID.
type Summary struct {
	MergedTitleIDs []int64
	CanonicalID    int64
	VariantsMoved  int
	FilesMoved     int
	ImagesMoved    int
	ImagesDeleted  int
}

// FindExistingTitle finds a catalog match for a freshly identified
// file. Hash matches are the most reliable and checked first, then the
// external ID, then the case-insensitive name.
func FindExistingTitle(db *catalogdb.CatalogDB, name, platformSlug, crc32, sha1 string,
	externalID int64,
) (*catalogdb.Title, error) {
	if crc32 != "" {
		title, err := db.FindTitleByCRC32(crc32, platformSlug)
		if err != nil {
			return nil, err
		}
		if title != nil {
			return title, nil
		}
	}
	if sha1 != "" {
		title, err := db.FindTitleBySHA1(sha1, platformSlug)
		if err != nil {
			return nil, err
		}
		if title != nil {
			return title, nil
		}
	}
	if externalID != 0 {
		title, err := db.FindTitleByExternalID(externalID, platformSlug)
		if err != nil {
			return nil, err
		}
		if title != nil {
			return title, nil
		}
	}
	return db.FindTitleByName(name, platformSlug)
}

// FindDuplicateGroups runs all three duplicate finders: shared
// external ID, case-insensitive name, and shared ContentFile CRC32.
// Groups with identical membership are reported once.
func (e *Engine) FindDuplicateGroups() ([][]*catalogdb.Title, error) {
	finders := []func() ([][]*catalogdb.Title, error){
		e.db.DuplicateExternalIDGroups,
		e.db.DuplicateNameGroups,
		e.db.DuplicateCRC32Groups,
	}

	seen := make(map[string]bool)
	var groups [][]*catalogdb.Title
	for _, finder := range finders {
		found, err := finder()
		if err != nil {
			return nil, err
		}
		for _, group := range found {
			key := groupKey(group)
			if seen[key] {
				continue
			}
			seen[key] = true
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func groupKey(group []*catalogdb.Title) string {
	ids := make([]int64, 0, len(group))
	for _, title := range group {
		ids = append(ids, title.DBID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// MergeGroup folds every duplicate in the group into the canonical
// title and returns what moved. The canonical is chosen by authority:
// external ID, fetched metadata, image count, name source rank, then
// the older record.
func (e *Engine) MergeGroup(group []*catalogdb.Title) (*Summary, error) {
	if len(group) < 2 {
		return nil, ErrGroupTooSmall
	}
	for _, title := range group[1:] {
		if title.PlatformSlug != group[0].PlatformSlug {
			return nil, ErrPlatformMismatch
		}
	}

	canonical, err := e.selectCanonical(group)
	if err != nil {
		return nil, err
	}

	summary := &Summary{CanonicalID: canonical.DBID}
	for _, duplicate := range group {
		if duplicate.DBID == canonical.DBID {
			continue
		}
		if err := e.mergeInto(canonical, duplicate, summary); err != nil {
			return nil, err
		}
		summary.MergedTitleIDs = append(summary.MergedTitleIDs, duplicate.DBID)
	}

	platform := e.detector.BySlug(canonical.PlatformSlug)
	if err := e.scorer.RecalculateDefaultVariant(canonical.DBID, platform); err != nil {
		return nil, err
	}
	return summary, nil
}

// selectCanonical picks the best title to keep. Candidates are
// compared field by field; the first difference decides.
func (e *Engine) selectCanonical(group []*catalogdb.Title) (*catalogdb.Title, error) {
	best := group[0]
	bestImages, err := e.db.CountImages(best.DBID)
	if err != nil {
		return nil, err
	}

	for _, candidate := range group[1:] {
		images, err := e.db.CountImages(candidate.DBID)
		if err != nil {
			return nil, err
		}
		if betterCanonical(candidate, images, best, bestImages) {
			best = candidate
			bestImages = images
		}
	}
	return best, nil
}

func betterCanonical(a *catalogdb.Title, aImages int, b *catalogdb.Title, bImages int) bool {
	if (a.ExternalID != 0) != (b.ExternalID != 0) {
		return a.ExternalID != 0
	}
	if a.MetadataFetched != b.MetadataFetched {
		return a.MetadataFetched
	}
	if aImages != bImages {
		return aImages > bImages
	}
	aRank, bRank := catalogdb.SourceRank(a.NameSource), catalogdb.SourceRank(b.NameSource)
	if aRank != bRank {
		return aRank > bRank
	}
	return a.DBID < b.DBID
}

func (e *Engine) mergeInto(canonical, duplicate *catalogdb.Title, summary *Summary) error {
	if canonical.DBID == duplicate.DBID {
		return ErrSelfMerge
	}

	log.Info().
		Str("duplicate", duplicate.Name).Int64("duplicateID", duplicate.DBID).
		Str("canonical", canonical.Name).Int64("canonicalID", canonical.DBID).
		Msg("merging duplicate title")

	variants, err := e.db.ListVariantsByTitle(duplicate.DBID)
	if err != nil {
		return err
	}
	for _, variant := range variants {
		if err := e.moveVariant(canonical, variant, summary); err != nil {
			return err
		}
	}

	if err := e.moveImages(canonical, duplicate, summary); err != nil {
		return err
	}
	if err := e.backfillMetadata(canonical, duplicate); err != nil {
		return err
	}

	if err := e.db.DeleteTitle(duplicate.DBID); err != nil {
		return fmt.Errorf("failed to delete merged title: %w", err)
	}
	return nil
}

// moveVariant re-homes one of the duplicate's variants. A canonical
// variant with the same region and revision absorbs the files when
// their content types are compatible; otherwise the incoming variant
// keeps its identity under a revision label naming its content types.
func (e *Engine) moveVariant(canonical *catalogdb.Title, variant *catalogdb.Variant,
	summary *Summary,
) error {
	files, err := e.db.ListContentFilesByVariant(variant.DBID)
	if err != nil {
		return err
	}

	existing, err := e.findCollision(canonical.DBID, variant.Region, variant.Revision)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := e.db.MoveVariantToTitle(variant.DBID, canonical.DBID); err != nil {
			return err
		}
		summary.VariantsMoved++
		summary.FilesMoved += len(files)
		return nil
	}

	existingFiles, err := e.db.ListContentFilesByVariant(existing.DBID)
	if err != nil {
		return err
	}
	if compatibleContentTypes(contentTypes(existingFiles), contentTypes(files)) {
		if err := e.db.MoveContentFilesToVariant(variant.DBID, existing.DBID); err != nil {
			return err
		}
		if err := e.db.DeleteVariant(variant.DBID); err != nil {
			return err
		}
		summary.FilesMoved += len(files)
		return nil
	}

	// Same region/revision but e.g. base files on one side and update
	// files on the other. Keep the variant distinct under a revision
	// naming its content types.
	label := "(merged)"
	if types := contentTypes(files); len(types) > 0 {
		label = "(" + strings.Join(types, "-") + ")"
	}
	if err := e.db.UpdateVariantRevision(variant.DBID, label); err != nil {
		return err
	}
	if err := e.db.MoveVariantToTitle(variant.DBID, canonical.DBID); err != nil {
		return err
	}
	log.Debug().
		Str("region", variant.Region).Str("revision", label).
		Msg("kept incompatible variant under synthesized revision")
	summary.VariantsMoved++
	summary.FilesMoved += len(files)
	return nil
}

// findCollision finds a canonical variant matching on region and
// revision, regardless of source path.
func (e *Engine) findCollision(titleID int64, region, revision string) (*catalogdb.Variant, error) {
	variants, err := e.db.ListVariantsByTitle(titleID)
	if err != nil {
		return nil, err
	}
	for _, variant := range variants {
		if variant.Region == region && variant.Revision == revision {
			return variant, nil
		}
	}
	return nil, nil //nolint:nilnil // absence is not an error
}

func (e *Engine) moveImages(canonical, duplicate *catalogdb.Title, summary *Summary) error {
	dupCount, err := e.db.CountImages(duplicate.DBID)
	if err != nil {
		return err
	}
	if dupCount == 0 {
		return nil
	}
	before, err := e.db.CountImages(canonical.DBID)
	if err != nil {
		return err
	}
	if err := e.db.MoveImages(duplicate.DBID, canonical.DBID); err != nil {
		return err
	}
	after, err := e.db.CountImages(canonical.DBID)
	if err != nil {
		return err
	}
	summary.ImagesMoved += after - before
	summary.ImagesDeleted += dupCount - (after - before)
	return nil
}

// backfillMetadata copies fields the canonical record is missing.
func (e *Engine) backfillMetadata(canonical, duplicate *catalogdb.Title) error {
	changed := false
	if canonical.ExternalID == 0 && duplicate.ExternalID != 0 {
		canonical.ExternalID = duplicate.ExternalID
		changed = true
	}
	if !canonical.MetadataFetched && duplicate.MetadataFetched {
		canonical.MetadataFetched = true
		changed = true
	}
	if !changed {
		return nil
	}
	return e.db.UpdateTitle(canonical)
}

// contentTypes returns the sorted distinct non-empty content types of
// a variant's files.
func contentTypes(files []*catalogdb.ContentFile) []string {
	set := make(map[string]bool)
	for _, file := range files {
		if file.ContentType != "" {
			set[file.ContentType] = true
		}
	}
	types := make([]string, 0, len(set))
	for contentType := range set {
		types = append(types, contentType)
	}
	sort.Strings(types)
	return types
}

// compatibleContentTypes reports whether two variants' file sets may
// share one variant record. A base-only set must not fold into an
// update/DLC-only set, or the scorer would treat the updates as a
// playable base game.
func compatibleContentTypes(typesA, typesB []string) bool {
	if len(typesA) == 0 || len(typesB) == 0 {
		return true
	}
	baseA, addonA := splitTypes(typesA)
	baseB, addonB := splitTypes(typesB)
	if baseA && !addonA && !baseB && addonB {
		return false
	}
	if baseB && !addonB && !baseA && addonA {
		return false
	}
	return true
}

func splitTypes(types []string) (hasBase, hasAddon bool) {
	for _, contentType := range types {
		switch contentType {
		case parser.ContentTypeBase:
			hasBase = true
		case parser.ContentTypeUpdate, parser.ContentTypeDLC:
			hasAddon = true
		}
	}
	return hasBase, hasAddon
}
