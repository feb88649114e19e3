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

package merge

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/cubicalbatch/romhoard-sub001/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *catalogdb.CatalogDB) {
	t.Helper()
	db, err := catalogdb.Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	detector := platforms.NewDetector(platforms.Defaults())
	return NewEngine(db, scoring.NewScorer(db, nil), detector), db
}

func mustTitle(t *testing.T, db *catalogdb.CatalogDB, title *catalogdb.Title) *catalogdb.Title {
	t.Helper()
	if title.PlatformSlug == "" {
		title.PlatformSlug = "snes"
	}
	if title.NameSource == "" {
		title.NameSource = catalogdb.SourceFilename
	}
	require.NoError(t, db.CreateTitle(title))
	return title
}

func mustVariant(t *testing.T, db *catalogdb.CatalogDB, titleID int64,
	region, revision string,
) *catalogdb.Variant {
	t.Helper()
	variant, created, err := db.GetOrCreateVariant(titleID, region, revision,
		fmt.Sprintf("/roms/t%d-%s-%s", titleID, region, revision))
	require.NoError(t, err)
	require.True(t, created)
	return variant
}

func mustFile(t *testing.T, db *catalogdb.CatalogDB, variantID int64,
	path, crc32, contentType string,
) *catalogdb.ContentFile {
	t.Helper()
	file := &catalogdb.ContentFile{
		VariantID:   variantID,
		FilePath:    path,
		FileName:    filepath.Base(path),
		FileSize:    1024,
		CRC32:       crc32,
		ContentType: contentType,
	}
	require.NoError(t, db.CreateContentFile(file))
	return file
}

func TestFindExistingTitlePriority(t *testing.T) {
	t.Parallel()
	_, db := newTestEngine(t)

	byHash := mustTitle(t, db, &catalogdb.Title{Name: "Hash Match"})
	hashVariant := mustVariant(t, db, byHash.DBID, "USA", "")
	mustFile(t, db, hashVariant.DBID, "/roms/hash.sfc", "cafebabe", "")

	byID := mustTitle(t, db, &catalogdb.Title{Name: "ID Match", ExternalID: 42})
	byName := mustTitle(t, db, &catalogdb.Title{Name: "Name Match"})

	// Hash beats external ID beats name.
	found, err := FindExistingTitle(db, "Name Match", "snes", "cafebabe", "", 42)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, byHash.DBID, found.DBID)

	found, err = FindExistingTitle(db, "Name Match", "snes", "", "", 42)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, byID.DBID, found.DBID)

	found, err = FindExistingTitle(db, "NAME MATCH", "snes", "", "", 0)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, byName.DBID, found.DBID)

	found, err = FindExistingTitle(db, "No Such Game", "snes", "", "", 0)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSelectCanonicalOrder(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	plain := mustTitle(t, db, &catalogdb.Title{Name: "galaga"})
	withID := mustTitle(t, db, &catalogdb.Title{Name: "Galaga", ExternalID: 7})

	canonical, err := engine.selectCanonical([]*catalogdb.Title{plain, withID})
	require.NoError(t, err)
	assert.Equal(t, withID.DBID, canonical.DBID)

	// Metadata breaks the tie when neither has an external ID.
	fetched := mustTitle(t, db, &catalogdb.Title{Name: "GALAGA", MetadataFetched: true})
	canonical, err = engine.selectCanonical([]*catalogdb.Title{plain, fetched})
	require.NoError(t, err)
	assert.Equal(t, fetched.DBID, canonical.DBID)

	// Image count next.
	withImage := mustTitle(t, db, &catalogdb.Title{Name: "GaLaGa"})
	require.NoError(t, db.AddImage(withImage.DBID, "/images/galaga-box.png", "box"))
	canonical, err = engine.selectCanonical([]*catalogdb.Title{plain, withImage})
	require.NoError(t, err)
	assert.Equal(t, withImage.DBID, canonical.DBID)

	// Name source rank next.
	verified := mustTitle(t, db, &catalogdb.Title{Name: "gAlAgA", NameSource: catalogdb.SourceNoIntros})
	canonical, err = engine.selectCanonical([]*catalogdb.Title{plain, verified})
	require.NoError(t, err)
	assert.Equal(t, verified.DBID, canonical.DBID)

	// Older record wins otherwise.
	younger := mustTitle(t, db, &catalogdb.Title{Name: "galagA"})
	canonical, err = engine.selectCanonical([]*catalogdb.Title{plain, younger})
	require.NoError(t, err)
	assert.Equal(t, plain.DBID, canonical.DBID)
}

func TestMergeGroupMovesVariants(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	canonical := mustTitle(t, db, &catalogdb.Title{Name: "Metroid", ExternalID: 5})
	keep := mustVariant(t, db, canonical.DBID, "USA", "")
	mustFile(t, db, keep.DBID, "/roms/metroid-usa.sfc", "11111111", "")

	duplicate := mustTitle(t, db, &catalogdb.Title{Name: "metroid"})
	moved := mustVariant(t, db, duplicate.DBID, "Japan", "")
	mustFile(t, db, moved.DBID, "/roms/metroid-jp.sfc", "22222222", "")

	summary, err := engine.MergeGroup([]*catalogdb.Title{canonical, duplicate})
	require.NoError(t, err)
	assert.Equal(t, canonical.DBID, summary.CanonicalID)
	assert.Equal(t, []int64{duplicate.DBID}, summary.MergedTitleIDs)
	assert.Equal(t, 1, summary.VariantsMoved)
	assert.Equal(t, 1, summary.FilesMoved)

	gone, err := db.GetTitle(duplicate.DBID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	variants, err := db.ListVariantsByTitle(canonical.DBID)
	require.NoError(t, err)
	assert.Len(t, variants, 2)
}

func TestMergeGroupCollisionFoldsCompatibleFiles(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	canonical := mustTitle(t, db, &catalogdb.Title{Name: "Zelda", ExternalID: 9})
	keep := mustVariant(t, db, canonical.DBID, "USA", "Rev 1")
	mustFile(t, db, keep.DBID, "/roms/zelda-a.sfc", "aaaa0001", "")

	duplicate := mustTitle(t, db, &catalogdb.Title{Name: "zelda"})
	colliding := mustVariant(t, db, duplicate.DBID, "USA", "Rev 1")
	mustFile(t, db, colliding.DBID, "/roms/zelda-b.sfc", "aaaa0002", "")

	summary, err := engine.MergeGroup([]*catalogdb.Title{canonical, duplicate})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.VariantsMoved)
	assert.Equal(t, 1, summary.FilesMoved)

	variants, err := db.ListVariantsByTitle(canonical.DBID)
	require.NoError(t, err)
	require.Len(t, variants, 1)

	files, err := db.ListContentFilesByVariant(keep.DBID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestMergeGroupKeepsIncompatibleVariantsSeparate(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	canonical := mustTitle(t, db, &catalogdb.Title{
		Name: "Splatoon", PlatformSlug: "switch", ExternalID: 3,
	})
	base := mustVariant(t, db, canonical.DBID, "USA", "")
	mustFile(t, db, base.DBID, "/roms/splatoon.nsp", "bbbb0001", "base")

	duplicate := mustTitle(t, db, &catalogdb.Title{Name: "splatoon", PlatformSlug: "switch"})
	updateOnly := mustVariant(t, db, duplicate.DBID, "USA", "")
	mustFile(t, db, updateOnly.DBID, "/roms/splatoon-upd.nsp", "bbbb0002", "update")
	mustFile(t, db, updateOnly.DBID, "/roms/splatoon-dlc.nsp", "bbbb0003", "dlc")

	summary, err := engine.MergeGroup([]*catalogdb.Title{canonical, duplicate})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.VariantsMoved)
	assert.Equal(t, 2, summary.FilesMoved)

	variants, err := db.ListVariantsByTitle(canonical.DBID)
	require.NoError(t, err)
	require.Len(t, variants, 2)

	revisions := []string{variants[0].Revision, variants[1].Revision}
	assert.Contains(t, revisions, "")
	assert.Contains(t, revisions, "(dlc-update)")

	// The base variant stays the default; an update-only variant must
	// never win.
	merged, err := db.GetTitle(canonical.DBID)
	require.NoError(t, err)
	assert.Equal(t, base.DBID, merged.DefaultVariantID)
}

func TestMergeGroupConservation(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	group := make([]*catalogdb.Title, 0, 3)
	total := 0
	for i, name := range []string{"Kirby", "kirby", "KIRBY"} {
		title := mustTitle(t, db, &catalogdb.Title{Name: name})
		variant := mustVariant(t, db, title.DBID, "USA", fmt.Sprintf("Rev %d", i))
		for j := 0; j <= i; j++ {
			mustFile(t, db, variant.DBID,
				fmt.Sprintf("/roms/kirby-%d-%d.sfc", i, j),
				fmt.Sprintf("cccc%02d%02d", i, j), "")
			total++
		}
		group = append(group, title)
	}

	summary, err := engine.MergeGroup(group)
	require.NoError(t, err)
	assert.Len(t, summary.MergedTitleIDs, 2)

	variants, err := db.ListVariantsByTitle(summary.CanonicalID)
	require.NoError(t, err)
	after := 0
	for _, variant := range variants {
		files, err := db.ListContentFilesByVariant(variant.DBID)
		require.NoError(t, err)
		after += len(files)
	}
	assert.Equal(t, total, after)

	for _, id := range summary.MergedTitleIDs {
		gone, err := db.GetTitle(id)
		require.NoError(t, err)
		assert.Nil(t, gone)
	}
}

func TestMergeGroupImages(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	canonical := mustTitle(t, db, &catalogdb.Title{Name: "Pilotwings", ExternalID: 8})
	require.NoError(t, db.AddImage(canonical.DBID, "/images/pw-box.png", "box"))

	duplicate := mustTitle(t, db, &catalogdb.Title{Name: "pilotwings"})
	require.NoError(t, db.AddImage(duplicate.DBID, "/images/pw-box-alt.png", "box"))
	require.NoError(t, db.AddImage(duplicate.DBID, "/images/pw-shot.png", "screenshot"))

	summary, err := engine.MergeGroup([]*catalogdb.Title{canonical, duplicate})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ImagesMoved)
	assert.Equal(t, 1, summary.ImagesDeleted)

	images, err := db.ListImagesByTitle(canonical.DBID)
	require.NoError(t, err)
	require.Len(t, images, 2)
}

func TestMergeGroupBackfillsMetadata(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	// The older plain record wins canonical selection only when the
	// duplicate has no external ID, so give both one and strip the
	// fields being backfilled onto the canonical.
	canonical := mustTitle(t, db, &catalogdb.Title{Name: "F-Zero", ExternalID: 12})
	duplicate := mustTitle(t, db, &catalogdb.Title{
		Name: "f-zero", ExternalID: 12, MetadataFetched: true,
	})

	_, err := engine.MergeGroup([]*catalogdb.Title{canonical, duplicate})
	require.NoError(t, err)

	merged, err := db.GetTitle(canonical.DBID)
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.True(t, merged.MetadataFetched)
	assert.Equal(t, int64(12), merged.ExternalID)
}

func TestMergeGroupRecomputesDefaultVariant(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	canonical := mustTitle(t, db, &catalogdb.Title{Name: "Contra", ExternalID: 4})
	japan := mustVariant(t, db, canonical.DBID, "Japan", "")
	mustFile(t, db, japan.DBID, "/roms/contra-jp.sfc", "dddd0001", "")
	require.NoError(t, db.SetDefaultVariant(canonical.DBID, japan.DBID))

	duplicate := mustTitle(t, db, &catalogdb.Title{Name: "contra"})
	usa := mustVariant(t, db, duplicate.DBID, "USA", "")
	mustFile(t, db, usa.DBID, "/roms/contra-us.sfc", "dddd0002", "")

	_, err := engine.MergeGroup([]*catalogdb.Title{canonical, duplicate})
	require.NoError(t, err)

	merged, err := db.GetTitle(canonical.DBID)
	require.NoError(t, err)
	assert.Equal(t, usa.DBID, merged.DefaultVariantID)
}

func TestMergeGroupErrors(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	only := mustTitle(t, db, &catalogdb.Title{Name: "Solo"})
	_, err := engine.MergeGroup([]*catalogdb.Title{only})
	require.ErrorIs(t, err, ErrGroupTooSmall)

	snes := mustTitle(t, db, &catalogdb.Title{Name: "Cross"})
	nes := mustTitle(t, db, &catalogdb.Title{Name: "Cross", PlatformSlug: "nes"})
	_, err = engine.MergeGroup([]*catalogdb.Title{snes, nes})
	require.ErrorIs(t, err, ErrPlatformMismatch)
}

func TestFindDuplicateGroupsDeduplicates(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)

	// Same pair is found by name case AND shared CRC32; it must be
	// reported once.
	first := mustTitle(t, db, &catalogdb.Title{Name: "Gradius"})
	firstVariant := mustVariant(t, db, first.DBID, "USA", "")
	mustFile(t, db, firstVariant.DBID, "/roms/gradius-a.sfc", "eeee0001", "")

	second := mustTitle(t, db, &catalogdb.Title{Name: "gradius"})
	secondVariant := mustVariant(t, db, second.DBID, "USA", "")
	mustFile(t, db, secondVariant.DBID, "/roms/gradius-b.sfc", "eeee0001", "")

	groups, err := engine.FindDuplicateGroups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 2)
}
