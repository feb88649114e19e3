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

package catalogdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
)

// SeedPlatforms upserts the platform definitions into the database so
// the catalog records which configuration produced it. Existing rows
// are overwritten by slug.
func (db *CatalogDB) SeedPlatforms(defs []platforms.Platform) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlSeedPlatforms(db.ctx, db.sql, defs)
}

/*
 * Internal SQL functions
 */

func sqlSeedPlatforms(ctx context.Context, db *sql.DB, defs []platforms.Platform) error {
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO Platforms (
			Slug, Name, Extensions, ExclusiveExtensions, FolderNames,
			ExternalIDs, ArchiveIsContent, UsesContentTypes
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (Slug) DO UPDATE SET
			Name = excluded.Name,
			Extensions = excluded.Extensions,
			ExclusiveExtensions = excluded.ExclusiveExtensions,
			FolderNames = excluded.FolderNames,
			ExternalIDs = excluded.ExternalIDs,
			ArchiveIsContent = excluded.ArchiveIsContent,
			UsesContentTypes = excluded.UsesContentTypes;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare platform upsert statement: %w", err)
	}
	defer closeStmt(stmt)

	for i := range defs {
		def := &defs[i]
		extensions, err := jsonList(def.Extensions)
		if err != nil {
			return err
		}
		exclusive, err := jsonList(def.ExclusiveExtensions)
		if err != nil {
			return err
		}
		folders, err := jsonList(def.FolderNames)
		if err != nil {
			return err
		}
		externalIDs, err := jsonList(def.ExternalIDs)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			def.Slug, def.Name, extensions, exclusive, folders,
			externalIDs, def.ArchiveIsContent, def.UsesContentTypes); err != nil {
			return fmt.Errorf("failed to upsert platform %s: %w", def.Slug, err)
		}
	}
	return nil
}

func jsonList[T any](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode platform list column: %w", err)
	}
	return string(encoded), nil
}
