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
	"errors"
	"fmt"
	"time"
)

// GetOrCreateVariant looks up the variant keyed by (title, region,
// revision, source path), creating it when missing. A create that
// loses a race to another worker falls back to the lookup.
func (db *CatalogDB) GetOrCreateVariant(titleID int64, region, revision, sourcePath string) (*Variant, bool, error) {
	if db.sql == nil {
		return nil, false, ErrNullSQL
	}
	return sqlGetOrCreateVariant(db.ctx, db.sql, titleID, region, revision, sourcePath)
}

// FindVariant fetches a variant by its unique key, or nil when absent.
func (db *CatalogDB) FindVariant(titleID int64, region, revision, sourcePath string) (*Variant, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindVariant(db.ctx, db.sql, titleID, region, revision, sourcePath)
}

// GetVariant fetches a variant by DBID, or nil when absent.
func (db *CatalogDB) GetVariant(id int64) (*Variant, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetVariant(db.ctx, db.sql, id)
}

// ListVariantsByTitle returns every variant of a title.
func (db *CatalogDB) ListVariantsByTitle(titleID int64) ([]*Variant, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListVariantsByTitle(db.ctx, db.sql, titleID)
}

// MoveVariantToTitle re-homes a variant onto another title. A unique
// violation means the destination already has a variant with the same
// key; callers resolve the collision.
func (db *CatalogDB) MoveVariantToTitle(variantID, titleID int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMoveVariantToTitle(db.ctx, db.sql, variantID, titleID)
}

// UpdateVariantRevision rewrites a variant's revision label.
func (db *CatalogDB) UpdateVariantRevision(variantID int64, revision string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlUpdateVariantRevision(db.ctx, db.sql, variantID, revision)
}

// DeleteVariant removes a variant; its content files cascade.
func (db *CatalogDB) DeleteVariant(id int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlDeleteVariant(db.ctx, db.sql, id)
}

/*
 * Internal SQL functions
 */

const variantColumns = "DBID, TitleID, Region, Revision, SourcePath, CreatedAt"

func scanVariant(row interface{ Scan(...any) error }) (*Variant, error) {
	var variant Variant
	var createdAt int64
	err := row.Scan(
		&variant.DBID,
		&variant.TitleID,
		&variant.Region,
		&variant.Revision,
		&variant.SourcePath,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	variant.CreatedAt = time.Unix(createdAt, 0)
	return &variant, nil
}

func sqlFindVariant(ctx context.Context, db *sql.DB, titleID int64, region, revision, sourcePath string) (*Variant, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+variantColumns+" FROM Variants WHERE TitleID = ? AND Region = ? AND Revision = ? AND SourcePath = ?;",
		titleID, region, revision, sourcePath)
	variant, err := scanVariant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find variant: %w", err)
	}
	return variant, nil
}

func sqlGetVariant(ctx context.Context, db *sql.DB, id int64) (*Variant, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+variantColumns+" FROM Variants WHERE DBID = ?;", id)
	variant, err := scanVariant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return variant, nil
}

func sqlGetOrCreateVariant(ctx context.Context, db *sql.DB, titleID int64, region, revision, sourcePath string) (*Variant, bool, error) {
	existing, err := sqlFindVariant(ctx, db, titleID, region, revision, sourcePath)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO Variants (TitleID, Region, Revision, SourcePath, CreatedAt)
		VALUES (?, ?, ?, ?, ?);
	`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to prepare variant insert statement: %w", err)
	}
	defer closeStmt(stmt)

	now := time.Now()
	result, err := stmt.ExecContext(ctx, titleID, region, revision, sourcePath, now.Unix())
	if err != nil {
		if IsUniqueViolation(err) {
			// Another worker created it between lookup and insert.
			variant, findErr := sqlFindVariant(ctx, db, titleID, region, revision, sourcePath)
			if findErr != nil {
				return nil, false, findErr
			}
			if variant != nil {
				return variant, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to insert variant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get variant insert id: %w", err)
	}
	return &Variant{
		DBID:       id,
		TitleID:    titleID,
		Region:     region,
		Revision:   revision,
		SourcePath: sourcePath,
		CreatedAt:  now,
	}, true, nil
}

func sqlListVariantsByTitle(ctx context.Context, db *sql.DB, titleID int64) ([]*Variant, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+variantColumns+" FROM Variants WHERE TitleID = ? ORDER BY DBID;", titleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer closeRows(rows)

	var variants []*Variant
	for rows.Next() {
		variant, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, variant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variants: %w", err)
	}
	return variants, nil
}

func sqlMoveVariantToTitle(ctx context.Context, db *sql.DB, variantID, titleID int64) error {
	if _, err := db.ExecContext(ctx,
		"UPDATE Variants SET TitleID = ? WHERE DBID = ?;", titleID, variantID); err != nil {
		return fmt.Errorf("failed to move variant: %w", err)
	}
	return nil
}

func sqlUpdateVariantRevision(ctx context.Context, db *sql.DB, variantID int64, revision string) error {
	if _, err := db.ExecContext(ctx,
		"UPDATE Variants SET Revision = ? WHERE DBID = ?;", variantID, revision); err != nil {
		return fmt.Errorf("failed to update variant revision: %w", err)
	}
	return nil
}

func sqlDeleteVariant(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM Variants WHERE DBID = ?;", id); err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	return nil
}
