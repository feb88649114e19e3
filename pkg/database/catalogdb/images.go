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
)

// AddImage attaches an artwork file to a title. Re-adding the same
// path to the same title is a no-op.
func (db *CatalogDB) AddImage(titleID int64, path, imageType string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAddImage(db.ctx, db.sql, titleID, path, imageType)
}

// FindImageByPath returns the artwork row for a path, or nil.
func (db *CatalogDB) FindImageByPath(path string) (*Image, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindImageByPath(db.ctx, db.sql, path)
}

// ListImagesByTitle returns the artwork attached to a title.
func (db *CatalogDB) ListImagesByTitle(titleID int64) ([]*Image, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListImagesByTitle(db.ctx, db.sql, titleID)
}

// CountImages counts the artwork files attached to a title.
func (db *CatalogDB) CountImages(titleID int64) (int, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlCountImages(db.ctx, db.sql, titleID)
}

// MoveImages re-homes artwork from one title onto another. An image
// whose type the destination already carries is dropped instead of
// moved.
func (db *CatalogDB) MoveImages(fromTitleID, toTitleID int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMoveImages(db.ctx, db.sql, fromTitleID, toTitleID)
}

// DeleteImage removes an artwork row.
func (db *CatalogDB) DeleteImage(id int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlDeleteImage(db.ctx, db.sql, id)
}

/*
 * Internal SQL functions
 */

func sqlAddImage(ctx context.Context, db *sql.DB, titleID int64, path, imageType string) error {
	if _, err := db.ExecContext(ctx, `
		INSERT INTO Images (TitleID, Path, ImageType)
		VALUES (?, ?, ?)
		ON CONFLICT (TitleID, Path) DO NOTHING;
	`, titleID, path, imageType); err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

func sqlFindImageByPath(ctx context.Context, db *sql.DB, path string) (*Image, error) {
	row := db.QueryRowContext(ctx,
		"SELECT DBID, TitleID, Path, ImageType FROM Images WHERE Path = ? LIMIT 1;", path)
	var image Image
	err := row.Scan(&image.DBID, &image.TitleID, &image.Path, &image.ImageType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find image by path: %w", err)
	}
	return &image, nil
}

func sqlListImagesByTitle(ctx context.Context, db *sql.DB, titleID int64) ([]*Image, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT DBID, TitleID, Path, ImageType FROM Images WHERE TitleID = ? ORDER BY DBID;",
		titleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer closeRows(rows)

	var images []*Image
	for rows.Next() {
		var image Image
		if err := rows.Scan(&image.DBID, &image.TitleID, &image.Path, &image.ImageType); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, &image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}
	return images, nil
}

func sqlCountImages(ctx context.Context, db *sql.DB, titleID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM Images WHERE TitleID = ?;", titleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

func sqlMoveImages(ctx context.Context, db *sql.DB, fromTitleID, toTitleID int64) error {
	images, err := sqlListImagesByTitle(ctx, db, fromTitleID)
	if err != nil {
		return err
	}

	taken := make(map[string]bool)
	existing, err := sqlListImagesByTitle(ctx, db, toTitleID)
	if err != nil {
		return err
	}
	for _, image := range existing {
		if image.ImageType != "" {
			taken[image.ImageType] = true
		}
	}

	for _, image := range images {
		if image.ImageType != "" && taken[image.ImageType] {
			if err := sqlDeleteImage(ctx, db, image.DBID); err != nil {
				return err
			}
			continue
		}
		if _, err := db.ExecContext(ctx,
			"UPDATE Images SET TitleID = ? WHERE DBID = ?;",
			toTitleID, image.DBID); err != nil {
			return fmt.Errorf("failed to move image: %w", err)
		}
		if image.ImageType != "" {
			taken[image.ImageType] = true
		}
	}
	return nil
}

func sqlDeleteImage(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM Images WHERE DBID = ?;", id); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
