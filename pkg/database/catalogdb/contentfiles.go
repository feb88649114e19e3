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
	"errors"
	"fmt"
)

// CreateContentFile inserts a content file and fills in its DBID. A
// unique violation on (FilePath, ArchivePath) is returned unwrapped
// enough for IsUniqueViolation so callers can re-fetch.
func (db *CatalogDB) CreateContentFile(file *ContentFile) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlCreateContentFile(db.ctx, db.sql, file)
}

// GetContentFile fetches one content file by id, or nil when absent.
func (db *CatalogDB) GetContentFile(id int64) (*ContentFile, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetContentFile(db.ctx, db.sql, id)
}

// FindContentFileByPath fetches the content file stored for a path, or
// nil when absent. Loose files use an empty archive path.
func (db *CatalogDB) FindContentFileByPath(filePath, archivePath string) (*ContentFile, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindContentFileByPath(db.ctx, db.sql, filePath, archivePath)
}

// ListContentFilesByVariant returns every content file of a variant.
func (db *CatalogDB) ListContentFilesByVariant(variantID int64) ([]*ContentFile, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListContentFiles(db.ctx, db.sql,
		"WHERE VariantID = ?", variantID)
}

// ListAllContentFiles returns the whole content file table, ordered by
// DBID. Used by the post-scan cleanup pass.
func (db *CatalogDB) ListAllContentFiles() ([]*ContentFile, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListContentFiles(db.ctx, db.sql, "")
}

// CountContentFilesInArchive counts files catalogued from one archive
// across the whole library.
func (db *CatalogDB) CountContentFilesInArchive(archivePath string) (int, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlCountContentFilesInArchive(db.ctx, db.sql, archivePath)
}

// CountContentFiles counts the files attached to a variant.
func (db *CatalogDB) CountContentFiles(variantID int64) (int, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlCountContentFiles(db.ctx, db.sql, variantID)
}

// MoveContentFilesToVariant re-homes every file of one variant onto
// another.
func (db *CatalogDB) MoveContentFilesToVariant(fromVariantID, toVariantID int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMoveContentFilesToVariant(db.ctx, db.sql, fromVariantID, toVariantID)
}

// DeleteContentFile removes a content file row.
func (db *CatalogDB) DeleteContentFile(id int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlDeleteContentFile(db.ctx, db.sql, id)
}

/*
 * Internal SQL functions
 */

const contentFileColumns = "DBID, VariantID, FilePath, ArchivePath, FileName, FileSize, CRC32, SHA1, Tags, Disc, ContentType, ROMNumber"

func scanContentFile(row interface{ Scan(...any) error }) (*ContentFile, error) {
	var file ContentFile
	var tagsJSON string
	var disc sql.NullInt64
	err := row.Scan(
		&file.DBID,
		&file.VariantID,
		&file.FilePath,
		&file.ArchivePath,
		&file.FileName,
		&file.FileSize,
		&file.CRC32,
		&file.SHA1,
		&tagsJSON,
		&disc,
		&file.ContentType,
		&file.ROMNumber,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &file.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode content file tags: %w", err)
	}
	if disc.Valid {
		file.Disc = int(disc.Int64)
	}
	return &file, nil
}

func sqlCreateContentFile(ctx context.Context, db *sql.DB, file *ContentFile) error {
	tags := file.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode content file tags: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO ContentFiles (
			VariantID, FilePath, ArchivePath, FileName, FileSize,
			CRC32, SHA1, Tags, Disc, ContentType, ROMNumber
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare content file insert statement: %w", err)
	}
	defer closeStmt(stmt)

	var disc any
	if file.Disc > 0 {
		disc = file.Disc
	}
	result, err := stmt.ExecContext(ctx,
		file.VariantID, file.FilePath, file.ArchivePath, file.FileName,
		file.FileSize, file.CRC32, file.SHA1, string(tagsJSON), disc,
		file.ContentType, file.ROMNumber)
	if err != nil {
		return fmt.Errorf("failed to insert content file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get content file insert id: %w", err)
	}
	file.DBID = id
	return nil
}

func sqlGetContentFile(ctx context.Context, db *sql.DB, id int64) (*ContentFile, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+contentFileColumns+" FROM ContentFiles WHERE DBID = ?;", id)
	file, err := scanContentFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content file: %w", err)
	}
	return file, nil
}

func sqlFindContentFileByPath(ctx context.Context, db *sql.DB, filePath, archivePath string) (*ContentFile, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+contentFileColumns+" FROM ContentFiles WHERE FilePath = ? AND ArchivePath = ?;",
		filePath, archivePath)
	file, err := scanContentFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find content file: %w", err)
	}
	return file, nil
}

func sqlListContentFiles(ctx context.Context, db *sql.DB, where string, args ...any) ([]*ContentFile, error) {
	query := "SELECT " + contentFileColumns + " FROM ContentFiles"
	if where != "" {
		query += " " + where
	}
	query += " ORDER BY DBID;"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content files: %w", err)
	}
	defer closeRows(rows)

	var files []*ContentFile
	for rows.Next() {
		file, err := scanContentFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content files: %w", err)
	}
	return files, nil
}

func sqlCountContentFilesInArchive(ctx context.Context, db *sql.DB, archivePath string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ContentFiles WHERE ArchivePath = ?;",
		archivePath).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count archive content files: %w", err)
	}
	return count, nil
}

func sqlCountContentFiles(ctx context.Context, db *sql.DB, variantID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ContentFiles WHERE VariantID = ?;",
		variantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count variant content files: %w", err)
	}
	return count, nil
}

func sqlMoveContentFilesToVariant(ctx context.Context, db *sql.DB, fromVariantID, toVariantID int64) error {
	if _, err := db.ExecContext(ctx,
		"UPDATE ContentFiles SET VariantID = ? WHERE VariantID = ?;",
		toVariantID, fromVariantID); err != nil {
		return fmt.Errorf("failed to move content files: %w", err)
	}
	return nil
}

func sqlDeleteContentFile(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM ContentFiles WHERE DBID = ?;", id); err != nil {
		return fmt.Errorf("failed to delete content file: %w", err)
	}
	return nil
}
