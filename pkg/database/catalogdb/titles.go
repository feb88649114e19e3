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

// CreateTitle inserts a new title and fills in its DBID. A unique
// violation means another worker created the same (name, platform)
// first; callers recover with FindTitleByName.
func (db *CatalogDB) CreateTitle(title *Title) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlCreateTitle(db.ctx, db.sql, title)
}

// GetTitle fetches a title by DBID, or nil when absent.
func (db *CatalogDB) GetTitle(id int64) (*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetTitle(db.ctx, db.sql, id)
}

// FindTitleByName fetches a title by case-insensitive name within a
// platform, or nil when absent.
func (db *CatalogDB) FindTitleByName(name, platformSlug string) (*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindTitleByName(db.ctx, db.sql, name, platformSlug)
}

// FindTitleByExternalID fetches a title by external identifier within
// a platform, or nil when absent.
func (db *CatalogDB) FindTitleByExternalID(externalID int64, platformSlug string) (*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindTitleByExternalID(db.ctx, db.sql, externalID, platformSlug)
}

// FindTitleByCRC32 fetches the title owning a content file with the
// given CRC32 within a platform, or nil when absent.
func (db *CatalogDB) FindTitleByCRC32(crc32, platformSlug string) (*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindTitleByHash(db.ctx, db.sql, "CRC32", crc32, platformSlug)
}

// FindTitleBySHA1 fetches the title owning a content file with the
// given SHA1 within a platform, or nil when absent.
func (db *CatalogDB) FindTitleBySHA1(sha1, platformSlug string) (*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindTitleByHash(db.ctx, db.sql, "SHA1", sha1, platformSlug)
}

// UpdateTitle persists name, provenance, external ID and metadata
// state for an existing title.
func (db *CatalogDB) UpdateTitle(title *Title) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlUpdateTitle(db.ctx, db.sql, title)
}

// SetDefaultVariant updates a title's preferred variant reference.
// A variantID of 0 clears it.
func (db *CatalogDB) SetDefaultVariant(titleID, variantID int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlSetDefaultVariant(db.ctx, db.sql, titleID, variantID)
}

// DeleteTitle removes a title; variants and content files cascade.
func (db *CatalogDB) DeleteTitle(id int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlDeleteTitle(db.ctx, db.sql, id)
}

// ListTitlesByPlatform returns every title on one platform.
func (db *CatalogDB) ListTitlesByPlatform(platformSlug string) ([]*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListTitlesByPlatform(db.ctx, db.sql, platformSlug)
}

// DuplicateExternalIDGroups returns groups of titles within one
// platform sharing an external identifier.
func (db *CatalogDB) DuplicateExternalIDGroups() ([][]*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlDuplicateExternalIDGroups(db.ctx, db.sql)
}

// DuplicateNameGroups returns groups of titles within one platform
// sharing a case-insensitive name.
func (db *CatalogDB) DuplicateNameGroups() ([][]*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlDuplicateNameGroups(db.ctx, db.sql)
}

// DuplicateCRC32Groups returns groups of distinct titles within one
// platform whose content files share a CRC32.
func (db *CatalogDB) DuplicateCRC32Groups() ([][]*Title, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlDuplicateCRC32Groups(db.ctx, db.sql)
}

/*
 * Internal SQL functions
 */

const titleColumns = "DBID, Name, PlatformSlug, NameSource, ExternalID, MetadataFetched, DefaultVariantID, CreatedAt"

func scanTitle(row interface{ Scan(...any) error }) (*Title, error) {
	var title Title
	var externalID, defaultVariant sql.NullInt64
	var createdAt int64
	err := row.Scan(
		&title.DBID,
		&title.Name,
		&title.PlatformSlug,
		&title.NameSource,
		&externalID,
		&title.MetadataFetched,
		&defaultVariant,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	title.ExternalID = externalID.Int64
	title.DefaultVariantID = defaultVariant.Int64
	title.CreatedAt = time.Unix(createdAt, 0)
	return &title, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func sqlCreateTitle(ctx context.Context, db *sql.DB, title *Title) error {
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO Titles (Name, PlatformSlug, NameSource, ExternalID, MetadataFetched, DefaultVariantID, CreatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare title insert statement: %w", err)
	}
	defer closeStmt(stmt)

	if title.CreatedAt.IsZero() {
		title.CreatedAt = time.Now()
	}
	if title.NameSource == "" {
		title.NameSource = SourceFilename
	}

	result, err := stmt.ExecContext(ctx,
		title.Name,
		title.PlatformSlug,
		title.NameSource,
		nullableID(title.ExternalID),
		title.MetadataFetched,
		nullableID(title.DefaultVariantID),
		title.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert title: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get title insert id: %w", err)
	}
	title.DBID = id
	return nil
}

func sqlGetTitle(ctx context.Context, db *sql.DB, id int64) (*Title, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+titleColumns+" FROM Titles WHERE DBID = ?;", id)
	title, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get title: %w", err)
	}
	return title, nil
}

func sqlFindTitleByName(ctx context.Context, db *sql.DB, name, platformSlug string) (*Title, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+titleColumns+" FROM Titles WHERE Name = ? COLLATE NOCASE AND PlatformSlug = ?;",
		name, platformSlug)
	title, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find title by name: %w", err)
	}
	return title, nil
}

func sqlListTitlesByPlatform(ctx context.Context, db *sql.DB, platformSlug string) ([]*Title, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+titleColumns+" FROM Titles WHERE PlatformSlug = ? ORDER BY DBID;",
		platformSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer closeRows(rows)

	var titles []*Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate titles: %w", err)
	}
	return titles, nil
}

func sqlFindTitleByExternalID(ctx context.Context, db *sql.DB, externalID int64, platformSlug string) (*Title, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+titleColumns+" FROM Titles WHERE ExternalID = ? AND PlatformSlug = ?;",
		externalID, platformSlug)
	title, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find title by external id: %w", err)
	}
	return title, nil
}

func sqlFindTitleByHash(ctx context.Context, db *sql.DB, hashColumn, hash, platformSlug string) (*Title, error) {
	if hash == "" {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	row := db.QueryRowContext(ctx, `
		SELECT t.DBID, t.Name, t.PlatformSlug, t.NameSource, t.ExternalID,
		       t.MetadataFetched, t.DefaultVariantID, t.CreatedAt
		FROM Titles t
		JOIN Variants v ON v.TitleID = t.DBID
		JOIN ContentFiles cf ON cf.VariantID = v.DBID
		WHERE cf.`+hashColumn+` = ? AND t.PlatformSlug = ?
		LIMIT 1;
	`, hash, platformSlug)
	title, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find title by %s: %w", hashColumn, err)
	}
	return title, nil
}

func sqlUpdateTitle(ctx context.Context, db *sql.DB, title *Title) error {
	stmt, err := db.PrepareContext(ctx, `
		UPDATE Titles
		SET Name = ?, NameSource = ?, ExternalID = ?, MetadataFetched = ?
		WHERE DBID = ?;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare title update statement: %w", err)
	}
	defer closeStmt(stmt)

	_, err = stmt.ExecContext(ctx,
		title.Name,
		title.NameSource,
		nullableID(title.ExternalID),
		title.MetadataFetched,
		title.DBID,
	)
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}
	return nil
}

func sqlSetDefaultVariant(ctx context.Context, db *sql.DB, titleID, variantID int64) error {
	_, err := db.ExecContext(ctx,
		"UPDATE Titles SET DefaultVariantID = ? WHERE DBID = ?;",
		nullableID(variantID), titleID)
	if err != nil {
		return fmt.Errorf("failed to set default variant: %w", err)
	}
	return nil
}

func sqlDeleteTitle(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM Titles WHERE DBID = ?;", id); err != nil {
		return fmt.Errorf("failed to delete title: %w", err)
	}
	return nil
}

func sqlTitlesWhere(ctx context.Context, db *sql.DB, where string, args ...any) ([]*Title, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+titleColumns+" FROM Titles WHERE "+where+" ORDER BY DBID;", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer closeRows(rows)

	var titles []*Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate titles: %w", err)
	}
	return titles, nil
}

func sqlDuplicateExternalIDGroups(ctx context.Context, db *sql.DB) ([][]*Title, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ExternalID, PlatformSlug
		FROM Titles
		WHERE ExternalID IS NOT NULL
		GROUP BY ExternalID, PlatformSlug
		HAVING COUNT(*) > 1;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate external ids: %w", err)
	}
	defer closeRows(rows)

	type key struct {
		slug       string
		externalID int64
	}
	var keys []key
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.externalID, &k.slug); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate external id: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate duplicate external ids: %w", err)
	}

	groups := make([][]*Title, 0, len(keys))
	for _, k := range keys {
		group, err := sqlTitlesWhere(ctx, db, "ExternalID = ? AND PlatformSlug = ?", k.externalID, k.slug)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func sqlDuplicateNameGroups(ctx context.Context, db *sql.DB) ([][]*Title, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT LOWER(Name), PlatformSlug
		FROM Titles
		GROUP BY LOWER(Name), PlatformSlug
		HAVING COUNT(*) > 1;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate names: %w", err)
	}
	defer closeRows(rows)

	type key struct {
		name string
		slug string
	}
	var keys []key
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.name, &k.slug); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate name: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate duplicate names: %w", err)
	}

	groups := make([][]*Title, 0, len(keys))
	for _, k := range keys {
		group, err := sqlTitlesWhere(ctx, db, "LOWER(Name) = ? AND PlatformSlug = ?", k.name, k.slug)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func sqlDuplicateCRC32Groups(ctx context.Context, db *sql.DB) ([][]*Title, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT cf.CRC32, t.PlatformSlug
		FROM ContentFiles cf
		JOIN Variants v ON v.DBID = cf.VariantID
		JOIN Titles t ON t.DBID = v.TitleID
		WHERE cf.CRC32 != ''
		GROUP BY cf.CRC32, t.PlatformSlug
		HAVING COUNT(DISTINCT t.DBID) > 1;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared crc32 groups: %w", err)
	}
	defer closeRows(rows)

	type key struct {
		crc  string
		slug string
	}
	var keys []key
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.crc, &k.slug); err != nil {
			return nil, fmt.Errorf("failed to scan shared crc32 group: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shared crc32 groups: %w", err)
	}

	groups := make([][]*Title, 0, len(keys))
	for _, k := range keys {
		group, err := sqlTitlesWhere(ctx, db, `DBID IN (
			SELECT DISTINCT t.DBID
			FROM Titles t
			JOIN Variants v ON v.TitleID = t.DBID
			JOIN ContentFiles cf ON cf.VariantID = v.DBID
			WHERE cf.CRC32 = ? AND t.PlatformSlug = ?
		)`, k.crc, k.slug)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}
