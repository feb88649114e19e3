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

// GetCacheEntry fetches a persisted lookup result, or nil when that
// key has never been queried. Negative results are stored with
// Hit=false and are still returned.
func (db *CatalogDB) GetCacheEntry(service, kind, value, platformKey string) (*CacheEntry, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetCacheEntry(db.ctx, db.sql, service, kind, value, platformKey)
}

// PutCacheEntry upserts a lookup result, positive or negative, keyed
// by (Service, Kind, Value, PlatformKey).
func (db *CatalogDB) PutCacheEntry(entry *CacheEntry) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlPutCacheEntry(db.ctx, db.sql, entry)
}

/*
 * Internal SQL functions
 */

func sqlGetCacheEntry(ctx context.Context, db *sql.DB, service, kind, value, platformKey string) (*CacheEntry, error) {
	row := db.QueryRowContext(ctx, `
		SELECT
			DBID, Service, Kind, Value, PlatformKey, Hit,
			ResultName, ResultRegion, ResultRevision, ResultSource,
			ResultExternalID, CreatedAt
		FROM LookupCache
		WHERE Service = ? AND Kind = ? AND Value = ? AND PlatformKey = ?;
	`, service, kind, value, platformKey)

	var entry CacheEntry
	var createdAt int64
	err := row.Scan(
		&entry.DBID,
		&entry.Service,
		&entry.Kind,
		&entry.Value,
		&entry.PlatformKey,
		&entry.Hit,
		&entry.ResultName,
		&entry.ResultRegion,
		&entry.ResultRevision,
		&entry.ResultSource,
		&entry.ResultExternalID,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	entry.CreatedAt = time.Unix(createdAt, 0)
	return &entry, nil
}

func sqlPutCacheEntry(ctx context.Context, db *sql.DB, entry *CacheEntry) error {
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO LookupCache (
			Service, Kind, Value, PlatformKey, Hit,
			ResultName, ResultRegion, ResultRevision, ResultSource,
			ResultExternalID, CreatedAt
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (Service, Kind, Value, PlatformKey) DO UPDATE SET
			Hit = excluded.Hit,
			ResultName = excluded.ResultName,
			ResultRegion = excluded.ResultRegion,
			ResultRevision = excluded.ResultRevision,
			ResultSource = excluded.ResultSource,
			ResultExternalID = excluded.ResultExternalID,
			CreatedAt = excluded.CreatedAt;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache upsert statement: %w", err)
	}
	defer closeStmt(stmt)

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if _, err := stmt.ExecContext(ctx,
		entry.Service, entry.Kind, entry.Value, entry.PlatformKey, entry.Hit,
		entry.ResultName, entry.ResultRegion, entry.ResultRevision,
		entry.ResultSource, entry.ResultExternalID, createdAt.Unix()); err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}
