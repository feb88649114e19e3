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

// Package catalogdb is the persistent catalog store: platforms,
// titles, variants, content files, artwork, lookup caches and
// settings, backed by SQLite.
package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// ErrNullSQL is returned when the catalog is not connected.
var ErrNullSQL = errors.New("CatalogDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_foreign_keys=ON"

// CatalogDB wraps the catalog SQLite database.
type CatalogDB struct {
	sql *sql.DB
	ctx context.Context //nolint:containedctx // matches the lifetime of the open handle
}

// Open opens (creating and migrating if needed) the catalog database
// at dbPath.
func Open(ctx context.Context, dbPath string) (*CatalogDB, error) {
	exists := true
	if _, err := os.Stat(dbPath); err != nil {
		exists = false
		if mkdirErr := os.MkdirAll(filepath.Dir(dbPath), 0o750); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", mkdirErr)
		}
	}

	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &CatalogDB{sql: sqlInstance, ctx: ctx}
	if !exists {
		if err := db.Allocate(); err != nil {
			return nil, err
		}
	} else if err := db.MigrateUp(); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenWithDB wraps an existing SQL handle. Used by tests that provide
// a mock or shared connection; no migrations are run.
func OpenWithDB(ctx context.Context, sqlInstance *sql.DB) *CatalogDB {
	return &CatalogDB{sql: sqlInstance, ctx: ctx}
}

// Allocate creates the schema on a fresh database.
func (db *CatalogDB) Allocate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAllocate(db.sql)
}

// MigrateUp brings the schema up to date.
func (db *CatalogDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

// Truncate removes all catalog data.
func (db *CatalogDB) Truncate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlTruncate(db.ctx, db.sql)
}

// Vacuum compacts the database file.
func (db *CatalogDB) Vacuum() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlVacuum(db.ctx, db.sql)
}

// UnsafeGetSQLDb exposes the underlying handle for tests.
func (db *CatalogDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

// Close closes the database handle.
func (db *CatalogDB) Close() error {
	if db.sql == nil {
		return nil
	}
	if err := db.sql.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.sql = nil
	return nil
}

// IsUniqueViolation reports whether err is a SQLite unique-constraint
// failure. Record creation races are recovered by re-fetching when
// this returns true.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
