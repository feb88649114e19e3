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

// GetSetting returns a named setting value, or "" when unset.
func (db *CatalogDB) GetSetting(name string) (string, error) {
	if db.sql == nil {
		return "", ErrNullSQL
	}
	return sqlGetSetting(db.ctx, db.sql, name)
}

// SetSetting upserts a named setting value.
func (db *CatalogDB) SetSetting(name, value string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlSetSetting(db.ctx, db.sql, name, value)
}

/*
 * Internal SQL functions
 */

func sqlGetSetting(ctx context.Context, db *sql.DB, name string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		"SELECT Value FROM Settings WHERE Name = ?;", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

func sqlSetSetting(ctx context.Context, db *sql.DB, name, value string) error {
	if _, err := db.ExecContext(ctx, `
		INSERT INTO Settings (Name, Value)
		VALUES (?, ?)
		ON CONFLICT (Name) DO UPDATE SET Value = excluded.Value;
	`, name, value); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
