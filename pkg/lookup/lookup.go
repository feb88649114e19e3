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

// Package lookup resolves a ROM's canonical name through a chain of
// identification services, caching every answer in the catalog.
package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/cubicalbatch/romhoard-sub001/pkg/parser"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
)

// Query carries everything known about one file before lookup.
type Query struct {
	Platform *platforms.Platform
	FileName string
	CRC32    string
	MD5      string
	SHA1     string
	Parsed   parser.Parsed
	FileSize int64
}

// Result is one service's answer for a query.
type Result struct {
	// Name is the canonical game name, cleaned of list prefixes.
	Name string
	// Region and Revision override the filename-parsed values when
	// the service reports them.
	Region   string
	Revision string
	// Source is the name provenance tag for ranking.
	Source string
	// ExternalID is the metadata index's game ID, 0 when unknown.
	ExternalID int64
}

// Service is one identification backend.
type Service interface {
	// Name is the service's settings and cache key.
	Name() string
	// Available reports whether the service is worth consulting for
	// the platform: enabled, credentialed and applicable to it.
	Available(platform *platforms.Platform) bool
	// Lookup returns nil with a nil error when the service has no
	// answer for the query.
	Lookup(ctx context.Context, query *Query) (*Result, error)
}

// RateLimitedError is returned by a service that has been told to back
// off. The chain pauses the service until RetryAfter has elapsed.
type RateLimitedError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s rate limited, retry after %s", e.Service, e.RetryAfter)
}
