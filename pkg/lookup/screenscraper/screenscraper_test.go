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

package screenscraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cubicalbatch/romhoard-sub001/pkg/config"
	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/lookup"
	"github.com/cubicalbatch/romhoard-sub001/pkg/parser"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = config.CredentialEntry{
	Username: "user", Password: "pass",
	DevID: "dev", DevPassword: "devpass",
}

func openTestDB(t *testing.T) *catalogdb.CatalogDB {
	t.Helper()
	db, err := catalogdb.Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func platformBySlug(t *testing.T, slug string) *platforms.Platform {
	t.Helper()
	platform := platforms.NewDetector(platforms.Defaults()).BySlug(slug)
	require.NotNil(t, platform)
	return platform
}

func gameJSON(id int64, names ...string) string {
	noms := ""
	for i, name := range names {
		if i > 0 {
			noms += ","
		}
		noms += fmt.Sprintf(`{"region":"ss","text":%q}`, name)
	}
	return fmt.Sprintf(`{"id":"%d","noms":[%s]}`, id, noms)
}

func TestLookupByCRC(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "user", r.URL.Query().Get("ssid"))
		assert.Equal(t, "dev", r.URL.Query().Get("devid"))
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		assert.Equal(t, "DEADBEEF", r.URL.Query().Get("crc"))
		fmt.Fprintf(w, `{"response":{"jeu":%s}}`, gameJSON(1234, "Super Metroid"))
	}))
	defer server.Close()

	db := openTestDB(t)
	client := NewClient(db, server.URL, testCreds, true)

	query := &lookup.Query{
		Platform: platformBySlug(t, "snes"),
		FileName: "Super Metroid (USA).sfc",
		CRC32:    "deadbeef",
	}
	result, err := client.Lookup(context.Background(), query)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Super Metroid", result.Name)
	assert.Equal(t, int64(1234), result.ExternalID)
	assert.Equal(t, catalogdb.SourceMetadataIndex, result.Source)
	require.Len(t, paths, 1)
	assert.Equal(t, "/jeuInfos.php", paths[0])

	// Cached on repeat.
	result, err = client.Lookup(context.Background(), query)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, paths, 1)
}

func TestLookupFallsBackToFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("crc") != "" {
			// No CRC match.
			fmt.Fprint(w, `{"response":{}}`)
			return
		}
		assert.Equal(t, "Advance Wars.gba", r.URL.Query().Get("romnom"))
		fmt.Fprintf(w, `{"response":{"jeu":%s}}`, gameJSON(55, "Advance Wars"))
	}))
	defer server.Close()

	db := openTestDB(t)
	client := NewClient(db, server.URL, testCreds, true)

	result, err := client.Lookup(context.Background(), &lookup.Query{
		Platform: platformBySlug(t, "gba"),
		FileName: "Advance Wars.gba",
		CRC32:    "0badf00d",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(55), result.ExternalID)
}

func TestLookupArcadeSkipsCRC(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("crc"))
		assert.Equal(t, "pacman.zip", r.URL.Query().Get("romnom"))
		fmt.Fprintf(w, `{"response":{"jeu":%s}}`, gameJSON(9, "Pac-Man"))
	}))
	defer server.Close()

	db := openTestDB(t)
	client := NewClient(db, server.URL, testCreds, true)

	result, err := client.Lookup(context.Background(), &lookup.Query{
		Platform: platformBySlug(t, "arcade"),
		FileName: "pacman.zip",
		CRC32:    "deadbeef",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Pac-Man", result.Name)
}

func TestLookupNameSearch(t *testing.T) {
	searches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/jeuInfos.php":
			fmt.Fprint(w, `{"response":{}}`)
		case r.URL.Query().Get("recherche") != "":
			searches++
			if r.URL.Query().Get("recherche") == "Symphony of the Night" {
				fmt.Fprintf(w, `{"response":{"jeux":[%s,%s]}}`,
					gameJSON(11, "Some Other Game"),
					gameJSON(22, "Castlevania: Symphony of the Night"))
				return
			}
			fmt.Fprint(w, `{"response":{"jeux":[]}}`)
		}
	}))
	defer server.Close()

	db := openTestDB(t)
	client := NewClient(db, server.URL, testCreds, true)

	result, err := client.Lookup(context.Background(), &lookup.Query{
		Platform: platformBySlug(t, "psx"),
		FileName: "sotn.bin",
		CRC32:    "",
		Parsed:   parser.Parsed{Name: "Castlevania: Symphony of the Night"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(22), result.ExternalID)
	assert.Positive(t, searches)
}

func TestLookupSingleSearchResultObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/jeuInfos.php" {
			fmt.Fprint(w, `{"response":{}}`)
			return
		}
		// One result arrives as an object, not a list.
		fmt.Fprintf(w, `{"response":{"jeux":%s}}`, gameJSON(77, "Tetris"))
	}))
	defer server.Close()

	db := openTestDB(t)
	client := NewClient(db, server.URL, testCreds, true)

	result, err := client.Lookup(context.Background(), &lookup.Query{
		Platform: platformBySlug(t, "gb"),
		FileName: "tetris.gb",
		Parsed:   parser.Parsed{Name: "Tetris"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(77), result.ExternalID)
}

func TestLookupRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	db := openTestDB(t)
	client := NewClient(db, server.URL, testCreds, true)

	_, err := client.Lookup(context.Background(), &lookup.Query{
		Platform: platformBySlug(t, "snes"),
		CRC32:    "deadbeef",
	})
	var rateLimited *lookup.RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, ServiceName, rateLimited.Service)

	// Rate limit responses are not cached as misses.
	entry, err := db.GetCacheEntry(ServiceName, "crc", "deadbeef", "4")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestLookupWithoutCredentials(t *testing.T) {
	db := openTestDB(t)
	client := NewClient(db, "http://127.0.0.1:1", config.CredentialEntry{}, true)

	result, err := client.Lookup(context.Background(), &lookup.Query{
		Platform: platformBySlug(t, "snes"),
		CRC32:    "deadbeef",
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAvailable(t *testing.T) {
	db := openTestDB(t)
	client := NewClient(db, "http://127.0.0.1:1", testCreds, true)
	assert.True(t, client.Available(platformBySlug(t, "snes")))
	assert.False(t, client.Available(nil))

	noCreds := NewClient(db, "http://127.0.0.1:1", config.CredentialEntry{}, true)
	assert.False(t, noCreds.Available(platformBySlug(t, "snes")))

	disabled := NewClient(db, "http://127.0.0.1:1", testCreds, false)
	assert.False(t, disabled.Available(platformBySlug(t, "snes")))
}

func TestLookupDisabled(t *testing.T) {
	db := openTestDB(t)
	client := NewClient(db, "http://127.0.0.1:1", testCreds, false)

	result, err := client.Lookup(context.Background(), &lookup.Query{
		Platform: platformBySlug(t, "snes"),
		CRC32:    "deadbeef",
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestLookupCachesMisses(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/jeuInfos.php" {
			fmt.Fprint(w, `{"response":{}}`)
			return
		}
		fmt.Fprint(w, `{"response":{"jeux":[]}}`)
	}))
	defer server.Close()

	db := openTestDB(t)
	client := NewClient(db, server.URL, testCreds, true)

	query := &lookup.Query{
		Platform: platformBySlug(t, "gb"),
		FileName: "mystery.gb",
		CRC32:    "deadbeef",
		Parsed:   parser.Parsed{Name: "Mystery"},
	}
	result, err := client.Lookup(context.Background(), query)
	require.NoError(t, err)
	assert.Nil(t, result)
	require.Positive(t, calls)

	before := calls
	result, err = client.Lookup(context.Background(), query)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, before, calls)
}

func TestRateLimitedErrorIsError(t *testing.T) {
	t.Parallel()
	err := &lookup.RateLimitedError{Service: ServiceName, RetryAfter: rateLimitPause}
	assert.True(t, errors.As(error(err), new(*lookup.RateLimitedError)))
	assert.Contains(t, err.Error(), ServiceName)
}
