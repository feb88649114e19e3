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

// Package hasheous identifies ROMs by hash against the hasheous.org
// signature database.
package hasheous

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/lookup"
	"github.com/cubicalbatch/romhoard-sub001/pkg/parser"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	ServiceName = "hasheous"

	requestTimeout = 30 * time.Second
	// Spacing between live API calls, cache hits are not throttled.
	requestSpacing = 500 * time.Millisecond
)

// Catalog number prefixes like "0983 - " on signature names.
var listPrefixPattern = regexp.MustCompile(`^\d{3,4}\s*-\s*`)

// Client is the hasheous lookup service. When disabled it still
// answers from previously cached results so an earlier run's matches
// keep working.
type Client struct {
	db      *catalogdb.CatalogDB
	http    *http.Client
	limiter *rate.Limiter
	parser  *parser.Parser
	baseURL string
	enabled bool
}

func NewClient(db *catalogdb.CatalogDB, baseURL string, enabled bool) *Client {
	return &Client{
		db:      db,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Every(requestSpacing), 1),
		parser:  parser.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
		enabled: enabled,
	}
}

func (*Client) Name() string { return ServiceName }

// Available reports whether hash lookups make sense for the platform.
// Arcade-style platforms are out: their per-file hashes cover shared
// ROM chips, not games. A disabled client stays available since it
// keeps answering from previously cached results.
func (*Client) Available(platform *platforms.Platform) bool {
	return platform == nil || !platform.ArchiveIsContent
}

// Lookup tries the file's hashes against the signature database,
// strongest hash first. Arcade-style platforms are skipped: their
// per-file hashes cover shared ROM chips, not games.
func (c *Client) Lookup(ctx context.Context, query *lookup.Query) (*lookup.Result, error) {
	if query.Platform != nil && query.Platform.ArchiveIsContent {
		return nil, nil
	}

	type hashKey struct {
		kind  string
		value string
	}
	hashes := []hashKey{
		{"sha1", strings.ToLower(query.SHA1)},
		{"md5", strings.ToLower(query.MD5)},
		{"crc32", strings.ToLower(query.CRC32)},
	}

	platformKey := ""
	if query.Platform != nil {
		platformKey = query.Platform.Slug
	}

	// Cached answers are honored even when the service is disabled.
	for _, h := range hashes {
		if h.value == "" {
			continue
		}
		entry, err := c.db.GetCacheEntry(ServiceName, h.kind, h.value, platformKey)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		if !entry.Hit {
			// Known miss, try the next hash.
			continue
		}
		log.Debug().Str("kind", h.kind).Str("name", entry.ResultName).
			Msg("hasheous cache hit")
		return &lookup.Result{
			Name:     entry.ResultName,
			Region:   entry.ResultRegion,
			Revision: entry.ResultRevision,
			Source:   entry.ResultSource,
		}, nil
	}

	if !c.enabled {
		return nil, nil
	}

	for _, h := range hashes {
		if h.value == "" {
			continue
		}
		entry, err := c.db.GetCacheEntry(ServiceName, h.kind, h.value, platformKey)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			// Already known, positive or negative.
			continue
		}

		response, status, err := c.apiLookup(ctx, h.kind, h.value)
		if err != nil {
			return nil, err
		}
		if status == statusError {
			// Transient failure, not cached.
			continue
		}
		if status == statusMiss {
			if err := c.db.PutCacheEntry(&catalogdb.CacheEntry{
				Service: ServiceName, Kind: h.kind, Value: h.value,
				PlatformKey: platformKey,
			}); err != nil {
				return nil, err
			}
			continue
		}

		result := c.parseResponse(response, query)
		entry = &catalogdb.CacheEntry{
			Service: ServiceName, Kind: h.kind, Value: h.value,
			PlatformKey: platformKey,
		}
		if result != nil {
			entry.Hit = true
			entry.ResultName = result.Name
			entry.ResultRegion = result.Region
			entry.ResultRevision = result.Revision
			entry.ResultSource = result.Source
		}
		if err := c.db.PutCacheEntry(entry); err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, nil
}

type lookupResponse struct {
	Name     string `json:"name"`
	Platform struct {
		Name string `json:"name"`
	} `json:"platform"`
	Signature struct {
		Game struct {
			Name string `json:"name"`
		} `json:"game"`
		Rom struct {
			Name            string `json:"name"`
			SignatureSource string `json:"signatureSource"`
		} `json:"rom"`
	} `json:"signature"`
}

type lookupStatus int

const (
	statusHit lookupStatus = iota
	// statusMiss is a definite 404, safe to cache.
	statusMiss
	// statusError covers transport failures and server errors, which
	// may be transient and are never cached.
	statusError
)

// apiLookup posts one hash to the ByHash endpoint.
func (c *Client) apiLookup(ctx context.Context, kind, value string) (*lookupResponse, lookupStatus, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, statusError, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	body := map[string]string{}
	switch kind {
	case "sha1":
		body["shA1"] = value
	case "md5":
		body["mD5"] = value
	case "crc32":
		body["crc"] = value
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, statusError, fmt.Errorf("failed to encode lookup body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/Lookup/ByHash", bytes.NewReader(payload))
	if err != nil {
		return nil, statusError, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("hasheous request failed")
		return nil, statusError, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, statusMiss, nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("hasheous api error")
		return nil, statusError, nil
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Warn().Err(err).Msg("hasheous response parse error")
		return nil, statusError, nil
	}
	return &decoded, statusHit, nil
}

// parseResponse validates the platform and extracts a result. Region
// and revision come from parsing the signature ROM name, which keeps
// its "(USA)" style tags.
func (c *Client) parseResponse(response *lookupResponse, query *lookup.Query) *lookup.Result {
	name := response.Name
	if name == "" {
		name = response.Signature.Game.Name
	}
	if name == "" {
		return nil
	}

	platformName := response.Platform.Name
	if platformName != "" && !strings.EqualFold(platformName, "arcade") {
		if !platformMatches(platformName, query.Platform) {
			log.Debug().Str("platform", platformName).
				Msg("hasheous platform mismatch")
			return nil
		}
	}

	result := &lookup.Result{
		Name:   strings.TrimSpace(listPrefixPattern.ReplaceAllString(name, "")),
		Source: normalizeSource(response.Signature.Rom.SignatureSource),
	}
	if romName := response.Signature.Rom.Name; romName != "" {
		parsed := c.parser.Parse(romName)
		result.Region = parsed.Region
		result.Revision = parsed.Revision
	}
	return result
}

func normalizeSource(signatureSource string) string {
	switch strings.ReplaceAll(strings.ToLower(signatureSource), "-", "") {
	case "nointro", "nointros":
		return catalogdb.SourceNoIntros
	case "redump":
		return catalogdb.SourceRedump
	default:
		return catalogdb.SourceHashDB
	}
}
