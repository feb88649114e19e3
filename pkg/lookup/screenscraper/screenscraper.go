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

// Package screenscraper identifies ROMs against the ScreenScraper
// metadata index: exact CRC match, then filename match, then fuzzy
// name search over generated query variants.
package screenscraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cubicalbatch/romhoard-sub001/pkg/config"
	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/lookup"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	ServiceName = "screenscraper"

	requestTimeout = 60 * time.Second
	requestSpacing = 1200 * time.Millisecond
	// How long to stay away after a 429/430.
	rateLimitPause = 2 * time.Hour

	// Minimum fuzzy score to accept a search result.
	acceptScore = 0.6

	softwareName = "romhoard"
)

// Client is the ScreenScraper lookup service.
type Client struct {
	db      *catalogdb.CatalogDB
	http    *http.Client
	limiter *rate.Limiter
	creds   config.CredentialEntry
	baseURL string
	enabled bool
}

func NewClient(db *catalogdb.CatalogDB, baseURL string, creds config.CredentialEntry, enabled bool) *Client {
	return &Client{
		db:      db,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Every(requestSpacing), 1),
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
		enabled: enabled,
	}
}

func (*Client) Name() string { return ServiceName }

// Available reports whether the index can be queried for the platform:
// client enabled, credentials present and at least one system ID mapped.
func (c *Client) Available(platform *platforms.Platform) bool {
	if !c.enabled || !c.hasCredentials() {
		return false
	}
	return platform != nil && len(platform.ExternalIDs) > 0
}

func (c *Client) hasCredentials() bool {
	return c.creds.Username != "" && c.creds.Password != "" &&
		c.creds.DevID != "" && c.creds.DevPassword != ""
}

// Lookup tries each of the platform's system IDs with an exact CRC
// match, then an exact filename match, then a fuzzy name search across
// all IDs. Cached answers short-circuit the API.
func (c *Client) Lookup(ctx context.Context, query *lookup.Query) (*lookup.Result, error) {
	if query.Platform == nil || len(query.Platform.ExternalIDs) == 0 {
		return nil, nil
	}
	if !c.enabled {
		return nil, nil
	}
	if !c.hasCredentials() {
		log.Debug().Msg("screenscraper credentials not configured, skipping")
		return nil, nil
	}

	archiveIsContent := query.Platform.ArchiveIsContent

	for _, systemID := range query.Platform.ExternalIDs {
		// Per-file CRCs identify shared ROM chips on arcade sets, not
		// games, so the hash phase is skipped there.
		if query.CRC32 != "" && !archiveIsContent {
			result, err := c.tryExact(ctx, "crc", query.CRC32, systemID)
			if err != nil || result != nil {
				return result, err
			}
		}
		if query.FileName != "" {
			result, err := c.tryExact(ctx, "romnom", query.FileName, systemID)
			if err != nil || result != nil {
				return result, err
			}
		}
	}

	if query.Parsed.Name != "" {
		var best *lookup.Result
		bestScore := 0.0
		for _, systemID := range query.Platform.ExternalIDs {
			result, score, err := c.tryNameSearch(ctx, query.Parsed.Name, systemID)
			if err != nil {
				return nil, err
			}
			if result != nil && score > bestScore {
				best = result
				bestScore = score
			}
		}
		return best, nil
	}
	return nil, nil
}

// tryExact runs a cached jeuInfos lookup, by CRC or by ROM filename.
func (c *Client) tryExact(ctx context.Context, kind, value string, systemID int) (*lookup.Result, error) {
	cacheValue := strings.ToLower(value)
	platformKey := strconv.Itoa(systemID)

	entry, err := c.db.GetCacheEntry(ServiceName, kind, cacheValue, platformKey)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if !entry.Hit {
			return nil, nil
		}
		return cachedResult(entry), nil
	}

	params := url.Values{}
	switch kind {
	case "crc":
		params.Set("crc", strings.ToUpper(value))
	case "romnom":
		params.Set("romnom", value)
	}
	params.Set("systemeid", platformKey)

	game, err := c.gameInfo(ctx, params)
	if err != nil {
		return nil, err
	}

	cache := &catalogdb.CacheEntry{
		Service: ServiceName, Kind: kind, Value: cacheValue,
		PlatformKey: platformKey,
	}
	var result *lookup.Result
	if game != nil && game.ID != 0 {
		result = &lookup.Result{
			Name:       game.Name,
			Source:     catalogdb.SourceMetadataIndex,
			ExternalID: game.ID,
		}
		cache.Hit = true
		cache.ResultName = game.Name
		cache.ResultSource = catalogdb.SourceMetadataIndex
		cache.ResultExternalID = game.ID
	}
	if err := c.db.PutCacheEntry(cache); err != nil {
		return nil, err
	}
	return result, nil
}

// tryNameSearch runs the cached fuzzy search for one system ID.
func (c *Client) tryNameSearch(ctx context.Context, gameName string, systemID int) (*lookup.Result, float64, error) {
	cacheValue := strings.ToLower(gameName)
	platformKey := strconv.Itoa(systemID)

	entry, err := c.db.GetCacheEntry(ServiceName, "name", cacheValue, platformKey)
	if err != nil {
		return nil, 0, err
	}
	if entry != nil {
		if !entry.Hit {
			return nil, 0, nil
		}
		return cachedResult(entry), acceptScore, nil
	}

	for _, variant := range searchVariants(gameName) {
		candidates, err := c.searchGames(ctx, variant, systemID)
		if err != nil {
			return nil, 0, err
		}
		if len(candidates) == 0 {
			continue
		}

		best, score := bestMatch(gameName, candidates)
		if score < acceptScore {
			continue
		}

		if err := c.db.PutCacheEntry(&catalogdb.CacheEntry{
			Service: ServiceName, Kind: "name", Value: cacheValue,
			PlatformKey: platformKey, Hit: true,
			ResultName:       best.Name,
			ResultSource:     catalogdb.SourceMetadataIndex,
			ResultExternalID: best.ID,
		}); err != nil {
			return nil, 0, err
		}
		log.Info().
			Str("query", gameName).
			Str("match", best.Name).
			Int64("id", best.ID).
			Float64("score", score).
			Msg("screenscraper name search matched")
		return &lookup.Result{
			Name:       best.Name,
			Source:     catalogdb.SourceMetadataIndex,
			ExternalID: best.ID,
		}, score, nil
	}

	if err := c.db.PutCacheEntry(&catalogdb.CacheEntry{
		Service: ServiceName, Kind: "name", Value: cacheValue,
		PlatformKey: platformKey,
	}); err != nil {
		return nil, 0, err
	}
	return nil, 0, nil
}

func cachedResult(entry *catalogdb.CacheEntry) *lookup.Result {
	return &lookup.Result{
		Name:       entry.ResultName,
		Source:     entry.ResultSource,
		ExternalID: entry.ResultExternalID,
	}
}

type gameResult struct {
	Name     string
	AllNames []string
	ID       int64
}

// API responses use a flexible schema: names are multilingual lists
// and numeric IDs arrive as strings.
type apiName struct {
	Region string `json:"region"`
	Langue string `json:"langue"`
	Text   string `json:"text"`
}

type apiGame struct {
	ID   json.Number `json:"id"`
	Noms []apiName   `json:"noms"`
}

type apiResponse struct {
	Response struct {
		Jeu  *apiGame        `json:"jeu"`
		Jeux json.RawMessage `json:"jeux"`
	} `json:"response"`
}

// gameInfo calls jeuInfos. A nil game with nil error is no match.
func (c *Client) gameInfo(ctx context.Context, params url.Values) (*gameResult, error) {
	decoded, err := c.request(ctx, "jeuInfos", params)
	if err != nil || decoded == nil {
		return nil, err
	}
	if decoded.Response.Jeu == nil {
		return nil, nil
	}
	return toGameResult(decoded.Response.Jeu), nil
}

// searchGames calls jeuRecherche and returns all valid candidates.
func (c *Client) searchGames(ctx context.Context, name string, systemID int) ([]gameResult, error) {
	params := url.Values{}
	params.Set("recherche", name)
	params.Set("systemeid", strconv.Itoa(systemID))

	decoded, err := c.request(ctx, "jeuRecherche", params)
	if err != nil || decoded == nil {
		return nil, err
	}
	if len(decoded.Response.Jeux) == 0 {
		return nil, nil
	}

	// "jeux" is a single object when there is one result.
	var games []apiGame
	if err := json.Unmarshal(decoded.Response.Jeux, &games); err != nil {
		var single apiGame
		if err := json.Unmarshal(decoded.Response.Jeux, &single); err != nil {
			log.Warn().Err(err).Msg("screenscraper search response parse error")
			return nil, nil
		}
		games = []apiGame{single}
	}

	results := make([]gameResult, 0, len(games))
	for i := range games {
		result := toGameResult(&games[i])
		if result.ID == 0 {
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

func toGameResult(game *apiGame) *gameResult {
	id, _ := game.ID.Int64()
	result := &gameResult{ID: id, Name: extractText(game.Noms, "en")}
	for _, name := range game.Noms {
		if name.Text != "" {
			result.AllNames = append(result.AllNames, name.Text)
		}
	}
	return result
}

// extractText picks the preferred language from a multilingual list,
// falling back to the first entry.
func extractText(items []apiName, language string) string {
	for _, item := range items {
		code := item.Langue
		if code == "" {
			code = item.Region
		}
		if code == language {
			return item.Text
		}
	}
	if len(items) > 0 {
		return items[0].Text
	}
	return ""
}

// request performs one authenticated API call. A nil response with a
// nil error means the call failed in a non-fatal way (no match or
// transient error); rate limiting is surfaced as RateLimitedError.
func (c *Client) request(ctx context.Context, endpoint string, params url.Values) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("devid", c.creds.DevID)
	query.Set("devpassword", c.creds.DevPassword)
	query.Set("softname", softwareName)
	query.Set("ssid", c.creds.Username)
	query.Set("sspassword", c.creds.Password)
	query.Set("output", "json")
	for key, values := range params {
		query[key] = values
	}

	requestURL := c.baseURL + "/" + endpoint + ".php?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Msg("screenscraper request failed")
		return nil, nil //nolint:nilnil // transient failure, caller treats as no match
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 430 {
		return nil, &lookup.RateLimitedError{Service: ServiceName, RetryAfter: rateLimitPause}
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).
			Msg("screenscraper api error")
		return nil, nil //nolint:nilnil // treated as no match
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Warn().Err(err).Msg("screenscraper response parse error")
		return nil, nil //nolint:nilnil // treated as no match
	}
	return &decoded, nil
}
