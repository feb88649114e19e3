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

package lookup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	result      *Result
	err         error
	name        string
	calls       int
	unavailable bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Available(_ *platforms.Platform) bool { return !s.unavailable }

func (s *stubService) Lookup(_ context.Context, _ *Query) (*Result, error) {
	s.calls++
	return s.result, s.err
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

func TestChainFirstAnswerWins(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	first := &stubService{name: "first", result: &Result{
		Name: "Mega Man X", Source: catalogdb.SourceNoIntros, ExternalID: 7,
	}}
	second := &stubService{name: "second", result: &Result{
		Name: "Megaman X", Source: catalogdb.SourceMetadataIndex, ExternalID: 8,
	}}

	chain := NewChain(db, clockwork.NewFakeClock(), first, second)
	result, err := chain.Identify(context.Background(), &Query{FileName: "mmx.sfc"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Mega Man X", result.Name)
	assert.Equal(t, int64(7), result.ExternalID)
	// External ID already known, no need to go further.
	assert.Zero(t, second.calls)
}

func TestChainBackfillsExternalID(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	first := &stubService{name: "first", result: &Result{
		Name: "Mega Man X", Source: catalogdb.SourceNoIntros,
	}}
	second := &stubService{name: "second", result: &Result{
		Name: "Megaman X", Source: catalogdb.SourceMetadataIndex, ExternalID: 8,
	}}

	chain := NewChain(db, clockwork.NewFakeClock(), first, second)
	result, err := chain.Identify(context.Background(), &Query{FileName: "mmx.sfc"})
	require.NoError(t, err)
	require.NotNil(t, result)
	// Name from the first answer, ID backfilled by the second.
	assert.Equal(t, "Mega Man X", result.Name)
	assert.Equal(t, int64(8), result.ExternalID)
	assert.Equal(t, 1, second.calls)
}

func TestChainNoAnswer(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	chain := NewChain(db, clockwork.NewFakeClock(),
		&stubService{name: "first"}, &stubService{name: "second"})
	result, err := chain.Identify(context.Background(), &Query{FileName: "unknown.bin"})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestChainPausesRateLimitedService(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	clock := clockwork.NewFakeClock()

	limited := &stubService{name: "metadata", err: &RateLimitedError{
		Service: "metadata", RetryAfter: 2 * time.Hour,
	}}
	chain := NewChain(db, clock, limited)

	result, err := chain.Identify(context.Background(), &Query{FileName: "a.sfc"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, limited.calls)

	var rateLimited *RateLimitedError
	require.True(t, errors.As(err, &rateLimited))
	assert.Equal(t, "metadata", rateLimited.Service)

	// The pause is persisted and honored on subsequent lookups: the
	// service is not called, and the condition still surfaces with the
	// remaining window.
	value, err := db.GetSetting("pause_until:metadata")
	require.NoError(t, err)
	assert.NotEmpty(t, value)

	limited.err = nil
	limited.result = &Result{Name: "A", Source: catalogdb.SourceMetadataIndex, ExternalID: 1}
	clock.Advance(30 * time.Minute)
	_, err = chain.Identify(context.Background(), &Query{FileName: "a.sfc"})
	require.True(t, errors.As(err, &rateLimited))
	assert.Equal(t, 1, limited.calls)
	assert.LessOrEqual(t, rateLimited.RetryAfter, 90*time.Minute)
	assert.Greater(t, rateLimited.RetryAfter, 89*time.Minute)

	// Once the window has passed the service is consulted again.
	clock.Advance(90*time.Minute + time.Minute)
	result, err = chain.Identify(context.Background(), &Query{FileName: "a.sfc"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, limited.calls)
}

func TestChainPausedServiceNotSurfacedWhenAnotherAnswers(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	clock := clockwork.NewFakeClock()

	limited := &stubService{name: "metadata", err: &RateLimitedError{
		Service: "metadata", RetryAfter: time.Hour,
	}}
	answering := &stubService{name: "hashes", result: &Result{
		Name: "B", Source: catalogdb.SourceNoIntros, ExternalID: 2,
	}}
	chain := NewChain(db, clock, limited, answering)

	result, err := chain.Identify(context.Background(), &Query{FileName: "b.sfc"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "B", result.Name)
}

func TestChainSkipsUnavailableService(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	off := &stubService{name: "off", unavailable: true,
		result: &Result{Name: "Wrong", ExternalID: 9}}
	on := &stubService{name: "on", result: &Result{Name: "Right", ExternalID: 3}}
	chain := NewChain(db, clockwork.NewFakeClock(), off, on)

	result, err := chain.Identify(context.Background(), &Query{FileName: "c.sfc"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Right", result.Name)
	assert.Zero(t, off.calls)
}

func TestChainIgnoresGarbagePauseValue(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	require.NoError(t, db.SetSetting("pause_until:svc", "not a timestamp"))

	svc := &stubService{name: "svc", result: &Result{Name: "X", ExternalID: 1}}
	chain := NewChain(db, clockwork.NewFakeClock(), svc)
	result, err := chain.Identify(context.Background(), &Query{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, svc.calls)
}
