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

package chd

import (
	"encoding/binary"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdHeader(version uint32, sha1Offset int, sha1 []byte) []byte {
	header := make([]byte, maxHeaderLen)
	copy(header, headerMagic)
	binary.BigEndian.PutUint32(header[8:12], uint32(maxHeaderLen))
	binary.BigEndian.PutUint32(header[12:16], version)
	copy(header[sha1Offset:], sha1)
	return header
}

func TestInternalSHA1V5(t *testing.T) {
	sha1 := []byte{
		0x2a, 0xae, 0x6c, 0x35, 0xc9, 0x4f, 0xcf, 0xb4, 0x15, 0xdb,
		0xe9, 0x5f, 0x40, 0x8b, 0x9c, 0xe9, 0x1e, 0xe8, 0x46, 0xed,
	}
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/roms/game.chd", chdHeader(5, v5SHA1Offset, sha1), 0o644))

	got, err := InternalSHA1(fs, "/roms/game.chd")
	require.NoError(t, err)
	assert.Equal(t, "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", got)
}

func TestInternalSHA1V4(t *testing.T) {
	sha1 := make([]byte, 20)
	sha1[0] = 0xab
	sha1[19] = 0x01
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/roms/game.chd", chdHeader(4, v4SHA1Offset, sha1), 0o644))

	got, err := InternalSHA1(fs, "/roms/game.chd")
	require.NoError(t, err)
	assert.Len(t, got, 40)
	assert.Equal(t, "ab", got[:2])
	assert.Equal(t, "01", got[38:])
}

func TestInternalSHA1NotCHD(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/roms/notchd.chd", []byte("GBA ROM DATA HERE, long enough to read"), 0o644))

	_, err := InternalSHA1(fs, "/roms/notchd.chd")
	require.ErrorIs(t, err, ErrNotCHD)
}

func TestInternalSHA1UnsupportedVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/roms/v9.chd", chdHeader(9, v5SHA1Offset, make([]byte, 20)), 0o644))

	_, err := InternalSHA1(fs, "/roms/v9.chd")
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestInternalSHA1MissingHash(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/roms/zero.chd", chdHeader(5, v5SHA1Offset, make([]byte, 20)), 0o644))

	_, err := InternalSHA1(fs, "/roms/zero.chd")
	require.Error(t, err)
}

func TestIsCHDPath(t *testing.T) {
	assert.True(t, IsCHDPath("game.chd"))
	assert.True(t, IsCHDPath("GAME.CHD"))
	assert.True(t, IsCHDPath("game.Chd"))
	assert.False(t, IsCHDPath("game.bin"))
	assert.False(t, IsCHDPath(".chd"))
}

func TestInternalSHA1ShortHeader(t *testing.T) {
	// A v5 header cut off before the SHA1 field reads without error but
	// fails the length check.
	fs := afero.NewMemMapFs()
	header := chdHeader(5, v5SHA1Offset, make([]byte, 20))
	require.NoError(t, afero.WriteFile(fs, "/roms/cut.chd", header[:40], 0o644))

	_, err := InternalSHA1(fs, "/roms/cut.chd")
	require.ErrorIs(t, err, ErrNotCHD)
}
