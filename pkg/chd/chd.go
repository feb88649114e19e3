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

// Package chd reads the identifying SHA1 out of CHD container headers.
// CHD files compress disc images, so the file's own hash changes with
// the compression settings; the internal SHA1 of the decompressed data
// is the stable identifier.
package chd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

const headerMagic = "MComprHD"

// SHA1 offsets into the fixed header, by header version.
const (
	v3SHA1Offset = 80
	v4SHA1Offset = 48
	v5SHA1Offset = 84

	maxHeaderLen = 124
)

var (
	// ErrNotCHD is returned when the file does not carry a CHD header.
	ErrNotCHD = errors.New("not a chd file")

	// ErrUnsupportedVersion is returned for header versions without a
	// known SHA1 field.
	ErrUnsupportedVersion = errors.New("unsupported chd header version")
)

// IsCHDPath reports whether the filename looks like a CHD container.
func IsCHDPath(filename string) bool {
	return len(filename) > 4 && strings.EqualFold(filename[len(filename)-4:], ".chd")
}

// InternalSHA1 reads the SHA1 of the decompressed content from a CHD
// file's header. Supported header versions are 3, 4 and 5.
func InternalSHA1(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open chd file %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	// Older header versions are shorter than maxHeaderLen, so a short
	// file is fine; the per-version length check below catches real
	// truncation.
	header := make([]byte, maxHeaderLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read chd header from %s: %w", path, err)
	}
	header = header[:n]

	if len(header) < 16 || string(header[:8]) != headerMagic {
		return "", fmt.Errorf("%w: %s", ErrNotCHD, path)
	}

	version := binary.BigEndian.Uint32(header[12:16])

	var offset int
	switch version {
	case 3:
		offset = v3SHA1Offset
	case 4:
		offset = v4SHA1Offset
	case 5:
		offset = v5SHA1Offset
	default:
		return "", fmt.Errorf("%w: v%d in %s", ErrUnsupportedVersion, version, path)
	}

	if len(header) < offset+20 {
		return "", fmt.Errorf("%w: truncated header in %s", ErrNotCHD, path)
	}

	sha1Bytes := header[offset : offset+20]
	if bytes.Equal(sha1Bytes, make([]byte, 20)) {
		return "", fmt.Errorf("chd header of %s carries no sha1", path)
	}
	return fmt.Sprintf("%x", sha1Bytes), nil
}
