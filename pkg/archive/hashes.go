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

package archive

import (
	"crypto/md5"  //nolint:gosec // matching identifiers, not security
	"crypto/sha1" //nolint:gosec // matching identifiers, not security
	"fmt"
	"hash/crc32"
	"io"
)

const hashChunkSize = 64 * 1024

// Hashes holds every digest computed in one streaming pass.
type Hashes struct {
	CRC32 string
	MD5   string
	SHA1  string
	Size  int64
}

// ComputeFileCRC32 streams a file in bounded chunks and returns its
// CRC32 as an 8-character lowercase hex string.
func (a *Adapter) ComputeFileCRC32(path string) (string, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer closeFile(f)

	crcHash := crc32.NewIEEE()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(crcHash, f, buf); err != nil {
		return "", fmt.Errorf("failed to compute CRC32 for %s: %w", path, err)
	}
	return fmt.Sprintf("%08x", crcHash.Sum32()), nil
}

// ComputeFileHashes computes CRC32, MD5 and SHA1 of a file in a single
// streaming pass.
func (a *Adapter) ComputeFileHashes(path string) (*Hashes, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer closeFile(f)

	crcHash := crc32.NewIEEE()
	md5Hash := md5.New()   //nolint:gosec // matching identifiers, not security
	sha1Hash := sha1.New() //nolint:gosec // matching identifiers, not security

	writer := io.MultiWriter(crcHash, md5Hash, sha1Hash)
	buf := make([]byte, hashChunkSize)
	size, err := io.CopyBuffer(writer, f, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return &Hashes{
		CRC32: fmt.Sprintf("%08x", crcHash.Sum32()),
		MD5:   fmt.Sprintf("%x", md5Hash.Sum(nil)),
		SHA1:  fmt.Sprintf("%x", sha1Hash.Sum(nil)),
		Size:  size,
	}, nil
}

// ComputeEntryCRC32 returns the CRC32 of an archive entry read from
// the archive header, avoiding extraction. Empty when the header has
// no CRC for the entry.
func (a *Adapter) ComputeEntryCRC32(archivePath, internalPath string) (string, error) {
	entries, err := a.ListContents(archivePath)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.Name == internalPath {
			return entry.CRC32, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrEntryNotFound, internalPath, archivePath)
}
