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

// Package archive opens ZIP and 7z containers, lists their entries
// with header CRCs, and extracts single entries with path-traversal
// protection. Nested archives are never opened; callers treat them as
// opaque files.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	// ErrUnsupportedFormat is returned for any extension other than
	// .zip or .7z.
	ErrUnsupportedFormat = errors.New("unsupported archive format")

	// ErrEntryNotFound is returned when an internal path does not
	// exist in the archive.
	ErrEntryNotFound = errors.New("entry not found in archive")

	// ErrPathTraversal is returned when an archive entry would
	// resolve outside the extraction destination (zip-slip).
	ErrPathTraversal = errors.New("archive path traversal detected")
)

// Entry describes one file inside an archive. CRC32 comes from the
// archive header and is empty when the format did not record one.
type Entry struct {
	Name  string
	CRC32 string
	Size  int64
}

// Adapter reads archives through an afero filesystem so callers can
// run against the OS or an in-memory tree.
type Adapter struct {
	fs afero.Fs
}

// NewAdapter returns an Adapter over fs.
func NewAdapter(fs afero.Fs) *Adapter {
	return &Adapter{fs: fs}
}

// NewOsAdapter returns an Adapter over the host filesystem.
func NewOsAdapter() *Adapter {
	return &Adapter{fs: afero.NewOsFs()}
}

// IsArchivePath reports whether filename has a supported archive
// extension.
func IsArchivePath(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".zip" || ext == ".7z"
}

// ListContents lists the files inside a .zip or .7z archive with their
// uncompressed sizes and header CRC32 values. Directories are omitted.
func (a *Adapter) ListContents(archivePath string) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip":
		return a.listZip(archivePath)
	case ".7z":
		return a.list7z(archivePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(archivePath))
	}
}

// FileExistsInArchive reports whether internalPath exists in the
// archive. Read failures are treated as absence.
func (a *Adapter) FileExistsInArchive(archivePath, internalPath string) bool {
	entries, err := a.ListContents(archivePath)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.Name == internalPath {
			return true
		}
	}
	return false
}

// ExtractEntry extracts a single archive entry. When destPath is an
// existing directory the entry lands under it using its internal path;
// otherwise the entry is written to exactly destPath. Either way the
// resolved target must stay inside the destination directory or the
// extraction fails with ErrPathTraversal before anything is written.
func (a *Adapter) ExtractEntry(archivePath, internalPath, destPath string) error {
	destDir := destPath
	target := ""

	info, err := a.fs.Stat(destPath)
	if err == nil && info.IsDir() {
		target, err = secureJoin(destPath, internalPath)
		if err != nil {
			return err
		}
	} else {
		destDir = filepath.Dir(destPath)
		if _, err := secureJoin(destDir, internalPath); err != nil {
			return err
		}
		target = destPath
	}

	reader, err := a.openEntry(archivePath, internalPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close archive entry reader")
		}
	}()

	if err := a.fs.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	out, err := a.fs.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create extraction target: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close extracted file")
		}
	}()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("failed to extract %s from %s: %w", internalPath, archivePath, err)
	}
	return nil
}

// secureJoin joins internalPath onto destDir and verifies the result
// stays inside destDir. Absolute internal paths and ".." escapes are
// rejected.
func secureJoin(destDir, internalPath string) (string, error) {
	if filepath.IsAbs(internalPath) || strings.HasPrefix(internalPath, "/") {
		return "", fmt.Errorf("%w: absolute path %q", ErrPathTraversal, internalPath)
	}

	dest := filepath.Clean(destDir)
	target := filepath.Join(dest, filepath.FromSlash(internalPath))

	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q escapes %q", ErrPathTraversal, internalPath, destDir)
	}
	return target, nil
}

func (a *Adapter) listZip(archivePath string) ([]Entry, error) {
	reader, size, err := a.readerAt(archivePath)
	if err != nil {
		return nil, err
	}
	defer closeFile(reader)

	zr, err := zip.NewReader(reader, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip archive %s: %w", archivePath, err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		crc := ""
		if f.CRC32 != 0 {
			crc = fmt.Sprintf("%08x", f.CRC32)
		}
		entries = append(entries, Entry{
			Name:  f.Name,
			Size:  int64(f.UncompressedSize64), //nolint:gosec // sizes fit in int64
			CRC32: crc,
		})
	}
	return entries, nil
}

func (a *Adapter) list7z(archivePath string) ([]Entry, error) {
	reader, size, err := a.readerAt(archivePath)
	if err != nil {
		return nil, err
	}
	defer closeFile(reader)

	sz, err := sevenzip.NewReader(reader, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read 7z archive %s: %w", archivePath, err)
	}

	entries := make([]Entry, 0, len(sz.File))
	for _, f := range sz.File {
		if f.FileInfo().IsDir() {
			continue
		}
		crc := ""
		if f.CRC32 != 0 {
			crc = fmt.Sprintf("%08x", f.CRC32)
		}
		entries = append(entries, Entry{
			Name:  f.Name,
			Size:  f.FileInfo().Size(),
			CRC32: crc,
		})
	}
	return entries, nil
}

// openEntry returns a reader for one archive entry.
func (a *Adapter) openEntry(archivePath, internalPath string) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip":
		reader, size, err := a.readerAt(archivePath)
		if err != nil {
			return nil, err
		}
		zr, err := zip.NewReader(reader, size)
		if err != nil {
			closeFile(reader)
			return nil, fmt.Errorf("failed to read zip archive %s: %w", archivePath, err)
		}
		for _, f := range zr.File {
			if f.Name == internalPath {
				rc, err := f.Open()
				if err != nil {
					closeFile(reader)
					return nil, fmt.Errorf("failed to open zip entry %s: %w", internalPath, err)
				}
				return &entryReader{ReadCloser: rc, file: reader}, nil
			}
		}
		closeFile(reader)
		return nil, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, internalPath, archivePath)
	case ".7z":
		reader, size, err := a.readerAt(archivePath)
		if err != nil {
			return nil, err
		}
		sz, err := sevenzip.NewReader(reader, size)
		if err != nil {
			closeFile(reader)
			return nil, fmt.Errorf("failed to read 7z archive %s: %w", archivePath, err)
		}
		for _, f := range sz.File {
			if f.Name == internalPath {
				rc, err := f.Open()
				if err != nil {
					closeFile(reader)
					return nil, fmt.Errorf("failed to open 7z entry %s: %w", internalPath, err)
				}
				return &entryReader{ReadCloser: rc, file: reader}, nil
			}
		}
		closeFile(reader)
		return nil, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, internalPath, archivePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(archivePath))
	}
}

func (a *Adapter) readerAt(path string) (afero.File, int64, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat archive %s: %w", path, err)
	}
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	return f, info.Size(), nil
}

// entryReader closes the underlying archive file together with the
// entry reader.
type entryReader struct {
	io.ReadCloser
	file afero.File
}

func (r *entryReader) Close() error {
	err := r.ReadCloser.Close()
	if closeErr := r.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func closeFile(f afero.File) {
	if err := f.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close archive file")
	}
}
