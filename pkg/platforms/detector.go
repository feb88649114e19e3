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

package platforms

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Detector resolves file paths to platforms using a layered heuristic:
// exclusive extension first, then folder name plus acceptable
// extension. The exclusive-extension map is built once per Detector;
// the first platform to claim an extension wins and archive extensions
// are never exclusive.
type Detector struct {
	exclusive map[string]*Platform
	platforms []Platform
}

// NewDetector builds a Detector over the given platform table.
func NewDetector(table []Platform) *Detector {
	d := &Detector{
		platforms: table,
		exclusive: make(map[string]*Platform),
	}
	for i := range d.platforms {
		p := &d.platforms[i]
		for _, ext := range p.ExclusiveExtensions {
			lower := strings.ToLower(ext)
			if archiveExtensions[lower] {
				continue
			}
			if _, taken := d.exclusive[lower]; !taken {
				d.exclusive[lower] = p
			}
		}
	}
	return d
}

// Platforms returns the table the detector was built over.
func (d *Detector) Platforms() []Platform {
	return d.platforms
}

// BySlug returns the platform with the given slug, or nil.
func (d *Detector) BySlug(slug string) *Platform {
	for i := range d.platforms {
		if d.platforms[i].Slug == slug {
			return &d.platforms[i]
		}
	}
	return nil
}

// Detect maps a loose file path to a platform, or nil when the file
// cannot be identified. Known non-ROM extensions inside a platform
// folder are skipped silently; unknown extensions are skipped with a
// debug log.
func (d *Detector) Detect(filePath string) *Platform {
	ext := FullExtension(filePath)
	if ext == "" {
		return nil
	}

	if p, ok := d.exclusive[ext]; ok {
		log.Debug().
			Str("path", filePath).
			Str("platform", p.Slug).
			Str("extension", ext).
			Msg("matched by exclusive extension")
		return p
	}

	folderPlatform := d.matchByFolder(filePath)
	if folderPlatform == nil {
		return nil
	}

	if IsAcceptableExtension(ext, folderPlatform) {
		log.Debug().
			Str("path", filePath).
			Str("platform", folderPlatform.Slug).
			Msg("matched by folder and extension")
		return folderPlatform
	}

	if IsNonROMExtension(ext) {
		return nil
	}

	log.Debug().
		Str("path", filePath).
		Str("extension", ext).
		Str("folder_platform", folderPlatform.Slug).
		Msg("skipped unknown extension in platform folder")
	return nil
}

// DetectInArchive maps a file inside an archive to a platform. Non-ROM
// internal extensions (bundled screenshots, docs) are skipped before
// any folder logic; the internal path's folders are consulted before
// the archive's own folders.
func (d *Detector) DetectInArchive(archivePath, internalPath string) *Platform {
	ext := FullExtension(internalPath)
	if ext == "" {
		return nil
	}

	if IsNonROMExtension(ext) {
		return nil
	}

	if p, ok := d.exclusive[ext]; ok {
		log.Debug().
			Str("archive", archivePath).
			Str("entry", internalPath).
			Str("platform", p.Slug).
			Msg("matched archive entry by exclusive extension")
		return p
	}

	if internalPlatform := d.matchByFolder(internalPath); internalPlatform != nil {
		if IsAcceptableExtension(ext, internalPlatform) {
			return internalPlatform
		}
		log.Debug().
			Str("archive", archivePath).
			Str("entry", internalPath).
			Str("extension", ext).
			Msg("skipped archive entry with unknown extension")
		return nil
	}

	if archivePlatform := d.matchByFolder(archivePath); archivePlatform != nil {
		if IsAcceptableExtension(ext, archivePlatform) {
			return archivePlatform
		}
		log.Debug().
			Str("archive", archivePath).
			Str("entry", internalPath).
			Str("extension", ext).
			Msg("skipped archive entry with unknown extension")
		return nil
	}

	return nil
}

// MatchByFolder maps a path to a platform by folder name alone,
// ignoring the extension. Image files are matched this way since
// their extensions never identify a platform.
func (d *Detector) MatchByFolder(filePath string) *Platform {
	return d.matchByFolder(filePath)
}

// matchByFolder checks every path segment except the filename against
// each platform's folder names, case-insensitively.
func (d *Detector) matchByFolder(filePath string) *Platform {
	clean := path.Clean(filepath.ToSlash(filePath))
	segments := strings.Split(clean, "/")
	if len(segments) > 0 {
		segments = segments[:len(segments)-1]
	}

	for i := range d.platforms {
		p := &d.platforms[i]
		for _, folder := range p.FolderNames {
			for _, segment := range segments {
				if strings.EqualFold(segment, folder) {
					return p
				}
			}
		}
	}
	return nil
}
