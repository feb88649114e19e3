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

package scanner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/lookup"
	"github.com/rs/zerolog/log"
)

// IdentifyFile runs the lookup chain for one content file registered
// earlier with IdentifyLater, updating its title on a match. A file
// that no longer exists or needs no identification returns nil
// without error, so queued jobs stay safe to replay.
func (s *Scanner) IdentifyFile(ctx context.Context, contentFileID int64) (*lookup.Result, error) {
	if s.chain == nil {
		return nil, nil
	}

	file, err := s.db.GetContentFile(contentFileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		log.Debug().Int64("fileID", contentFileID).Msg("content file gone before identification")
		return nil, nil
	}

	variant, err := s.db.GetVariant(file.VariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, nil
	}
	title, err := s.db.GetTitle(variant.TitleID)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, nil
	}

	// A hash-backed name or known external ID is already as good as a
	// lookup can make it.
	if isHashSource(title.NameSource) || title.ExternalID != 0 {
		return nil, nil
	}

	platform := s.detector.BySlug(title.PlatformSlug)
	if platform == nil {
		return nil, fmt.Errorf("unknown platform slug: %s", title.PlatformSlug)
	}

	result, err := s.chain.Identify(ctx, &lookup.Query{
		Platform: platform,
		// FilePath is the inner entry path for archived files, so its
		// base is the same romnom the scan would have queried with.
		FileName: filepath.Base(file.FilePath),
		CRC32:    file.CRC32,
		SHA1:     file.SHA1,
		Parsed:   s.parser.Parse(file.FileName),
		FileSize: file.FileSize,
	})
	if err != nil || result == nil {
		return result, err
	}

	previousName := title.Name
	title.Name = result.Name
	title.NameSource = result.Source
	title.ExternalID = result.ExternalID
	if err := s.db.UpdateTitle(title); err != nil {
		if !catalogdb.IsUniqueViolation(err) {
			return nil, err
		}
		// The canonical name already belongs to another title on this
		// platform; keep our name, still record source and ID.
		title.Name = previousName
		if err := s.db.UpdateTitle(title); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("file", file.FileName).
		Str("match", result.Name).
		Str("source", result.Source).
		Msg("identified content file")
	return result, nil
}
