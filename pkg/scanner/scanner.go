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

// Package scanner walks a library tree, registers every ROM it finds
// as catalog records, matches artwork to titles and removes records
// whose files are gone.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	gopath "path"
	"path/filepath"
	"strings"

	"github.com/cubicalbatch/romhoard-sub001/pkg/archive"
	"github.com/cubicalbatch/romhoard-sub001/pkg/chd"
	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/cubicalbatch/romhoard-sub001/pkg/lookup"
	"github.com/cubicalbatch/romhoard-sub001/pkg/merge"
	"github.com/cubicalbatch/romhoard-sub001/pkg/parser"
	"github.com/cubicalbatch/romhoard-sub001/pkg/platforms"
	"github.com/cubicalbatch/romhoard-sub001/pkg/scoring"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// maxErrors bounds the error list in a scan summary.
const maxErrors = 50

// Identifier resolves one file's canonical name. *lookup.Chain
// implements it.
type Identifier interface {
	Identify(ctx context.Context, query *lookup.Query) (*lookup.Result, error)
}

// Scanner walks library directories and keeps the catalog in sync
// with what is on disk.
type Scanner struct {
	fs       afero.Fs
	db       *catalogdb.CatalogDB
	detector *platforms.Detector
	parser   *parser.Parser
	archives *archive.Adapter
	scorer   *scoring.Scorer
	chain    Identifier
}

// New returns a Scanner over fs. chain may be nil to scan without any
// external identification.
func New(fs afero.Fs, db *catalogdb.CatalogDB, detector *platforms.Detector,
	fileParser *parser.Parser, scorer *scoring.Scorer, chain Identifier,
) *Scanner {
	return &Scanner{
		fs:       fs,
		db:       db,
		detector: detector,
		parser:   fileParser,
		archives: archive.NewAdapter(fs),
		scorer:   scorer,
		chain:    chain,
	}
}

// Options controls one scan run.
type Options struct {
	// IdentifyLater skips external lookups during the walk and
	// reports the created files in NeedsIdentification instead, for
	// the job system to identify asynchronously.
	IdentifyLater bool
}

// ScanError is one non-fatal per-file failure.
type ScanError struct {
	Path    string
	Message string
}

// Summary reports what one scan run changed.
type Summary struct {
	ScanID              uuid.UUID
	NeedsIdentification []int64
	Errors              []ScanError
	Added               int
	Skipped             int
	DeletedFiles        int
	ImagesAdded         int
	ImagesSkipped       int
}

type pendingImage struct {
	platform *platforms.Platform
	path     string
}

type scanState struct {
	seen   map[string]bool
	images []pendingImage
}

// incoming is one file on its way into the catalog.
type incoming struct {
	platform    *platforms.Platform
	parsed      parser.Parsed
	displayName string
	// parseName is the filename the parsed fields came from; content
	// type classification reads it again.
	parseName string
	// queryFileName is the romnom sent to lookup services: the inner
	// or loose file name normally, the archive name for platforms
	// whose archives are the content unit.
	queryFileName       string
	filePath            string
	archivePath         string
	sourcePath          string
	size                int64
	crc32               string
	sha1                string
	needsIdentification bool
}

// Scan walks root and registers everything it finds. Only a missing
// or invalid root is fatal; per-file problems land in Summary.Errors.
// On cancellation the current file's mutations complete, the walk
// stops, and the partial summary is returned with the context error:
// the cleanup and image passes do not run.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) (*Summary, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", root)
	}

	summary := &Summary{ScanID: uuid.New()}
	state := &scanState{seen: make(map[string]bool)}

	log.Info().
		Str("scanID", summary.ScanID.String()).
		Str("root", root).
		Msg("starting library scan")

	walkErr := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.recordError(summary, path, err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.processFile(ctx, path, info, opts, state, summary)
		return nil
	})
	if walkErr != nil {
		return summary, walkErr
	}

	s.matchImages(state, summary)
	s.cleanupMissing(root, state.seen, summary)

	log.Info().
		Str("scanID", summary.ScanID.String()).
		Int("added", summary.Added).
		Int("skipped", summary.Skipped).
		Int("deletedFiles", summary.DeletedFiles).
		Int("imagesAdded", summary.ImagesAdded).
		Int("errors", len(summary.Errors)).
		Msg("scan complete")
	return summary, nil
}

func (s *Scanner) processFile(ctx context.Context, path string, info os.FileInfo,
	opts Options, state *scanState, summary *Summary,
) {
	name := info.Name()
	ext := platforms.FullExtension(name)
	if ext == "" {
		return
	}

	if isBIOSFile(name, path) {
		log.Debug().Str("path", path).Msg("skipped BIOS file")
		return
	}

	if platforms.IsImageExtension(ext) {
		if platform := s.detector.MatchByFolder(path); platform != nil {
			state.images = append(state.images, pendingImage{platform: platform, path: path})
		}
		return
	}

	if platforms.IsArchiveExtension(ext) {
		s.processArchive(ctx, path, opts, state, summary)
		return
	}

	platform := s.detector.Detect(path)
	if platform == nil {
		return
	}

	state.seen[path] = true
	existing, err := s.db.FindContentFileByPath(path, "")
	if err != nil {
		s.recordError(summary, path, err)
		return
	}
	if existing != nil {
		summary.Skipped++
		return
	}

	var crc32, sha1 string
	if chd.IsCHDPath(name) {
		// The container's own CRC32 identifies nothing; the internal
		// SHA1 is what the hash databases index.
		sha1, err = chd.InternalSHA1(s.fs, path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to read chd header")
			sha1 = ""
		}
	} else {
		crc32, err = s.archives.ComputeFileCRC32(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to hash file")
			crc32 = ""
		}
	}

	s.addFile(ctx, &incoming{
		platform:      platform,
		parsed:        s.parser.Parse(name),
		displayName:   name,
		parseName:     name,
		queryFileName: name,
		filePath:      path,
		sourcePath:    filepath.Dir(path),
		size:          info.Size(),
		crc32:         crc32,
		sha1:          sha1,
	}, opts, summary)
}

func (s *Scanner) processArchive(ctx context.Context, archivePath string,
	opts Options, state *scanState, summary *Summary,
) {
	platform := s.detector.Detect(archivePath)
	if platform != nil && platform.ArchiveIsContent {
		s.addWholeArchive(ctx, archivePath, platform, opts, state, summary)
		return
	}

	entries, err := s.archives.ListContents(archivePath)
	if err != nil {
		s.recordError(summary, archivePath, err)
		return
	}

	type candidate struct {
		platform *platforms.Platform
		entry    archive.Entry
	}
	var candidates []candidate
	for _, entry := range entries {
		// Nested archives are opaque; extracting them is not worth it.
		if platforms.IsArchiveExtension(platforms.FullExtension(entry.Name)) {
			continue
		}
		if p := s.detector.DetectInArchive(archivePath, entry.Name); p != nil {
			candidates = append(candidates, candidate{platform: p, entry: entry})
		}
	}
	if len(candidates) == 0 {
		return
	}

	state.seen[archivePath] = true

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.entry.Name)
	}
	if s.holdsMultipleTitles(names) {
		for _, c := range candidates {
			s.addArchivedEntry(ctx, archivePath, c.entry, c.platform,
				gopath.Base(c.entry.Name), nil, opts, summary)
		}
		return
	}

	// One title, possibly multi-disc: every entry lands in the same
	// variant under the archive's own parsed name, disc numbers still
	// taken from the entry names.
	archiveName := filepath.Base(archivePath)
	archiveParsed := s.parser.Parse(archiveName)
	for _, c := range candidates {
		s.addArchivedEntry(ctx, archivePath, c.entry, c.platform,
			archiveName, &archiveParsed, opts, summary)
	}
}

// holdsMultipleTitles decides whether an archive's entries are
// different games by comparing their parsed base names
// case-insensitively. Multi-disc sets parse to one shared name.
func (s *Scanner) holdsMultipleTitles(entryNames []string) bool {
	if len(entryNames) <= 1 {
		return false
	}
	names := make(map[string]bool)
	for _, entryName := range entryNames {
		parsed := s.parser.Parse(gopath.Base(entryName))
		names[strings.ToLower(strings.TrimSpace(parsed.Name))] = true
	}
	return len(names) > 1
}

func (s *Scanner) addWholeArchive(ctx context.Context, archivePath string,
	platform *platforms.Platform, opts Options, state *scanState, summary *Summary,
) {
	state.seen[archivePath] = true
	existing, err := s.db.FindContentFileByPath(archivePath, "")
	if err != nil {
		s.recordError(summary, archivePath, err)
		return
	}
	if existing != nil {
		summary.Skipped++
		return
	}

	name := filepath.Base(archivePath)
	crc32, err := s.archives.ComputeFileCRC32(archivePath)
	if err != nil {
		log.Warn().Err(err).Str("path", archivePath).Msg("failed to hash archive")
		crc32 = ""
	}
	var size int64
	if info, err := s.fs.Stat(archivePath); err == nil {
		size = info.Size()
	}

	s.addFile(ctx, &incoming{
		platform:      platform,
		parsed:        s.parser.Parse(name),
		displayName:   name,
		parseName:     name,
		queryFileName: name,
		filePath:      archivePath,
		sourcePath:    archivePath,
		size:          size,
		crc32:         crc32,
	}, opts, summary)
}

// addArchivedEntry registers one archive entry. titleParsed, when set,
// carries the archive's own parsed name for single-title archives so
// every disc entry resolves to the same title and variant.
func (s *Scanner) addArchivedEntry(ctx context.Context, archivePath string,
	entry archive.Entry, platform *platforms.Platform, displayName string,
	titleParsed *parser.Parsed, opts Options, summary *Summary,
) {
	existing, err := s.db.FindContentFileByPath(entry.Name, archivePath)
	if err != nil {
		s.recordError(summary, archivePath, err)
		return
	}
	if existing != nil {
		summary.Skipped++
		return
	}

	internalName := gopath.Base(entry.Name)
	crc32 := entry.CRC32
	if crc32 == "" {
		crc32, err = s.archives.ComputeEntryCRC32(archivePath, entry.Name)
		if err != nil {
			log.Warn().Err(err).
				Str("archive", archivePath).Str("entry", entry.Name).
				Msg("failed to hash archive entry")
			crc32 = ""
		}
	}

	// Entries in different folders of one archive group into
	// different variants; discs in the same folder stay together.
	sourcePath := archivePath
	if dir := gopath.Dir(entry.Name); dir != "." && dir != "/" {
		sourcePath = archivePath + "/" + dir
	}

	parsed := s.parser.Parse(internalName)
	if titleParsed != nil {
		parsed.Name = titleParsed.Name
		if parsed.Region == "" {
			parsed.Region = titleParsed.Region
		}
		if parsed.Revision == "" {
			parsed.Revision = titleParsed.Revision
		}
	}

	s.addFile(ctx, &incoming{
		platform:      platform,
		parsed:        parsed,
		displayName:   displayName,
		parseName:     internalName,
		queryFileName: internalName,
		filePath:      entry.Name,
		archivePath:   archivePath,
		sourcePath:    sourcePath,
		size:          entry.Size,
		crc32:         crc32,
	}, opts, summary)
}

func (s *Scanner) addFile(ctx context.Context, in *incoming, opts Options, summary *Summary) {
	variant, title, err := s.resolveVariant(ctx, in, opts, summary)
	if err != nil {
		s.recordError(summary, in.filePath, err)
		return
	}

	file := &catalogdb.ContentFile{
		VariantID:   variant.DBID,
		FilePath:    in.filePath,
		ArchivePath: in.archivePath,
		FileName:    in.displayName,
		FileSize:    in.size,
		CRC32:       in.crc32,
		SHA1:        in.sha1,
		Tags:        in.parsed.Tags,
		Disc:        in.parsed.Disc,
		ROMNumber:   in.parsed.ROMNumber,
	}
	if in.platform.UsesContentTypes {
		_, file.ContentType = parser.ContentInfo(in.parseName)
	}

	if err := s.db.CreateContentFile(file); err != nil {
		if catalogdb.IsUniqueViolation(err) {
			// Another worker registered this file mid-scan.
			summary.Skipped++
			return
		}
		s.recordError(summary, in.filePath, err)
		return
	}

	if err := s.scorer.RecalculateDefaultVariant(title.DBID, in.platform); err != nil {
		s.recordError(summary, in.filePath, err)
	}

	summary.Added++
	if in.needsIdentification {
		summary.NeedsIdentification = append(summary.NeedsIdentification, file.DBID)
	}
	log.Debug().
		Str("file", in.displayName).
		Str("title", title.Name).
		Str("platform", in.platform.Slug).
		Str("region", variant.Region).
		Msg("added content file")
}

// resolveVariant finds or creates the (Title, Variant) pair for an
// incoming file, optionally identifying it through the lookup chain
// first. Lookup failures never block registration: the file falls
// back to its parsed filename identity, and a rate-limited chain
// marks it for later identification instead.
func (s *Scanner) resolveVariant(ctx context.Context, in *incoming,
	opts Options, summary *Summary,
) (*catalogdb.Variant, *catalogdb.Title, error) {
	name := in.parsed.Name
	region := in.parsed.Region
	revision := in.parsed.Revision
	nameSource := catalogdb.SourceFilename
	var externalID int64

	canLookup := in.crc32 != "" || in.sha1 != "" || in.queryFileName != ""
	switch {
	case opts.IdentifyLater && canLookup:
		in.needsIdentification = true
	case s.chain != nil && canLookup:
		result, err := s.chain.Identify(ctx, &lookup.Query{
			Platform: in.platform,
			FileName: in.queryFileName,
			CRC32:    in.crc32,
			SHA1:     in.sha1,
			Parsed:   in.parsed,
			FileSize: in.size,
		})
		if err != nil {
			var rateLimited *lookup.RateLimitedError
			if errors.As(err, &rateLimited) {
				log.Warn().
					Str("file", in.displayName).
					Dur("retry_after", rateLimited.RetryAfter).
					Msg("lookup rate limited, deferring identification")
				in.needsIdentification = true
			} else {
				log.Warn().Err(err).Str("file", in.displayName).
					Msg("lookup failed, keeping filename identity")
				s.recordError(summary, in.filePath, err)
			}
		}
		if result != nil {
			log.Info().
				Str("file", in.displayName).
				Str("match", result.Name).
				Str("source", result.Source).
				Msg("lookup matched file")
			name = result.Name
			if result.Region != "" {
				region = result.Region
			}
			if result.Revision != "" {
				revision = result.Revision
			}
			nameSource = result.Source
			externalID = result.ExternalID
		}
	}

	title, err := merge.FindExistingTitle(s.db, name, in.platform.Slug, in.crc32, in.sha1, externalID)
	if err != nil {
		return nil, nil, err
	}

	created := false
	if title == nil {
		title = &catalogdb.Title{
			Name:         name,
			PlatformSlug: in.platform.Slug,
			NameSource:   nameSource,
			ExternalID:   externalID,
		}
		switch err := s.db.CreateTitle(title); {
		case err == nil:
			created = true
		case catalogdb.IsUniqueViolation(err):
			// Lost a create race to a concurrent worker.
			title, err = s.db.FindTitleByName(name, in.platform.Slug)
			if err != nil {
				return nil, nil, err
			}
			if title == nil {
				return nil, nil, fmt.Errorf("failed to resolve title %q after create race", name)
			}
		default:
			return nil, nil, err
		}
	}

	if !created {
		changed := false
		if isHashSource(nameSource) && title.NameSource != nameSource {
			title.NameSource = nameSource
			changed = true
		}
		if externalID != 0 && title.ExternalID == 0 {
			title.ExternalID = externalID
			changed = true
		}
		if changed {
			if err := s.db.UpdateTitle(title); err != nil {
				return nil, nil, err
			}
		}
	}

	variant, _, err := s.db.GetOrCreateVariant(title.DBID, region, revision, in.sourcePath)
	if err != nil {
		return nil, nil, err
	}
	return variant, title, nil
}

// isHashSource reports whether a name source came from a hash match,
// which outranks whatever the title already carries from parsing.
func isHashSource(source string) bool {
	switch source {
	case catalogdb.SourceNoIntros, catalogdb.SourceRedump, catalogdb.SourceHashDB:
		return true
	}
	return false
}

// cleanupMissing deletes records under root whose files were neither
// seen in this scan nor still on disk, cascading to empty variants
// and titles.
func (s *Scanner) cleanupMissing(root string, seen map[string]bool, summary *Summary) {
	files, err := s.db.ListAllContentFiles()
	if err != nil {
		s.recordError(summary, root, err)
		return
	}

	for _, file := range files {
		location := file.Location()
		rel, err := filepath.Rel(root, location)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if seen[location] {
			continue
		}
		if exists, err := afero.Exists(s.fs, location); err != nil || exists {
			continue
		}

		if err := s.db.DeleteContentFile(file.DBID); err != nil {
			s.recordError(summary, location, err)
			continue
		}
		summary.DeletedFiles++
		log.Debug().Str("path", location).Msg("deleted missing content file")

		if err := s.dropIfEmpty(file.VariantID); err != nil {
			s.recordError(summary, location, err)
		}
	}
}

// dropIfEmpty removes a variant with no files left, and its title
// when that was the last variant.
func (s *Scanner) dropIfEmpty(variantID int64) error {
	count, err := s.db.CountContentFiles(variantID)
	if err != nil || count > 0 {
		return err
	}

	variant, err := s.db.GetVariant(variantID)
	if err != nil || variant == nil {
		return err
	}
	if err := s.db.DeleteVariant(variantID); err != nil {
		return err
	}

	remaining, err := s.db.ListVariantsByTitle(variant.TitleID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		log.Debug().Int64("titleID", variant.TitleID).Msg("deleted orphaned title")
		return s.db.DeleteTitle(variant.TitleID)
	}

	title, err := s.db.GetTitle(variant.TitleID)
	if err != nil || title == nil {
		return err
	}
	return s.scorer.RecalculateDefaultVariant(title.DBID, s.detector.BySlug(title.PlatformSlug))
}

func (s *Scanner) recordError(summary *Summary, path string, err error) {
	log.Error().Err(err).Str("path", path).Msg("scan error")
	if len(summary.Errors) >= maxErrors {
		return
	}
	summary.Errors = append(summary.Errors, ScanError{Path: path, Message: err.Error()})
}

// isBIOSFile reports whether a file looks like firmware rather than a
// game: the filename starts with "bios" or any directory segment is
// exactly "bios".
func isBIOSFile(filename, filePath string) bool {
	if strings.HasPrefix(strings.ToLower(filename), "bios") {
		return true
	}
	clean := filepath.ToSlash(filePath)
	for _, segment := range strings.Split(clean, "/") {
		if strings.EqualFold(segment, "bios") && segment != filename {
			return true
		}
	}
	return false
}
