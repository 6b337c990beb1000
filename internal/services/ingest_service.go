package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/SAP-F-2025/offline-quiz/internal/store"
	"github.com/SAP-F-2025/offline-quiz/internal/validator"
	"github.com/klauspost/compress/zip"
)

// expansionFactor bounds the total extracted size relative to the archive cap.
const expansionFactor = 4

// IngestService unpacks quiz archives into the content store
type IngestService interface {
	// Ingest validates the archive and atomically replaces the store contents.
	// On any error the previous store contents are left untouched.
	Ingest(ctx context.Context, archive []byte) (*IngestResult, error)
}

type IngestResult struct {
	Manifest  *models.Manifest `json:"manifest"`
	FileCount int              `json:"fileCount"`
	// Root is the archive directory the package was found in; "." for the archive root.
	Root string `json:"root"`
}

type ingestService struct {
	store     store.Store
	validator *validator.Validator
	logger    *slog.Logger
	maxBytes  int64

	inFlight sync.Mutex
}

func NewIngestService(st store.Store, v *validator.Validator, logger *slog.Logger, maxBytes int64) IngestService {
	return &ingestService{
		store:     st,
		validator: v,
		logger:    logger,
		maxBytes:  maxBytes,
	}
}

type archiveEntry struct {
	name string
	data []byte
}

func (s *ingestService) Ingest(ctx context.Context, archive []byte) (*IngestResult, error) {
	if !s.inFlight.TryLock() {
		return nil, ErrIngestInProgress
	}
	defer s.inFlight.Unlock()

	s.logger.Info("Ingesting quiz archive", "size", len(archive))

	entries, err := s.decompress(archive)
	if err != nil {
		return nil, err
	}

	manifestEntry := locateManifest(entries)
	if manifestEntry == nil {
		return nil, ValidationErrors{*apperrors.NewValidationErrorWithRule(models.ManifestPath,
			ErrManifestMissing.Error(), "required", nil)}
	}
	root := path.Dir(manifestEntry.name)

	staged := stageEntries(entries, root)

	var manifest models.Manifest
	if err := json.Unmarshal(manifestEntry.data, &manifest); err != nil {
		return nil, ValidationErrors{*apperrors.FromDecodeError(models.ManifestPath, err)}
	}
	if err := s.validator.Package().ValidateManifest(&manifest, staged.Has); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.store.Publish(ctx, staged); err != nil {
		return nil, fmt.Errorf("failed to publish archive contents: %w", err)
	}

	s.logger.Info("Quiz archive ingested",
		"quiz", manifest.Name,
		"root", root,
		"pages", len(manifest.PageOrder),
		"files", staged.Len())

	return &IngestResult{
		Manifest:  &manifest,
		FileCount: staged.Len(),
		Root:      root,
	}, nil
}

// decompress reads every file entry into memory. Any unreadable or unsafe
// entry fails the whole archive.
func (s *ingestService) decompress(archive []byte) ([]archiveEntry, error) {
	if s.maxBytes > 0 && int64(len(archive)) > s.maxBytes {
		return nil, apperrors.NewDecompressionError("", ErrArchiveTooLarge)
	}

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, apperrors.NewDecompressionError("", err)
	}

	remaining := int64(math.MaxInt64 - 1)
	if s.maxBytes > 0 {
		remaining = s.maxBytes * expansionFactor
	}
	entries := make([]archiveEntry, 0, len(reader.File))

	for _, f := range reader.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if f.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			continue
		}
		if !validator.IsRelativePath(name) {
			return nil, apperrors.NewDecompressionError(f.Name, ErrUnsafeArchivePath)
		}
		if strings.HasPrefix(name, "__MACOSX/") {
			continue
		}

		data, err := readEntry(f, remaining)
		if err != nil {
			return nil, apperrors.NewDecompressionError(f.Name, err)
		}
		remaining -= int64(len(data))

		entries = append(entries, archiveEntry{name: path.Clean(name), data: data})
	}

	return entries, nil
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrArchiveTooLarge
	}
	return data, nil
}

// locateManifest picks manifest.json at the archive root, falling back to
// the lexically first one a single directory deep.
func locateManifest(entries []archiveEntry) *archiveEntry {
	var candidates []*archiveEntry
	for i := range entries {
		e := &entries[i]
		if path.Base(e.name) != models.ManifestPath || strings.Count(e.name, "/") > 1 {
			continue
		}
		if e.name == models.ManifestPath {
			return e
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].name < candidates[j].name })
	return candidates[0]
}

// stageEntries keys entries relative to the package root. Entries outside the
// root keep their archive path and lose any collision with a rooted entry.
func stageEntries(entries []archiveEntry, root string) *store.Staging {
	staged := store.NewStaging()
	prefix := root + "/"

	var rooted []archiveEntry
	for _, e := range entries {
		if root != "." && strings.HasPrefix(e.name, prefix) {
			rooted = append(rooted, archiveEntry{name: strings.TrimPrefix(e.name, prefix), data: e.data})
			continue
		}
		staged.Put(e.name, e.data, ContentTypeFor(e.name))
	}
	for _, e := range rooted {
		staged.Put(e.name, e.data, ContentTypeFor(e.name))
	}
	return staged
}

const defaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".txt":  "text/plain",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
}

// ContentTypeFor maps a file name to its MIME type by extension.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return defaultContentType
}
