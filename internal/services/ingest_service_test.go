package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/SAP-F-2025/offline-quiz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(t *testing.T, st store.Store) map[string]string {
	t.Helper()
	ctx := context.Background()
	paths, err := st.Paths(ctx)
	require.NoError(t, err)

	out := make(map[string]string, len(paths))
	for _, p := range paths {
		e, err := st.Get(ctx, p)
		require.NoError(t, err)
		out[p] = e.ContentType + "|" + string(e.Data)
	}
	return out
}

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestIngest_SinglePageArchive(t *testing.T) {
	svc, st := newIngestFixture(50 << 20)
	ctx := context.Background()

	result, err := svc.Ingest(ctx, singlePageArchive(t))
	require.NoError(t, err)

	assert.Equal(t, "T", result.Manifest.Name)
	assert.Equal(t, ".", result.Root)
	assert.Equal(t, 2, result.FileCount)
	assert.Len(t, result.Manifest.PageOrder, result.Manifest.TotalPages)

	e, err := st.Get(ctx, "page1.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", e.ContentType)
}

func TestIngest_RebasesNestedPackageRoot(t *testing.T) {
	svc, st := newIngestFixture(50 << 20)
	ctx := context.Background()

	result, err := svc.Ingest(ctx, buildArchive(t, twoPageFiles()))
	require.NoError(t, err)
	assert.Equal(t, "quiz", result.Root)

	assert.Equal(t, map[string]string{
		"manifest.json":        "application/json|" + twoPageManifest,
		"pages/capitals.json":  "application/json|" + capitalsPage,
		"pages/rivers.json":    "application/json|" + riversPage,
		"images/france.png":    "image/png|\x89PNG",
		"styles/theme.css":     "text/css|body{}",
		"notes/readme.unknown": "application/octet-stream|?",
	}, snapshot(t, st))
}

func TestIngest_PrefersRootManifest(t *testing.T) {
	svc, st := newIngestFixture(0)
	files := map[string]string{
		"manifest.json":       singlePageManifest,
		"page1.json":          singlePageConfig,
		"extra/manifest.json": `{"name":"other"}`,
	}

	result, err := svc.Ingest(context.Background(), buildArchive(t, files))
	require.NoError(t, err)
	assert.Equal(t, "T", result.Manifest.Name)
	assert.Contains(t, snapshot(t, st), "extra/manifest.json")
}

func TestIngest_FailuresLeaveStoreUntouched(t *testing.T) {
	tests := []struct {
		name    string
		archive func(t *testing.T) []byte
		check   func(t *testing.T, err error)
	}{
		{
			name: "missing manifest",
			archive: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{"page1.json": singlePageConfig})
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, []string{"manifest.json"}, validationFields(t, err))
			},
		},
		{
			name: "manifest too deep",
			archive: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{"a/b/manifest.json": singlePageManifest})
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, []string{"manifest.json"}, validationFields(t, err))
			},
		},
		{
			name: "missing name",
			archive: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{
					"manifest.json": `{"pageOrder":[{"id":"p1","configFile":"page1.json"}]}`,
					"page1.json":    singlePageConfig,
				})
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, []string{"name"}, validationFields(t, err))
			},
		},
		{
			name: "missing pageOrder",
			archive: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{"manifest.json": `{"name":"T"}`})
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, []string{"pageOrder"}, validationFields(t, err))
			},
		},
		{
			name: "pageOrder of wrong type",
			archive: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{"manifest.json": `{"name":"T","pageOrder":"p1"}`})
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, []string{"pageOrder"}, validationFields(t, err))
			},
		},
		{
			name: "manifest is not JSON",
			archive: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{"manifest.json": `{name:`})
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, []string{"manifest.json"}, validationFields(t, err))
			},
		},
		{
			name: "config file absent",
			archive: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{"manifest.json": singlePageManifest})
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, []string{"pageOrder[0].configFile"}, validationFields(t, err))
			},
		},
		{
			name: "not a zip archive",
			archive: func(t *testing.T) []byte {
				return []byte("definitely not a zip file")
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsDecompression(err))
			},
		},
		{
			name: "truncated archive",
			archive: func(t *testing.T) []byte {
				data := singlePageArchive(t)
				return data[:len(data)/2]
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsDecompression(err))
			},
		},
		{
			name: "entry escapes the package",
			archive: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{
					"manifest.json": singlePageManifest,
					"page1.json":    singlePageConfig,
					"../evil.json":  "{}",
				})
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsDecompression(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newIngestFixture(50 << 20)
			ctx := context.Background()

			_, err := svc.Ingest(ctx, buildArchive(t, twoPageFiles()))
			require.NoError(t, err)
			before := snapshot(t, st)

			_, err = svc.Ingest(ctx, tt.archive(t))
			require.Error(t, err)
			tt.check(t, err)

			assert.Equal(t, before, snapshot(t, st))
		})
	}
}

func TestIngest_SizeLimits(t *testing.T) {
	ctx := context.Background()
	archive := singlePageArchive(t)

	t.Run("archive over the cap", func(t *testing.T) {
		svc, _ := newIngestFixture(int64(len(archive) - 1))
		_, err := svc.Ingest(ctx, archive)
		require.Error(t, err)
		assert.True(t, apperrors.IsDecompression(err))
		assert.True(t, errors.Is(err, ErrArchiveTooLarge))
	})

	t.Run("extracted content over the cap", func(t *testing.T) {
		bomb := buildArchive(t, map[string]string{
			"manifest.json": singlePageManifest,
			"page1.json":    singlePageConfig,
			"padding.txt":   strings.Repeat("0", 1<<20),
		})
		svc, _ := newIngestFixture(int64(len(bomb)))
		_, err := svc.Ingest(ctx, bomb)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrArchiveTooLarge))
	})
}

func TestIngest_CorruptPageDoesNotBlockIngestion(t *testing.T) {
	svc, st := newIngestFixture(50 << 20)
	archive := buildArchive(t, map[string]string{
		"manifest.json": singlePageManifest,
		"page1.json":    `{"id": "p1", "questions": [{"id": "q1", "type": "essay"}]}`,
	})

	_, err := svc.Ingest(context.Background(), archive)
	require.NoError(t, err)

	reader := NewPackageReader(st, svc.validator, testLogger())
	_, err = reader.LoadPage(context.Background(), "page1.json")
	require.Error(t, err)
	assert.Equal(t, []string{"questions[0].type"}, validationFields(t, err))
}

func TestIngest_RejectsConcurrentIngestion(t *testing.T) {
	svc, _ := newIngestFixture(50 << 20)

	svc.inFlight.Lock()
	_, err := svc.Ingest(context.Background(), singlePageArchive(t))
	svc.inFlight.Unlock()

	assert.ErrorIs(t, err, ErrIngestInProgress)
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"manifest.json":      "application/json",
		"images/a.PNG":       "image/png",
		"images/b.jpeg":      "image/jpeg",
		"images/c.svg":       "image/svg+xml",
		"media/intro.mp4":    "video/mp4",
		"README":             "application/octet-stream",
		"archive.tar.gz":     "application/octet-stream",
		"scripts/helpers.js": "application/javascript",
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentTypeFor(name), name)
	}
}
