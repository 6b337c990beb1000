package services

import (
	"bytes"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/SAP-F-2025/offline-quiz/internal/store"
	"github.com/SAP-F-2025/offline-quiz/internal/validator"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildArchive zips the given files; names ending in "/" become directories.
func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const singlePageManifest = `{
	"name": "T",
	"totalPages": 1,
	"totalQuestions": 1,
	"pageOrder": [{"id": "p1", "title": "Page 1", "configFile": "page1.json"}]
}`

const singlePageConfig = `{
	"id": "p1",
	"title": "Page 1",
	"questions": [{
		"id": "q1",
		"type": "multiple-choice",
		"text": "Pick A",
		"image": null,
		"options": [
			{"id": "o1", "text": "A", "isCorrect": true},
			{"id": "o2", "text": "B", "isCorrect": false}
		]
	}]
}`

func singlePageArchive(t *testing.T) []byte {
	return buildArchive(t, map[string]string{
		"manifest.json": singlePageManifest,
		"page1.json":    singlePageConfig,
	})
}

const twoPageManifest = `{
	"name": "Geography",
	"description": "Capitals and rivers",
	"totalPages": 2,
	"totalQuestions": 3,
	"globalTimeLimit": 600,
	"pageOrder": [
		{"id": "p1", "title": "Capitals", "configFile": "pages/capitals.json"},
		{"id": "p2", "title": "Rivers", "configFile": "pages/rivers.json"}
	]
}`

const capitalsPage = `{
	"id": "p1",
	"title": "Capitals",
	"questions": [
		{"id": "q1", "type": "multiple-choice", "text": "Capital of France?", "image": "images/france.png",
		 "options": [{"id": "a", "text": "Paris", "isCorrect": true}, {"id": "b", "text": "Lyon"}]},
		{"id": "q2", "type": "fill-in-the-blank", "text": "Capital of Italy is ___", "answer": "Rome"}
	]
}`

const riversPage = `{
	"id": "p2",
	"title": "Rivers",
	"questions": [
		{"id": "q3", "type": "multiple-response", "text": "Which flow through Germany?",
		 "options": [{"id": "a", "text": "Rhine", "isCorrect": true}, {"id": "b", "text": "Danube", "isCorrect": true}, {"id": "c", "text": "Thames"}]}
	]
}`

func twoPageFiles() map[string]string {
	return map[string]string{
		"quiz/":                     "",
		"quiz/manifest.json":        twoPageManifest,
		"quiz/pages/capitals.json":  capitalsPage,
		"quiz/pages/rivers.json":    riversPage,
		"quiz/images/france.png":    "\x89PNG",
		"quiz/styles/theme.css":     "body{}",
		"quiz/notes/readme.unknown": "?",
	}
}

func newIngestFixture(maxBytes int64) (*ingestService, *store.MemoryStore) {
	st := store.NewMemoryStore()
	svc := NewIngestService(st, validator.New(), testLogger(), maxBytes).(*ingestService)
	return svc, st
}
