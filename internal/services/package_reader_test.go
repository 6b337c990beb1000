package services

import (
	"context"
	"testing"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/SAP-F-2025/offline-quiz/internal/store"
	"github.com/SAP-F-2025/offline-quiz/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readerWith(t *testing.T, files map[string]string) PackageReader {
	t.Helper()
	st := store.NewMemoryStore()
	staged := store.NewStaging()
	for p, content := range files {
		staged.Put(p, []byte(content), ContentTypeFor(p))
	}
	require.NoError(t, st.Publish(context.Background(), staged))
	return NewPackageReader(st, validator.New(), testLogger())
}

func TestPackageReader_EmptyStore(t *testing.T) {
	r := readerWith(t, nil)
	ctx := context.Background()

	_, err := r.LoadManifest(ctx)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = r.LoadPage(ctx, "page1.json")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPackageReader_LoadsTypedDocuments(t *testing.T) {
	r := readerWith(t, map[string]string{
		"manifest.json":       twoPageManifest,
		"pages/capitals.json": capitalsPage,
		"pages/rivers.json":   riversPage,
	})
	ctx := context.Background()

	manifest, err := r.LoadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Geography", manifest.Name)
	require.NotNil(t, manifest.GlobalTimeLimit)
	assert.Equal(t, 600, *manifest.GlobalTimeLimit)

	page, err := r.LoadPage(ctx, "pages/capitals.json")
	require.NoError(t, err)
	require.Len(t, page.Questions, 2)
	assert.IsType(t, &models.MultipleChoiceQuestion{}, page.Questions[0])
	assert.IsType(t, &models.FillInTheBlankQuestion{}, page.Questions[1])

	again, err := r.LoadPage(ctx, "pages/capitals.json")
	require.NoError(t, err)
	assert.Equal(t, page, again, "repeated loads return identical data")

	pages, err := r.LoadPages(ctx, manifest)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "p2", pages[1].ID)
}

func TestPackageReader_RevalidatesStoredManifest(t *testing.T) {
	r := readerWith(t, map[string]string{"manifest.json": `{"name":"","pageOrder":[]}`})

	_, err := r.LoadManifest(context.Background())
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"name", "pageOrder"}, validationFields(t, err))
}

func TestPackageReader_InvalidPage(t *testing.T) {
	r := readerWith(t, map[string]string{
		"broken.json":  `{"id":`,
		"invalid.json": `{"id":"p","questions":[{"id":"q","type":"multiple-choice","text":"x","options":[{"id":"a"},{"id":"b"}]}]}`,
	})
	ctx := context.Background()

	_, err := r.LoadPage(ctx, "broken.json")
	assert.Equal(t, []string{"broken.json"}, validationFields(t, err))

	_, err = r.LoadPage(ctx, "invalid.json")
	assert.Equal(t, []string{"questions[0].options"}, validationFields(t, err))
}

func TestPackageReader_LoadPagesNamesFailingPage(t *testing.T) {
	r := readerWith(t, map[string]string{
		"manifest.json":       twoPageManifest,
		"pages/capitals.json": capitalsPage,
	})
	ctx := context.Background()

	manifest, err := r.LoadManifest(ctx)
	require.NoError(t, err)

	_, err = r.LoadPages(ctx, manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page p2")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPackageReader_LoadPagesRejectsIDsSharedAcrossPages(t *testing.T) {
	r := readerWith(t, map[string]string{
		"manifest.json": `{"name":"T","pageOrder":[
			{"id":"p1","configFile":"page1.json"},{"id":"p2","configFile":"page2.json"}]}`,
		"page1.json": singlePageConfig,
		"page2.json": `{"id":"p2","questions":[{"id":"q1","type":"fill-in-the-blank","text":"Again","answer":"x"}]}`,
	})
	ctx := context.Background()

	manifest, err := r.LoadManifest(ctx)
	require.NoError(t, err)

	// Each page is valid on its own.
	_, err = r.LoadPage(ctx, "page2.json")
	require.NoError(t, err)

	pages, err := r.LoadPages(ctx, manifest)
	assert.Nil(t, pages)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, []string{"pageOrder[1].questions[0].id"}, validationFields(t, err))
	assert.Contains(t, err.Error(), "page p1")
}
