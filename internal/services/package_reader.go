package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/SAP-F-2025/offline-quiz/internal/store"
	"github.com/SAP-F-2025/offline-quiz/internal/validator"
)

// PackageReader exposes typed views of the package held in the content store.
// Nothing is cached here; every call reads and validates the stored bytes.
type PackageReader interface {
	LoadManifest(ctx context.Context) (*models.Manifest, error)
	LoadPage(ctx context.Context, configFile string) (*models.PageConfig, error)
	// LoadPages loads every page of the manifest in pageOrder.
	LoadPages(ctx context.Context, manifest *models.Manifest) ([]*models.PageConfig, error)
	Asset(ctx context.Context, path string) (*store.Entry, error)
}

type packageReader struct {
	store     store.Store
	validator *validator.Validator
	logger    *slog.Logger
}

func NewPackageReader(st store.Store, v *validator.Validator, logger *slog.Logger) PackageReader {
	return &packageReader{
		store:     st,
		validator: v,
		logger:    logger,
	}
}

func (r *packageReader) LoadManifest(ctx context.Context) (*models.Manifest, error) {
	entry, err := r.store.Get(ctx, models.ManifestPath)
	if err != nil {
		return nil, err
	}

	var manifest models.Manifest
	if err := json.Unmarshal(entry.Data, &manifest); err != nil {
		return nil, ValidationErrors{*apperrors.FromDecodeError(models.ManifestPath, err)}
	}

	// The store may have been altered since ingestion; re-check the structure.
	if err := r.validator.Package().ValidateManifest(&manifest, nil); err != nil {
		r.logger.Warn("Stored manifest failed validation", "error", err)
		return nil, err
	}

	return &manifest, nil
}

func (r *packageReader) LoadPage(ctx context.Context, configFile string) (*models.PageConfig, error) {
	entry, err := r.store.Get(ctx, configFile)
	if err != nil {
		return nil, err
	}

	var page models.PageConfig
	if err := json.Unmarshal(entry.Data, &page); err != nil {
		return nil, ValidationErrors{*apperrors.FromDecodeError(configFile, err)}
	}

	if err := r.validator.Package().ValidatePage(&page); err != nil {
		r.logger.Warn("Page failed validation", "config_file", configFile, "error", err)
		return nil, err
	}

	return &page, nil
}

func (r *packageReader) LoadPages(ctx context.Context, manifest *models.Manifest) ([]*models.PageConfig, error) {
	pages := make([]*models.PageConfig, 0, len(manifest.PageOrder))
	for _, ref := range manifest.PageOrder {
		page, err := r.LoadPage(ctx, ref.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", ref.ID, err)
		}
		pages = append(pages, page)
	}
	if err := r.validator.Package().ValidatePages(manifest.PageOrder, pages); err != nil {
		r.logger.Warn("Package failed cross-page validation", "quiz", manifest.Name, "error", err)
		return nil, err
	}
	return pages, nil
}

func (r *packageReader) Asset(ctx context.Context, path string) (*store.Entry, error) {
	return r.store.Get(ctx, path)
}
