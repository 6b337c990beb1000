package validator

import (
	stderrors "errors"
	"fmt"
	"path"
	"strings"

	"github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/go-playground/validator/v10"
)

// PackageValidator checks manifests and page configurations
type PackageValidator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// ValidateManifest checks the manifest's structure and its invariants against
// the set of files the package contains. exists may be nil to skip the
// configFile presence check.
func (v *PackageValidator) ValidateManifest(m *models.Manifest, exists func(path string) bool) error {
	var errs ValidationErrors

	if err := v.structValidator.Struct(m); err != nil {
		errs = append(errs, errors.ToValidationErrors(err)...)
		if len(errs) == 0 {
			return err
		}
		// Field-level problems make the cross-checks below noisy.
		return errs
	}

	if m.TotalPages != 0 && m.TotalPages != len(m.PageOrder) {
		errs = append(errs, *errors.NewValidationErrorWithRule("totalPages",
			fmt.Sprintf("declares %d pages but pageOrder lists %d", m.TotalPages, len(m.PageOrder)),
			"page_count", m.TotalPages))
	}

	if exists != nil {
		for i, ref := range m.PageOrder {
			if !exists(path.Clean(ref.ConfigFile)) {
				errs = append(errs, *errors.NewValidationErrorWithRule(
					fmt.Sprintf("pageOrder[%d].configFile", i),
					fmt.Sprintf("references %s which is not in the archive", ref.ConfigFile),
					"config_file_present", ref.ConfigFile))
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidatePage checks a decoded page: question fields, unique ids and the
// per-kind correctness rules.
func (v *PackageValidator) ValidatePage(p *models.PageConfig) error {
	var errs ValidationErrors

	if p.ID == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule("id", "is required", "required", nil))
	}

	seen := make(map[string]bool, len(p.Questions))
	for i, q := range p.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)

		if err := v.structValidator.Struct(q); err != nil {
			var fieldErrs validator.ValidationErrors
			if !stderrors.As(err, &fieldErrs) {
				return err
			}
			for _, fe := range fieldErrs {
				converted := errors.ToValidationErrors(validator.ValidationErrors{fe})[0]
				converted.Field = prefix + "." + strings.TrimPrefix(converted.Field, "QuestionBase.")
				errs = append(errs, converted)
			}
		}

		if id := q.QuestionID(); id != "" {
			if seen[id] {
				errs = append(errs, *errors.NewValidationErrorWithRule(prefix+".id",
					"duplicates an earlier question id on this page", "unique", id))
			}
			seen[id] = true
		}

		if ve := v.questionValidator.ValidateAnswerKey(q); ve != nil {
			ve.Field = prefix + "." + ve.Field
			errs = append(errs, *ve)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidatePages checks invariants that span pages. refs and pages are
// parallel, both in pageOrder. Question ids key the scored submission, so they
// must be unique across the whole package, not only within one page.
func (v *PackageValidator) ValidatePages(refs []models.PageRef, pages []*models.PageConfig) error {
	if len(refs) != len(pages) {
		return fmt.Errorf("got %d pages for %d pageOrder entries", len(pages), len(refs))
	}

	var errs ValidationErrors
	firstPage := make(map[string]string)
	for i, page := range pages {
		for j, q := range page.Questions {
			id := q.QuestionID()
			if id == "" {
				continue
			}
			if owner, ok := firstPage[id]; ok {
				if owner == refs[i].ID {
					// Reported by ValidatePage.
					continue
				}
				errs = append(errs, *errors.NewValidationErrorWithRule(
					fmt.Sprintf("pageOrder[%d].questions[%d].id", i, j),
					fmt.Sprintf("duplicates question id %s already used on page %s", id, owner),
					"unique", id))
				continue
			}
			firstPage[id] = refs[i].ID
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
