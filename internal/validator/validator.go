package validator

import (
	"path"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator combines struct-tag validation with the package business rules
type Validator struct {
	structValidator  *validator.Validate
	packageValidator *PackageValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	v := &Validator{structValidator: structValidator}
	v.packageValidator = &PackageValidator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
	return v
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures into ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Package returns the manifest and page validator
func (v *Validator) Package() *PackageValidator {
	return v.packageValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("relative_path", validateRelativePath)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateRelativePath accepts slash-separated paths that stay inside the archive
func validateRelativePath(fl validator.FieldLevel) bool {
	return IsRelativePath(fl.Field().String())
}

func IsRelativePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return false
	}
	cleaned := path.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
