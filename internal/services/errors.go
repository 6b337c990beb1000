package services

import (
	"errors"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Session lifecycle errors
	ErrNoPackageLoaded = errors.New("no quiz package loaded")
	ErrNotStarted      = errors.New("quiz has not been started")
	ErrQuizComplete    = errors.New("quiz is already complete")
	ErrQuizNotComplete = errors.New("quiz must be completed before sealing")
	ErrNoSubmission    = errors.New("no sealed submission available")

	// In-flight guards
	ErrIngestInProgress = errors.New("another archive ingestion is in progress")
	ErrSealInProgress   = errors.New("another sealing operation is in progress")

	// Archive errors
	ErrArchiveTooLarge   = errors.New("archive exceeds the maximum allowed size")
	ErrManifestMissing   = errors.New("archive contains no manifest.json")
	ErrUnsafeArchivePath = errors.New("archive entry escapes the package root")

	// Instructor tooling errors
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return apperrors.IsNotFound(err) ||
		errors.Is(err, ErrNoPackageLoaded) ||
		errors.Is(err, ErrNoSubmission)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	return apperrors.IsValidation(err) || errors.Is(err, ErrMalformedEnvelope)
}

// IsDecompression checks if error represents an unreadable archive
func IsDecompression(err error) bool {
	return apperrors.IsDecompression(err)
}

// IsCrypto checks if error represents a key generation or encryption failure
func IsCrypto(err error) bool {
	return apperrors.IsCrypto(err)
}

// IsConflict checks if error represents an operation not allowed in the current state
func IsConflict(err error) bool {
	return errors.Is(err, ErrQuizComplete) ||
		errors.Is(err, ErrQuizNotComplete) ||
		errors.Is(err, ErrNotStarted) ||
		errors.Is(err, ErrIngestInProgress) ||
		errors.Is(err, ErrSealInProgress)
}
