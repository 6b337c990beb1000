package errors

import (
	"errors"
	"fmt"
)

// NotFoundError reports a path that is absent from the content store
type NotFoundError struct {
	Path string `json:"path"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found in content store", e.Path)
}

func NewNotFoundError(path string) *NotFoundError {
	return &NotFoundError{Path: path}
}

// CryptoError wraps a key generation, encryption or decryption failure
type CryptoError struct {
	Op  string `json:"op"`
	Err error  `json:"-"`
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto %s failed: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error { return e.Err }

func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// DecompressionError reports an archive that cannot be read
type DecompressionError struct {
	Entry string `json:"entry,omitempty"`
	Err   error  `json:"-"`
}

func (e *DecompressionError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("cannot read archive entry %q: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("cannot read archive: %v", e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

func NewDecompressionError(entry string, err error) *DecompressionError {
	return &DecompressionError{Entry: entry, Err: err}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}

func IsCrypto(err error) bool {
	var ce *CryptoError
	return errors.As(err, &ce)
}

func IsDecompression(err error) bool {
	var de *DecompressionError
	return errors.As(err, &de)
}
