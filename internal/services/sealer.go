package services

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/SAP-F-2025/offline-quiz/internal/models"
)

const (
	minRSAKeyBits = 2048
	aesKeyBytes   = 32
	gcmNonceBytes = 12
)

// Sealer hybrid-encrypts submissions for the instructor.
//
// Every Seal call generates a fresh RSA keypair and hands back the private key
// as a second artifact next to the envelope. The envelope is only as private as
// the channel that private key travels on: nothing here checks that the two
// artifacts are delivered separately.
type Sealer interface {
	Seal(ctx context.Context, submission *models.Submission) (*SealResult, error)
	// Open reverses Seal with the private key artifact.
	Open(envelope *models.Envelope, privateKey string) (*models.Submission, error)
}

// SealResult holds the two deliverable artifacts of one sealing call.
type SealResult struct {
	Envelope           *models.Envelope `json:"envelope"`
	EnvelopeJSON       []byte           `json:"-"`
	PrivateKey         string           `json:"-"`
	EnvelopeFileName   string           `json:"envelopeFileName"`
	PrivateKeyFileName string           `json:"privateKeyFileName"`
}

type sealer struct {
	logger  *slog.Logger
	keyBits int
	random  io.Reader

	inFlight sync.Mutex
}

func NewSealer(logger *slog.Logger, keyBits int) Sealer {
	if keyBits < minRSAKeyBits {
		keyBits = minRSAKeyBits
	}
	return &sealer{
		logger:  logger,
		keyBits: keyBits,
		random:  rand.Reader,
	}
}

func (s *sealer) Seal(ctx context.Context, submission *models.Submission) (*SealResult, error) {
	if !s.inFlight.TryLock() {
		return nil, ErrSealInProgress
	}
	defer s.inFlight.Unlock()

	plaintext, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	privateKey, err := rsa.GenerateKey(s.random, s.keyBits)
	if err != nil {
		return nil, apperrors.NewCryptoError("generate keypair", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, apperrors.NewCryptoError("export public key", err)
	}
	privateDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, apperrors.NewCryptoError("export private key", err)
	}

	key := make([]byte, aesKeyBytes)
	if _, err := io.ReadFull(s.random, key); err != nil {
		return nil, apperrors.NewCryptoError("generate content key", err)
	}
	nonce := make([]byte, gcmNonceBytes)
	if _, err := io.ReadFull(s.random, nonce); err != nil {
		return nil, apperrors.NewCryptoError("generate iv", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, apperrors.NewCryptoError("encrypt submission", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), s.random, &privateKey.PublicKey, key, nil)
	if err != nil {
		return nil, apperrors.NewCryptoError("wrap content key", err)
	}

	envelope := &models.Envelope{
		EncryptedData: base64.StdEncoding.EncodeToString(ciphertext),
		EncryptedKey:  base64.StdEncoding.EncodeToString(wrappedKey),
		IV:            base64.StdEncoding.EncodeToString(nonce),
		PublicKey:     base64.StdEncoding.EncodeToString(publicDER),
	}
	envelopeJSON, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}

	name := submission.Participant.Name
	result := &SealResult{
		Envelope:           envelope,
		EnvelopeJSON:       envelopeJSON,
		PrivateKey:         base64.StdEncoding.EncodeToString(privateDER),
		EnvelopeFileName:   EnvelopeFileName(name),
		PrivateKeyFileName: PrivateKeyFileName(name),
	}

	s.logger.Info("Submission sealed",
		"envelope_file", result.EnvelopeFileName,
		"private_key_file", result.PrivateKeyFileName,
		"key_bits", s.keyBits)

	return result, nil
}

func (s *sealer) Open(envelope *models.Envelope, privateKey string) (*models.Submission, error) {
	keyDER, err := decodeBase64("private key", privateKey)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKCS8PrivateKey(keyDER)
	if err != nil {
		return nil, apperrors.NewCryptoError("parse private key", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, apperrors.NewCryptoError("parse private key", fmt.Errorf("unsupported key type %T", parsed))
	}

	if envelope.PublicKey != "" {
		if err := checkKeyPair(envelope.PublicKey, rsaKey); err != nil {
			return nil, err
		}
	}

	wrappedKey, err := decodeBase64("encryptedKey", envelope.EncryptedKey)
	if err != nil {
		return nil, err
	}
	nonce, err := decodeBase64("iv", envelope.IV)
	if err != nil {
		return nil, err
	}
	ciphertext, err := decodeBase64("encryptedData", envelope.EncryptedData)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcmNonceBytes {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrMalformedEnvelope, gcmNonceBytes, len(nonce))
	}

	key, err := rsa.DecryptOAEP(sha256.New(), nil, rsaKey, wrappedKey, nil)
	if err != nil {
		return nil, apperrors.NewCryptoError("unwrap content key", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, apperrors.NewCryptoError("decrypt submission", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, apperrors.NewCryptoError("decrypt submission", err)
	}

	var submission models.Submission
	if err := json.Unmarshal(plaintext, &submission); err != nil {
		return nil, fmt.Errorf("%w: decrypted payload is not a submission: %v", ErrMalformedEnvelope, err)
	}
	return &submission, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func checkKeyPair(publicKey string, privateKey *rsa.PrivateKey) error {
	der, err := decodeBase64("publicKey", publicKey)
	if err != nil {
		return err
	}
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return apperrors.NewCryptoError("parse public key", err)
	}
	if !privateKey.PublicKey.Equal(pub) {
		return apperrors.NewCryptoError("match key pair", fmt.Errorf("private key does not belong to this envelope"))
	}
	return nil
}

func decodeBase64(field, value string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid base64: %v", ErrMalformedEnvelope, field, err)
	}
	return data, nil
}

// ===== ARTIFACT NAMES =====

func EnvelopeFileName(participant string) string {
	return fmt.Sprintf("quiz-answers-%s-encrypted.json", ParticipantSlug(participant))
}

func PrivateKeyFileName(participant string) string {
	return fmt.Sprintf("private-key-%s.txt", ParticipantSlug(participant))
}

// ParticipantSlug lowercases the name and collapses whitespace runs to "-".
// Path separators and characters that are unsafe in file names are dropped.
func ParticipantSlug(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r) && !unicode.IsSpace(r):
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return -1
		}
		return unicode.ToLower(r)
	}, name)

	slug := strings.Join(strings.Fields(cleaned), "-")
	slug = strings.Trim(slug, ".")
	if slug == "" {
		return "participant"
	}
	return slug
}
