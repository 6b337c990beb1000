package handlers

import (
	"errors"
	"net/http"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/SAP-F-2025/offline-quiz/internal/services"
	"github.com/SAP-F-2025/offline-quiz/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	session         services.SessionService
	maxArchiveBytes int64
}

func NewSessionHandler(
	session services.SessionService,
	maxArchiveBytes int64,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:     NewBaseHandler(logger.With("session_id", session.ID())),
		session:         session,
		maxArchiveBytes: maxArchiveBytes,
	}
}

// ===== PACKAGE =====

// IngestArchive replaces the cached quiz package with an uploaded archive
// @Summary Ingest quiz archive
// @Tags package
// @Accept multipart/form-data,application/zip
// @Produce json
// @Success 201 {object} SuccessResponse{data=services.IngestResult}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /session/archive [post]
func (h *SessionHandler) IngestArchive(c *gin.Context) {
	h.LogRequest(c, "Ingesting quiz archive")

	archive, err := readArchive(c, h.maxArchiveBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondWithCode(c, http.StatusRequestEntityTooLarge, "archive_too_large", "Archive is too large", err)
			return
		}
		h.RespondWithError(c, http.StatusBadRequest, "Invalid archive upload", err, err.Error())
		return
	}

	result, err := h.session.Ingest(c.Request.Context(), archive)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Quiz archive ingested", result,
		"file_count", result.FileCount, "root", result.Root)
}

// GetManifest returns the manifest of the loaded package
// @Router /session/manifest [get]
func (h *SessionHandler) GetManifest(c *gin.Context) {
	manifest, err := h.session.Manifest(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, manifest)
}

// GetAsset streams a stored package file, typically an image referenced by a question
// @Router /session/assets/{path} [get]
func (h *SessionHandler) GetAsset(c *gin.Context) {
	entry, err := h.session.Asset(c.Request.Context(), c.Param("path"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, entry.ContentType, entry.Data)
}

// ===== PROGRESSION =====

// StartQuiz starts the run, or reports the current state if it is already running
// @Router /session/start [post]
func (h *SessionHandler) StartQuiz(c *gin.Context) {
	state, err := h.session.Start(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetState returns the progression state
// @Router /session/state [get]
func (h *SessionHandler) GetState(c *gin.Context) {
	state, err := h.session.State()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetCurrentPage returns the current page without its answer key
// @Router /session/page [get]
func (h *SessionHandler) GetCurrentPage(c *gin.Context) {
	page, err := h.session.CurrentPage(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// RecordAnswer stores the participant's answer for one question
// @Accept json
// @Param question_id path string true "Question ID"
// @Param answer body RecordAnswerRequest true "Answer value"
// @Router /session/answers/{question_id} [put]
func (h *SessionHandler) RecordAnswer(c *gin.Context) {
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return
	}

	var req RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	if err := h.session.RecordAnswer(questionID, *req.Value); err != nil {
		h.handleServiceError(c, err)
		return
	}

	state, err := h.session.State()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// Advance moves to the next page; on the last page it completes the quiz
// @Router /session/advance [post]
func (h *SessionHandler) Advance(c *gin.Context) {
	state, err := h.session.Advance(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// Retreat moves to the previous page
// @Router /session/retreat [post]
func (h *SessionHandler) Retreat(c *gin.Context) {
	state, err := h.session.Retreat()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// ===== SUBMISSION =====

// Seal scores the completed run and encrypts it for the participant.
// The private key is only handed out through the artifact endpoint.
// @Accept json
// @Param participant body models.Participant true "Participant identity"
// @Success 201 {object} SuccessResponse{data=services.SealResult}
// @Router /session/seal [post]
func (h *SessionHandler) Seal(c *gin.Context) {
	var participant models.Participant
	if err := c.ShouldBindJSON(&participant); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	result, err := h.session.Seal(c.Request.Context(), participant)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Submission sealed", result,
		"envelope_file", result.EnvelopeFileName)
}

// DownloadEnvelope returns the last sealed envelope as a JSON download
// @Produce json
// @Router /session/artifacts/envelope [get]
func (h *SessionHandler) DownloadEnvelope(c *gin.Context) {
	result, err := h.session.LastSeal()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendAttachment(c, result.EnvelopeFileName, "application/json", result.EnvelopeJSON)
}

// DownloadPrivateKey returns the private key of the last seal as a text download
// @Produce plain
// @Router /session/artifacts/private-key [get]
func (h *SessionHandler) DownloadPrivateKey(c *gin.Context) {
	result, err := h.session.LastSeal()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Private key downloaded", "file", result.PrivateKeyFileName)
	sendAttachment(c, result.PrivateKeyFileName, "text/plain; charset=utf-8", []byte(result.PrivateKey))
}

// Reset discards the package, the run and the last seal
// @Router /session/reset [post]
func (h *SessionHandler) Reset(c *gin.Context) {
	h.session.Reset(c.Request.Context())
	h.RespondWithSuccess(c, http.StatusOK, "Session reset", nil)
}

// ===== ERROR MAPPING =====

func (h *SessionHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.respondWithCode(c, http.StatusBadRequest, "validation_failed", "Validation failed", err, validationErrors)
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		h.respondWithCode(c, http.StatusBadRequest, "validation_failed", "Validation failed", err,
			services.ValidationErrors{*validationError})
		return
	}

	var decompressionError *apperrors.DecompressionError
	if errors.As(err, &decompressionError) {
		if errors.Is(err, services.ErrArchiveTooLarge) {
			h.respondWithCode(c, http.StatusRequestEntityTooLarge, "archive_too_large", "Archive is too large", err)
			return
		}
		h.respondWithCode(c, http.StatusBadRequest, "archive_unreadable", "Archive could not be read", err, err.Error())
		return
	}

	// Handle specific session errors
	switch {
	case errors.Is(err, services.ErrNoPackageLoaded):
		h.respondWithCode(c, http.StatusNotFound, "no_package", "No quiz package loaded", err)
	case errors.Is(err, services.ErrNoSubmission):
		h.respondWithCode(c, http.StatusNotFound, "no_submission", "No sealed submission available", err)
	case services.IsNotFound(err):
		h.respondWithCode(c, http.StatusNotFound, "not_found", "Not found", err, err.Error())
	case errors.Is(err, services.ErrNotStarted):
		h.respondWithCode(c, http.StatusConflict, "not_started", "Quiz has not been started", err)
	case errors.Is(err, services.ErrQuizComplete):
		h.respondWithCode(c, http.StatusConflict, "quiz_complete", "Quiz is already complete", err)
	case errors.Is(err, services.ErrQuizNotComplete):
		h.respondWithCode(c, http.StatusConflict, "quiz_not_complete", "Quiz must be completed before sealing", err)
	case errors.Is(err, services.ErrIngestInProgress), errors.Is(err, services.ErrSealInProgress):
		h.respondWithCode(c, http.StatusConflict, "in_progress", "Another operation is in progress", err)
	case services.IsCrypto(err):
		h.respondWithCode(c, http.StatusInternalServerError, "seal_failed", "Sealing failed, please retry", err)
	default:
		h.respondWithCode(c, http.StatusInternalServerError, "", "Internal server error", err)
	}
}
