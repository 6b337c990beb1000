package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/offline-quiz/internal/events"
	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/SAP-F-2025/offline-quiz/internal/store"
	"github.com/SAP-F-2025/offline-quiz/internal/validator"
	"github.com/google/uuid"
)

type SessionOptions struct {
	MaxArchiveBytes int64
	TickInterval    time.Duration
	RSAKeyBits      int
}

// PageState is the participant-facing view of the current page.
type PageState struct {
	Index         int              `json:"index"`
	TotalPages    int              `json:"totalPages"`
	Page          models.PageView  `json:"page"`
	Answers       models.AnswerMap `json:"answers"`
	TimeRemaining int              `json:"timeRemaining"`
	IsComplete    bool             `json:"isComplete"`
}

// SessionService is the surface the HTTP layer drives.
type SessionService interface {
	ID() string
	Ingest(ctx context.Context, archive []byte) (*IngestResult, error)
	Manifest(ctx context.Context) (*models.Manifest, error)
	Asset(ctx context.Context, path string) (*store.Entry, error)
	Start(ctx context.Context) (QuizState, error)
	State() (QuizState, error)
	CurrentPage(ctx context.Context) (*PageState, error)
	RecordAnswer(questionID string, answer models.Answer) error
	Advance(ctx context.Context) (QuizState, error)
	Retreat() (QuizState, error)
	Seal(ctx context.Context, participant models.Participant) (*SealResult, error)
	LastSeal() (*SealResult, error)
	Reset(ctx context.Context)
}

var _ SessionService = (*Session)(nil)

// Session owns one participant's quiz lifecycle:
// ingest, start, answer and navigate, seal, reset.
type Session struct {
	id        string
	store     store.Store
	ingestor  IngestService
	reader    PackageReader
	sealer    Sealer
	validator *validator.Validator
	publisher events.EventPublisher
	logger    *slog.Logger
	ops       *ServiceLogger

	tickInterval time.Duration
	now          func() time.Time

	mu       sync.RWMutex
	manifest *models.Manifest
	engine   *Engine
	lastSeal *SealResult

	stopTimer context.CancelFunc
	timerDone chan struct{}
}

func NewSession(st store.Store, v *validator.Validator, publisher events.EventPublisher, logger *slog.Logger, opts SessionOptions) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	id := uuid.NewString()
	return &Session{
		id:           id,
		store:        st,
		ingestor:     NewIngestService(st, v, logger, opts.MaxArchiveBytes),
		reader:       NewPackageReader(st, v, logger),
		sealer:       NewSealer(logger, opts.RSAKeyBits),
		validator:    v,
		publisher:    publisher,
		logger:       logger.With("session_id", id),
		ops:          NewServiceLogger(logger, "session"),
		tickInterval: opts.TickInterval,
		now:          time.Now,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Restore picks up a package already present in the store, e.g. a Redis
// backed store that outlived the process. A missing package is not an error.
func (s *Session) Restore(ctx context.Context) error {
	manifest, err := s.reader.LoadManifest(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.manifest = manifest
	s.mu.Unlock()

	s.logger.Info("Restored quiz package from store", "quiz", manifest.Name)
	return nil
}

// ===== INGESTION =====

func (s *Session) Ingest(ctx context.Context, archive []byte) (result *IngestResult, err error) {
	op := s.ops.WithOperation(ctx, "ingest", s.id)
	defer func() { op.LogResult(err) }()

	result, err = s.ingestor.Ingest(ctx, archive)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stopTimerLocked()
	s.manifest = result.Manifest
	s.engine = nil
	s.lastSeal = nil
	s.mu.Unlock()

	m := result.Manifest
	s.publish(ctx, events.NewQuizIngestedEvent(s.id, m.Name, len(m.PageOrder), m.TotalQuestions, result.FileCount))
	return result, nil
}

// ===== PACKAGE ACCESS =====

func (s *Session) Manifest(ctx context.Context) (*models.Manifest, error) {
	if _, err := s.loadedManifest(); err != nil {
		return nil, err
	}
	return s.reader.LoadManifest(ctx)
}

func (s *Session) LoadPage(ctx context.Context, configFile string) (*models.PageConfig, error) {
	if _, err := s.loadedManifest(); err != nil {
		return nil, err
	}
	return s.reader.LoadPage(ctx, configFile)
}

func (s *Session) Asset(ctx context.Context, path string) (*store.Entry, error) {
	if _, err := s.loadedManifest(); err != nil {
		return nil, err
	}
	return s.reader.Asset(ctx, path)
}

func (s *Session) loadedManifest() (*models.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return nil, ErrNoPackageLoaded
	}
	return s.manifest, nil
}

// ===== PROGRESSION =====

// Start begins a run of the loaded quiz. Starting a run that is already in
// progress returns its current state.
func (s *Session) Start(ctx context.Context) (QuizState, error) {
	s.mu.Lock()
	if s.manifest == nil {
		s.mu.Unlock()
		return QuizState{}, ErrNoPackageLoaded
	}
	if s.engine != nil {
		engine := s.engine
		s.mu.Unlock()
		if engine.IsComplete() {
			return engine.State(), ErrQuizComplete
		}
		return engine.State(), nil
	}

	manifest := s.manifest
	engine := NewEngine(manifest)
	s.engine = engine
	if engine.Timed() {
		s.startTimerLocked(engine)
	}
	s.mu.Unlock()

	limit, perPage := manifest.TimeLimit()
	s.logger.Info("Quiz started", "quiz", manifest.Name, "time_limit", limit, "per_page", perPage)
	s.publish(ctx, events.NewQuizStartedEvent(s.id, manifest.Name, limit, perPage))
	return engine.State(), nil
}

func (s *Session) State() (QuizState, error) {
	engine, err := s.activeEngine()
	if err != nil {
		return QuizState{}, err
	}
	return engine.State(), nil
}

// CurrentPage loads the page the participant is on, without its answer key.
func (s *Session) CurrentPage(ctx context.Context) (*PageState, error) {
	s.mu.RLock()
	manifest, engine := s.manifest, s.engine
	s.mu.RUnlock()
	if manifest == nil {
		return nil, ErrNoPackageLoaded
	}
	if engine == nil {
		return nil, ErrNotStarted
	}

	state := engine.State()
	ref := manifest.PageOrder[state.CurrentPage]
	page, err := s.reader.LoadPage(ctx, ref.ConfigFile)
	if err != nil {
		return nil, err
	}

	answers := make(models.AnswerMap)
	for _, q := range page.Questions {
		if a, ok := state.Answers[q.QuestionID()]; ok {
			answers[q.QuestionID()] = a
		}
	}

	return &PageState{
		Index:         state.CurrentPage,
		TotalPages:    state.TotalPages,
		Page:          page.View(),
		Answers:       answers,
		TimeRemaining: state.TimeRemaining,
		IsComplete:    state.IsComplete,
	}, nil
}

func (s *Session) RecordAnswer(questionID string, answer models.Answer) error {
	engine, err := s.activeEngine()
	if err != nil {
		return err
	}
	engine.RecordAnswer(questionID, answer)
	return nil
}

func (s *Session) Advance(ctx context.Context) (QuizState, error) {
	engine, err := s.activeEngine()
	if err != nil {
		return QuizState{}, err
	}

	completed, err := engine.Advance()
	if err != nil {
		return engine.State(), err
	}
	state := engine.State()
	if completed {
		s.mu.Lock()
		s.stopTimerLocked()
		s.mu.Unlock()
		s.publishCompleted(ctx, state)
	}
	return state, nil
}

func (s *Session) Retreat() (QuizState, error) {
	engine, err := s.activeEngine()
	if err != nil {
		return QuizState{}, err
	}
	if err := engine.Retreat(); err != nil {
		return engine.State(), err
	}
	return engine.State(), nil
}

func (s *Session) activeEngine() (*Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return nil, ErrNoPackageLoaded
	}
	if s.engine == nil {
		return nil, ErrNotStarted
	}
	return s.engine, nil
}

// ===== SEALING =====

// Seal scores the completed run and encrypts the submission. Each call
// produces a fresh keypair; the result replaces any earlier one.
func (s *Session) Seal(ctx context.Context, participant models.Participant) (result *SealResult, err error) {
	op := s.ops.WithOperation(ctx, "seal", s.id)
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(&participant); err != nil {
		return nil, err
	}

	s.mu.RLock()
	manifest, engine := s.manifest, s.engine
	s.mu.RUnlock()
	if manifest == nil {
		return nil, ErrNoPackageLoaded
	}
	if engine == nil {
		return nil, ErrNotStarted
	}
	if !engine.IsComplete() {
		return nil, ErrQuizNotComplete
	}

	pages, err := s.reader.LoadPages(ctx, manifest)
	if err != nil {
		return nil, err
	}
	scored := ScoreAnswers(pages, engine.Answers())

	limit, _ := manifest.TimeLimit()
	submission := &models.Submission{
		Participant: participant,
		QuizInfo: models.QuizInfo{
			Title:       manifest.Name,
			Description: manifest.Description,
			TimeLimit:   limit,
		},
		SubmittedAt:   s.now().UTC(),
		Score:         scored.Score,
		Answers:       scored.Answers,
		QuestionOrder: scored.QuestionOrder,
	}

	result, err = s.sealer.Seal(ctx, submission)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.engine != engine {
		// Reset or Ingest replaced the run while it was being sealed.
		loaded, started := s.manifest != nil, s.engine != nil
		s.mu.Unlock()
		s.logger.Warn("Discarding seal of a run that is no longer active")
		switch {
		case !loaded:
			return nil, ErrNoPackageLoaded
		case !started:
			return nil, ErrNotStarted
		default:
			return nil, ErrQuizNotComplete
		}
	}
	s.lastSeal = result
	s.mu.Unlock()

	s.publish(ctx, events.NewSubmissionSealedEvent(s.id, result.EnvelopeFileName, result.PrivateKeyFileName))
	return result, nil
}

func (s *Session) LastSeal() (*SealResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSeal == nil {
		return nil, ErrNoSubmission
	}
	return s.lastSeal, nil
}

// ===== RESET & TEARDOWN =====

// Reset discards the loaded package, the run and any sealed result. A store
// that fails to clear is logged; the session is being discarded either way.
func (s *Session) Reset(ctx context.Context) {
	op := s.ops.WithOperation(ctx, "reset", s.id)

	s.mu.Lock()
	s.stopTimerLocked()
	s.manifest = nil
	s.engine = nil
	s.lastSeal = nil
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("Failed to clear content store on reset", "error", err)
	}
	op.LogResult(nil)

	s.publish(ctx, events.NewSessionResetEvent(s.id))
}

// Close stops the timer. The store and loaded package are left as they are.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// ===== TIMER =====

func (s *Session) startTimerLocked(engine *Engine) {
	s.stopTimerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stopTimer = cancel
	s.timerDone = done

	go s.runTimer(ctx, engine, done)
}

// stopTimerLocked cancels the timer goroutine and waits for it to exit, so no
// tick lands after it returns. runTimer never takes s.mu.
func (s *Session) stopTimerLocked() {
	if s.stopTimer == nil {
		return
	}
	s.stopTimer()
	<-s.timerDone
	s.stopTimer = nil
	s.timerDone = nil
}

func (s *Session) runTimer(ctx context.Context, engine *Engine, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, completed := engine.Tick(); completed {
				state := engine.State()
				s.logger.Info("Quiz time expired", "current_page", state.CurrentPage)
				s.publishCompleted(context.Background(), state)
				return
			}
			if engine.IsComplete() {
				return
			}
		}
	}
}

// ===== EVENTS =====

func (s *Session) publishCompleted(ctx context.Context, state QuizState) {
	s.publish(ctx, events.NewQuizCompletedEvent(s.id, string(state.Reason), state.CurrentPage, len(state.Answers)))
}

func (s *Session) publish(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish session event", "event_type", event.Type, "error", err)
	}
}
