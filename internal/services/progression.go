package services

import (
	"sync"

	"github.com/SAP-F-2025/offline-quiz/internal/models"
)

type CompletionReason string

const (
	CompletedByAdvance CompletionReason = "advance"
	CompletedByTimeout CompletionReason = "timeout"
)

// QuizState is a snapshot of the progression engine.
type QuizState struct {
	CurrentPage   int              `json:"currentPage"`
	TotalPages    int              `json:"totalPages"`
	Answers       models.AnswerMap `json:"answers"`
	TimeRemaining int              `json:"timeRemaining"`
	Timed         bool             `json:"timed"`
	PerPageTimer  bool             `json:"perPageTimer"`
	IsComplete    bool             `json:"isComplete"`
	Reason        CompletionReason `json:"completionReason,omitempty"`
}

// Engine tracks page position, answers and the countdown of one quiz run.
// It is safe for concurrent use; the session's timer goroutine calls Tick
// while request handlers call the other methods.
type Engine struct {
	mu sync.Mutex

	totalPages int
	timeLimit  int
	perPage    bool

	currentPage   int
	answers       models.AnswerMap
	timeRemaining int
	complete      bool
	reason        CompletionReason
}

func NewEngine(manifest *models.Manifest) *Engine {
	limit, perPage := manifest.TimeLimit()
	e := &Engine{
		totalPages: len(manifest.PageOrder),
		timeLimit:  limit,
		perPage:    perPage,
	}
	e.reset()
	return e
}

// RecordAnswer stores the latest answer for a question. It never checks
// correctness and is allowed in every state.
func (e *Engine) RecordAnswer(questionID string, answer models.Answer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	values := make([]string, len(answer.Values))
	copy(values, answer.Values)
	e.answers[questionID] = models.Answer{Values: values, Multi: answer.Multi}
}

// Advance moves to the next page, completing the quiz from the last page.
func (e *Engine) Advance() (completed bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.complete {
		return false, ErrQuizComplete
	}
	if e.currentPage >= e.totalPages-1 {
		e.complete = true
		e.reason = CompletedByAdvance
		return true, nil
	}
	e.currentPage++
	e.restartPageTimer()
	return false, nil
}

// Retreat moves to the previous page; it stays on the first page.
func (e *Engine) Retreat() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.complete {
		return ErrQuizComplete
	}
	if e.currentPage > 0 {
		e.currentPage--
		e.restartPageTimer()
	}
	return nil
}

// Tick counts one second down. Reaching zero completes the quiz from any
// page. Untimed and completed quizzes ignore ticks.
func (e *Engine) Tick() (remaining int, completed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.complete || e.timeLimit == 0 {
		return e.timeRemaining, false
	}
	e.timeRemaining--
	if e.timeRemaining <= 0 {
		e.timeRemaining = 0
		e.complete = true
		e.reason = CompletedByTimeout
		return 0, true
	}
	return e.timeRemaining, false
}

func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Engine) reset() {
	e.currentPage = 0
	e.answers = make(models.AnswerMap)
	e.timeRemaining = e.timeLimit
	e.complete = false
	e.reason = ""
}

func (e *Engine) restartPageTimer() {
	if e.perPage {
		e.timeRemaining = e.timeLimit
	}
}

func (e *Engine) Timed() bool {
	return e.timeLimit > 0
}

func (e *Engine) IsComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.complete
}

func (e *Engine) CurrentPage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPage
}

// Answers returns a copy of the recorded answers.
func (e *Engine) Answers() models.AnswerMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers.Clone()
}

func (e *Engine) State() QuizState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return QuizState{
		CurrentPage:   e.currentPage,
		TotalPages:    e.totalPages,
		Answers:       e.answers.Clone(),
		TimeRemaining: e.timeRemaining,
		Timed:         e.timeLimit > 0,
		PerPageTimer:  e.perPage,
		IsComplete:    e.complete,
		Reason:        e.reason,
	}
}
