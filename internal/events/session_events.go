package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of quiz session lifecycle events
type EventType string

const (
	EventQuizIngested     EventType = "quiz.ingested"
	EventQuizStarted      EventType = "quiz.started"
	EventQuizCompleted    EventType = "quiz.completed"
	EventSubmissionSealed EventType = "submission.sealed"
	EventSessionReset     EventType = "session.reset"
)

const (
	eventSource  = "offline-quiz"
	eventVersion = "1.0"
)

// SessionEvent is the envelope shared by all session lifecycle events
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type QuizIngestedEvent struct {
	QuizName       string `json:"quiz_name"`
	TotalPages     int    `json:"total_pages"`
	TotalQuestions int    `json:"total_questions"`
	FileCount      int    `json:"file_count"`
}

type QuizStartedEvent struct {
	QuizName    string `json:"quiz_name"`
	TimeLimit   int    `json:"time_limit"`
	PerPageTime bool   `json:"per_page_time"`
}

type QuizCompletedEvent struct {
	Reason        string `json:"reason"` // advance or timeout
	CurrentPage   int    `json:"current_page"`
	AnsweredCount int    `json:"answered_count"`
}

// SubmissionSealedEvent deliberately carries only artifact names; score and
// answers stay inside the encrypted envelope.
type SubmissionSealedEvent struct {
	EnvelopeFile   string `json:"envelope_file"`
	PrivateKeyFile string `json:"private_key_file"`
}

func newSessionEvent(eventType EventType, sessionID string, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewQuizIngestedEvent(sessionID, quizName string, totalPages, totalQuestions, fileCount int) *SessionEvent {
	return newSessionEvent(EventQuizIngested, sessionID, QuizIngestedEvent{
		QuizName:       quizName,
		TotalPages:     totalPages,
		TotalQuestions: totalQuestions,
		FileCount:      fileCount,
	})
}

func NewQuizStartedEvent(sessionID, quizName string, timeLimit int, perPage bool) *SessionEvent {
	return newSessionEvent(EventQuizStarted, sessionID, QuizStartedEvent{
		QuizName:    quizName,
		TimeLimit:   timeLimit,
		PerPageTime: perPage,
	})
}

func NewQuizCompletedEvent(sessionID, reason string, currentPage, answered int) *SessionEvent {
	return newSessionEvent(EventQuizCompleted, sessionID, QuizCompletedEvent{
		Reason:        reason,
		CurrentPage:   currentPage,
		AnsweredCount: answered,
	})
}

func NewSubmissionSealedEvent(sessionID, envelopeFile, privateKeyFile string) *SessionEvent {
	return newSessionEvent(EventSubmissionSealed, sessionID, SubmissionSealedEvent{
		EnvelopeFile:   envelopeFile,
		PrivateKeyFile: privateKeyFile,
	})
}

func NewSessionResetEvent(sessionID string) *SessionEvent {
	return newSessionEvent(EventSessionReset, sessionID, nil)
}

// GenerateEventID returns a fresh random event identifier
func GenerateEventID() string {
	return uuid.NewString()
}
