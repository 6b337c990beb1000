package models

import "time"

type Participant struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type QuizInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TimeLimit   int    `json:"timeLimit"`
}

type Score struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// AnswerRecord is the scored outcome of one question.
type AnswerRecord struct {
	QuestionText  string       `json:"questionText"`
	Type          QuestionType `json:"type"`
	Page          string       `json:"page"`
	Image         string       `json:"image,omitempty"`
	Options       []OptionView `json:"options,omitempty"`
	Selected      Answer       `json:"selected"`
	CorrectAnswer Answer       `json:"correctAnswer"`
	IsCorrect     bool         `json:"isCorrect"`
}

// Submission is the plaintext that gets sealed. It only ever exists in
// memory between scoring and encryption, or after an instructor opens an
// envelope.
type Submission struct {
	Participant Participant             `json:"participant"`
	QuizInfo    QuizInfo                `json:"quizInfo"`
	SubmittedAt time.Time               `json:"submittedAt"`
	Score       Score                   `json:"score"`
	Answers     map[string]AnswerRecord `json:"answers"`

	// QuestionOrder keeps page/question order, which the answers map loses.
	QuestionOrder []string `json:"questionOrder"`
}

// Envelope is the encrypted submission artifact. All fields are base64.
type Envelope struct {
	EncryptedData string `json:"encryptedData"`
	EncryptedKey  string `json:"encryptedKey"`
	IV            string `json:"iv"`
	PublicKey     string `json:"publicKey"`
}
