package validator

import (
	"fmt"

	"github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/SAP-F-2025/offline-quiz/internal/models"
)

// QuestionValidator handles the per-kind answer key rules struct tags cannot express
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateAnswerKey checks that a question can be scored. The returned
// field name is relative to the question.
func (v *QuestionValidator) ValidateAnswerKey(q models.Question) *ValidationError {
	switch q := q.(type) {
	case *models.MultipleChoiceQuestion:
		return v.validateMultipleChoice(q.Options)
	case *models.MultipleResponseQuestion:
		return v.validateMultipleResponse(q.Options)
	case *models.FillInTheBlankQuestion:
		// The answer is enforced by its required tag.
		return nil
	default:
		return errors.NewValidationErrorWithRule("type",
			fmt.Sprintf("unsupported question type: %s", q.Type()), "question_type", q.Type())
	}
}

func (v *QuestionValidator) validateMultipleChoice(options []models.Option) *ValidationError {
	if n := countCorrect(options); n != 1 {
		return errors.NewValidationErrorWithRule("options",
			fmt.Sprintf("must have exactly one correct option, found %d", n), "single_correct", n)
	}
	return nil
}

func (v *QuestionValidator) validateMultipleResponse(options []models.Option) *ValidationError {
	if countCorrect(options) == 0 {
		return errors.NewValidationErrorWithRule("options",
			"must have at least one correct option", "some_correct", 0)
	}
	return nil
}

func countCorrect(options []models.Option) int {
	n := 0
	for _, opt := range options {
		if opt.IsCorrect {
			n++
		}
	}
	return n
}
