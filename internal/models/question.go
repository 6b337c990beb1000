package models

import (
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
)

type QuestionType string

const (
	MultipleChoice   QuestionType = "multiple-choice"
	MultipleResponse QuestionType = "multiple-response"
	FillInTheBlank   QuestionType = "fill-in-the-blank"

	// fillInBlankLegacy is the spelling used by older packages.
	fillInBlankLegacy QuestionType = "fill-in-blank"
)

// Option is one selectable answer of a choice question.
type Option struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is the closed set of question kinds a page can hold:
// *MultipleChoiceQuestion, *MultipleResponseQuestion and *FillInTheBlankQuestion.
type Question interface {
	QuestionID() string
	Prompt() string
	Type() QuestionType
	ImageRef() string
	// CorrectAnswer returns the answer key in the shape a participant answers with.
	CorrectAnswer() Answer
	View() QuestionView
	isQuestion()
}

// QuestionBase holds the fields common to every question kind.
type QuestionBase struct {
	ID    string  `json:"id" validate:"required"`
	Text  string  `json:"text" validate:"required"`
	Image *string `json:"image"`
}

func (b *QuestionBase) QuestionID() string { return b.ID }
func (b *QuestionBase) Prompt() string     { return b.Text }

func (b *QuestionBase) ImageRef() string {
	if b.Image == nil {
		return ""
	}
	return *b.Image
}

type MultipleChoiceQuestion struct {
	QuestionBase
	Options []Option `json:"options" validate:"min=2,unique=ID,dive"`
}

func (q *MultipleChoiceQuestion) Type() QuestionType { return MultipleChoice }
func (q *MultipleChoiceQuestion) isQuestion()        {}

// CorrectAnswer returns the first option flagged correct.
func (q *MultipleChoiceQuestion) CorrectAnswer() Answer {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return SingleAnswer(opt.ID)
		}
	}
	return SingleAnswer("")
}

func (q *MultipleChoiceQuestion) View() QuestionView {
	return newChoiceView(&q.QuestionBase, MultipleChoice, q.Options)
}

func (q *MultipleChoiceQuestion) MarshalJSON() ([]byte, error) {
	type alias MultipleChoiceQuestion
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*alias
	}{MultipleChoice, (*alias)(q)})
}

type MultipleResponseQuestion struct {
	QuestionBase
	Options []Option `json:"options" validate:"min=1,unique=ID,dive"`
}

func (q *MultipleResponseQuestion) Type() QuestionType { return MultipleResponse }
func (q *MultipleResponseQuestion) isQuestion()        {}

func (q *MultipleResponseQuestion) CorrectAnswer() Answer {
	ids := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return MultiAnswer(ids...)
}

func (q *MultipleResponseQuestion) View() QuestionView {
	return newChoiceView(&q.QuestionBase, MultipleResponse, q.Options)
}

func (q *MultipleResponseQuestion) MarshalJSON() ([]byte, error) {
	type alias MultipleResponseQuestion
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*alias
	}{MultipleResponse, (*alias)(q)})
}

type FillInTheBlankQuestion struct {
	QuestionBase
	Answer  string   `json:"answer" validate:"required"`
	Options []Option `json:"options,omitempty" validate:"max=0"`
}

func (q *FillInTheBlankQuestion) Type() QuestionType    { return FillInTheBlank }
func (q *FillInTheBlankQuestion) isQuestion()           {}
func (q *FillInTheBlankQuestion) CorrectAnswer() Answer { return SingleAnswer(q.Answer) }

func (q *FillInTheBlankQuestion) View() QuestionView {
	return QuestionView{ID: q.ID, Type: FillInTheBlank, Text: q.Text, Image: q.ImageRef()}
}

func (q *FillInTheBlankQuestion) MarshalJSON() ([]byte, error) {
	type alias FillInTheBlankQuestion
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*alias
	}{FillInTheBlank, (*alias)(q)})
}

// QuestionView is what a participant sees: no correctness flags, no answer key.
type QuestionView struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Text    string       `json:"text"`
	Image   string       `json:"image,omitempty"`
	Options []OptionView `json:"options,omitempty"`
}

type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func newChoiceView(b *QuestionBase, t QuestionType, options []Option) QuestionView {
	view := QuestionView{ID: b.ID, Type: t, Text: b.Text, Image: b.ImageRef()}
	view.Options = make([]OptionView, len(options))
	for i, opt := range options {
		view.Options[i] = OptionView{ID: opt.ID, Text: opt.Text}
	}
	return view
}

// PageConfig is one page's ordered list of questions.
type PageConfig struct {
	ID        string     `json:"id" validate:"required"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

func (p *PageConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string            `json:"id"`
		Title     string            `json:"title"`
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	questions := make([]Question, 0, len(raw.Questions))
	for i, item := range raw.Questions {
		q, err := DecodeQuestion(item)
		if err != nil {
			return prefixQuestionError(i, err)
		}
		questions = append(questions, q)
	}

	p.ID = raw.ID
	p.Title = raw.Title
	p.Questions = questions
	return nil
}

// View returns the participant-facing projection of the page.
func (p *PageConfig) View() PageView {
	views := make([]QuestionView, len(p.Questions))
	for i, q := range p.Questions {
		views[i] = q.View()
	}
	return PageView{ID: p.ID, Title: p.Title, Questions: views}
}

type PageView struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Questions []QuestionView `json:"questions"`
}

// DecodeQuestion dispatches on the "type" discriminator.
func DecodeQuestion(data []byte) (Question, error) {
	var head struct {
		Type QuestionType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var q Question
	switch head.Type {
	case MultipleChoice:
		q = &MultipleChoiceQuestion{}
	case MultipleResponse:
		q = &MultipleResponseQuestion{}
	case FillInTheBlank, fillInBlankLegacy:
		q = &FillInTheBlankQuestion{}
	case "":
		return nil, apperrors.NewValidationErrorWithRule("type", "is required", "required", nil)
	default:
		return nil, apperrors.NewValidationErrorWithRule("type",
			"must be a valid question type (multiple-choice, multiple-response, fill-in-the-blank)",
			"question_type", string(head.Type))
	}

	if err := json.Unmarshal(data, q); err != nil {
		return nil, err
	}
	return q, nil
}

func prefixQuestionError(index int, err error) error {
	prefix := fmt.Sprintf("questions[%d]", index)

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			typeErr.Field = prefix
		} else {
			typeErr.Field = prefix + "." + typeErr.Field
		}
		return typeErr
	}

	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		ve.Field = prefix + "." + ve.Field
		return ve
	}

	return fmt.Errorf("%s: %w", prefix, err)
}
