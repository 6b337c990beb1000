package services

import (
	"math"
	"sort"

	"github.com/SAP-F-2025/offline-quiz/internal/models"
)

// ScoreResult is the graded answer set of one quiz run.
type ScoreResult struct {
	Score         models.Score
	Answers       map[string]models.AnswerRecord
	QuestionOrder []string
}

// ScoreAnswers grades every question of the package in page and question order.
func ScoreAnswers(pages []*models.PageConfig, answers models.AnswerMap) *ScoreResult {
	result := &ScoreResult{
		Answers: make(map[string]models.AnswerRecord),
	}

	for _, page := range pages {
		for _, q := range page.Questions {
			selected := selectedAnswer(q, answers)
			correct := IsAnswerCorrect(q, selected)

			result.Answers[q.QuestionID()] = models.AnswerRecord{
				QuestionText:  q.Prompt(),
				Type:          q.Type(),
				Page:          page.ID,
				Image:         q.ImageRef(),
				Options:       q.View().Options,
				Selected:      selected,
				CorrectAnswer: q.CorrectAnswer(),
				IsCorrect:     correct,
			}
			result.QuestionOrder = append(result.QuestionOrder, q.QuestionID())

			result.Score.Total++
			if correct {
				result.Score.Correct++
			}
		}
	}

	result.Score.Percentage = Percentage(result.Score.Correct, result.Score.Total)
	return result
}

// selectedAnswer returns the recorded answer, or the empty answer of the
// question's shape when nothing was recorded.
func selectedAnswer(q models.Question, answers models.AnswerMap) models.Answer {
	if a, ok := answers[q.QuestionID()]; ok {
		return a
	}
	if q.Type() == models.MultipleResponse {
		return models.MultiAnswer()
	}
	return models.SingleAnswer("")
}

// IsAnswerCorrect compares an answer with the question's key. Single-valued
// kinds need exact equality; multiple-response compares as sets.
func IsAnswerCorrect(q models.Question, answer models.Answer) bool {
	key := q.CorrectAnswer()

	if q.Type() == models.MultipleResponse {
		return sameSet(answer.Values, key.Values)
	}
	if answer.Multi && len(answer.Values) != 1 {
		return false
	}
	return answer.Single() == key.Single()
}

func sameSet(a, b []string) bool {
	left, right := uniqueSorted(a), uniqueSorted(b)
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Percentage rounds correct/total to one decimal place; an empty quiz scores 0.
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}
