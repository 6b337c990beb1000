package services

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	answersSheet = "Answers"
)

// ReportService renders opened submissions for instructors
type ReportService interface {
	ExportSubmissionToExcel(submission *models.Submission) ([]byte, error)
}

type reportService struct {
	logger *slog.Logger
}

func NewReportService(logger *slog.Logger) ReportService {
	return &reportService{logger: logger}
}

func (s *reportService) ExportSubmissionToExcel(submission *models.Submission) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Participant", submission.Participant.Name},
		{"Email", submission.Participant.Email},
		{"Quiz", submission.QuizInfo.Title},
		{"Description", submission.QuizInfo.Description},
		{"Time Limit (seconds)", submission.QuizInfo.TimeLimit},
		{"Submitted At", submission.SubmittedAt.Format("2006-01-02 15:04:05")},
		{"Correct", submission.Score.Correct},
		{"Total", submission.Score.Total},
		{"Percentage", submission.Score.Percentage},
	}
	for rowIndex, row := range summary {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			f.SetCellValue(summarySheet, cell, value)
		}
	}

	if _, err := f.NewSheet(answersSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	// Write headers
	headers := []string{
		"Question ID", "Page", "Type", "Question Text", "Selected", "Correct Answer", "Is Correct",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(answersSheet, cell, header)
	}

	// Write answer data
	for rowIndex, id := range questionOrder(submission) {
		record := submission.Answers[id]
		row := []interface{}{
			id,
			record.Page,
			string(record.Type),
			record.QuestionText,
			describeAnswer(record.Selected, record.Options),
			describeAnswer(record.CorrectAnswer, record.Options),
			record.IsCorrect,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(answersSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Debug("Rendered submission report",
		"participant", submission.Participant.Name,
		"questions", len(submission.Answers))

	return buf.Bytes(), nil
}

// questionOrder falls back to map keys for envelopes sealed without an order.
func questionOrder(submission *models.Submission) []string {
	if len(submission.QuestionOrder) > 0 {
		return submission.QuestionOrder
	}
	ids := make([]string, 0, len(submission.Answers))
	for id := range submission.Answers {
		ids = append(ids, id)
	}
	return uniqueSorted(ids)
}

// describeAnswer renders option ids with their text, e.g. "o1 (Paris)".
func describeAnswer(answer models.Answer, options []models.OptionView) string {
	texts := make(map[string]string, len(options))
	for _, opt := range options {
		texts[opt.ID] = opt.Text
	}

	parts := make([]string, 0, len(answer.Values))
	for _, v := range answer.Values {
		if text, ok := texts[v]; ok && text != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", v, text))
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}
