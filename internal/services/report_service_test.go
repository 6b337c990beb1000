package services

import (
	"bytes"
	"testing"

	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReportService_ExportSubmissionToExcel(t *testing.T) {
	pages := []*models.PageConfig{mustPage(t, capitalsPage), mustPage(t, riversPage)}
	scored := ScoreAnswers(pages, models.AnswerMap{
		"q1": models.SingleAnswer("b"),
		"q3": models.MultiAnswer("a", "b"),
	})
	submission := sampleSubmission()
	submission.Score = scored.Score
	submission.Answers = scored.Answers
	submission.QuestionOrder = scored.QuestionOrder

	data, err := NewReportService(testLogger()).ExportSubmissionToExcel(submission)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, answersSheet}, f.GetSheetList())

	name, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	percentage, err := f.GetCellValue(summarySheet, "B9")
	require.NoError(t, err)
	assert.Equal(t, "33.3", percentage)

	rows, err := f.GetRows(answersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Question ID", rows[0][0])
	assert.Equal(t, []string{"q1", "p1", "multiple-choice", "Capital of France?", "b (Lyon)", "a (Paris)", "FALSE"}, rows[1])
	assert.Equal(t, "q2", rows[2][0])
	assert.Equal(t, "Rome", rows[2][5])
	assert.Equal(t, "a (Rhine), b (Danube)", rows[3][4])
	assert.Equal(t, "TRUE", rows[3][6])
}

func TestDescribeAnswer(t *testing.T) {
	options := []models.OptionView{{ID: "a", Text: "Paris"}, {ID: "b"}}

	assert.Equal(t, "a (Paris)", describeAnswer(models.SingleAnswer("a"), options))
	assert.Equal(t, "b", describeAnswer(models.SingleAnswer("b"), options))
	assert.Equal(t, "free text", describeAnswer(models.SingleAnswer("free text"), nil))
	assert.Equal(t, "", describeAnswer(models.MultiAnswer(), options))
}
