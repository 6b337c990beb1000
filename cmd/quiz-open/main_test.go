package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/SAP-F-2025/offline-quiz/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeArtifacts(t *testing.T) (dir, envelopePath, keyPath string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result, err := services.NewSealer(logger, 2048).Seal(context.Background(), &models.Submission{
		Participant:   models.Participant{Name: "Grace Hopper", Email: "grace@example.com"},
		QuizInfo:      models.QuizInfo{Title: "Compilers"},
		SubmittedAt:   time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		Score:         models.Score{Correct: 0, Total: 1, Percentage: 0},
		Answers:       map[string]models.AnswerRecord{"q1": {QuestionText: "First compiler?", Type: models.FillInTheBlank, Page: "p1", Selected: models.SingleAnswer("A-0"), CorrectAnswer: models.SingleAnswer("A-0 System")}},
		QuestionOrder: []string{"q1"},
	})
	require.NoError(t, err)

	dir = t.TempDir()
	envelopePath = filepath.Join(dir, result.EnvelopeFileName)
	keyPath = filepath.Join(dir, result.PrivateKeyFileName)
	require.NoError(t, os.WriteFile(envelopePath, result.EnvelopeJSON, 0o600))
	require.NoError(t, os.WriteFile(keyPath, []byte(result.PrivateKey+"\n"), 0o600))
	return dir, envelopePath, keyPath
}

func TestRun_PrintsSubmissionAndWritesReport(t *testing.T) {
	dir, envelopePath, keyPath := writeArtifacts(t)
	xlsxPath := filepath.Join(dir, "report.xlsx")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--envelope", envelopePath, "-k", keyPath, "--xlsx", xlsxPath}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var submission models.Submission
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &submission))
	assert.Equal(t, "Grace Hopper", submission.Participant.Name)
	assert.Equal(t, "Compilers", submission.QuizInfo.Title)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 2)
}

func TestRun_RequiresBothArtifacts(t *testing.T) {
	_, envelopePath, _ := writeArtifacts(t)

	err := run([]string{"--envelope", envelopePath}, io.Discard, io.Discard)
	assert.EqualError(t, err, "--envelope and --key are both required")

	err = run([]string{"--envelope", envelopePath, "--key", "missing.txt"}, io.Discard, io.Discard)
	assert.ErrorContains(t, err, "reading private key")
}

func TestRun_WrongKeyFails(t *testing.T) {
	_, envelopePath, _ := writeArtifacts(t)
	_, _, otherKey := writeArtifacts(t)

	err := run([]string{"--envelope", envelopePath, "--key", otherKey}, io.Discard, io.Discard)
	require.Error(t, err)
	assert.True(t, services.IsCrypto(err))
}

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer
	require.NoError(t, run([]string{"--help"}, io.Discard, &stderr))
	assert.Contains(t, stderr.String(), "quiz-open decrypts")
}
