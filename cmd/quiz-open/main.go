// Command quiz-open decrypts a sealed quiz submission with its private key
// and prints it, optionally exporting a spreadsheet report.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/SAP-F-2025/offline-quiz/internal/models"
	"github.com/SAP-F-2025/offline-quiz/internal/services"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var envelopePath string
	var keyPath string
	var xlsxPath string
	var verbose bool

	flagSet := pflag.NewFlagSet("quiz-open", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&envelopePath, "envelope", "e", "", "path to the quiz-answers-*-encrypted.json file")
	flagSet.StringVarP(&keyPath, "key", "k", "", "path to the matching private-key-*.txt file")
	flagSet.StringVar(&xlsxPath, "xlsx", "", "also write a result report to this .xlsx file")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if envelopePath == "" || keyPath == "" {
		return errors.New("--envelope and --key are both required")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	submission, err := open(logger, envelopePath, keyPath)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(submission, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(out))

	if xlsxPath != "" {
		report, err := services.NewReportService(logger).ExportSubmissionToExcel(submission)
		if err != nil {
			return fmt.Errorf("building report: %w", err)
		}
		if err := os.WriteFile(xlsxPath, report, 0o600); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info("Report written", "path", xlsxPath)
	}
	return nil
}

func open(logger *slog.Logger, envelopePath, keyPath string) (*models.Submission, error) {
	raw, err := os.ReadFile(envelopePath)
	if err != nil {
		return nil, fmt.Errorf("reading envelope: %w", err)
	}
	var envelope models.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("envelope %s is not valid JSON: %w", envelopePath, err)
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	// Key size only matters when sealing.
	submission, err := services.NewSealer(logger, 0).Open(&envelope, strings.TrimSpace(string(key)))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", envelopePath, err)
	}
	logger.Debug("Envelope opened", "participant", submission.Participant.Name)
	return submission, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `quiz-open decrypts a sealed quiz submission.

Usage:
  quiz-open --envelope quiz-answers-ada-lovelace-encrypted.json --key private-key-ada-lovelace.txt [--xlsx report.xlsx]

Flags:
%s`, flagSet.FlagUsages())
}
