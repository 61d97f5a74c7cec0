package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"stepgrade/internal/batch"
	"stepgrade/internal/config"
	"stepgrade/internal/stats"
	"stepgrade/internal/store"
)

func runReport(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: search for .stepgrade/config.yml)")
		if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return code
		}

		cfg, base, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Report failed:\n%v\n", err)
			return ExitError
		}
		env := &batch.Env{
			Layout: batch.Layout{Root: config.ResolvePath(base, cfg.Root), Prefix: cfg.ProblemPrefix},
			Artifacts: batch.Artifacts{
				Raw:        cfg.Artifacts.Raw,
				Formatted:  cfg.Artifacts.Formatted,
				StepEval:   cfg.Artifacts.StepEval,
				AnswerEval: cfg.Artifacts.AnswerEval,
				ModelName:  cfg.Artifacts.ModelName,
			},
		}
		report, err := env.Scan()
		if err != nil {
			fmt.Fprintf(stderr, "Report failed: %v\n", err)
			return ExitError
		}
		for _, item := range report.Unreadable {
			fmt.Fprintf(stderr, "Warning: %s: %s\n", item.ProblemID, item.Error)
		}
		if len(report.Rows) == 0 {
			fmt.Fprintln(stdout, "No evaluations found.")
			return ExitOK
		}
		fmt.Fprintf(stdout, "%d problem(s) evaluated\n", report.Problems)
		fmt.Fprintln(stdout, renderReportTable(report.Rows))
		return ExitOK
	}
}

// renderReportTable lays out one row per difficulty.
func renderReportTable(rows []store.DifficultySummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Difficulty", "Sub-questions", "Shortcut", "Mean score", "Answers", "Accuracy")
	for _, row := range rows {
		mean, answers, accuracy := "-", "-", "-"
		if row.SubQuestions > 0 {
			mean = strconv.FormatFloat(row.MeanScore, 'f', 3, 64)
		}
		if row.Answered > 0 {
			answers = fmt.Sprintf("%d/%d", row.Correct, row.Answered)
			accuracy = strconv.FormatFloat(row.AnswerAccuracy(), 'f', 1, 64) + "%"
		}
		t.Row(
			stats.Capitalize(row.Difficulty),
			strconv.Itoa(row.SubQuestions),
			strconv.Itoa(row.Shortcut),
			mean,
			answers,
			accuracy,
		)
	}
	return t.Render()
}
