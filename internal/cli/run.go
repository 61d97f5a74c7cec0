package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stepgrade/internal/batch"
	"stepgrade/internal/oracle"
	"stepgrade/internal/scoring"
	"stepgrade/internal/stats"
)

// batchRun starts one driver against a prepared environment.
type batchRun func(ctx context.Context, s *session, env *batch.Env) (batch.Summary, error)

// runBatch parses the shared flags, wires a session and runs fn until it
// finishes or the process is interrupted.
func runBatch(cmd *Command, args []string, stdout, stderr io.Writer, extra func(fs *flag.FlagSet), fn batchRun) int {
	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags runFlags
	flags.register(fs)
	if extra != nil {
		extra(fs)
	}
	if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
		return code
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := openSession(ctx, flags, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s failed:\n%v\n", cmd.Name, err)
		return ExitError
	}
	env, err := s.env(cancel)
	if err != nil {
		s.Close()
		fmt.Fprintf(stderr, "%s failed: %v\n", cmd.Name, err)
		return ExitUsage
	}
	summary, err := fn(ctx, s, env)
	return s.finish(ctx, summary, err)
}

func runFormat(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		var seed int64
		return runBatch(cmd, args, stdout, stderr, func(fs *flag.FlagSet) {
			fs.Int64Var(&seed, "seed", 0, "Shuffle seed (default: time based)")
		}, func(ctx context.Context, s *session, env *batch.Env) (batch.Summary, error) {
			llms, err := s.oracles(s.cfg.Workers)
			if err != nil {
				return batch.Summary{}, err
			}
			reformatters := make([]oracle.Reformatter, len(llms))
			for i, llm := range llms {
				reformatters[i] = llm
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			return env.Format(ctx, batch.FormatOptions{Reformatters: reformatters, Seed: seed})
		})
	}
}

func runScore(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		return runBatch(cmd, args, stdout, stderr, nil, func(ctx context.Context, s *session, env *batch.Env) (batch.Summary, error) {
			opts, err := s.scoreOptions()
			if err != nil {
				return batch.Summary{}, err
			}
			return env.Score(ctx, opts)
		})
	}
}

func runAnswers(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		return runBatch(cmd, args, stdout, stderr, nil, func(ctx context.Context, s *session, env *batch.Env) (batch.Summary, error) {
			llms, err := s.oracles(1)
			if err != nil {
				return batch.Summary{}, err
			}
			return env.Answers(ctx, batch.AnswersOptions{
				Oracle:     llms[0],
				Attempts:   s.cfg.Oracle.AnswerAttempts,
				RetryDelay: s.cfg.Oracle.RetryDelay(),
			})
		})
	}
}

func runWatch(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		var debounce time.Duration
		return runBatch(cmd, args, stdout, stderr, func(fs *flag.FlagSet) {
			fs.DurationVar(&debounce, "debounce", batch.DefaultDebounce, "Quiet period before a new formatted response is graded")
		}, func(ctx context.Context, s *session, env *batch.Env) (batch.Summary, error) {
			opts, err := s.scoreOptions()
			if err != nil {
				return batch.Summary{}, err
			}
			summary, err := env.Watch(ctx, batch.WatchOptions{
				Score:    opts,
				Debounce: debounce,
				Ready: func() {
					fmt.Fprintf(stderr, "Watching %s (ctrl+c to stop)\n", env.Layout.Root)
				},
			})
			return summary, err
		})
	}
}

// scoreOptions wires a single oracle for the sequential step evaluation.
func (s *session) scoreOptions() (batch.ScoreOptions, error) {
	llms, err := s.oracles(1)
	if err != nil {
		return batch.ScoreOptions{}, err
	}
	return batch.ScoreOptions{
		Oracle:     llms[0],
		RetryDelay: s.cfg.Oracle.RetryDelay(),
		OnStep: func(_, _ string, step scoring.StepResult) {
			s.metrics.ObserveStep(step.Score)
		},
	}, nil
}

func summaryPath(outputDir, runID string) string {
	return filepath.Join(outputDir, runID, batch.SummaryFile)
}

// printSummary writes the counts, per-difficulty accuracy and mean score.
func printSummary(w io.Writer, summary batch.Summary) {
	c := summary.Counts
	fmt.Fprintf(w, "Run %s (%s): %d items, %d done, %d skipped, %d failed, %d invalid\n",
		summary.RunID, summary.Command, c.Total, c.Done, c.Skipped, c.Failed, c.Invalid)
	if len(summary.Stats) > 0 {
		collector := stats.New()
		collector.Merge(summary.Stats)
		collector.Print(w)
	}
	if summary.MeanScore != nil {
		fmt.Fprintf(w, "Mean score: %.3f\n", *summary.MeanScore)
	}
}
