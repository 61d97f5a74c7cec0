package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"stepgrade/internal/batch"
	"stepgrade/internal/config"
	"stepgrade/internal/metrics"
	"stepgrade/internal/oracle"
	"stepgrade/internal/store"
	"stepgrade/internal/ui/live"
	"stepgrade/internal/verbose"
)

// runFlags are shared by the commands that call the oracle.
type runFlags struct {
	configPath  string
	verbose     bool
	logPath     string
	noColor     bool
	uiMode      string
	transcript  string
	metricsFile string
}

func (f *runFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to config file (default: search for .stepgrade/config.yml)")
	fs.BoolVar(&f.verbose, "verbose", false, "Print every oracle verdict")
	fs.StringVar(&f.logPath, "log", "", "Mirror log lines to a file without colors")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fs.StringVar(&f.uiMode, "ui", uiAuto, "Progress display: auto|live|plain")
	fs.StringVar(&f.transcript, "transcript", "", "Record every prompt and reply to a file")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to a textfile after the run")
}

// session is the wiring shared by one format, score, answers or watch invocation.
type session struct {
	cfg        config.Config
	base       string
	flags      runFlags
	stdout     io.Writer
	stderr     io.Writer
	logger     *verbose.Logger
	metrics    *metrics.Collector
	store      *store.Store
	transcript *oracle.Transcript
	logFile    *os.File
	ui         *live.Controller
}

// openSession loads the config and opens the log file, transcript and store.
func openSession(ctx context.Context, flags runFlags, stdout, stderr io.Writer) (*session, error) {
	cfg, base, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, base: base, flags: flags, stdout: stdout, stderr: stderr, metrics: metrics.New()}

	var logWriter io.Writer
	if flags.logPath != "" {
		file, err := os.OpenFile(flags.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		s.logFile = file
		logWriter = file
	}
	s.logger = verbose.New(verbose.Options{
		Verbose: flags.verbose,
		Out:     stdout,
		Err:     stderr,
		Log:     logWriter,
		NoColor: flags.noColor,
		Workers: cfg.Workers,
	})

	if flags.transcript != "" {
		if s.transcript, err = oracle.OpenTranscript(flags.transcript); err != nil {
			s.Close()
			return nil, err
		}
	}
	if cfg.Store.Enabled() {
		if s.store, err = store.Open(ctx, cfg.Store.Driver, config.ResolvePath(base, cfg.Store.Path)); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases everything openSession opened.
func (s *session) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.transcript != nil {
		errs = append(errs, s.transcript.Close())
	}
	if s.logFile != nil {
		errs = append(errs, s.logFile.Close())
	}
	return errors.Join(errs...)
}

// completers builds n oracle completers that share one credential pool, so
// each starts on a different credential and rotates on transient failures.
func (s *session) completers(n int) ([]oracle.Completer, error) {
	o := s.cfg.Oracle
	creds, err := oracle.CredentialsFromEnv(o.CredentialIDs(), o.CredentialEnvVars())
	if err != nil {
		return nil, err
	}
	pool, err := oracle.NewCredentialPool(creds)
	if err != nil {
		return nil, err
	}
	factory, err := oracle.NewFactory(o.Provider, o.Model, o.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	// Timeout, transcript and metrics apply per attempt, inside the rotation.
	perAttempt := factory.Wrap(func(completer oracle.Completer) oracle.Completer {
		completer = oracle.Record(completer, s.transcript)
		completer = oracle.Observe(completer, s.metrics)
		return oracle.WithTimeout(completer, o.Timeout())
	})
	out := make([]oracle.Completer, 0, n)
	for worker := 0; worker < n; worker++ {
		rotating, err := oracle.NewRotating(pool, perAttempt, o.RetryDelay(), func(attempt int, credentialID string, err error) {
			s.logger.Warnf("worker %d: attempt %d with credential %s failed, rotating: %v", worker, attempt, credentialID, err)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rotating)
	}
	return out, nil
}

// oracles wraps n completers in the locale's prompt set.
func (s *session) oracles(n int) ([]*oracle.LLM, error) {
	locale, err := oracle.ParseLocale(s.cfg.Locale)
	if err != nil {
		return nil, err
	}
	completers, err := s.completers(n)
	if err != nil {
		return nil, err
	}
	out := make([]*oracle.LLM, len(completers))
	for i, completer := range completers {
		out[i] = oracle.NewLLM(completer, locale)
	}
	return out, nil
}

// env builds the batch environment. cancel stops the run from the live UI.
func (s *session) env(cancel context.CancelFunc) (*batch.Env, error) {
	env := &batch.Env{
		Layout: batch.Layout{
			Root:   config.ResolvePath(s.base, s.cfg.Root),
			Prefix: s.cfg.ProblemPrefix,
		},
		Artifacts: batch.Artifacts{
			Raw:        s.cfg.Artifacts.Raw,
			Formatted:  s.cfg.Artifacts.Formatted,
			StepEval:   s.cfg.Artifacts.StepEval,
			AnswerEval: s.cfg.Artifacts.AnswerEval,
			ModelName:  s.cfg.Artifacts.ModelName,
		},
		OutputDir: config.ResolvePath(s.base, s.cfg.OutputDir),
		Logger:    s.logger,
		Metrics:   s.metrics,
	}
	if s.store != nil {
		env.Sink = s.store
	}

	decision, err := resolveUIMode(s.flags.uiMode, s.flags.verbose, s.stdout)
	if err != nil {
		return nil, err
	}
	if decision.warning != "" {
		fmt.Fprintln(s.stderr, decision.warning)
	}
	if decision.useLive {
		s.ui = live.Start(s.stdout, live.Options{NoColor: s.flags.noColor, OnInterrupt: cancel})
		env.Observer = s.ui
	} else {
		env.Observer = batch.NewProgressPrinter(s.stdout)
	}
	return env, nil
}

// finish stops the live UI, prints the run summary and exports metrics.
func (s *session) finish(ctx context.Context, summary batch.Summary, runErr error) int {
	if s.ui != nil {
		s.ui.Close()
		if err := s.ui.Wait(); err != nil {
			fmt.Fprintf(s.stderr, "Live UI error: %v\n", err)
		}
	}
	code := ExitOK
	switch {
	case errors.Is(runErr, context.Canceled):
		fmt.Fprintln(s.stderr, "Interrupted.")
		code = ExitError
	case runErr != nil:
		fmt.Fprintf(s.stderr, "Run failed: %v\n", runErr)
		code = ExitError
	}
	if summary.RunID != "" {
		printSummary(s.stdout, summary)
		fmt.Fprintf(s.stdout, "Summary: %s\n", summaryPath(config.ResolvePath(s.base, s.cfg.OutputDir), summary.RunID))
	}

	if s.flags.metricsFile != "" {
		if s.store != nil {
			if err := s.metrics.Refresh(context.WithoutCancel(ctx), s.store); err != nil {
				s.logger.Warnf("refresh metrics from store: %v", err)
			}
		}
		if err := s.metrics.WriteToTextfile(s.flags.metricsFile); err != nil {
			fmt.Fprintf(s.stderr, "Write metrics: %v\n", err)
			code = ExitError
		}
	}
	if err := s.Close(); err != nil {
		fmt.Fprintf(s.stderr, "Close: %v\n", err)
		code = ExitError
	}
	return code
}
