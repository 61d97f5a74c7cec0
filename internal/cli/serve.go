package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"stepgrade/internal/config"
	"stepgrade/internal/metrics"
	"stepgrade/internal/reportserver"
	"stepgrade/internal/store"
)

// serveReport is a test seam for running the report server.
var serveReport = reportserver.Serve

func runServe(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: search for .stepgrade/config.yml)")
		addr := fs.String("addr", "127.0.0.1:5000", "Address to listen on")
		title := fs.String("title", "Step grading results", "Page title")
		if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return code
		}
		if *addr == "" {
			fmt.Fprintln(stderr, "Missing --addr")
			return ExitUsage
		}

		cfg, base, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Serve failed:\n%v\n", err)
			return ExitError
		}
		if !cfg.Store.Enabled() {
			fmt.Fprintln(stderr, "Serve failed: store.driver is none; nothing to serve")
			return ExitError
		}
		dbPath := config.ResolvePath(base, cfg.Store.Path)
		if _, err := os.Stat(dbPath); err != nil {
			fmt.Fprintf(stderr, "Database not found: %v\n", err)
			return ExitError
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		results, err := store.Open(ctx, cfg.Store.Driver, dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "Serve failed: %v\n", err)
			return ExitError
		}
		defer results.Close()

		fmt.Fprintf(stdout, "Serving %s at http://%s\n", dbPath, *addr)
		err = serveReport(ctx, reportserver.Config{
			Addr:    *addr,
			Title:   *title,
			Source:  results,
			Metrics: metrics.New(),
		})
		if err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}
