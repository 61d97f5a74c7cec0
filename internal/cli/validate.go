package cli

import (
	"flag"
	"fmt"
	"io"
)

func runValidate(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: search for .stepgrade/config.yml)")
		if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return code
		}

		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Validation failed:\n%v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Config OK (%s/%s, %d credential(s), store %s)\n",
			cfg.Oracle.Provider, cfg.Oracle.Model, len(cfg.Oracle.Credentials), cfg.Store.Driver)
		return ExitOK
	}
}
