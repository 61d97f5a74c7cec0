package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"stepgrade/internal/config"
)

// initInput allows tests to override stdin for init prompts.
var initInput io.Reader = os.Stdin

func runInit(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: .stepgrade/config.yml in the working directory)")
		root := fs.String("root", "", "Benchmark root directory (prompted when empty)")
		yes := fs.Bool("yes", false, "Accept defaults without prompting")
		if code, ok := parseFlags(cmd, fs, args, stdout, stderr); !ok {
			return code
		}

		target, err := initTarget(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}
		if info, err := os.Stat(target); err == nil {
			if info.IsDir() {
				fmt.Fprintf(stderr, "Init failed: config path %q is a directory\n", target)
				return ExitError
			}
			fmt.Fprintf(stderr, "Init failed: config file already exists at %q\n", target)
			return ExitError
		}
		workspace := config.RepoRootFromConfigPath(target)

		reader := bufio.NewReader(initInput)
		benchRoot := strings.TrimSpace(*root)
		if benchRoot == "" {
			benchRoot = config.DefaultRoot
			if !*yes {
				if benchRoot, err = promptString(reader, stdout, "Benchmark root", config.DefaultRoot); err != nil {
					fmt.Fprintf(stderr, "Init failed: %v\n", err)
					return ExitError
				}
			}
		}
		ignore := true
		if !*yes {
			if ignore, err = promptYesNo(reader, stdout, "Add "+config.ConfigDirName+" results to .gitignore?", true); err != nil {
				fmt.Fprintf(stderr, "Init failed: %v\n", err)
				return ExitError
			}
		}

		if err := config.Scaffold(target, benchRoot); err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Wrote %s\n", target)
		if ignore {
			for _, entry := range []string{config.DefaultStorePath, config.DefaultOutputDir} {
				updated, err := addGitignoreEntry(workspace, entry)
				if err != nil {
					fmt.Fprintf(stderr, "Init failed: update .gitignore: %v\n", err)
					return ExitError
				}
				if updated {
					fmt.Fprintf(stdout, "Added %s to %s\n", entry, filepath.Join(workspace, ".gitignore"))
				}
			}
		}
		fmt.Fprintln(stdout, "Set the credential environment variables, then run \"stepgrade validate\".")
		return ExitOK
	}
}

func initTarget(configPath string) (string, error) {
	if strings.TrimSpace(configPath) != "" {
		return filepath.Abs(configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.ConfigPath(wd), nil
}

// addGitignoreEntry appends a workspace-relative path to .gitignore unless it
// is already listed. It reports whether the file changed.
func addGitignoreEntry(workspace, path string) (bool, error) {
	entry := filepath.ToSlash(strings.TrimPrefix(filepath.Clean(path), "."+string(filepath.Separator)))
	if entry == "" || entry == "." || strings.HasPrefix(entry, "..") || filepath.IsAbs(path) {
		return false, fmt.Errorf("path %q is not inside the workspace", path)
	}

	gitignorePath := filepath.Join(workspace, ".gitignore")
	existing, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSuffix(strings.TrimSpace(line), "/") == entry {
			return false, nil
		}
	}
	updated := string(existing)
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += entry + "\n"
	if err := os.WriteFile(gitignorePath, []byte(updated), 0o644); err != nil {
		return false, fmt.Errorf("write .gitignore: %w", err)
	}
	return true, nil
}

// promptString asks for a value, returning defaultValue on an empty line.
func promptString(reader *bufio.Reader, out io.Writer, label, defaultValue string) (string, error) {
	fmt.Fprintf(out, "%s [%s]: ", label, defaultValue)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if line = strings.TrimSpace(line); line == "" {
		return defaultValue, nil
	}
	return line, nil
}

// promptYesNo asks a yes/no question; an empty answer or EOF picks the default.
func promptYesNo(reader *bufio.Reader, out io.Writer, label string, defaultYes bool) (bool, error) {
	suffix := "y/N"
	if defaultYes {
		suffix = "Y/n"
	}
	for {
		fmt.Fprintf(out, "%s [%s]: ", label, suffix)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err == io.EOF {
			return false, fmt.Errorf("invalid response %q", strings.TrimSpace(line))
		}
		fmt.Fprintln(out, "Please answer yes or no.")
	}
}
