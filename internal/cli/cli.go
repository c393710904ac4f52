// Package cli parses the command line and starts the terminal UI, the HTTP
// API or one of the maintenance commands.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/service"
	"github.com/nhle/taskboard/internal/store"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

const usage = `Usage: taskboard [flags] [command]

Commands:
  tui                      interactive terminal UI (default)
  serve                    JSON API over HTTP
  config init              write the effective configuration to --config
  config path              print the configuration file path
  secret set <key>         store a secret read from stdin in the system keyring
  secret delete <key>      remove a secret from the system keyring

Flags:
`

// IO bundles the standard streams so tests can substitute buffers.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes the command described by args (without the program name).
func Run(ctx context.Context, args []string, streams IO) error {
	fs := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)
	fs.SetOutput(streams.Err)
	fs.Usage = func() {
		fmt.Fprint(streams.Err, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", model.DefaultConfigPath(), "path to the YAML configuration file")
	fs.String("db-driver", "", "database driver: sqlite or postgres")
	fs.String("db-path", "", "SQLite database file")
	fs.String("db-url", "", "Postgres connection URL")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.Bool("log-json", false, "emit JSON logs")
	fs.String("log-file", "", "log file used by the terminal UI")
	fs.String("addr", "", "listen address for serve")
	showVersion := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintln(streams.Out, "taskboard", Version)
		return nil
	}

	command, rest := "tui", fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	// Secrets never need the rest of the configuration.
	if command == "secret" {
		return runSecret(rest, streams)
	}

	cfg, err := model.LoadConfig(*configPath, fs)
	if err != nil {
		return err
	}

	switch command {
	case "tui":
		return runTUI(ctx, cfg)
	case "serve":
		return runServe(ctx, cfg, streams.Out)
	case "config":
		return runConfig(rest, *configPath, cfg, streams.Out)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// openService connects the configured store and wraps it in the service.
// The returned store must be closed by the caller.
func openService(ctx context.Context, cfg *model.AppConfig, log *slog.Logger) (*service.TaskService, store.Store, error) {
	st, err := store.Open(ctx, cfg.Database, store.WithPasswordLookup(credential.Get))
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
	}
	log.Info("store opened", "driver", cfg.Database.Driver)
	return service.New(st, log), st, nil
}

func runConfig(args []string, path string, cfg *model.AppConfig, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("config: expected a subcommand (init, path)")
	}

	switch args[0] {
	case "path":
		fmt.Fprintln(out, path)
		return nil
	case "init":
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists", path)
		}
		if err := model.SaveConfig(path, cfg); err != nil {
			return err
		}
		fmt.Fprintln(out, "wrote", path)
		return nil
	default:
		return fmt.Errorf("config: unknown subcommand %q", args[0])
	}
}

func runSecret(args []string, streams IO) error {
	if len(args) != 2 {
		return errors.New("secret: usage is `secret set <key>` or `secret delete <key>`")
	}
	action, key := args[0], args[1]

	switch action {
	case "set":
		value, err := readSecret(streams.In)
		if err != nil {
			return err
		}
		if err := credential.Set(key, value); err != nil {
			return err
		}
		fmt.Fprintf(streams.Out, "stored %s\n", key)
		return nil
	case "delete":
		if err := credential.Delete(key); err != nil {
			return err
		}
		fmt.Fprintf(streams.Out, "deleted %s\n", key)
		return nil
	default:
		return fmt.Errorf("secret: unknown action %q", action)
	}
}

// readSecret returns the first line of r without its line ending.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return "", errors.New("secret: empty value")
	}
	return value, nil
}
