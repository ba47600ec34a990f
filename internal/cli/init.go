package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/trainwatch/internal/config"
	"github.com/rileyhilliard/trainwatch/internal/errors"
	"github.com/rileyhilliard/trainwatch/internal/ui"
	"golang.org/x/term"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Dir            string // Where to write; empty means the git root or cwd
	Global         bool   // Write ~/.config/trainwatch/config.yaml instead
	URL            string // Pre-specified stream URL
	MaxPoints      int    // Pre-specified retention cap; -1 means unset
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use defaults
}

// initTarget resolves where the config file goes.
func initTarget(opts InitOptions) (string, error) {
	if opts.Global {
		return config.GlobalPath()
	}

	dir := opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
		if root := config.FindGitRoot(cwd); root != "" {
			dir = root
		}
	}
	return filepath.Join(dir, config.ConfigFileName), nil
}

// isNonInteractive reports whether prompts should be skipped.
func isNonInteractive(opts InitOptions) bool {
	if opts.NonInteractive {
		return true
	}
	if os.Getenv("CI") != "" || os.Getenv("TRAINWATCH_NON_INTERACTIVE") != "" {
		return true
	}
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

// Init writes a new config file with defaults plus any answers.
func Init(opts InitOptions, w io.Writer) error {
	path, err := initTarget(opts)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot work out where to write the config",
			"Pass --dir explicitly")
	}
	interactive := !isNonInteractive(opts)

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if !interactive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		))
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if opts.URL != "" {
		cfg.Stream.URL = opts.URL
	}
	if opts.MaxPoints >= 0 {
		cfg.Retention.MaxPoints = opts.MaxPoints
	}

	if interactive {
		if err := promptInit(cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --non-interactive")
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Write(path, cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check the directory is writable")
	}

	fmt.Fprintln(w, ui.SuccessStyle().Render(ui.SymbolSuccess+" Created "+path))
	fmt.Fprintln(w, ui.MutedStyle().Render("  Next: trainwatch serve, then trainwatch watch"))
	return nil
}

// promptInit asks for the settings most people change.
func promptInit(cfg *config.Config) error {
	streamURL := cfg.Stream.URL
	maxPoints := strconv.Itoa(cfg.Retention.MaxPoints)
	addr := cfg.Server.Addr

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Metrics feed URL").
				Description("WebSocket endpoint 'trainwatch watch' subscribes to").
				Placeholder("ws://localhost:8000/ws/metrics").
				Value(&streamURL).
				Validate(validateStreamURL),
			huh.NewInput().
				Title("Points kept per series").
				Description("0 keeps everything").
				Value(&maxPoints).
				Validate(validateMaxPoints),
			huh.NewInput().
				Title("Relay listen address").
				Description("Used by 'trainwatch serve'").
				Placeholder(":8000").
				Value(&addr).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("address is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Stream.URL = strings.TrimSpace(streamURL)
	cfg.Retention.MaxPoints, _ = strconv.Atoi(strings.TrimSpace(maxPoints))
	cfg.Server.Addr = strings.TrimSpace(addr)
	return nil
}

func validateStreamURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a valid URL")
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("must start with ws:// or wss://")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func validateMaxPoints(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("enter 0 or a positive number")
	}
	return nil
}
