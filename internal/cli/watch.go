package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainwatch/internal/config"
	"github.com/rileyhilliard/trainwatch/internal/dashboard"
	"github.com/rileyhilliard/trainwatch/internal/errors"
	"github.com/rileyhilliard/trainwatch/internal/ingest"
	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/series"
	"github.com/rileyhilliard/trainwatch/internal/stream"
	"github.com/rileyhilliard/trainwatch/internal/ui"
	"golang.org/x/term"
)

// sparkWidth is how many recent points the plain output's sparklines show.
const sparkWidth = 24

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	LogFile string // TUI log destination; empty discards logs
	Plain   bool   // Line output even on a terminal
}

// watchCommand subscribes to the feed and runs the dashboard until the user
// quits or ctx is cancelled.
func watchCommand(ctx context.Context, cfg *config.Config, opts WatchOptions) error {
	plain := opts.Plain || !term.IsTerminal(int(os.Stdout.Fd()))

	log, closeLog, err := watchLogger(opts.LogFile, plain)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := stream.NewSubscriber(subscriberConfig(cfg), log)
	runErr := make(chan error, 1)
	go func() {
		runErr <- sub.Run(ctx)
	}()

	if plain {
		err := runPlain(ctx, sub, runErr, cfg.Retention.MaxPoints, log, os.Stdout)
		_ = sub.Close()
		return err
	}

	model := dashboard.NewModel(sub, dashboard.Options{
		URL:       cfg.Stream.URL,
		MaxPoints: cfg.Retention.MaxPoints,
		Log:       log,
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
		tea.WithFPS(refreshFPS(cfg.Watch.Refresh)),
	)
	_, err = p.Run()
	interrupted := ctx.Err() != nil

	// Closing the model closes the subscriber, which ends Run.
	_ = model.Close()
	cancel()
	<-runErr

	if err != nil && !interrupted {
		return errors.WrapWithCode(err, errors.ErrDashboard,
			"The dashboard exited unexpectedly",
			"Try --plain, or check the log file passed with --log-file")
	}
	return nil
}

// watchLogger picks where logs go. The TUI owns the screen, so it only logs
// to a file; plain mode logs to stderr.
func watchLogger(path string, plain bool) (logger.Logger, func(), error) {
	debug := verbose || os.Getenv(logger.DebugEnv) != ""

	if path != "" {
		f, err := os.OpenFile(config.ExpandTilde(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot open log file "+path,
				"Check the directory exists and is writable")
		}
		return logger.NewWriterLogger(f, "[watch]", debug), func() { f.Close() }, nil
	}
	if plain {
		return logger.NewWriterLogger(os.Stderr, "[watch]", debug), func() {}, nil
	}
	return logger.Noop(), func() {}, nil
}

// refreshFPS converts the configured redraw interval to a frame rate
// bubbletea accepts (1-120).
func refreshFPS(refresh time.Duration) int {
	if refresh <= 0 {
		return 60
	}
	fps := int(time.Second / refresh)
	return max(1, min(fps, 120))
}

var feedHints = []errors.Hint{
	{Target: stream.ErrRetriesExhausted, Text: "The feed stayed down through every retry. Start the relay with 'trainwatch serve', or raise reconnect.max_retries"},
	{Target: stream.ErrConnectionLost, Text: "Reconnect is off, so one drop ends the watch. Run without --no-reconnect to ride out relay restarts"},
}

// runPlain prints one line per plotted event and one per status change.
// It returns when ctx is cancelled or the subscriber gives up.
func runPlain(ctx context.Context, feed dashboard.Feed, runErr <-chan error, maxPoints int, log logger.Logger, w io.Writer) error {
	board := series.NewBoard(maxPoints)
	in := ingest.New(board, log)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-runErr:
			if err != nil {
				return errors.WrapWithHints(err, errors.ErrStream,
					"Lost the metrics feed",
					"Check that 'trainwatch serve' is running and stream.url points at it",
					feedHints...)
			}
			return nil

		case u := <-feed.Statuses():
			fmt.Fprintln(w, formatStatusLine(u))

		case f := <-feed.Frames():
			res := in.Handle(f.Data)
			if res.Outcome != ingest.Applied {
				continue
			}
			fmt.Fprintln(w, formatEventLine(res.Kind, board.Series(res.Kind)))
		}
	}
}

func formatStatusLine(u stream.StatusUpdate) string {
	switch u.Status {
	case stream.StatusConnected:
		return ui.SuccessStyle().Render(ui.SymbolComplete + " live")
	case stream.StatusConnecting:
		return ui.MutedStyle().Render(ui.SymbolPending + " connecting")
	case stream.StatusReconnecting:
		return ui.WarningStyle().Render(fmt.Sprintf("%s reconnecting (attempt %d, next in %s)",
			ui.SymbolProgress, u.Attempt, u.Wait.Round(time.Millisecond)))
	default:
		line := ui.SymbolFail + " disconnected"
		if u.Err != nil {
			line += ": " + u.Err.Error()
		}
		return ui.ErrorStyle().Render(line)
	}
}

func formatEventLine(kind metric.Kind, s series.Series) string {
	step, value, _ := s.Last()
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(kind.Color())).Render(fmt.Sprintf("%-22s", kind.Label()))
	return fmt.Sprintf("step %-8g %s %12.6g  %s",
		step, label, value, ui.RenderSparkline(s.Tail(sparkWidth).Data, sparkWidth, lipgloss.Color(kind.Color())))
}
