package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rileyhilliard/trainwatch/internal/config"
	"github.com/rileyhilliard/trainwatch/internal/errors"
	"github.com/rileyhilliard/trainwatch/internal/generator"
	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/ui"
)

// progressWidth is the inner width of the generate progress bar.
const progressWidth = 30

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Output   string // JSONL file instead of the webhook
	Eval     bool
	Layers   int
	Seed     int64
	NoCheck  bool // Skip the relay health check
	Progress bool // Redraw a progress bar after every step
}

// generateCommand emits a synthetic run to the webhook or a file.
func generateCommand(ctx context.Context, cfg *config.Config, opts GenerateOptions, log logger.Logger, w io.Writer) error {
	var (
		sink   generator.Sink
		target string
	)

	if opts.Output != "" {
		path := config.ExpandTilde(opts.Output)
		fs, err := generator.NewFileSink(path)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrGenerate,
				"Cannot open output file "+opts.Output,
				"Check the directory exists and is writable")
		}
		sink, target = fs, path
	} else {
		if !opts.NoCheck {
			if err := checkRelay(ctx, cfg.Generator.URL, w); err != nil {
				return err
			}
		}
		sink, target = generator.NewWebhookSink(cfg.Generator.URL, nil), cfg.Generator.URL
	}

	gcfg := generator.Config{
		Steps:    cfg.Generator.Steps,
		Interval: cfg.Generator.Interval,
		Eval:     opts.Eval,
		Layers:   opts.Layers,
		Seed:     opts.Seed,
	}
	if opts.Progress {
		gcfg.OnStep = func(s generator.Summary) {
			fmt.Fprint(w, "\r"+ui.RenderProgressBar(s.Steps, gcfg.Steps, progressWidth))
		}
	}
	log.Debug("generating %s", gcfg)

	start := time.Now()
	sum, runErr := generator.New(gcfg, log).Run(ctx, sink)
	closeErr := sink.Close()
	if opts.Progress {
		fmt.Fprintln(w)
	}

	fmt.Fprint(w, ui.RenderRunSummary(ui.RunSummary{
		Steps:    sum.Steps,
		Sent:     sum.Sent,
		Failed:   sum.Failed,
		Target:   target,
		Elapsed:  time.Since(start),
		Canceled: runErr != nil,
	}))

	if closeErr != nil {
		return errors.WrapWithCode(closeErr, errors.ErrGenerate,
			"Failed to finish writing "+target,
			"Check free disk space")
	}
	if sum.Sent == 0 && sum.Failed > 0 {
		return errors.New(errors.ErrGenerate,
			"Every event was rejected",
			"Run with --verbose to see why the relay refused them")
	}
	return nil
}

// checkRelay probes the relay's /healthz next to the webhook.
func checkRelay(ctx context.Context, webhook string, w io.Writer) error {
	health, err := healthURL(webhook)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"generator.url isn't a valid URL: "+webhook,
			"Use something like http://localhost:8000/webhook")
	}

	spinner := ui.NewSpinner("Checking relay at " + health)
	spinner.SetOutput(func(s string) { fmt.Fprint(w, s) })
	spinner.Start()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = probe(ctx, health)
	if err != nil {
		spinner.Fail()
		return errors.WrapWithCode(err, errors.ErrGenerate,
			"The relay isn't reachable at "+webhook,
			"Start it with 'trainwatch serve', write to a file with --output, or skip this check with --no-check")
	}
	spinner.Success()
	return nil
}

func probe(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", target, resp.Status)
	}
	return nil
}

// healthURL swaps the webhook path for /healthz on the same host.
func healthURL(webhook string) (string, error) {
	u, err := url.Parse(webhook)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("missing scheme or host")
	}
	u.Path = "/healthz"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
