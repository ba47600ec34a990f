package cli

import (
	"os"
	"time"

	"github.com/rileyhilliard/trainwatch/internal/config"
	"github.com/rileyhilliard/trainwatch/internal/errors"
	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Command-specific flags
var (
	watchURL         string
	watchMaxPoints   int
	watchRefresh     time.Duration
	watchNoReconnect bool
	watchOpts        WatchOptions

	serveAddr       string
	serveBufferSize int
	serveMaxClients int
	serveMaxPoints  int

	generateURL      string
	generateSteps    int
	generateInterval time.Duration
	generateOpts     GenerateOptions

	initOpts InitOptions
)

// watchCmd starts the terminal dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live terminal dashboard for the metrics feed",
	Long: `Subscribe to the metrics feed and plot train/validation accuracy,
GPU utilization, loss and perplexity as they arrive.

When stdout is not a terminal (or with --plain) each plotted event is
printed as a line instead.

Keyboard shortcuts:
  q / Ctrl+C      Quit
  tab / arrows    Select series (hjkl works too)
  Enter           Expand selected series
  Esc             Back to the grid
  s               Toggle log scale
  c               Clear all series
  ?               Show help

Examples:
  trainwatch watch
  trainwatch watch --url ws://gpu-box:8000/ws/metrics
  trainwatch watch --max-points 500 --log-file /tmp/trainwatch.log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		cfg, err := loadConfig(func(c *config.Config) {
			setIfChanged(flags, "url", &c.Stream.URL, watchURL)
			setIfChanged(flags, "max-points", &c.Retention.MaxPoints, watchMaxPoints)
			setIfChanged(flags, "refresh", &c.Watch.Refresh, watchRefresh)
			if watchNoReconnect {
				c.Reconnect.Enabled = false
			}
		})
		if err != nil {
			return err
		}
		return watchCommand(cmd.Context(), cfg, watchOpts)
	},
}

// serveCmd runs the metrics relay
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the metrics relay",
	Long: `Accept metric events on POST /webhook, keep the most recent ones in
memory, and push each one to every WebSocket subscriber on /ws/metrics.

Also serves a browser dashboard on /, JSON read endpoints (/metrics,
/metrics/raw, /api/series, /healthz) and Prometheus counters on
/debug/metrics.

Examples:
  trainwatch serve
  trainwatch serve --addr 127.0.0.1:9000 --buffer-size 5000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		cfg, err := loadConfig(func(c *config.Config) {
			setIfChanged(flags, "addr", &c.Server.Addr, serveAddr)
			setIfChanged(flags, "buffer-size", &c.Server.BufferSize, serveBufferSize)
			setIfChanged(flags, "max-clients", &c.Server.MaxClients, serveMaxClients)
			setIfChanged(flags, "max-points", &c.Retention.MaxPoints, serveMaxPoints)
		})
		if err != nil {
			return err
		}
		return serveCommand(cmd.Context(), cfg, logger.Default(), cmd.OutOrStdout())
	},
}

// generateCmd emits a synthetic training run
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Emit a synthetic training run",
	Long: `Produce accuracy and loss for the train, val and test splits plus GPU
utilization for every step, and post each event to the relay webhook (or
write them as JSON lines with --output).

Examples:
  trainwatch generate
  trainwatch generate --eval --steps 200 --interval 50ms
  trainwatch generate --output run.jsonl --interval 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		cfg, err := loadConfig(func(c *config.Config) {
			setIfChanged(flags, "url", &c.Generator.URL, generateURL)
			setIfChanged(flags, "steps", &c.Generator.Steps, generateSteps)
			setIfChanged(flags, "interval", &c.Generator.Interval, generateInterval)
		})
		if err != nil {
			return err
		}
		if generateOpts.Layers < 0 {
			return errors.New(errors.ErrConfig,
				"--layers can't be negative",
				"Use 0 to skip gradient norms")
		}
		opts := generateOpts
		opts.Progress = !verbose && term.IsTerminal(int(os.Stdout.Fd()))
		return generateCommand(cmd.Context(), cfg, opts, logger.Default(), cmd.OutOrStdout())
	},
}

// initCmd creates a new .trainwatch.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .trainwatch.yaml configuration",
	Long: `Write a config file with sensible defaults.

The file goes to the root of the current git repository (or the current
directory outside one). With --global it goes to
~/.config/trainwatch/config.yaml.

Examples:
  trainwatch init
  trainwatch init --url ws://gpu-box:8000/ws/metrics --non-interactive
  trainwatch init --global --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := initOpts
		if !cmd.Flags().Changed("max-points") {
			opts.MaxPoints = -1
		}
		return Init(opts, cmd.OutOrStdout())
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for trainwatch.

Examples:
  # Bash
  trainwatch completion bash > /etc/bash_completion.d/trainwatch

  # Zsh
  trainwatch completion zsh > "${fpath[1]}/_trainwatch"

  # Fish
  trainwatch completion fish > ~/.config/fish/completions/trainwatch.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrUsage,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// watch command flags
	watchCmd.Flags().StringVar(&watchURL, "url", "", "metrics feed URL (overrides stream.url)")
	watchCmd.Flags().IntVar(&watchMaxPoints, "max-points", 0, "points kept per series, 0 keeps everything")
	watchCmd.Flags().DurationVar(&watchRefresh, "refresh", 0, "minimum redraw interval (e.g., 250ms)")
	watchCmd.Flags().BoolVar(&watchNoReconnect, "no-reconnect", false, "exit instead of reconnecting when the feed drops")
	watchCmd.Flags().StringVar(&watchOpts.LogFile, "log-file", "", "write logs here while the dashboard is open")
	watchCmd.Flags().BoolVar(&watchOpts.Plain, "plain", false, "print events as lines instead of the full-screen dashboard")

	// serve command flags
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().IntVar(&serveBufferSize, "buffer-size", 0, "recent events kept for the read endpoints")
	serveCmd.Flags().IntVar(&serveMaxClients, "max-clients", 0, "concurrent WebSocket subscribers allowed")
	serveCmd.Flags().IntVar(&serveMaxPoints, "max-points", 0, "points kept per series for /api/series")

	// generate command flags
	generateCmd.Flags().StringVar(&generateURL, "url", "", "webhook URL (overrides generator.url)")
	generateCmd.Flags().IntVar(&generateSteps, "steps", 0, "number of training steps")
	generateCmd.Flags().DurationVar(&generateInterval, "interval", 0, "pause between steps (e.g., 100ms)")
	generateCmd.Flags().StringVarP(&generateOpts.Output, "output", "o", "", "write JSON lines to this file instead of posting")
	generateCmd.Flags().BoolVar(&generateOpts.Eval, "eval", false, "also emit eval/loss (plotted as perplexity)")
	generateCmd.Flags().IntVar(&generateOpts.Layers, "layers", 0, "also emit gradient norms for this many layers")
	generateCmd.Flags().Int64Var(&generateOpts.Seed, "seed", 0, "random seed, 0 picks one")
	generateCmd.Flags().BoolVar(&generateOpts.NoCheck, "no-check", false, "skip the relay health check")

	// init command flags
	initCmd.Flags().StringVar(&initOpts.Dir, "dir", "", "directory to write .trainwatch.yaml into")
	initCmd.Flags().BoolVar(&initOpts.Global, "global", false, "write the per-user config instead")
	initCmd.Flags().StringVar(&initOpts.URL, "url", "", "metrics feed URL")
	initCmd.Flags().IntVar(&initOpts.MaxPoints, "max-points", 0, "points kept per series")
	initCmd.Flags().BoolVarP(&initOpts.Overwrite, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initOpts.NonInteractive, "non-interactive", false, "skip prompts and use defaults")

	// Register all commands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}
