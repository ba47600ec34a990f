package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "trainwatch",
	Short: "Watch training metrics stream in live",
	Long: `trainwatch plots a live feed of training metrics.

Run a relay, point your training loop (or 'trainwatch generate') at its
webhook, and watch accuracy, loss, perplexity and GPU utilization update
in the terminal or the browser.

  trainwatch serve
  trainwatch generate --eval
  trainwatch watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
		debug := verbose || os.Getenv(logger.DebugEnv) != ""
		logger.SetDefault(logger.NewWriterLogger(os.Stderr, "", debug))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .trainwatch.yaml, searched upward)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
