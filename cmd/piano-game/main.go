package main

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "piano-game",
	Short: "Note sequence memory game",
	Long: `piano-game plays a random sequence of notes on a keyboard, then lets you
play it back and counts your mistakes.`,
	SilenceUsage: true,
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), overrides the config file")
}

func newLogger(level charmlog.Level, prefix string) *charmlog.Logger {
	return charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		Level:           level,
		ReportCaller:    level == charmlog.DebugLevel,
		ReportTimestamp: false,
		Prefix:          prefix,
	})
}

func withLogger(ctx context.Context, logger *charmlog.Logger) context.Context {
	return context.WithValue(ctx, charmlog.ContextKey, logger)
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
