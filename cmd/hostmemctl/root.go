package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hostmemctl",
	Short: "Exercise and inspect hostmem heaps",
	Long: `hostmemctl drives the hostmem heap against each of its allocator
backends, checks memory requests the way a heap would, and reports the
resulting heap statistics as JSON.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Trace every heap operation to stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger returns a debug logger on stderr when --verbose is set, and nil otherwise
func newLogger(stderr io.Writer) *slog.Logger {
	if !verbose {
		return nil
	}

	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
