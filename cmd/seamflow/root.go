package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

// Options holds the flags shared by every subcommand.
type Options struct {
	InputPath string
	Output    string
	Quiet     bool
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "seamflow",
		Short:   "Content-aware image resizing by seam carving",
		Version: Version,
		// Execute prints the error once.
		SilenceErrors: true,
	}
	rootCmd.SetErr(stderr)
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	logger := log.New(stderr, "[seamflow] ", log.LstdFlags|log.Lmsgprefix)
	rootCmd.AddCommand(
		newCarveCmd(logger),
		newEnergyCmd(logger),
		newSeamsCmd(logger),
	)
	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindCommonFlags(cmd *cobra.Command, opts *Options, defaultOutput string) {
	cmd.Flags().StringVarP(&opts.InputPath, "input", "i", "", "Path to the source image")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", defaultOutput, "Path to write the result; the extension picks the format")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Hide the progress bar")
	_ = cmd.MarkFlagRequired("input")
}
