package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/dunamismax/seamflow/internal/raster"
)

type carveOptions struct {
	Options
	Width    int
	Seams    int
	Quality  int
	SeamJSON string
}

func newCarveCmd(logger *log.Logger) *cobra.Command {
	var opts carveOptions

	cmd := &cobra.Command{
		Use:   "carve",
		Short: "Narrow an image by removing its lowest-energy vertical seams",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runCarve(cmd, logger, opts)
		},
	}

	bindCommonFlags(cmd, &opts.Options, "carved.png")
	cmd.Flags().IntVarP(&opts.Width, "width", "w", 0, "Target width in pixels")
	cmd.Flags().IntVarP(&opts.Seams, "seams", "n", 0, "Number of seams to remove")
	cmd.Flags().IntVar(&opts.Quality, "quality", 90, "JPEG quality (1-100)")
	cmd.Flags().StringVar(&opts.SeamJSON, "seam-json", "", "Also write the removed seams as JSON to this path")
	cmd.MarkFlagsMutuallyExclusive("width", "seams")
	cmd.MarkFlagsOneRequired("width", "seams")
	return cmd
}

func runCarve(cmd *cobra.Command, logger *log.Logger, opts carveOptions) error {
	if samePath(opts.InputPath, opts.Output) {
		return errors.New("input and output paths must be different")
	}
	format, err := imageFormat(opts.Output)
	if err != nil {
		return err
	}

	step := domain.PipelineStep{ID: "cli", Action: domain.ActionCarve, Width: opts.Width, Seams: opts.Seams}
	if err := step.Validate(); err != nil {
		return err
	}

	buf, srcFormat, err := readBuffer(opts.InputPath)
	if err != nil {
		return err
	}
	n, err := step.SeamCount(buf.Width)
	if err != nil {
		return err
	}

	start := time.Now()
	progress, finish := newProgress(n, "carving", opts.Quiet)
	out, seams, err := raster.Carve(cmd.Context(), buf, n, progress)
	finish()
	if err != nil {
		return fmt.Errorf("carve: %w", err)
	}

	if err := writeImage(opts.Output, format, out.Image(), opts.Quality); err != nil {
		return err
	}
	if opts.SeamJSON != "" {
		if err := writeSeamSet(opts.SeamJSON, buf.Width, buf.Height, seams); err != nil {
			return err
		}
	}

	logger.Printf(
		"carved input=%s format=%s size=%dx%d -> %dx%d seams=%d elapsed=%s output=%s",
		opts.InputPath, srcFormat, buf.Width, buf.Height, out.Width, out.Height, n,
		time.Since(start).Round(time.Millisecond), opts.Output,
	)
	return nil
}
