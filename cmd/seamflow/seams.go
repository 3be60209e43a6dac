package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/dunamismax/seamflow/internal/raster"
)

func newSeamsCmd(logger *log.Logger) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "seams",
		Short: "Rank every column of an image by the order seam carving would remove it",
		Long: "Extracts every vertical seam of the image. A .json output receives the seam set; " +
			"any other output receives a grayscale map where darker pixels are removed first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runSeams(cmd, logger, opts)
		},
	}

	bindCommonFlags(cmd, &opts, "seams.png")
	return cmd
}

func runSeams(cmd *cobra.Command, logger *log.Logger, opts Options) error {
	format, err := outputFormat(opts.Output)
	if err != nil {
		return err
	}
	buf, _, err := readBuffer(opts.InputPath)
	if err != nil {
		return err
	}

	progress, finish := newProgress(buf.Width, "ranking", opts.Quiet)
	seams, err := raster.Seams(cmd.Context(), buf, buf.Width, progress)
	finish()
	if err != nil {
		return fmt.Errorf("extract seams: %w", err)
	}

	if format == "json" {
		if err := writeSeamSet(opts.Output, buf.Width, buf.Height, seams); err != nil {
			return err
		}
	} else {
		rank, err := raster.SeamRankImage(seams, buf.Width, buf.Height)
		if err != nil {
			return err
		}
		if err := writeImage(opts.Output, format, rank, 0); err != nil {
			return err
		}
	}

	logger.Printf("seams input=%s size=%dx%d seams=%d output=%s", opts.InputPath, buf.Width, buf.Height, len(seams), opts.Output)
	return nil
}
