package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/dunamismax/seamflow/internal/raster"
	"github.com/dunamismax/seamflow/internal/seam"
)

type energyOptions struct {
	Options
	Stage string
}

func newEnergyCmd(logger *log.Logger) *cobra.Command {
	var opts energyOptions

	cmd := &cobra.Command{
		Use:   "energy",
		Short: "Render the edge energy map of an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runEnergy(logger, opts)
		},
	}

	bindCommonFlags(cmd, &opts.Options, "energy.pgm")
	cmd.Flags().StringVar(&opts.Stage, "stage", domain.EnergyStageEdge, "Energy stage: edge, cumulative")
	return cmd
}

func runEnergy(logger *log.Logger, opts energyOptions) error {
	stage := strings.ToLower(strings.TrimSpace(opts.Stage))
	if stage != domain.EnergyStageEdge && stage != domain.EnergyStageCumulative {
		return fmt.Errorf("unsupported stage %q: use edge or cumulative", opts.Stage)
	}
	format, err := imageFormat(opts.Output)
	if err != nil {
		return err
	}

	buf, _, err := readBuffer(opts.InputPath)
	if err != nil {
		return err
	}

	field := buf.Energy()
	if stage == domain.EnergyStageCumulative {
		field = seam.MinVertEnergy(field, buf.Width, buf.Height)
	}
	img, err := raster.EnergyImage(field, buf.Width, buf.Height)
	if err != nil {
		return err
	}
	if err := writeImage(opts.Output, format, img, 0); err != nil {
		return err
	}

	logger.Printf("energy input=%s stage=%s size=%dx%d output=%s", opts.InputPath, stage, buf.Width, buf.Height, opts.Output)
	return nil
}
