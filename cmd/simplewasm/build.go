package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/simple-wasm/fixture"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		out         string
		strategy    string
		placement   string
		names       bool
		sectionBase uint32
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the sample module",
		Long: `Write the sample module exporting add and mem_stuff with the custom
section "test". Use -o - to write the binary to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Build
			opts.Logger = a.log.Named("fixture")

			flags := cmd.Flags()
			if flags.Changed("strategy") {
				s, err := fixture.ParseStrategy(strategy)
				if err != nil {
					return err
				}
				opts.Strategy = s
			}
			if flags.Changed("placement") {
				p, err := fixture.ParsePlacement(placement)
				if err != nil {
					return err
				}
				opts.Placement = p
			}
			if flags.Changed("names") {
				opts.Names = names
			}
			if flags.Changed("section-base") {
				opts.SectionBase = sectionBase
			}
			if !flags.Changed("out") {
				out = a.cfg.Out
			}

			data, err := fixture.Encode(opts)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write module: %w", err)
			}
			a.log.Info("wrote module", zap.String("path", out), zap.Int("bytes", len(data)))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, %s/%s)\n", out, len(data), opts.Strategy, opts.Placement)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default from "+envOut+" or simple.wasm)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "mem_stuff accumulators: locals or memory")
	cmd.Flags().StringVar(&placement, "placement", "", "section bytes: custom or data")
	cmd.Flags().BoolVar(&names, "names", true, "emit the name custom section")
	cmd.Flags().Uint32Var(&sectionBase, "section-base", fixture.DefaultSectionBase, "memory address of the section bytes with --placement data")
	return cmd
}
