package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sigboot/dataset"
	"github.com/YuminosukeSato/sigboot/pkg/errors"
)

func newGenerateCmd() *cobra.Command {
	cfg := dataset.DefaultSynthetic()
	var (
		out    string
		layout string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic dataset with two informative features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Synthetic(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrapf(err, "create %s", out)
				}
				if err := dataset.Write(f, ds, dataset.Layout(layout), nil); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			}
			return dataset.Write(w, ds, dataset.Layout(layout), nil)
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&cfg.Samples, "samples", cfg.Samples, "number of samples")
	fl.IntVar(&cfg.Features, "features", cfg.Features, "number of features; the first two are informative")
	fl.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fl.StringVarP(&out, "out", "o", "", "output file (stdout when empty)")
	fl.StringVar(&layout, "layout", string(dataset.LayoutFeaturesAsRows), "CSV layout (features-as-rows or samples-as-rows)")
	return cmd
}
