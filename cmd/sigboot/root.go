package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sigboot/config"
	"github.com/YuminosukeSato/sigboot/dataset"
	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/pkg/log"
	"github.com/YuminosukeSato/sigboot/report/sink"
	"github.com/YuminosukeSato/sigboot/significance"
)

// runFlags holds the raw flag values; only flags set on the command line
// override the configuration file.
type runFlags struct {
	configPath     string
	dataPath       string
	penalty        string
	epochs         int
	splits         int
	threshold      float64
	method         string
	workers        int
	seed           uint64
	layout         string
	emptySelection string
	logLevel       string
	plotDir        string
	chartPath      string
	jsonPath       string
	verbose        bool
}

func newRootCmd() *cobra.Command {
	f := &runFlags{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "sigboot",
		Short: "Bootstrap significance filtering for logistic regression",
		Long: `sigboot holds out a test set, fits a logistic regression on many
shuffle-split resamples of the rest, keeps the features whose weights are
significantly non-zero and compares test scores with all and with the
selected features.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fl.StringVarP(&f.dataPath, "file_path", "f", "", "CSV dataset (required unless set in the config)")
	fl.StringVarP(&f.penalty, "penalty", "p", def.Penalty, "regularisation penalty (l1 or l2)")
	fl.IntVarP(&f.epochs, "epochs", "e", def.Epochs, "number of hold-out epochs")
	fl.IntVar(&f.splits, "splits", def.NumSplits, "shuffle-split repetitions per pass")
	fl.Float64Var(&f.threshold, "threshold", def.Threshold, "|z| a weight must exceed to be significant")
	fl.StringVar(&f.method, "method", def.Method, "z statistic used for selection (percentile or sem)")
	fl.IntVar(&f.workers, "workers", def.Workers, "goroutines per resampling pass")
	fl.Uint64Var(&f.seed, "seed", def.Seed, "seed of the first epoch's hold-out split")
	fl.StringVar(&f.layout, "layout", def.Layout, "CSV layout (features-as-rows or samples-as-rows)")
	fl.StringVar(&f.emptySelection, "empty-selection", def.EmptySelection, "filtered pass policy when nothing is significant (fail or all)")
	fl.StringVar(&f.logLevel, "log-level", def.LogLevel, "debug, info, warn or error")
	fl.StringVar(&f.plotDir, "plot-dir", "", "write PNG plots of the first epoch to this directory")
	fl.StringVar(&f.chartPath, "chart", "", "write an HTML chart page to this file")
	fl.StringVar(&f.jsonPath, "json", "", "write the JSON report to this file")
	fl.BoolVar(&f.verbose, "verbose", false, "print every epoch's test scores")

	cmd.AddCommand(newGenerateCmd())
	return cmd
}

// resolveConfig loads the configuration file and applies explicitly set flags.
func resolveConfig(cmd *cobra.Command, f *runFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("file_path") {
		cfg.DataPath = f.dataPath
	}
	if changed("penalty") {
		cfg.Penalty = f.penalty
	}
	if changed("epochs") {
		cfg.Epochs = f.epochs
	}
	if changed("splits") {
		cfg.NumSplits = f.splits
	}
	if changed("threshold") {
		cfg.Threshold = f.threshold
	}
	if changed("method") {
		cfg.Method = f.method
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("layout") {
		cfg.Layout = f.layout
	}
	if changed("empty-selection") {
		cfg.EmptySelection = f.emptySelection
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("plot-dir") {
		cfg.PlotDir = f.plotDir
	}
	if changed("chart") {
		cfg.ChartPath = f.chartPath
	}
	if changed("json") {
		cfg.JSONPath = f.jsonPath
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func sinksFor(cmd *cobra.Command, cfg config.Config) []significance.Sink {
	method := significance.Method(cfg.Method)
	sinks := []significance.Sink{sink.NewConsoleSink(cmd.OutOrStdout(), cfg.Verbose)}
	if cfg.JSONPath != "" {
		sinks = append(sinks, sink.NewJSONSink(cfg.JSONPath))
	}
	if cfg.PlotDir != "" {
		sinks = append(sinks, sink.NewPlotSink(cfg.PlotDir, method))
	}
	if cfg.ChartPath != "" {
		sinks = append(sinks, sink.NewChartSink(cfg.ChartPath, method))
	}
	return sinks
}

func run(cmd *cobra.Command, cfg config.Config) error {
	if err := log.SetupLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()); err != nil {
		return err
	}
	logger := log.GetLoggerWithName("sigboot")

	ds, err := dataset.Load(cfg.DataPath, cfg.DatasetOptions())
	if err != nil {
		return err
	}

	p, err := significance.NewPipeline(cfg.Factory(),
		cfg.PipelineOptions(log.GetLoggerWithName("significance.pipeline"), sinksFor(cmd, cfg)...)...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	rep, err := p.Run(ctx, ds.X, ds.Y)
	if err != nil {
		logger.Error("run failed", err)
		return errors.Wrap(err, "sigboot")
	}
	logger.Debug("run complete",
		log.EpochsKey, len(rep.Epochs),
		log.FailedEpochsKey, rep.FailedEpochs,
		log.DegradedEpochsKey, rep.DegradedEpochs,
	)
	return nil
}
