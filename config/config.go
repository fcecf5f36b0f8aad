// Package config loads the sigboot run configuration from YAML and the
// environment, validates it and turns it into pipeline options.
package config

import (
	"bytes"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/sigboot/dataset"
	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/pkg/log"
	"github.com/YuminosukeSato/sigboot/significance"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SIGBOOT_"

// Config is the complete run configuration.
//
// Thread Safety: safe to read concurrently, not safe to modify after Validate.
type Config struct {
	// DataPath is the CSV file to analyse.
	DataPath string         `yaml:"data_path" validate:"required"`
	Layout   string         `yaml:"layout" validate:"oneof=features-as-rows samples-as-rows"`
	Tags     map[string]int `yaml:"tags" validate:"required,min=2,dive,keys,required,endkeys,oneof=0 1"`

	Penalty string  `yaml:"penalty" validate:"oneof=l1 l2"`
	C       float64 `yaml:"c" validate:"gt=0"`
	MaxIter int     `yaml:"max_iter" validate:"gte=1"`
	Tol     float64 `yaml:"tol" validate:"gt=0"`

	Epochs             int     `yaml:"epochs" validate:"gte=1"`
	NumSplits          int     `yaml:"num_splits" validate:"gte=2"`
	ValidationFraction float64 `yaml:"validation_fraction" validate:"gt=0,lt=1"`
	TestFraction       float64 `yaml:"test_fraction" validate:"gt=0,lt=1"`
	Threshold          float64 `yaml:"threshold" validate:"gte=0"`
	Method             string  `yaml:"method" validate:"oneof=percentile sem"`
	Level              float64 `yaml:"level" validate:"gt=0,lt=1"`
	EmptySelection     string  `yaml:"empty_selection" validate:"oneof=fail all"`
	Seed               uint64  `yaml:"seed"`
	ResampleSeed       uint64  `yaml:"resample_seed"`
	Workers            int     `yaml:"workers" validate:"gte=1"`

	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=json console"`

	// Output locations; empty disables the sink.
	PlotDir   string `yaml:"plot_dir"`
	ChartPath string `yaml:"chart_path"`
	JSONPath  string `yaml:"json_path"`
	Verbose   bool   `yaml:"verbose"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	o := significance.DefaultOptions()
	return Config{
		Layout:             string(dataset.LayoutFeaturesAsRows),
		Tags:               dataset.DefaultTags(),
		Penalty:            o.Penalty,
		C:                  1.0,
		MaxIter:            100,
		Tol:                1e-4,
		Epochs:             o.Epochs,
		NumSplits:          o.NumSplits,
		ValidationFraction: o.ValidationFraction,
		TestFraction:       o.TestFraction,
		Threshold:          o.Threshold,
		Method:             string(o.Method),
		Level:              o.Level,
		EmptySelection:     string(o.EmptySelection),
		Seed:               o.BaseSeed,
		ResampleSeed:       o.ResampleSeed,
		Workers:            o.Workers,
		LogLevel:           "info",
		LogFormat:          "console",
	}
}

// Load reads path on top of Default and applies SIGBOOT_* environment
// overrides. An empty path skips the file. Unknown keys are rejected.
// The result is not validated; command line overrides come first.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config %s", path)
		}
		// a file that names tags replaces the default vocabulary
		cfg.Tags = nil
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
		if cfg.Tags == nil {
			cfg.Tags = dataset.DefaultTags()
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"DATA_PATH":       &c.DataPath,
		"LAYOUT":          &c.Layout,
		"PENALTY":         &c.Penalty,
		"METHOD":          &c.Method,
		"EMPTY_SELECTION": &c.EmptySelection,
		"LOG_LEVEL":       &c.LogLevel,
		"LOG_FORMAT":      &c.LogFormat,
		"PLOT_DIR":        &c.PlotDir,
		"CHART_PATH":      &c.ChartPath,
		"JSON_PATH":       &c.JSONPath,
	}
	for key, dst := range str {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"EPOCHS":     &c.Epochs,
		"NUM_SPLITS": &c.NumSplits,
		"WORKERS":    &c.Workers,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewInvalidArgumentError("config.Load", EnvPrefix+key, "not an integer", v)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.NewInvalidArgumentError("config.Load", EnvPrefix+"SEED", "not an unsigned integer", v)
		}
		c.Seed = n
	}
	if v, ok := lookup(EnvPrefix + "THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NewInvalidArgumentError("config.Load", EnvPrefix+"THRESHOLD", "not a number", v)
		}
		c.Threshold = f
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field. The first violation is reported as an
// InvalidArgumentError naming the YAML key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewInvalidArgumentError("config.Validate", fe.Field(), "failed "+fe.Tag()+" "+fe.Param(), fe.Value())
	}
	return errors.Wrap(err, "validate config")
}

// DatasetOptions returns the loader options.
func (c Config) DatasetOptions() dataset.Options {
	return dataset.Options{Layout: dataset.Layout(c.Layout), Tags: c.Tags}
}

// Factory returns the classifier factory for C, MaxIter and Tol.
func (c Config) Factory() significance.ClassifierFactory {
	return significance.LogisticFactory(c.C, c.MaxIter, c.Tol)
}

// PipelineOptions converts the configuration into pipeline options.
func (c Config) PipelineOptions(logger log.Logger, sinks ...significance.Sink) []significance.Option {
	opts := []significance.Option{
		significance.WithEpochs(c.Epochs),
		significance.WithNumSplits(c.NumSplits),
		significance.WithValidationFraction(c.ValidationFraction),
		significance.WithTestFraction(c.TestFraction),
		significance.WithThreshold(c.Threshold),
		significance.WithMethod(significance.Method(c.Method)),
		significance.WithLevel(c.Level),
		significance.WithEmptySelection(significance.EmptySelectionPolicy(c.EmptySelection)),
		significance.WithPenalty(c.Penalty),
		significance.WithBaseSeed(c.Seed),
		significance.WithResampleSeed(c.ResampleSeed),
		significance.WithWorkers(c.Workers),
		significance.WithSinks(sinks...),
	}
	if logger != nil {
		opts = append(opts, significance.WithLogger(logger))
	}
	return opts
}
