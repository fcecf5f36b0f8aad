// Package dataset loads labelled feature tables and generates synthetic ones.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Layout describes how samples and features are arranged in a file.
type Layout string

const (
	// LayoutFeaturesAsRows has a header [id, tag_1..tag_n] with one class tag
	// per sample column and one row per feature: [feature id, v_1..v_n].
	LayoutFeaturesAsRows Layout = "features-as-rows"
	// LayoutSamplesAsRows has a header [id, feature names..., label] and one
	// row per sample: [sample id, values..., tag].
	LayoutSamplesAsRows Layout = "samples-as-rows"
)

// DefaultTags maps class tags to labels.
func DefaultTags() map[string]int {
	return map[string]int{"Cancer": 1, "NonCancer": 0}
}

// ParseLayout maps a layout name to a Layout. Empty means features-as-rows.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutFeaturesAsRows:
		return LayoutFeaturesAsRows, nil
	case LayoutSamplesAsRows:
		return LayoutSamplesAsRows, nil
	default:
		return "", errors.NewInvalidArgumentError("ParseLayout", "layout", "must be features-as-rows or samples-as-rows", s)
	}
}

// Options configures Load and Read.
type Options struct {
	Layout Layout
	// Tags maps class tags to 0/1 labels. Nil means DefaultTags.
	Tags map[string]int
}

// Dataset is a samples×features matrix with index-aligned labels.
type Dataset struct {
	X            *mat.Dense
	Y            []int
	FeatureNames []string
	// SampleIDs is empty for the features-as-rows layout, which carries none.
	SampleIDs []string
}

// Dims returns the number of samples and features.
func (d *Dataset) Dims() (samples, features int) {
	return d.X.Dims()
}

// ClassCounts returns how many samples carry label 0 and label 1.
func (d *Dataset) ClassCounts() (negative, positive int) {
	for _, v := range d.Y {
		if v == 1 {
			positive++
		} else {
			negative++
		}
	}
	return negative, positive
}

// Load reads a comma-delimited file.
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	ds, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	n, p := ds.Dims()
	neg, pos := ds.ClassCounts()
	log.GetLoggerWithName("dataset").Info("dataset loaded",
		log.PathKey, path,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		"labels.positive", pos,
		"labels.negative", neg,
	)
	return ds, nil
}

// Read parses a comma-delimited table from r.
func Read(r io.Reader, opts Options) (*Dataset, error) {
	layout, err := ParseLayout(string(opts.Layout))
	if err != nil {
		return nil, err
	}
	tags := opts.Tags
	if tags == nil {
		tags = DefaultTags()
	}
	if err := validateTags(tags); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.NewInvalidArgumentError("dataset.Read", "file", err.Error(), nil), "parse csv")
	}
	if len(records) < 2 {
		return nil, errors.NewInvalidArgumentError("dataset.Read", "file", "need a header and at least one row", len(records))
	}
	for i := range records[0] {
		records[0][i] = cleanCell(records[0][i])
	}

	if layout == LayoutSamplesAsRows {
		return readSamplesAsRows(records, tags)
	}
	return readFeaturesAsRows(records, tags)
}

func readFeaturesAsRows(records [][]string, tags map[string]int) (*Dataset, error) {
	header := records[0]
	nSamples := len(header) - 1
	nFeatures := len(records) - 1
	if nSamples < 1 {
		return nil, errors.NewInvalidArgumentError("dataset.Read", "header", "no sample columns", header)
	}

	y := make([]int, nSamples)
	for i, tag := range header[1:] {
		label, err := lookupTag(tags, tag, i+2)
		if err != nil {
			return nil, err
		}
		y[i] = label
	}

	X := mat.NewDense(nSamples, nFeatures, nil)
	names := make([]string, nFeatures)
	for j, row := range records[1:] {
		names[j] = cleanCell(row[0])
		for i, cell := range row[1:] {
			v, err := parseCell(cell, j+2, i+2)
			if err != nil {
				return nil, err
			}
			X.Set(i, j, v)
		}
	}

	return &Dataset{X: X, Y: y, FeatureNames: names}, nil
}

func readSamplesAsRows(records [][]string, tags map[string]int) (*Dataset, error) {
	header := records[0]
	nFeatures := len(header) - 2
	nSamples := len(records) - 1
	if nFeatures < 1 {
		return nil, errors.NewInvalidArgumentError("dataset.Read", "header", "need id, at least one feature and a label column", header)
	}

	X := mat.NewDense(nSamples, nFeatures, nil)
	y := make([]int, nSamples)
	ids := make([]string, nSamples)
	for i, row := range records[1:] {
		ids[i] = cleanCell(row[0])
		for j, cell := range row[1 : nFeatures+1] {
			v, err := parseCell(cell, i+2, j+2)
			if err != nil {
				return nil, err
			}
			X.Set(i, j, v)
		}
		label, err := lookupTag(tags, cleanCell(row[nFeatures+1]), i+2)
		if err != nil {
			return nil, err
		}
		y[i] = label
	}

	names := append([]string(nil), header[1:nFeatures+1]...)
	return &Dataset{X: X, Y: y, FeatureNames: names, SampleIDs: ids}, nil
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// parseCell parses a numeric cell; line and column are 1-based for messages.
func parseCell(cell string, line, column int) (float64, error) {
	v, err := strconv.ParseFloat(cleanCell(cell), 64)
	if err != nil {
		return 0, errors.NewInvalidArgumentError("dataset.Read", "cell",
			"line "+strconv.Itoa(line)+" column "+strconv.Itoa(column)+" is not numeric", cell)
	}
	return v, nil
}

func lookupTag(tags map[string]int, tag string, position int) (int, error) {
	label, ok := tags[tag]
	if !ok {
		known := make([]string, 0, len(tags))
		for k := range tags {
			known = append(known, k)
		}
		sort.Strings(known)
		return 0, errors.NewInvalidArgumentError("dataset.Read", "tag",
			"unknown class tag at position "+strconv.Itoa(position)+", expected one of "+strings.Join(known, ", "), tag)
	}
	return label, nil
}

func validateTags(tags map[string]int) error {
	seen := [2]bool{}
	for tag, label := range tags {
		if label != 0 && label != 1 {
			return errors.NewInvalidArgumentError("dataset.Options", "tags", "labels must be 0 or 1", tag)
		}
		seen[label] = true
	}
	if !seen[0] || !seen[1] {
		return errors.NewInvalidArgumentError("dataset.Options", "tags", "need a tag for each of labels 0 and 1", len(tags))
	}
	return nil
}
