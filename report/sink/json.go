package sink

import (
	"os"

	"github.com/goccy/go-json"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/significance"
)

// JSONSink writes the run report as indented JSON once the run completes.
// Per-pass statistics are not encoded; they may hold infinite z values.
type JSONSink struct {
	Path string
}

// NewJSONSink creates a JSONSink writing to path.
func NewJSONSink(path string) *JSONSink {
	return &JSONSink{Path: path}
}

// ObservePass implements significance.Sink.
func (s *JSONSink) ObservePass(int, *significance.PassResult) error {
	return nil
}

// ObserveRun encodes r to Path.
func (s *JSONSink) ObserveRun(r *significance.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	if err := os.WriteFile(s.Path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "write report to %s", s.Path)
	}
	return nil
}
