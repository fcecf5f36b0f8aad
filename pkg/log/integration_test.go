package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
)

// TestLoggerInterface tests the TestLogger implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", ErrorCodeKey, ErrorDegenerateDistribution)
	testLogger.Error("error message", fmt.Errorf("test error"), RepetitionKey, 3)

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "test error") {
		t.Error("leading error should be logged under the error key")
	}
	if !testLogger.ContainsField(RepetitionKey, 3.0) {
		t.Error("fields after a leading error should stay paired")
	}
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	epochLogger := testLogger.With(EpochKey, 2, PassKey, PassFiltered)
	epochLogger.Info("pass finished", SelectedKey, 4)

	if !testLogger.ContainsField(EpochKey, 2.0) {
		t.Error("epoch context not found")
	}
	if !testLogger.ContainsField(PassKey, PassFiltered) {
		t.Error("pass context not found")
	}
	if !testLogger.ContainsField(SelectedKey, 4.0) {
		t.Error("selected field not found")
	}
}

// TestLoggerEnabled tests level filtering
func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Logger should be enabled for Info level")
	}
	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}
	if !testLogger.ContainsMessage("this should appear") {
		t.Error("Info message should appear when level is Info")
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

// TestZerologProvider tests the zerolog backend
func TestZerologProvider(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewZerologProvider(buf, LevelInfo)

	logger := p.GetLoggerWithName("significance.pipeline").With(EpochKey, 1)
	logger.Debug("hidden")
	logger.Info("resampling finished", SplitsKey, 100, AUCKey, 0.9)

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["message"] != "resampling finished" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry[ComponentKey] != "significance.pipeline" {
		t.Errorf("component = %v", entry[ComponentKey])
	}
	if entry[EpochKey] != 1.0 || entry[SplitsKey] != 100.0 || entry[AUCKey] != 0.9 {
		t.Errorf("unexpected fields %v", entry)
	}

	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled")
	}
	p.SetLevel(LevelDebug)
	if !p.GetLogger().Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be enabled after SetLevel")
	}
}

// TestZerologErrorFields tests that structured errors carry details and stack traces
func TestZerologErrorFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewZerologProvider(buf, LevelDebug).GetLogger()

	err := errors.NewDegenerateLabelSetError("FitAndScore", PhaseValidation, 1, 8)
	logger.Error("repetition failed", err, RepetitionKey, 5)

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if !strings.Contains(fmt.Sprint(entry[ErrAttrKey]), "only class 1") {
		t.Errorf("error = %v", entry[ErrAttrKey])
	}
	detail, ok := entry[ErrDetailAttrKey].(map[string]interface{})
	if !ok {
		t.Fatalf("error detail missing: %v", entry)
	}
	if detail["type"] != "DegenerateLabelSetError" || detail["phase"] != PhaseValidation {
		t.Errorf("unexpected detail %v", detail)
	}
	if _, ok := entry[StacktraceAttrKey]; !ok {
		t.Error("stacktrace missing")
	}
	if entry[RepetitionKey] != 5.0 {
		t.Errorf("repetition = %v", entry[RepetitionKey])
	}
}

func TestSetupLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := SetupLogger("warn", "json", buf); err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	defer func() { _ = SetupLogger("info", "json", nil) }()

	GetLogger().Info("dropped")
	errors.Warn(errors.NewConvergenceWarning("newton", 100, ""))

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("Expected only the routed warning, got %d entries", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[0][ComponentKey] != "warnings" {
		t.Errorf("unexpected entry %v", entries[0])
	}

	if err := SetupLogger("loud", "json", buf); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for bad level, got %v", err)
	}
	if err := SetupLogger("info", "xml", buf); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for bad format, got %v", err)
	}
}

// TestConcurrentLogging tests thread safety of the capture logger
func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				testLogger.With(RepetitionKey, id*5+j).Info("repetition done")
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("Expected 20 log entries, got %d", len(entries))
	}
}
