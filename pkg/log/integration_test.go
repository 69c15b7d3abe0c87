package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", ErrorCodeKey, ErrorDegenerate)
	testLogger.Error("error message", fmt.Errorf("test error"), ErrorCodeKey, ErrorSingularMatrix)

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	if !testLogger.ContainsField("number", 42.0) { // JSON unmarshaling converts numbers to float64
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "test error") {
		t.Error("Leading error field not stored under error key")
	}
}

func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "PSplines",
		ComponentKey, "psplines",
		EstimatorIDKey, "ps-001",
	)
	contextLogger.Info("contextual message", OperationKey, OperationFit)

	if !testLogger.ContainsField(ModelNameKey, "PSplines") {
		t.Error("Model name context not found")
	}
	if !testLogger.ContainsField(ComponentKey, "psplines") {
		t.Error("Component context not found")
	}
	if !testLogger.ContainsField(OperationKey, OperationFit) {
		t.Error("Operation field not found")
	}
}

func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Logger should be enabled for Info level")
	}
	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Error level")
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

func TestSplineAttributeKeys(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	testLogger.Info("Training completed",
		OperationKey, OperationFit,
		PhaseKey, PhaseTraining,
		SamplesKey, 1000,
		DimensionsKey, 2,
		JointSizeKey, 169,
		EffDimKey, 7.5,
	)

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}

	expectedFields := map[string]interface{}{
		OperationKey:  OperationFit,
		PhaseKey:      PhaseTraining,
		SamplesKey:    1000.0,
		DimensionsKey: 2.0,
		JointSizeKey:  169.0,
		EffDimKey:     7.5,
	}
	for key, expectedValue := range expectedFields {
		if actualValue, exists := entries[0][key]; !exists {
			t.Errorf("Expected field %s not found", key)
		} else if actualValue != expectedValue {
			t.Errorf("Field %s: expected %v, got %v", key, expectedValue, actualValue)
		}
	}
}

func TestTestLoggerProvider(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLogger().Info("provider test message")
	provider.GetLoggerWithName("basis").Info("named logger message")

	lines := buffer.String()
	for _, want := range []string{"provider test message", "named logger message", "basis"} {
		if !strings.Contains(lines, want) {
			t.Errorf("%q not found in output", want)
		}
	}

	provider.SetLevel(LevelError)
	provider.GetLogger().Info("suppressed")
	if provider.Logger().ContainsMessage("suppressed") {
		t.Error("SetLevel should suppress info records")
	}
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelInfo)

	logger := provider.GetLoggerWithName("penalized").With(ModelNameKey, "PSplines")
	logger.Debug("hidden")
	logger.Info("Training started", SamplesKey, 5, DimensionsKey, 1)

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %v (%s)", err, buf.String())
	}
	if entry["message"] != "Training started" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["logger"] != "penalized" {
		t.Errorf("logger = %v", entry["logger"])
	}
	if entry[ModelNameKey] != "PSplines" {
		t.Errorf("%s = %v", ModelNameKey, entry[ModelNameKey])
	}
	if entry[SamplesKey] != 5.0 {
		t.Errorf("%s = %v", SamplesKey, entry[SamplesKey])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected a timestamp")
	}

	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
}

func TestZerologProviderErrorStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProvider(&buf, LevelDebug).GetLogger()

	err := scigoErrors.NewDimensionError("HTransform", 2, 1, 0)
	logger.Error("Fit failed", err, OperationKey, OperationFit, "dangling")

	var entry map[string]interface{}
	if jerr := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); jerr != nil {
		t.Fatalf("invalid JSON: %v", jerr)
	}
	if !strings.Contains(fmt.Sprint(entry["error"]), "dimension mismatch") {
		t.Errorf("error = %v", entry["error"])
	}
	if entry[OperationKey] != OperationFit {
		t.Errorf("%s = %v", OperationKey, entry[OperationKey])
	}
	if _, ok := entry["dangling"]; ok {
		t.Error("dangling key should be dropped")
	}
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	if err := SetupLoggerTo(&buf, "warn"); err != nil {
		t.Fatal(err)
	}
	defer scigoErrors.SetZerologWarnFunc(nil)

	scigoErrors.Warn(scigoErrors.NewDegeneracyWarning("residual_std", 0, 0))

	out := buf.String()
	if !strings.Contains(out, `"quantity":"residual_std"`) {
		t.Errorf("warning not routed through zerolog: %s", out)
	}

	if err := SetupLoggerTo(&buf, "verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetupLoggerFormatSlog(t *testing.T) {
	prev := GetProvider()
	defer SetProvider(prev)
	defer scigoErrors.SetWarningHandler(nil)

	var buf bytes.Buffer
	if err := SetupLoggerFormat(&buf, "info", FormatSlog); err != nil {
		t.Fatal(err)
	}
	if _, ok := GetProvider().(*SlogProvider); !ok {
		t.Fatalf("provider = %T, want *SlogProvider", GetProvider())
	}

	GetLoggerWithName("psplines").Debug("hidden")
	GetLoggerWithName("psplines").Info("visible", SamplesKey, 5)
	scigoErrors.Warn(scigoErrors.NewDegeneracyWarning("residual_std", 0, 0))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %s", out)
	}
	for _, want := range []string{`"msg":"visible"`, `"logger":"psplines"`, `"data.samples":5`, `"logger":"warnings"`, "residual_std"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}

	GetProvider().SetLevel(LevelDebug)
	GetLoggerWithName("psplines").Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel did not lower the level")
	}

	if err := SetupLoggerFormat(&buf, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With(ComponentKey, "basis").Error("build failed", scigoErrors.NewConfigError("BSplines", "degree", "must be non-negative", -1))

	out := buf.String()
	if !strings.Contains(out, `"ml.component":"basis"`) {
		t.Errorf("missing component: %s", out)
	}
	if !strings.Contains(out, `"error"`) {
		t.Errorf("missing error attribute: %s", out)
	}
	if !logger.Enabled(context.Background(), LevelDebug) {
		t.Error("slog logger should be enabled at debug")
	}
}

func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	const goroutines, perGoroutine = 4, 5
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				testLogger.With(WorkerIDKey, id).Info(fmt.Sprintf("goroutine %d message %d", id, j))
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != goroutines*perGoroutine {
		t.Errorf("Expected %d log entries, got %d", goroutines*perGoroutine, len(entries))
	}
}

func BenchmarkLoggingWithContext(b *testing.B) {
	testLogger, _ := NewTestLogger(LevelInfo)
	contextLogger := testLogger.With(
		ModelNameKey, "BenchmarkModel",
		ComponentKey, "benchmark",
	)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		contextLogger.Info("benchmark message",
			"iteration", i,
			OperationKey, OperationPredict,
		)
	}
}
