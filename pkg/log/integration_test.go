package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

func TestTestLogger_Levels(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.Info("state transition", StateKey, "solve_svm", IterationKey, 3)
	logger.Warn("not converged", DeltaKey, 0.2)
	logger.Error("solve failed", fmt.Errorf("boom"), SolverKey, "smo")

	assert.NotContains(t, buffer.String(), "hidden")
	assert.True(t, logger.ContainsField(StateKey, "solve_svm"))
	assert.True(t, logger.ContainsField(IterationKey, 3.0))
	assert.True(t, logger.ContainsField("error", "boom"))
	assert.True(t, logger.ContainsField(SolverKey, "smo"))
	assert.Equal(t, 1, logger.CountMessages("not converged"))

	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, LevelDebug))
	assert.True(t, logger.Enabled(ctx, LevelError))
}

func TestTestLogger_With(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	scoped := logger.With(ModelNameKey, "MKLClassifier", ComponentKey, "mkl.session")
	scoped.Info("fit", OperationKey, OperationFit)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "MKLClassifier", entries[0][ModelNameKey])
	assert.Equal(t, "mkl.session", entries[0][ComponentKey])
	assert.Equal(t, OperationFit, entries[0][OperationKey])

	logger.Clear()
	entries, err = logger.GetLogEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestZerologLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	defer func() {
		SetLevel(LevelInfo)
	}()

	logger := GetLoggerWithName("kernel.cache")
	logger.Debug("matrices built",
		KernelCountKey, 2,
		BetaKey, []float64{0.25, 0.75},
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "matrices built", entry["message"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "kernel.cache", entry[ComponentKey])
	assert.Equal(t, 2.0, entry[KernelCountKey])
	assert.Equal(t, []interface{}{0.25, 0.75}, entry[BetaKey])
}

func TestZerologLogger_ErrorCarriesStacktrace(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)

	err := scierrors.NewDimensionError("Cache.Cross", 2, 3, 1)
	GetLogger().Error("cross kernel failed", err, SamplesKey, 4)

	out := buf.String()
	assert.Contains(t, out, "cross kernel failed")
	assert.Contains(t, out, StacktraceKey)
	assert.Contains(t, out, `"type":"DimensionError"`)
}

func TestZerologLogger_Enabled(t *testing.T) {
	SetOutput(&bytes.Buffer{})
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	logger := GetLogger()
	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelWarn))
	assert.True(t, logger.Enabled(ctx, LevelError))
}

func TestWarnRoutedToZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)

	scierrors.Warn(scierrors.NewConvergenceWarning("MKL", 10, 0.3, ""))

	out := buf.String()
	assert.True(t, strings.Contains(out, "failed to converge after 10 iterations"), out)
	assert.Contains(t, out, `"type":"ConvergenceWarning"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProviderImplementsInterface(t *testing.T) {
	var p LoggerProvider = Provider{}
	assert.NotNil(t, p.GetLogger())
	assert.NotNil(t, p.GetLoggerWithName("svm.smo"))
}
