package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/model/internal/logging"
)

func TestNewWriter(t *testing.T) {
	t.Parallel()

	t.Run("json renames error key", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logging.NewWriter(&buf, slog.LevelInfo, logging.FormatJSON)
		log.Error("compile failed", "error", errors.New("boom"))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "boom", rec["err"])
		assert.NotContains(t, rec, "error")
	})

	t.Run("level filters", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logging.NewWriter(&buf, slog.LevelWarn, logging.FormatText)
		log.Info("hidden")
		assert.Empty(t, buf.String())
		log.Warn("shown")
		assert.Contains(t, buf.String(), "msg=shown")
	})
}

func TestNewNop(t *testing.T) {
	t.Parallel()

	log := logging.NewNop()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		"debug":      {in: "debug", want: slog.LevelDebug},
		"upper":      {in: "WARN", want: slog.LevelWarn},
		"error":      {in: "error", want: slog.LevelError},
		"not level":  {in: "loud", wantErr: true},
		"whitespace": {in: " info ", want: slog.LevelInfo},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in      string
		want    logging.Format
		wantErr bool
	}{
		"empty is text": {in: "", want: logging.FormatText},
		"json":          {in: "JSON", want: logging.FormatJSON},
		"unknown":       {in: "xml", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := logging.ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
