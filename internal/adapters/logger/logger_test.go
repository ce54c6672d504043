package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer with colors disabled.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Golden(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*logger.Logger)
		goldenName string
	}{
		{
			name:       "info",
			log:        func(l *logger.Logger) { l.Info("built 3 files") },
			goldenName: "info_basic",
		},
		{
			name:       "warn",
			log:        func(l *logger.Logger) { l.Warn("unknown version") },
			goldenName: "warn_basic",
		},
		{
			name:       "standard error",
			log:        func(l *logger.Logger) { l.Error(errors.New("boom")) },
			goldenName: "error_basic",
		},
		{
			name: "zerr chain",
			log: func(l *logger.Logger) {
				l.Error(zerr.Wrap(zerr.Wrap(errors.New("root cause"), "middle layer"), "outer layer"))
			},
			goldenName: "error_chain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_ErrorNilIsIgnored(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Info("hello")
	lg.Error(errors.New("boom"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var info map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &info))
	assert.Equal(t, "INFO", info["level"])
	assert.Equal(t, "hello", info["msg"])

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_SetOutputKeepsMode(t *testing.T) {
	lg, _ := newTestLogger(t)
	lg.SetJSON(true)

	var buf bytes.Buffer
	lg.SetOutput(&buf)
	lg.Info("hello")

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestCollectMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"standard", errors.New("plain"), []string{"plain"}},
		{"zerr single", zerr.New("single"), []string{"single"}},
		{
			"zerr wrapped",
			zerr.Wrap(zerr.Wrap(errors.New("root"), "middle"), "outer"),
			[]string{"outer", "middle", "root"},
		},
		{"with metadata", zerr.With(zerr.New("base"), "path", "a.js"), []string{"base"}},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.CollectMessages(tt.err))
		})
	}
}

func TestFormatErrorChain_Multiline(t *testing.T) {
	got := logger.FormatErrorChain([]string{"first\nsecond", "cause\nmore"})
	assert.Equal(t, "Error: first\n       second\n\n  Caused by:\n    → cause\n      more", got)
}
