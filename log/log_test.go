package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/onnxprof/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		want    log.Level
		wantErr bool
	}{
		"error":            {input: "error", want: log.LevelError},
		"warn":             {input: "warn", want: log.LevelWarn},
		"warning alias":    {input: "warning", want: log.LevelWarn},
		"info":             {input: "info", want: log.LevelInfo},
		"debug":            {input: "debug", want: log.LevelDebug},
		"case insensitive": {input: "DeBuG", want: log.LevelDebug},
		"unknown":          {input: "trace", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := log.ParseLevel(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, log.ErrUnknownLogLevel)
				assert.Empty(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		want    log.Format
		wantErr bool
	}{
		"json":             {input: "json", want: log.FormatJSON},
		"logfmt":           {input: "logfmt", want: log.FormatLogfmt},
		"text":             {input: "text", want: log.FormatText},
		"case insensitive": {input: "JSON", want: log.FormatJSON},
		"unknown":          {input: "xml", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := log.ParseFormat(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, log.ErrUnknownLogFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		check  func(*testing.T, []byte)
		format log.Format
	}{
		"json": {
			format: log.FormatJSON,
			check: func(t *testing.T, out []byte) {
				t.Helper()

				var entry map[string]any

				require.NoError(t, json.Unmarshal(out, &entry))
				assert.Equal(t, "run finished", entry["msg"])
				assert.Equal(t, "INFO", entry["level"])
				assert.Equal(t, "resnet.onnx", entry["path"])
			},
		},
		"logfmt": {
			format: log.FormatLogfmt,
			check: func(t *testing.T, out []byte) {
				t.Helper()

				s := string(out)
				assert.Contains(t, s, "level=INFO")
				assert.Contains(t, s, `msg="run finished"`)
				assert.Contains(t, s, "path=resnet.onnx")
			},
		},
		"text": {
			format: log.FormatText,
			check: func(t *testing.T, out []byte) {
				t.Helper()

				s := string(out)
				assert.Contains(t, s, "INFO")
				assert.Contains(t, s, "run finished")
				assert.Contains(t, s, "path=resnet.onnx")
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := slog.New(log.NewHandler(&buf, log.LevelInfo, tc.format))
			logger.Info("run finished", slog.String("path", "resnet.onnx"))

			tc.check(t, buf.Bytes())
		})
	}
}

func TestNewHandlerFromStrings(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level   string
		format  string
		wantErr bool
	}{
		"valid":          {level: "debug", format: "json"},
		"invalid level":  {level: "loud", format: "json", wantErr: true},
		"invalid format": {level: "info", format: "csv", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			h, err := log.NewHandlerFromStrings(&buf, tc.level, tc.format)
			if tc.wantErr {
				require.ErrorIs(t, err, log.ErrInvalidArgument)
				assert.Nil(t, h)

				return
			}

			require.NoError(t, err)
			slog.New(h).Debug("captured", slog.Int("bytes", 42))
			assert.Contains(t, buf.String(), `"bytes":42`)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		logFn func(*slog.Logger)
		level log.Level
		want  bool
	}{
		"info passes info":   {level: log.LevelInfo, logFn: func(l *slog.Logger) { l.Info("m") }, want: true},
		"info blocks debug":  {level: log.LevelInfo, logFn: func(l *slog.Logger) { l.Debug("m") }},
		"warn passes error":  {level: log.LevelWarn, logFn: func(l *slog.Logger) { l.Error("m") }, want: true},
		"error blocks warn":  {level: log.LevelError, logFn: func(l *slog.Logger) { l.Warn("m") }},
		"debug passes debug": {level: log.LevelDebug, logFn: func(l *slog.Logger) { l.Debug("m") }, want: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			tc.logFn(slog.New(log.NewHandler(&buf, tc.level, log.FormatJSON)))

			if tc.want {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	cmd := &cobra.Command{Use: "test"}
	cfg.RegisterFlags(cmd.Flags())
	require.NoError(t, cfg.RegisterCompletions(cmd))

	require.NoError(t, cmd.Flags().Parse([]string{"--log-level=warn", "--log-format=logfmt"}))
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "logfmt", cfg.Format)

	for flag, want := range map[string][]string{
		"log-level":  log.GetAllLevelStrings(),
		"log-format": log.GetAllFormatStrings(),
	} {
		fn, ok := cmd.GetFlagCompletionFunc(flag)
		require.True(t, ok, flag)

		got, directive := fn(cmd, nil, "")
		assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
		assert.Equal(t, want, got)
	}

	var buf bytes.Buffer

	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	cmd := &cobra.Command{Use: "test"}
	cfg.RegisterFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(nil))

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
}
