package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/onnxprof/capture"
	"go.jacobcolvin.com/onnxprof/config"
	"go.jacobcolvin.com/onnxprof/export"
	"go.jacobcolvin.com/onnxprof/log"
	"go.jacobcolvin.com/onnxprof/stringtest"
	"go.jacobcolvin.com/onnxprof/table"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		want    *config.File
		wantErr bool
	}{
		"empty": {
			input: "",
			want:  &config.File{},
		},
		"full": {
			input: stringtest.Input(`
				profiler:
				  python: /opt/venv/bin/python
				  module: onnx_tool
				  entry: model_profile
				  package: onnx-tool
				  timeout: 10m
				  env:
				    - OMP_NUM_THREADS=1
				export:
				  format: xlsx
				  fileName: resnet.xlsx
				log:
				  level: debug
				  format: json
				table:
				  marker: Name
				  metricColumns: [Memory]
			`),
			want: &config.File{
				Profiler: config.Profiler{
					Python:  "/opt/venv/bin/python",
					Module:  "onnx_tool",
					Entry:   "model_profile",
					Package: "onnx-tool",
					Timeout: "10m",
					Env:     []string{"OMP_NUM_THREADS=1"},
				},
				Export: config.Export{Format: "xlsx", FileName: "resnet.xlsx"},
				Log:    config.Log{Level: "debug", Format: "json"},
				Table:  config.Table{Marker: "Name", MetricColumns: []string{"Memory"}},
			},
		},
		"unknown key": {
			input:   "profiler:\n  interpreter: python\n",
			wantErr: true,
		},
		"bad timeout": {
			input:   "profiler:\n  timeout: forever\n",
			wantErr: true,
		},
		"bad export format": {
			input:   "export:\n  format: pdf\n",
			wantErr: true,
		},
		"bad log level": {
			input:   "log:\n  level: loud\n",
			wantErr: true,
		},
		"bad log format": {
			input:   "log:\n  format: xml\n",
			wantErr: true,
		},
		"not yaml": {
			input:   "profiler: [",
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := config.Parse([]byte(tc.input))
			if tc.wantErr {
				require.ErrorIs(t, err, config.ErrInvalid)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", got.Log.Level)

	got, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, &config.File{}, got)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, config.ErrRead)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log:\n  level: loud\n"), 0o600))

	_, err = config.Load(bad)
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Contains(t, err.Error(), bad)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/etc/onnxprof.yaml", config.Resolve("/etc/onnxprof.yaml"))
}

func TestApply(t *testing.T) {
	t.Parallel()

	capCfg := capture.NewConfig()
	expCfg := export.NewConfig()
	logCfg := log.NewConfig()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	capCfg.RegisterFlags(fs)
	expCfg.RegisterFlags(fs)
	logCfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{"--log-level=error", "--python=/usr/bin/python3.12"}))

	f := &config.File{
		Profiler: config.Profiler{
			Python:  "/opt/venv/bin/python",
			Timeout: "90s",
			Env:     []string{"A=1", "B=2"},
		},
		Export: config.Export{Format: "json"},
		Log:    config.Log{Level: "debug", Format: "logfmt"},
	}

	err := f.Apply(fs, config.Bindings{
		Capture: capCfg.Flags,
		Export:  expCfg.Flags,
		Log:     logCfg.Flags,
	})
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/python3.12", capCfg.Python, "explicit flag wins")
	assert.Equal(t, capture.DefaultModule, capCfg.Module, "unset in file keeps default")
	assert.Equal(t, 90*time.Second, capCfg.Timeout)
	assert.Equal(t, []string{"A=1", "B=2"}, capCfg.Env)
	assert.Equal(t, "json", expCfg.Format)
	assert.Equal(t, export.DefaultFileName, expCfg.FileName)
	assert.Equal(t, "error", logCfg.Level, "explicit flag wins")
	assert.Equal(t, "logfmt", logCfg.Format)
}

func TestApplySkipsUnregisteredFlags(t *testing.T) {
	t.Parallel()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := &config.File{Log: config.Log{Level: "debug"}}

	require.NoError(t, f.Apply(fs, config.Bindings{Log: log.NewConfig().Flags}))
}

func TestLayout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, table.DefaultLayout, (&config.File{}).Layout())

	f := &config.File{Table: config.Table{
		Marker:     "Op",
		Terminator: "\n---",
		NullTokens: []string{"-"},
	}}

	got := f.Layout()
	assert.Equal(t, "Op", got.Marker)
	assert.Equal(t, "\n---", got.Terminator)
	assert.Equal(t, []string{"-"}, got.NullTokens)
	assert.Equal(t, table.DefaultLayout.MetricColumns, got.MetricColumns)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	s, err := config.Schema()
	require.NoError(t, err)

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))

	assert.Equal(t, config.SchemaURI, doc["$schema"])
	assert.Equal(t, "onnxprof configuration", doc["title"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)

	for _, key := range []string{"profiler", "export", "log", "table"} {
		assert.Contains(t, props, key)
	}
}
