package capture_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/onnxprof/capture"
)

const profileOutput = "loading model\nName    Memory\nConv_0  4,096\n"

// fakePython installs the stand-in interpreter into a temporary directory.
func fakePython(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter is a POSIX shell script")
	}

	src, err := os.ReadFile(filepath.Join("testdata", "fake_python.sh"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, src, 0o755)) //nolint:gosec // Test interpreter must be executable.

	return path
}

func writeModel(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func newRunner(t *testing.T, mutate func(*capture.Config)) *capture.Runner {
	t.Helper()

	cfg := capture.NewConfig()
	cfg.Python = fakePython(t)

	if mutate != nil {
		mutate(cfg)
	}

	return cfg.NewRunner(nil)
}

func TestCheckDependencies(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate       func(*capture.Config)
		wantContains []string
		wantErr      bool
	}{
		"available": {},
		"module missing": {
			mutate: func(c *capture.Config) {
				c.Module = "missing_tool"
				c.Package = "missing-tool"
			},
			wantErr:      true,
			wantContains: []string{"pip install missing-tool", "No module named 'missing_tool'"},
		},
		"interpreter missing": {
			mutate: func(c *capture.Config) {
				c.Python = "onnxprof-test-no-such-python"
			},
			wantErr:      true,
			wantContains: []string{"onnxprof-test-no-such-python"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := newRunner(t, tc.mutate)

			err := r.CheckDependencies(t.Context())
			if !tc.wantErr {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, capture.ErrMissingDependency)

			for _, s := range tc.wantContains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestCapture(t *testing.T) {
	t.Parallel()

	r := newRunner(t, nil)
	model := writeModel(t, "resnet.onnx", profileOutput)

	got, err := r.Capture(t.Context(), capture.Request{Path: model})
	require.NoError(t, err)
	assert.Equal(t, profileOutput, got)
}

func TestCaptureFailureDiscardsPartialOutput(t *testing.T) {
	t.Parallel()

	r := newRunner(t, nil)
	model := writeModel(t, "broken.onnx", "")

	got, err := r.Capture(t.Context(), capture.Request{Path: model})
	require.ErrorIs(t, err, capture.ErrProfileFailed)
	assert.Contains(t, err.Error(), "RuntimeError: unsupported op type Foo")
	assert.Empty(t, got)
}

func TestCaptureTimeout(t *testing.T) {
	t.Parallel()

	r := newRunner(t, func(c *capture.Config) {
		c.Timeout = 100 * time.Millisecond
	})
	model := writeModel(t, "slow.onnx", profileOutput)

	start := time.Now()

	_, err := r.Capture(t.Context(), capture.Request{Path: model})
	require.ErrorIs(t, err, capture.ErrProfileFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate  func(*capture.Config)
		model   string
		wantErr error
	}{
		"dependency check hangs": {
			model:   "resnet.onnx",
			mutate:  func(c *capture.Config) { c.Module = "hanging_tool" },
			wantErr: capture.ErrMissingDependency,
		},
		"profiler hangs": {
			model:   "slow.onnx",
			wantErr: capture.ErrProfileFailed,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := newRunner(t, func(c *capture.Config) {
				c.Timeout = 100 * time.Millisecond
				if tc.mutate != nil {
					tc.mutate(c)
				}
			})

			start := time.Now()

			res := r.Run(t.Context(), capture.Request{Path: writeModel(t, tc.model, profileOutput)})
			require.ErrorIs(t, res.Err, tc.wantErr)
			require.ErrorIs(t, res.Err, context.DeadlineExceeded)
			assert.Empty(t, res.Text)
			assert.Less(t, time.Since(start), 4*time.Second)
		})
	}
}

func TestStart(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate   func(*capture.Config)
		model    string
		wantErr  error
		wantText string
	}{
		"success": {
			model:    "resnet.onnx",
			wantText: profileOutput,
		},
		"profiler failure": {
			model:   "broken.onnx",
			wantErr: capture.ErrProfileFailed,
		},
		"dependency failure": {
			model:   "resnet.onnx",
			mutate:  func(c *capture.Config) { c.Module = "missing_tool" },
			wantErr: capture.ErrMissingDependency,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := newRunner(t, tc.mutate)
			req := capture.Request{Path: writeModel(t, tc.model, profileOutput), Seq: 7}

			ch := r.Start(t.Context(), req)

			res, ok := <-ch
			require.True(t, ok)
			assert.Equal(t, req, res.Request)
			assert.Equal(t, tc.wantText, res.Text)
			assert.Positive(t, res.Duration)

			if tc.wantErr != nil {
				require.ErrorIs(t, res.Err, tc.wantErr)
			} else {
				require.NoError(t, res.Err)
			}

			_, ok = <-ch
			assert.False(t, ok, "channel is closed after the single result")
		})
	}
}

func TestConfigFlags(t *testing.T) {
	t.Parallel()

	cfg := capture.NewConfig()
	cmd := &cobra.Command{Use: "test"}
	cfg.RegisterFlags(cmd.Flags())
	require.NoError(t, cfg.RegisterCompletions(cmd))

	require.NoError(t, cmd.Flags().Parse(nil))
	assert.Equal(t, capture.DefaultPython, cfg.Python)
	assert.Equal(t, capture.DefaultModule, cfg.Module)
	assert.Equal(t, capture.DefaultEntry, cfg.Entry)
	assert.Equal(t, capture.DefaultPackage, cfg.Package)
	assert.Zero(t, cfg.Timeout)
	assert.Empty(t, cfg.Env)

	require.NoError(t, cmd.Flags().Parse([]string{
		"--python=/opt/py/bin/python",
		"--profiler-module=my_profiler",
		"--profiler-entry=profile",
		"--timeout=2m",
		"--profiler-env=CUDA_VISIBLE_DEVICES=",
		"--profiler-env=OMP_NUM_THREADS=1",
	}))
	assert.Equal(t, "/opt/py/bin/python", cfg.Python)
	assert.Equal(t, "my_profiler", cfg.Module)
	assert.Equal(t, "profile", cfg.Entry)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, []string{"CUDA_VISIBLE_DEVICES=", "OMP_NUM_THREADS=1"}, cfg.Env)

	for _, flag := range []string{"profiler-module", "profiler-entry", "profiler-package", "profiler-env", "timeout"} {
		fn, ok := cmd.GetFlagCompletionFunc(flag)
		require.True(t, ok, flag)

		_, directive := fn(cmd, nil, "")
		assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	}
}
