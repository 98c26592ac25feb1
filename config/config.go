package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/onnxprof/capture"
	"go.jacobcolvin.com/onnxprof/export"
	"go.jacobcolvin.com/onnxprof/log"
	"go.jacobcolvin.com/onnxprof/table"
)

// SchemaURI is the JSON Schema dialect of [Schema].
const SchemaURI = "https://json-schema.org/draft/2020-12/schema"

var (
	// ErrRead indicates the config file could not be read.
	ErrRead = errors.New("read config")
	// ErrInvalid indicates the config file is malformed or holds bad values.
	ErrInvalid = errors.New("invalid config")
)

// File is the on-disk configuration. Every field is optional; unset fields
// keep the flag defaults.
type File struct {
	Profiler Profiler `json:"profiler,omitempty" yaml:"profiler,omitempty" jsonschema:"external profiler invocation"`
	Export   Export   `json:"export,omitempty"   yaml:"export,omitempty"   jsonschema:"table export preferences"`
	Log      Log      `json:"log,omitempty"      yaml:"log,omitempty"      jsonschema:"application logging"`
	Table    Table    `json:"table,omitempty"    yaml:"table,omitempty"    jsonschema:"layout of the profiler report"`
}

// Profiler mirrors [capture.Config].
type Profiler struct {
	Python  string   `json:"python,omitempty"  yaml:"python,omitempty"  jsonschema:"python interpreter used to run the profiler"`
	Module  string   `json:"module,omitempty"  yaml:"module,omitempty"  jsonschema:"python module providing the profiler"`
	Entry   string   `json:"entry,omitempty"   yaml:"entry,omitempty"   jsonschema:"function called with the model path"`
	Package string   `json:"package,omitempty" yaml:"package,omitempty" jsonschema:"pip package suggested when the module is missing"`
	Timeout string   `json:"timeout,omitempty" yaml:"timeout,omitempty" jsonschema:"maximum duration of one run, e.g. 10m"`
	Env     []string `json:"env,omitempty"     yaml:"env,omitempty"     jsonschema:"extra KEY=VALUE environment for the profiler"`
}

// Export mirrors [export.Config].
type Export struct {
	Format   string `json:"format,omitempty"   yaml:"format,omitempty"   jsonschema:"one of csv, xlsx, json, yaml"`
	FileName string `json:"fileName,omitempty" yaml:"fileName,omitempty" jsonschema:"file name suggested when saving"`
}

// Log mirrors [log.Config].
type Log struct {
	Level  string `json:"level,omitempty"  yaml:"level,omitempty"  jsonschema:"one of error, warn, info, debug"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" jsonschema:"one of json, logfmt, text"`
}

// Table overrides fields of [table.DefaultLayout].
type Table struct {
	Marker        string   `json:"marker,omitempty"        yaml:"marker,omitempty"        jsonschema:"first header cell of the report table"`
	Terminator    string   `json:"terminator,omitempty"    yaml:"terminator,omitempty"    jsonschema:"text ending the report table"`
	MetricColumns []string `json:"metricColumns,omitempty" yaml:"metricColumns,omitempty" jsonschema:"columns converted to numbers"`
	NullTokens    []string `json:"nullTokens,omitempty"    yaml:"nullTokens,omitempty"    jsonschema:"metric cells treated as missing"`
}

// Bindings names the flags that [File.Apply] fills in.
type Bindings struct {
	Capture capture.Flags
	Export  export.Flags
	Log     log.Flags
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRead, err)
	}

	return filepath.Join(dir, "onnxprof", "config.yaml"), nil
}

// Resolve returns the config file to load. An explicit path is returned as
// is; otherwise the [DefaultPath] is returned if it exists, or "" if not.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}

	path, err := DefaultPath()
	if err != nil {
		return ""
	}

	_, err = os.Stat(path)
	if err != nil {
		return ""
	}

	return path
}

// Load reads and validates the config file at path. An empty path yields an
// empty [File].
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}

	b, err := os.ReadFile(path) //nolint:gosec // Config path from CLI flag is expected.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// Parse decodes and validates YAML config. Unknown keys are rejected.
func Parse(b []byte) (*File, error) {
	var f File

	err := yaml.UnmarshalWithOptions(b, &f, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	err = f.Validate()
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// Validate checks values that have a fixed vocabulary or syntax.
func (f *File) Validate() error {
	var errs []error

	if f.Profiler.Timeout != "" {
		_, err := time.ParseDuration(f.Profiler.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("profiler.timeout: %w", err))
		}
	}

	if f.Export.Format != "" {
		_, err := export.ParseFormat(f.Export.Format)
		if err != nil {
			errs = append(errs, fmt.Errorf("export.format: %w", err))
		}
	}

	if f.Log.Level != "" {
		_, err := log.ParseLevel(f.Log.Level)
		if err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}

	if f.Log.Format != "" {
		_, err := log.ParseFormat(f.Log.Format)
		if err != nil {
			errs = append(errs, fmt.Errorf("log.format: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}

	return nil
}

// Apply copies file values into flags the user did not set on the command
// line, so explicit flags always win over the file.
func (f *File) Apply(fs *pflag.FlagSet, b Bindings) error {
	settings := []struct {
		flag   string
		values []string
	}{
		{b.Capture.Python, []string{f.Profiler.Python}},
		{b.Capture.Module, []string{f.Profiler.Module}},
		{b.Capture.Entry, []string{f.Profiler.Entry}},
		{b.Capture.Package, []string{f.Profiler.Package}},
		{b.Capture.Timeout, []string{f.Profiler.Timeout}},
		{b.Capture.Env, f.Profiler.Env},
		{b.Export.Format, []string{f.Export.Format}},
		{b.Export.FileName, []string{f.Export.FileName}},
		{b.Log.Level, []string{f.Log.Level}},
		{b.Log.Format, []string{f.Log.Format}},
	}

	for _, s := range settings {
		if s.flag == "" || fs.Lookup(s.flag) == nil || fs.Changed(s.flag) {
			continue
		}

		for _, v := range s.values {
			if v == "" {
				continue
			}

			err := fs.Set(s.flag, v)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalid, s.flag, err)
			}
		}
	}

	return nil
}

// Layout returns [table.DefaultLayout] with the file's overrides applied.
func (f *File) Layout() table.Layout {
	l := table.DefaultLayout

	if f.Table.Marker != "" {
		l.Marker = f.Table.Marker
	}

	if f.Table.Terminator != "" {
		l.Terminator = f.Table.Terminator
	}

	if len(f.Table.MetricColumns) > 0 {
		l.MetricColumns = f.Table.MetricColumns
	}

	if len(f.Table.NullTokens) > 0 {
		l.NullTokens = f.Table.NullTokens
	}

	return l
}

// Schema returns the JSON Schema describing [File].
func Schema() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[File](nil)
	if err != nil {
		return nil, fmt.Errorf("generate schema: %w", err)
	}

	s.Schema = SchemaURI
	s.Title = "onnxprof configuration"

	return s, nil
}
