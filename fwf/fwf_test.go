package fwf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/onnxprof/fwf"
	"go.jacobcolvin.com/onnxprof/stringtest"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input      string
		opts       fwf.Options
		wantMode   fwf.Mode
		wantHeader []string
		wantRows   [][]string
	}{
		"aligned columns": {
			input: stringtest.Input(`
				Name     Type  Memory
				Conv_0   Conv  4,096
				Relu_1   Relu  1,024
			`),
			wantMode:   fwf.ModePositional,
			wantHeader: []string{"Name", "Type", "Memory"},
			wantRows: [][]string{
				{"Conv_0", "Conv", "4,096"},
				{"Relu_1", "Relu", "1,024"},
			},
		},
		"empty cell keeps its position": {
			input: stringtest.Input(`
				Name     Type  Memory
				Conv_0         4,096
			`),
			wantMode:   fwf.ModePositional,
			wantHeader: []string{"Name", "Type", "Memory"},
			wantRows:   [][]string{{"Conv_0", "", "4,096"}},
		},
		"short line yields empty trailing cells": {
			input: stringtest.Input(`
				Name     Type  Memory
				Total
			`),
			wantMode:   fwf.ModePositional,
			wantHeader: []string{"Name", "Type", "Memory"},
			wantRows:   [][]string{{"Total", "", ""}},
		},
		"misaligned rows fall back to fields": {
			input:      "Name  Forward_MACs  Memory\nConv_0  123,456  4,096",
			wantMode:   fwf.ModeFields,
			wantHeader: []string{"Name", "Forward_MACs", "Memory"},
			wantRows:   [][]string{{"Conv_0", "123,456", "4,096"}},
		},
		"blank lines are skipped": {
			input:      stringtest.JoinLF("Name  Memory", "", "a     1", "   ", "b     2"),
			wantMode:   fwf.ModePositional,
			wantHeader: []string{"Name", "Memory"},
			wantRows:   [][]string{{"a", "1"}, {"b", "2"}},
		},
		"carriage returns are trimmed": {
			input:      stringtest.JoinCRLF("Name  Memory", "a     1"),
			wantMode:   fwf.ModePositional,
			wantHeader: []string{"Name", "Memory"},
			wantRows:   [][]string{{"a", "1"}},
		},
		"duplicate header names are suffixed": {
			input:      stringtest.JoinLF("Name  Shape  Shape  Shape", "a     1x3    1x3    1x1"),
			wantMode:   fwf.ModePositional,
			wantHeader: []string{"Name", "Shape", "Shape.1", "Shape.2"},
			wantRows:   [][]string{{"a", "1x3", "1x3", "1x1"}},
		},
		"tab delimiters": {
			input:      "Name\tMemory\nConv_0\t4,096",
			wantMode:   fwf.ModeFields,
			wantHeader: []string{"Name", "Memory"},
			wantRows:   [][]string{{"Conv_0", "4,096"}},
		},
		"header only": {
			input:      "Name  Memory",
			wantMode:   fwf.ModePositional,
			wantHeader: []string{"Name", "Memory"},
			wantRows:   [][]string{},
		},
		"non-ascii names are measured in characters": {
			input:      stringtest.JoinLF("Name    Memory", "卷积_0  4,096", "Relu    1"),
			wantMode:   fwf.ModePositional,
			wantHeader: []string{"Name", "Memory"},
			wantRows:   [][]string{{"卷积_0", "4,096"}, {"Relu", "1"}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, err := fwf.Parse(tc.input, tc.opts)
			require.NoError(t, err)

			assert.Equal(t, tc.wantMode, f.Mode)
			assert.Equal(t, tc.wantHeader, f.Header)
			assert.Equal(t, tc.wantRows, f.Rows)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  error
		opts  fwf.Options
	}{
		"empty": {
			input: "",
			want:  fwf.ErrNoColumns,
		},
		"whitespace only": {
			input: " \n\t\n",
			want:  fwf.ErrNoColumns,
		},
		"field count mismatch": {
			input: "Name  Forward_MACs  Memory\nConv_0  123,456",
			want:  fwf.ErrMalformed,
		},
		"text outside inferred columns": {
			input: stringtest.JoinLF("Name  Memory", "a     1", "b   xx 2"),
			opts:  fwf.Options{InferRows: 2},
			want:  fwf.ErrMalformed,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := fwf.Parse(tc.input, tc.opts)
			require.ErrorIs(t, err, tc.want)
		})
	}
}
