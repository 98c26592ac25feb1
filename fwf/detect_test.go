package fwf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  []Colspec
	}{
		"aligned": {
			input: "Name    Memory\nConv_0  4,096\n",
			want:  []Colspec{{Start: 0, End: 6}, {Start: 8, End: 14}},
		},
		"row bridges a gap": {
			input: "Name  Memory\nlong_name 1\n",
			want:  []Colspec{{Start: 0, End: 12}},
		},
		"blank lines skipped": {
			input: "\nA  B\n\r\n1  2\r\n",
			want:  []Colspec{{Start: 0, End: 1}, {Start: 3, End: 4}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := detect(splitLines(tc.input, DefaultDelimiters), DefaultDelimiters)
			assert.Equal(t, tc.want, got)
		})
	}
}
