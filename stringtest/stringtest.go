// Package stringtest builds multi-line string fixtures for tests, such as the
// fixed-width tables printed by the model profiler.
package stringtest

import "strings"

// Input dedents a raw string literal so fixtures can be indented along with
// the surrounding test code. One leading and one trailing newline are
// removed, the indentation shared by all non-blank lines is stripped, and
// whitespace-only lines become empty.
//
// Example:
//
//	got := stringtest.Input(`
//		Name    Memory
//		Conv_0  4,096
//	`) // -> "Name    Memory\nConv_0  4,096"
func Input(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")

	lines := strings.Split(s, "\n")

	indent := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}

	for i, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			lines[i] = ""
		case indent > 0:
			lines[i] = line[indent:]
		}
	}

	return strings.Join(lines, "\n")
}

// JoinLF joins multiple strings with LF line endings.
func JoinLF(ss ...string) string {
	return strings.Join(ss, "\n")
}

// JoinCRLF joins multiple strings with CRLF line endings, for fixtures that
// mimic profiler output captured on Windows.
func JoinCRLF(ss ...string) string {
	return strings.Join(ss, "\r\n")
}
