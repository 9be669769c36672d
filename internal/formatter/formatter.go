// Package formatter normalises generated C# text. There is no equivalent of
// go/format for C#, so this is a purely textual pass: consistent line
// endings, brace-depth indentation, no trailing whitespace, exactly one
// trailing newline.
package formatter

import (
	"strings"
)

// Formatter is responsible for normalising declaration output
type Formatter struct {
	indent string
}

// NewFormatter creates a Formatter using four-space indentation.
func NewFormatter() *Formatter {
	return NewFormatterWithIndent("    ")
}

// NewFormatterWithIndent creates a Formatter with a custom indent string.
func NewFormatterWithIndent(indent string) *Formatter {
	if indent == "" {
		indent = "    "
	}
	return &Formatter{indent: indent}
}

// Format re-indents brace-delimited code and normalises whitespace.
// Formatting already-formatted output is a no-op.
func (f *Formatter) Format(code string) (string, error) {
	// Handle empty input
	if strings.TrimSpace(code) == "" {
		return "", nil
	}

	code = strings.ReplaceAll(code, "\r\n", "\n")
	code = strings.ReplaceAll(code, "\r", "\n")
	code = strings.TrimRight(code, "\n")

	var out strings.Builder
	depth := 0
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out.WriteByte('\n')
			continue
		}

		level := depth
		// Closing braces sit one level left of the block body.
		if strings.HasPrefix(trimmed, "}") {
			level--
		}
		if level < 0 {
			level = 0
		}

		out.WriteString(strings.Repeat(f.indent, level))
		out.WriteString(trimmed)
		out.WriteByte('\n')

		depth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
		if depth < 0 {
			depth = 0
		}
	}

	return out.String(), nil
}
