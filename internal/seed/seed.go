// Package seed turns seed files and raw text into memory descriptions.
package seed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"github.com/rcliao/memory-stream/internal/model"
)

// lineTerminators may trail a description; the period goes before them.
const lineTerminators = "\n\t\r"

// EndWithPeriod trims trailing whitespace and makes sure the text ends in a
// period. A trailing line terminator is kept after the inserted period.
func EndWithPeriod(text string) string {
	trimmed := strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) && !strings.ContainsRune(lineTerminators, r)
	})

	body := strings.TrimRight(trimmed, lineTerminators)
	if body == trimmed {
		if strings.HasSuffix(body, ".") {
			return body
		}
		return body + "."
	}

	// Keep a single terminator, the one directly after the body.
	term := trimmed[len(body) : len(body)+1]
	body = strings.TrimRightFunc(body, unicode.IsSpace)
	if strings.HasSuffix(body, ".") {
		return body + term
	}
	return body + "." + term
}

// Normalize prepares one line of text as a description: surrounding
// whitespace removed, terminated with a period. Blank text yields "".
func Normalize(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	return EndWithPeriod(line)
}

// Parse reads one description per non-blank line of r.
func Parse(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if d := Normalize(sc.Text()); d != "" {
			out = append(out, d)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadLines loads the seed file at path.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("seed file %s: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	lines, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return lines, nil
}
