package linesim

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

const byteOrderMark = "\uFEFF"

// LoadLines reads a text file and returns its non-blank lines, trimmed, each
// keeping its original 1-based position so removed blank lines never renumber
// the rest.
func LoadLines(path string) ([]Line, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}

		return nil, err
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, path)
	}

	content := strings.TrimPrefix(string(data), byteOrderMark)
	raw := strings.Split(content, "\n")

	lines := make([]Line, 0, len(raw))
	for i, text := range raw {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		lines = append(lines, NewLine(text, i+1))
	}

	return lines, nil
}
