package save

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// InvalidOutputPathError is returned for an output path the agent refuses to
// write to.
type InvalidOutputPathError struct {
	Path   string
	Reason string
}

func (e *InvalidOutputPathError) Error() string {
	return fmt.Sprintf("invalid output path %q: %s", e.Path, e.Reason)
}

// ValidateOutputPath checks that path is a clean absolute file path inside an
// existing directory and does not overwrite the source.
func ValidateOutputPath(path, sourcePath string) error {
	invalid := func(reason string) error {
		return &InvalidOutputPathError{Path: path, Reason: reason}
	}

	if strings.TrimSpace(path) == "" {
		return invalid("output path is required")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return invalid("path traversal is not allowed")
		}
	}
	if !filepath.IsAbs(path) {
		return invalid("path must be absolute")
	}
	if filepath.Clean(path) != path {
		return invalid("path must be clean")
	}
	if sourcePath != "" && filepath.Clean(sourcePath) == path {
		return invalid("output would overwrite the source file")
	}

	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return invalid("directory does not exist")
		}
		return invalid(err.Error())
	}
	if !info.IsDir() {
		return invalid("parent is not a directory")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return invalid("path is a directory")
	}
	return nil
}

// SanitizeName replaces characters that are unsafe in file names with '_'
// and truncates the result to maxLen runes when maxLen > 0.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}
