package generate

import (
	"errors"
	"strings"
	"unicode"
)

// SanitizePath collapses repeated slashes and drops a trailing slash.
func SanitizePath(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "/"
	}

	return path
}

// ExtractParamNames returns the names of the {param} placeholders of a path
// segment, without any chi regex matcher ("{id:[0-9]+}" yields "id").
func ExtractParamNames(segment string) ([]string, error) {
	if strings.Count(segment, "{") != strings.Count(segment, "}") {
		return nil, errors.New("mismatched number of '{' and '}' in path")
	}

	names := []string{}
	start := -1

	for i, ch := range segment {
		switch {
		case ch == '{':
			start = i + 1
		case ch == '}' && start >= 0:
			name, _, _ := strings.Cut(segment[start:i], ":")
			if name != "" {
				names = append(names, name)
			}

			start = -1
		}
	}

	return names, nil
}

// IsValidParameterName reports whether name starts with an ASCII letter and
// continues with letters, digits or underscores.
func IsValidParameterName(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		if isASCIILetter(r) {
			continue
		}

		if i == 0 || (!unicode.IsDigit(r) && r != '_') {
			return false
		}
	}

	return true
}

// IsValidOperationID reports whether id is a non-empty string of ASCII letters.
func IsValidOperationID(id string) bool {
	if id == "" {
		return false
	}

	for _, r := range id {
		if !isASCIILetter(r) {
			return false
		}
	}

	return true
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
