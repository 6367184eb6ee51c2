package filegate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidName reports whether name is safe to use as an object key under the
// strict naming policy. A valid name:
//   - is not empty, "." or "/"
//   - is relative and does not end with "/"
//   - has no ".." and no empty segments ("//")
//   - has no "." segments
//   - contains none of \ ? # ~
//   - is valid UTF-8 without control characters, DEL or whitespace
func IsValidName(name string) bool {
	if name == "" || name == "/" || name == "." {
		return false
	}

	if name[0] == '/' || strings.HasSuffix(name, "/") {
		return false
	}

	if strings.Contains(name, "..") || strings.Contains(name, "//") {
		return false
	}

	if strings.ContainsAny(name, `\?#~`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	if strings.HasPrefix(name, "./") || strings.Contains(name, "/./") || strings.HasSuffix(name, "/.") {
		return false
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
