package filegate_test

import (
	"testing"

	"github.com/sagarc03/filegate"
	"github.com/stretchr/testify/assert"
)

func TestIsValidName(t *testing.T) {
	invalidUTF8 := string([]byte{'a', 0xff, 'b'})

	tt := []struct {
		Name  string
		Input string
		Want  bool
	}{
		{Name: "empty", Input: "", Want: false},
		{Name: "root", Input: "/", Want: false},
		{Name: "single dot", Input: ".", Want: false},
		{Name: "leading slash", Input: "/a.txt", Want: false},
		{Name: "trailing slash", Input: "dir/", Want: false},

		{Name: "parent segment", Input: "../a.txt", Want: false},
		{Name: "parent in middle", Input: "a/../b", Want: false},
		{Name: "double dots in filename", Input: "a..b", Want: false},
		{Name: "dot segment", Input: "a/./b", Want: false},
		{Name: "leading dot segment", Input: "./a", Want: false},
		{Name: "trailing dot segment", Input: "a/.", Want: false},
		{Name: "double slash", Input: "a//b", Want: false},

		{Name: "space", Input: "my file.txt", Want: false},
		{Name: "tab", Input: "a\tb", Want: false},
		{Name: "newline", Input: "a\nb", Want: false},
		{Name: "backslash", Input: `a\b`, Want: false},
		{Name: "hash", Input: "a#b", Want: false},
		{Name: "question mark", Input: "a?b", Want: false},
		{Name: "tilde", Input: "~a", Want: false},
		{Name: "NUL", Input: "a\x00b", Want: false},
		{Name: "DEL", Input: "a\x7fb", Want: false},
		{Name: "invalid utf8", Input: invalidUTF8, Want: false},

		{Name: "plain file", Input: "report.pdf", Want: true},
		{Name: "nested key", Input: "2024/01/report.pdf", Want: true},
		{Name: "hidden file", Input: ".env", Want: true},
		{Name: "unicode", Input: "résumé.txt", Want: true},
		{Name: "dashes and underscores", Input: "a-b_c.tar.gz", Want: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, filegate.IsValidName(tc.Input))
		})
	}
}
