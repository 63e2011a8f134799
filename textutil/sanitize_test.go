package textutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odklm/spotfetch/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          string
		allowSpaces bool
		want        string
	}{
		{name: "strips reserved characters", in: "My: Song?", allowSpaces: true, want: "My Song"},
		{name: "keeps alphanumerics and separators", in: "a_b-c.d 9", allowSpaces: true, want: "a_b-c.d 9"},
		{name: "collapses repeated whitespace", in: "a   b\t\tc", allowSpaces: true, want: "a b c"},
		{name: "drops spaces when disallowed", in: "My Song", allowSpaces: false, want: "MySong"},
		{name: "falls back for empty result", in: "<<<>>>", allowSpaces: true, want: "Unknown"},
		{name: "falls back for empty input", in: "", allowSpaces: true, want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, textutil.SanitizeFileName(tt.in, tt.allowSpaces))
		})
	}
}

func TestSanitizeFileNameIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"My: Song?", "  spaced   out  ", "plain", "##$%"}
	for _, in := range inputs {
		once := textutil.SanitizeFileName(in, true)
		twice := textutil.SanitizeFileName(once, true)
		assert.Equal(t, once, twice)
	}
}
