package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []string // substrings expected in the output
		skip []string // substrings that must not appear
	}{
		{
			name: "simple paragraphs",
			html: "<html><body><p>Hello team,</p><p>see below.</p></body></html>",
			want: []string{"Hello team,", "see below."},
		},
		{
			name: "script and style dropped",
			html: "<html><head><style>.a{color:red}</style></head><body><script>alert(1)</script><p>visible</p></body></html>",
			want: []string{"visible"},
			skip: []string{"alert", "color:red"},
		},
		{
			name: "plain text passthrough",
			html: "no markup at all",
			want: []string{"no markup at all"},
		},
		{
			name: "nested tables",
			html: "<table><tr><td>cell one</td></tr><tr><td>cell two</td></tr></table>",
			want: []string{"cell one", "cell two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripTags(tt.html)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
			for _, skip := range tt.skip {
				assert.NotContains(t, got, skip)
			}
		})
	}
}

func TestStripTagsWhitespaceOnly(t *testing.T) {
	for _, html := range []string{
		"",
		"<html><body></body></html>",
		"<div>   \n\t </div>",
		"<p></p><p> </p>",
	} {
		got := StripTags(html)
		assert.Empty(t, strings.TrimSpace(got), "input %q should strip to nothing", html)
	}
}

func TestStripTagsBlockBoundariesBecomeNewlines(t *testing.T) {
	got := StripTags("<p>first</p><p>second</p>")
	assert.Contains(t, got, "first")
	assert.Contains(t, got, "second")
	assert.NotContains(t, got, "firstsecond", "block elements must not run together")
}
