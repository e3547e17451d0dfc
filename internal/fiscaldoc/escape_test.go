package fiscaldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt; &quot;d&quot; &apos;e&apos;", Escape(`a & b <c> "d" 'e'`))
	assert.Equal(t, "&amp;amp;", Escape("&amp;"))
	assert.Equal(t, "plain", Escape("plain"))
}

// permutations of the reserved characters, including repeats and already-escaped text
func reservedStrings() []string {
	chars := []string{"&", "<", ">", `"`, "'"}
	out := []string{"", "x", "&amp;", "&lt;&gt;", "&&;", "&quot'&apos\"", "AT&T <b>'q'</b>"}
	for _, a := range chars {
		for _, b := range chars {
			for _, c := range chars {
				out = append(out, a+b+c, "x"+a+"y"+b+c+"z")
			}
		}
	}
	return out
}

func TestUnescapeInvertsEscape(t *testing.T) {
	for _, s := range reservedStrings() {
		assert.Equal(t, s, Unescape(Escape(s)), "input %q", s)
	}
}

func TestEscapeInvertsUnescapeOnEscapedText(t *testing.T) {
	for _, s := range reservedStrings() {
		escaped := Escape(s)
		assert.Equal(t, escaped, Escape(Unescape(escaped)), "input %q", escaped)
	}
}
