package usecases_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/core/usecases"
)

func TestDisplaySentinels(t *testing.T) {
	author, content := usecases.Display(decode([]byte(`{"id_str":"1"}`)), 70)

	assert.Equal(t, domain.AnonymousAuthor, author)
	assert.Equal(t, domain.NullContent, content)
}

func TestDisplayStripsNonASCII(t *testing.T) {
	raw := []byte(`{"text":"café 😀 time","user":{"screen_name":"jürgen"}}`)
	author, content := usecases.Display(decode(raw), 70)

	assert.Equal(t, "jrgen", author)
	assert.Equal(t, "    caf time", content)
}

func TestDisplayPrefersExtendedText(t *testing.T) {
	raw := []byte(`{"text":"short...","extended_tweet":{"full_text":"the whole thing"}}`)
	_, content := usecases.Display(decode(raw), 70)

	assert.Equal(t, "    the whole thing", content)
}

func TestWrapWidthAndIndent(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor ", 20)
	wrapped := usecases.Wrap(text, 70)

	lines := strings.Split(wrapped, "\n")
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "    "), "line %q is not indented", l)
		assert.LessOrEqual(t, len(l), 70, "line %q is too long", l)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "),
		strings.Join(strings.Fields(wrapped), " "), "words were lost or reordered")
}

func TestWrapCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "    a b c", usecases.Wrap("a\n\tb   c", 70))
	assert.Equal(t, "", usecases.Wrap("   ", 70))
}

func TestWrapSplitsLongWords(t *testing.T) {
	url := "https://example.com/" + strings.Repeat("a", 150)
	wrapped := usecases.Wrap("see "+url+" now", 40)

	lines := strings.Split(wrapped, "\n")
	require.Greater(t, len(lines), 4)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "    "), "line %q is not indented", l)
		assert.LessOrEqual(t, len(l), 40, "line %q is too long", l)
	}
	assert.Equal(t, "see"+url+"now", strings.Join(strings.Fields(wrapped), ""), "characters were lost")
}

func TestWrapTinyWidth(t *testing.T) {
	assert.Equal(t, "    a\n    b\n    c", usecases.Wrap("abc", 3))
}
