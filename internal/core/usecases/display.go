package usecases

import (
	"strings"
	"unicode"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

// DefaultWrapWidth is the column limit of the readable transcript.
const DefaultWrapWidth = 70

const displayIndent = "    "

var stripNonASCII = runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
}))

// Display returns the author handle and the wrapped, indented content of a
// record as they appear in the readable transcript.
func Display(r *domain.Record, width int) (author, content string) {
	author = foldASCII(r.AuthorHandle())
	if author == "" {
		author = domain.AnonymousAuthor
	}

	text, ok := r.Content()
	if !ok {
		return author, domain.NullContent
	}
	return author, Wrap(foldASCII(text), width)
}

// Wrap collapses whitespace and wraps text so that every line, including its
// four space indent, fits in width columns. Words longer than a line are
// split across lines.
func Wrap(text string, width int) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	lim := width - len(displayIndent)
	if lim < 1 {
		lim = 1
	}

	words := strings.Fields(text)
	for i, w := range words {
		words[i] = splitLong(w, lim)
	}
	text = strings.Join(words, " ")
	if text == "" {
		return ""
	}

	lines := strings.Split(wordwrap.WrapString(text, uint(lim)), "\n")
	for i, l := range lines {
		lines[i] = displayIndent + l
	}
	return strings.Join(lines, "\n")
}

// splitLong breaks a word into space separated pieces of at most lim runes.
func splitLong(word string, lim int) string {
	r := []rune(word)
	if len(r) <= lim {
		return word
	}
	var b strings.Builder
	for len(r) > lim {
		b.WriteString(string(r[:lim]))
		b.WriteByte(' ')
		r = r[lim:]
	}
	b.WriteString(string(r))
	return b.String()
}

func foldASCII(s string) string {
	out, _, err := transform.String(stripNonASCII, s)
	if err != nil {
		return s
	}
	return out
}
