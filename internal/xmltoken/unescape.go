package xmltoken

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// maxRefLen bounds the bytes between '&' and ';', "#x10FFFF" is the longest valid one.
const maxRefLen = 8

// unescape decodes the five predefined entities and numeric character
// references in place. Unknown or malformed references are kept verbatim.
// A decoded reference is never longer than its encoded form, so the write
// cursor never overtakes the read cursor.
func unescape(b []byte) []byte {
	i := bytes.IndexByte(b, '&')
	if i < 0 {
		return b
	}

	w := i
	for i < len(b) {
		if b[i] != '&' {
			b[w] = b[i]
			w, i = w+1, i+1
			continue
		}

		end := bytes.IndexByte(b[i+1:], ';')
		if end < 1 || end > maxRefLen {
			b[w] = b[i]
			w, i = w+1, i+1
			continue
		}

		r, ok := resolveRef(b[i+1 : i+1+end])
		if !ok {
			b[w] = b[i]
			w, i = w+1, i+1
			continue
		}

		w += utf8.EncodeRune(b[w:], r)
		i += end + 2
	}

	return b[:w]
}

func resolveRef(ref []byte) (rune, bool) {
	switch string(ref) {
	case "lt":
		return '<', true
	case "gt":
		return '>', true
	case "amp":
		return '&', true
	case "quot":
		return '"', true
	case "apos":
		return '\'', true
	}

	if len(ref) < 2 || ref[0] != '#' {
		return 0, false
	}

	digits, base := ref[1:], 10
	if digits[0] == 'x' {
		digits, base = digits[1:], 16
	}
	n, err := strconv.ParseUint(string(digits), base, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

// normalizeNewlines rewrites "\r\n" and a lone "\r" to "\n" in place, as
// XML end-of-line handling requires.
func normalizeNewlines(b []byte) []byte {
	i := bytes.IndexByte(b, '\r')
	if i < 0 {
		return b
	}

	w := i
	for r := i; r < len(b); r++ {
		c := b[r]
		if c == '\r' {
			c = '\n'
			if r+1 < len(b) && b[r+1] == '\n' {
				r++
			}
		}
		b[w] = c
		w++
	}
	return b[:w]
}
