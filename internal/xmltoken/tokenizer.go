// Package xmltoken is a small, allocation-aware XML tokenizer tailored for
// GPX documents. It does not build a tree and does not track namespaces; it
// only splits the input into tokens that a caller reacts to in order.
//
// Every token carries the character data that follows it up to the next tag,
// as written: whitespace is kept, references are decoded and CDATA sections
// are unwrapped. Text following a closing tag, a comment or a processing
// instruction therefore belongs to the enclosing element.
package xmltoken

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

type errorString string

func (e errorString) Error() string { return string(e) }

const (
	ErrAutoGrowBufferExceedMaxLimit = errorString("auto grow buffer exceed max limit")
)

const (
	defaultReadBufferSize      = 4 << 10
	autoGrowBufferMaxLimitSize = 1000 << 10
	defaultAttrsBufferSize     = 16
)

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// Tokenizer is a XML tokenizer.
type Tokenizer struct {
	r       io.Reader // reader provided by the client
	n       int64     // the n read bytes counter
	options options   // tokenizer's options
	buf     []byte    // buffer that will grow as needed, large enough to hold a token (default max limit: 1MB)
	start   int       // start of the token being scanned, scan offsets are relative to it
	cur     int       // start of the next token
	err     error     // last encountered error
	token   Token     // shared token
}

type options struct {
	readBufferSize             int
	autoGrowBufferMaxLimitSize int
	attrsBufferSize            int
}

func defaultOptions() options {
	return options{
		readBufferSize:             defaultReadBufferSize,
		autoGrowBufferMaxLimitSize: autoGrowBufferMaxLimitSize,
		attrsBufferSize:            defaultAttrsBufferSize,
	}
}

// Option is Tokenizer option.
type Option func(o *options)

// WithReadBufferSize directs XML Tokenizer to this buffer size
// to read from the io.Reader. Default: 4096.
func WithReadBufferSize(size int) Option {
	if size <= 0 {
		size = defaultReadBufferSize
	}
	return func(o *options) { o.readBufferSize = size }
}

// WithAutoGrowBufferMaxLimitSize directs XML Tokenizer to limit
// auto grow buffer to not grow exceed this limit. Default: 1 MB.
func WithAutoGrowBufferMaxLimitSize(size int) Option {
	if size <= 0 {
		size = autoGrowBufferMaxLimitSize
	}
	return func(o *options) { o.autoGrowBufferMaxLimitSize = size }
}

// WithAttrBufferSize directs XML Tokenizer to use this Attrs
// buffer capacity as its initial size. Default: 16.
func WithAttrBufferSize(size int) Option {
	if size <= 0 {
		size = defaultAttrsBufferSize
	}
	return func(o *options) { o.attrsBufferSize = size }
}

// New creates new XML tokenizer.
func New(r io.Reader, opts ...Option) *Tokenizer {
	t := new(Tokenizer)
	t.Reset(r, opts...)
	return t
}

// Reset resets the Tokenizer, maintaining storage for
// future tokenization to reduce memory alloc.
func (t *Tokenizer) Reset(r io.Reader, opts ...Option) {
	t.r, t.err = r, nil
	t.n, t.start, t.cur = 0, 0, 0

	t.options = defaultOptions()
	for i := range opts {
		opts[i](&t.options)
	}

	if cap(t.token.Attrs) < t.options.attrsBufferSize {
		t.token.Attrs = make([]Attr, 0, t.options.attrsBufferSize)
	}
	if t.options.readBufferSize > t.options.autoGrowBufferMaxLimitSize {
		t.options.autoGrowBufferMaxLimitSize = t.options.readBufferSize
	}

	if size := t.options.readBufferSize; cap(t.buf) < size {
		t.buf = make([]byte, 0, size+defaultReadBufferSize)
	}
	t.buf = t.buf[:0]
}

// InputOffset returns the number of bytes read from the underlying reader so far.
func (t *Tokenizer) InputOffset() int64 { return t.n }

// Token returns either a valid token or an error.
// The returned token is only valid before next
// Token or RawToken method invocation.
func (t *Tokenizer) Token() (token Token, err error) {
	b, tagLen, err := t.rawToken()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			err = fmt.Errorf("byte pos %d: %w", t.n, err)
		}
		return token, err
	}

	t.clearToken()

	tag, data := b[:tagLen], b[tagLen:]
	if isMarkup(tag) {
		t.token.Markup = tag
	} else {
		t.consumeAttrs(t.consumeTagName(tag))
	}
	t.token.Data = decodeCharData(data)

	token = t.token
	if len(token.Attrs) == 0 {
		token.Attrs = nil
	}
	if len(token.Data) == 0 {
		token.Data = nil
	}

	return token, nil
}

// RawToken returns the next tag followed by its undecoded character data.
// On a truncated tag it returns the bytes read so far and io.ErrUnexpectedEOF.
// The returned bytes are only valid before next
// Token or RawToken method invocation.
func (t *Tokenizer) RawToken() (b []byte, err error) {
	b, _, err = t.rawToken()
	return b, err
}

// rawToken scans one token: a tag of tagLen bytes, then its character data.
// Bytes before the first tag have no owner and are skipped. Buffered bytes
// are still scanned after a read error, the error surfaces once they run out.
func (t *Tokenizer) rawToken() (b []byte, tagLen int, err error) {
	t.start = t.cur
	for {
		c, ok := t.at(0)
		if !ok {
			return nil, 0, t.err
		}
		if c == '<' {
			break
		}
		t.start++
	}

	tagLen, ok := t.scanMarkup()
	if !ok {
		if errors.Is(t.err, io.EOF) {
			t.err = io.ErrUnexpectedEOF
		}
		return t.buf[t.start:], 0, t.err
	}

	n := t.scanCharData(tagLen)
	b = t.buf[t.start : t.start+n : t.start+n]
	t.cur = t.start + n

	return b, tagLen, nil
}

// at returns the byte at offset off of the token being scanned, reading
// more input when needed. ok is false once no more input is available.
func (t *Tokenizer) at(off int) (c byte, ok bool) {
	for t.start+off >= len(t.buf) {
		if t.err != nil {
			return 0, false
		}
		t.discardConsumed()
		if err := t.manageBuffer(); err != nil {
			t.err = err
			return 0, false
		}
	}
	return t.buf[t.start+off], true
}

// discardConsumed moves the token being scanned to the front of the buffer.
func (t *Tokenizer) discardConsumed() {
	if t.start == 0 {
		return
	}
	n := copy(t.buf, t.buf[t.start:])
	t.buf = t.buf[:n:cap(t.buf)]
	t.start = 0
}

func (t *Tokenizer) manageBuffer() error {
	growSize := len(t.buf) + t.options.readBufferSize
	start, end := len(t.buf), growSize
	switch {
	case growSize <= cap(t.buf): // Grow by reslice
		t.buf = t.buf[:growSize:cap(t.buf)]
	default: // Grow by make new alloc
		if growSize > t.options.autoGrowBufferMaxLimitSize {
			return fmt.Errorf("could not grow buffer to %d, max limit is set to %d: %w",
				growSize, t.options.autoGrowBufferMaxLimitSize, ErrAutoGrowBufferExceedMaxLimit)
		}
		buf := make([]byte, growSize)
		n := copy(buf, t.buf)
		t.buf = buf
		start, end = n, cap(t.buf)
	}

	n, err := io.ReadAtLeast(t.r, t.buf[start:end], 1)
	t.buf = t.buf[: start+n : cap(t.buf)]
	t.n += int64(n)

	return err
}

func (t *Tokenizer) hasPrefix(off int, s string) bool {
	for i := 0; i < len(s); i++ {
		if c, ok := t.at(off + i); !ok || c != s[i] {
			return false
		}
	}
	return true
}

// scanMarkup returns the length of the tag starting at offset 0.
func (t *Tokenizer) scanMarkup() (n int, ok bool) {
	c, ok := t.at(1)
	if !ok {
		return 0, false
	}
	switch c {
	case '?': // <?xml version="1.0"?>
		return t.scanUntil(2, "?>")
	case '!':
		switch {
		case t.hasPrefix(0, "<!--"):
			return t.scanUntil(len("<!--"), "-->")
		case t.hasPrefix(0, cdataOpen): // only reachable before the first element
			return t.scanUntil(len(cdataOpen), cdataClose)
		}
		return t.scanDirective()
	}
	return t.scanTag()
}

// scanUntil returns the offset right after the first suffix found at or
// after offset from.
func (t *Tokenizer) scanUntil(from int, suffix string) (n int, ok bool) {
	last := suffix[len(suffix)-1]
	for i := from + len(suffix) - 1; ; i++ {
		c, ok := t.at(i)
		if !ok {
			return 0, false
		}
		if c != last {
			continue
		}
		if p := t.start + i + 1; string(t.buf[p-len(suffix):p]) == suffix {
			return i + 1, true
		}
	}
}

// scanTag finds the '>' closing a start or end tag; a '>' inside a quoted
// attribute value does not close it.
func (t *Tokenizer) scanTag() (n int, ok bool) {
	var quote byte
	for i := 1; ; i++ {
		c, ok := t.at(i)
		if !ok {
			return 0, false
		}
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1, true
		}
	}
}

// scanDirective finds the end of e.g. <!DOCTYPE gpx [ <!ENTITY a "b"> ]>.
func (t *Tokenizer) scanDirective() (n int, ok bool) {
	var quote byte
	var depth int
	for i := 2; ; i++ {
		c, ok := t.at(i)
		if !ok {
			return 0, false
		}
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '<':
			depth++
		case c == '>':
			if depth == 0 {
				return i + 1, true
			}
			depth--
		}
	}
}

// scanCharData returns the offset of the next tag after offset from. CDATA
// sections are part of the character data. An unterminated CDATA section
// ends the data and is reported as io.ErrUnexpectedEOF by the next call.
func (t *Tokenizer) scanCharData(from int) int {
	for i := from; ; i++ {
		c, ok := t.at(i)
		if !ok {
			return i
		}
		if c != '<' {
			continue
		}
		if !t.hasPrefix(i, cdataOpen) {
			return i
		}
		n, ok := t.scanUntil(i+len(cdataOpen), cdataClose)
		if !ok {
			if errors.Is(t.err, io.EOF) {
				t.err = io.ErrUnexpectedEOF
			}
			return i
		}
		i = n - 1
	}
}

func (t *Tokenizer) clearToken() {
	t.token.Name.Prefix = nil
	t.token.Name.Local = nil
	t.token.Name.Full = nil
	t.token.Attrs = t.token.Attrs[:0]
	t.token.Data = nil
	t.token.Markup = nil
	t.token.SelfClosing = false
	t.token.IsEndElement = false
}

// isMarkup reports a tag starting with "<?" or "<!".
func isMarkup(tag []byte) bool {
	return len(tag) > 1 && (tag[1] == '?' || tag[1] == '!')
}

// consumeTagName reads "<prefix:local" or "</prefix:local" and returns the
// rest of the tag.
func (t *Tokenizer) consumeTagName(tag []byte) []byte {
	b := tag[1:]
	if len(b) > 0 && b[0] == '/' {
		t.token.IsEndElement = true
		b = b[1:]
	}

	var end int
	for end < len(b) && !isSpace(b[end]) && b[end] != '/' && b[end] != '>' {
		end++
	}
	t.token.Name = splitName(b[:end])

	return b[end:]
}

// consumeAttrs reads attributes up to the closing '>'. Both quote styles are
// accepted, <trkpt lat="1" lon='2'> is valid XML. Values are not trimmed.
func (t *Tokenizer) consumeAttrs(b []byte) {
	for {
		b = trimPrefix(b)
		if len(b) == 0 || b[0] == '>' {
			return
		}
		if b[0] == '/' {
			t.token.SelfClosing = true
			b = b[1:]
			continue
		}

		eq := bytes.IndexByte(b, '=')
		if eq < 0 {
			return
		}
		full := trim(b[:eq])
		b = trimPrefix(b[eq+1:])
		if len(b) == 0 || (b[0] != '"' && b[0] != '\'') {
			return // Malformed: unquoted value.
		}
		end := bytes.IndexByte(b[1:], b[0])
		if end < 0 {
			return
		}
		value := b[1 : 1+end]
		b = b[end+2:]

		if len(full) == 0 {
			continue
		}
		t.token.Attrs = append(t.token.Attrs, Attr{
			Name:  splitName(full),
			Value: unescape(normalizeNewlines(value)),
		})
	}
}

func splitName(full []byte) Name {
	if i := bytes.IndexByte(full, ':'); i >= 0 {
		return Name{Prefix: full[:i], Local: full[i+1:], Full: full}
	}
	return Name{Local: full, Full: full}
}

// decodeCharData decodes b in place: line endings become "\n", references
// are resolved outside CDATA sections and CDATA bodies are otherwise copied
// as written.
func decodeCharData(b []byte) []byte {
	var w, r int
	for r < len(b) {
		i := bytes.Index(b[r:], []byte(cdataOpen))
		if i < 0 {
			i = len(b) - r
		}
		w += copy(b[w:], unescape(normalizeNewlines(b[r:r+i])))
		if r += i; r == len(b) {
			break
		}

		r += len(cdataOpen)
		j := bytes.Index(b[r:], []byte(cdataClose))
		if j < 0 {
			w += copy(b[w:], normalizeNewlines(b[r:]))
			break
		}
		w += copy(b[w:], normalizeNewlines(b[r:r+j]))
		r += j + len(cdataClose)
	}
	return b[:w]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func trim(b []byte) []byte {
	return trimSuffix(trimPrefix(b))
}

func trimPrefix(b []byte) []byte {
	for len(b) > 0 && isSpace(b[0]) {
		b = b[1:]
	}
	return b
}

func trimSuffix(b []byte) []byte {
	for len(b) > 0 && isSpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}
