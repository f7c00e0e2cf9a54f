package gpxtrack

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/muktihari/gpxtrack/internal/xmltoken"
	"golang.org/x/text/encoding/ianaindex"
)

// Decode parses a UTF-8 GPX document from r with the built-in tokenizer.
// On error the returned Result is empty, partial data is never returned.
func Decode(r io.Reader, opts ...Option) (Result, error) {
	h := NewHandler(opts...)
	tok := xmltoken.New(r, h.options.tokenizer...)
	for {
		token, err := tok.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("gpx: %w", err)
		}
		if !token.IsElement() {
			h.CharData(token.Data) // text after a comment or procinst belongs to the parent
			continue
		}
		if err = h.handleToken(&token); err != nil {
			return Result{}, err
		}
	}
	return h.Result(), nil
}

func (h *Handler) handleToken(token *xmltoken.Token) error {
	name := string(token.Name.Full)
	if token.IsEndElement {
		if err := h.EndElement(name); err != nil {
			return err
		}
		h.CharData(token.Data) // text after a closing tag belongs to the parent
		return nil
	}

	if err := h.StartElement(name, tokenAttrs{token: token}); err != nil {
		return err
	}
	if token.SelfClosing {
		if err := h.EndElement(name); err != nil {
			return err
		}
	}
	h.CharData(token.Data)
	return nil
}

// DecodeStdlib parses a GPX document from r with encoding/xml. Unlike Decode
// it honours a non UTF-8 encoding declared in the XML prolog.
func DecodeStdlib(r io.Reader, opts ...Option) (Result, error) {
	h := NewHandler(opts...)
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	for {
		token, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("gpx: %w", err)
		}

		switch elem := token.(type) {
		case xml.StartElement:
			err = h.StartElement(qualifiedName(elem.Name), stdlibAttrs(elem.Attr))
		case xml.EndElement:
			err = h.EndElement(qualifiedName(elem.Name))
		case xml.CharData:
			h.CharData(elem)
		}
		if err != nil {
			return Result{}, err
		}
	}
	return h.Result(), nil
}

// DecodeFile opens path and parses it with Decode.
func DecodeFile(path string, opts ...Option) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	return Decode(f, opts...)
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q: not supported", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
