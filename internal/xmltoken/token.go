package xmltoken

// Token represent a single token, one of these following:
//   - <?xml version="1.0" encoding="UTF-8"?>
//   - <trkpt lat="-7.1872750" lon="110.3450230">
//   - <trkseg/>
//   - </trkpt>
//   - <!-- a comment -->
//   - <!DOCTYPE gpx>
//
// Data holds the character data that follows the tag up to the next one,
// CDATA sections included. For a start element it is the element's leading
// text; for anything else it belongs to the enclosing element.
type Token struct {
	Name         Name   // Name is an XML name, empty when a tag starts with "<?" or "<!".
	Attrs        []Attr // Attrs exist when len(Attrs) > 0.
	Data         []byte // Data is the decoded character data following the tag, nil when there is none.
	Markup       []byte // Markup is the raw tag when it starts with "<?" or "<!", e.g. a comment.
	SelfClosing  bool   // True when a tag ends with "/>" e.g. <trkseg/>.
	IsEndElement bool   // True when a tag start with "</" e.g. </gpx> or </gpxtpx:atemp>.
}

// IsElement reports whether the token is a start, end or self-closing
// element, as opposed to a prolog, comment or directive.
func (t *Token) IsElement() bool { return len(t.Name.Full) > 0 }

// Attr returns the value of the first attribute whose full name matches.
func (t *Token) Attr(full string) (value []byte, ok bool) {
	for i := range t.Attrs {
		if string(t.Attrs[i].Name.Full) == full {
			return t.Attrs[i].Value, true
		}
	}
	return nil, false
}

// Attr represents an XML attribute.
type Attr struct {
	Name  Name
	Value []byte
}

// Name represents an XML name <prefix:local>,
// we don't manage the bookkeeping of namespaces.
type Name struct {
	Prefix []byte
	Local  []byte
	Full   []byte // Full is combination of "prefix:local"
}
