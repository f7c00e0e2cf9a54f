package gpxtrack

import (
	"encoding/xml"

	"github.com/muktihari/gpxtrack/internal/xmltoken"
)

// Attributes gives access to the attributes of a start element by qualified name.
type Attributes interface {
	Value(name string) (value string, ok bool)
}

// AttrMap is an Attributes backed by a map, handy when driving a Handler by hand.
type AttrMap map[string]string

// Value returns the attribute stored under name, ok is false when it is absent.
func (m AttrMap) Value(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

type tokenAttrs struct{ token *xmltoken.Token }

func (a tokenAttrs) Value(name string) (string, bool) {
	v, ok := a.token.Attr(name)
	return string(v), ok
}

type stdlibAttrs []xml.Attr

func (a stdlibAttrs) Value(name string) (string, bool) {
	for i := range a {
		if qualifiedName(a[i].Name) == name {
			return a[i].Value, true
		}
	}
	return "", false
}

// qualifiedName rebuilds "prefix:local" from a name returned by
// xml.Decoder.RawToken, where Space holds the prefix as written.
func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
