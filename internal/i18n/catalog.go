// Package i18n resolves user-facing message keys to localized, formatted text.
// Bundles are YAML files embedded at build time, one per language, mapping a
// message key to a printf-style template taking a single argument.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Message keys shared by the parser and the CLI.
const (
	KeyDateTimeFormat  = "gpxparser.error.datetimeformat"
	KeyMalformedNumber = "gpxparser.error.malformednumber"
	KeyStructure       = "gpxparser.error.structure"
)

//go:embed bundles/*.yaml
var bundles embed.FS

const bundlePrefix = "messages_"

// Catalog is a set of localized messages bound to one language.
type Catalog struct {
	tag     language.Tag
	keys    map[string]struct{}
	printer *message.Printer
}

type loaded struct {
	builder   *catalog.Builder
	supported []language.Tag
	keys      map[string]struct{}
}

var loadBundles = sync.OnceValues(func() (*loaded, error) {
	return load(bundles)
})

func load(fsys fs.FS) (*loaded, error) {
	entries, err := fs.Glob(fsys, "bundles/"+bundlePrefix+"*.yaml")
	if err != nil {
		return nil, err
	}

	l := &loaded{
		builder: catalog.NewBuilder(catalog.Fallback(language.English)),
		keys:    make(map[string]struct{}),
	}
	for _, name := range entries {
		lang := strings.TrimSuffix(strings.TrimPrefix(path.Base(name), bundlePrefix), ".yaml")
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", name, err)
		}

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", name, err)
		}
		var msgs map[string]string
		if err := yaml.Unmarshal(b, &msgs); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", name, err)
		}

		for key, msg := range msgs {
			if err := l.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("bundle %s: key %q: %w", name, key, err)
			}
			l.keys[key] = struct{}{}
		}
		l.supported = append(l.supported, tag)
	}
	if len(l.supported) == 0 {
		return nil, fmt.Errorf("no message bundles found")
	}
	return l, nil
}

// New returns a Catalog for the closest supported match of lang, e.g. "de",
// "de-AT" or "en-US". An empty lang selects English.
func New(lang string) (*Catalog, error) {
	l, err := loadBundles()
	if err != nil {
		return nil, err
	}

	want := language.English
	if lang != "" {
		if want, err = language.Parse(lang); err != nil {
			return nil, fmt.Errorf("language %q: %w", lang, err)
		}
	}

	_, idx, conf := language.NewMatcher(l.supported).Match(want)
	tag := l.supported[idx]
	if conf == language.No {
		tag = language.English
	}

	return &Catalog{
		tag:     tag,
		keys:    l.keys,
		printer: message.NewPrinter(tag, message.Catalog(l.builder)),
	}, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := New("")
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded bundles are broken: %v", err))
	}
	return c
})

// Default returns the English catalog.
func Default() *Catalog { return defaultCatalog() }

// Language returns the language the catalog resolved to.
func (c *Catalog) Language() language.Tag { return c.tag }

// Message formats the template registered under key with arg. An unknown
// key yields "key: arg" rather than a mangled format string.
func (c *Catalog) Message(key string, arg any) string {
	if _, ok := c.keys[key]; !ok {
		return fmt.Sprintf("%s: %v", key, arg)
	}
	return c.printer.Sprintf(key, arg)
}
