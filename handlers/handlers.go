// Package handlers loads the handler mapping of a server: a properties file
// binding RPC method prefixes to handler types.
//
// Each entry is `prefix=TypeName`, for example:
//
//	test=hello.Handler
//
// exposes the methods of the type registered as hello.Handler in the Catalog
// under test.*, so Handler.Hello is called as test.hello.
package handlers

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/magiconair/properties"
)

// Catalog maps handler type names to constructors.
type Catalog map[string]func() interface{}

// Registrar is the part of a server that a Mapping is applied to.
type Registrar interface {
	Register(prefix string, receiver interface{}) error
}

// ErrEmptyPrefix is returned for entries with no prefix.
var ErrEmptyPrefix = errors.New("handler mapping has an empty prefix")

// UnknownHandlerError is returned when a mapping names a type which is not in
// the catalog.
type UnknownHandlerError struct {
	Prefix   string
	TypeName string
}

func (err UnknownHandlerError) Error() string {
	return fmt.Sprintf("unknown handler type for prefix %q: %q", err.Prefix, err.TypeName)
}

// Entry is a single prefix binding.
type Entry struct {
	Prefix   string
	TypeName string
	Receiver interface{}
}

// Mapping is a parsed handler mapping.
type Mapping struct {
	entries map[string]Entry
}

// Load reads an ISO-8859-1 encoded properties file.
func Load(path string, catalog Catalog) (*Mapping, error) {
	p, err := properties.LoadFile(path, properties.ISO_8859_1)
	if err != nil {
		return nil, err
	}
	logger.Printf("loaded %d handler entries from %s", p.Len(), path)
	return fromProperties(p, catalog)
}

// Parse reads an ISO-8859-1 encoded properties document.
func Parse(data []byte, catalog Catalog) (*Mapping, error) {
	p, err := properties.Load(data, properties.ISO_8859_1)
	if err != nil {
		return nil, err
	}
	return fromProperties(p, catalog)
}

func fromProperties(p *properties.Properties, catalog Catalog) (*Mapping, error) {
	m := &Mapping{entries: map[string]Entry{}}
	for _, key := range p.Keys() {
		prefix := strings.TrimSuffix(strings.TrimSpace(key), ".")
		if prefix == "" {
			return nil, ErrEmptyPrefix
		}
		typeName := strings.TrimSpace(p.GetString(key, ""))
		newHandler, ok := catalog[typeName]
		if !ok {
			return nil, UnknownHandlerError{Prefix: prefix, TypeName: typeName}
		}
		m.entries[prefix] = Entry{
			Prefix:   prefix,
			TypeName: typeName,
			Receiver: newHandler(),
		}
	}
	return m, nil
}

// Prefixes returns the mapped prefixes in sorted order.
func (m *Mapping) Prefixes() []string {
	prefixes := make([]string, 0, len(m.entries))
	for prefix := range m.entries {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// Entry returns the binding of a prefix.
func (m *Mapping) Entry(prefix string) (Entry, bool) {
	e, ok := m.entries[prefix]
	return e, ok
}

// Apply registers every handler under its prefix followed by a dot.
func (m *Mapping) Apply(r Registrar) error {
	for _, prefix := range m.Prefixes() {
		e := m.entries[prefix]
		if err := r.Register(prefix+".", e.Receiver); err != nil {
			return fmt.Errorf("failed to register %s for prefix %q: %w", e.TypeName, prefix, err)
		}
		logger.Printf("registered %s as %s.*", e.TypeName, prefix)
	}
	return nil
}
