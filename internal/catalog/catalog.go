// Package catalog holds named, ready-made layouts for common binary
// headers so the CLI and the HTTP server can refer to them by name.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samcharles93/plum/pkg/plum"
)

var (
	ErrUnknownLayout   = errors.New("unknown layout")
	ErrDuplicateLayout = errors.New("duplicate layout")
)

// Layout is a registered type with a short description.
type Layout struct {
	Name        string
	Description string
	Type        plum.Type
}

// Size reports the fixed byte size of the layout, if it has one.
func (l Layout) Size() (int, bool) { return plum.CalcSize(l.Type) }

// Catalog is a set of layouts keyed by name. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	layouts map[string]Layout
}

func New(layouts ...Layout) (*Catalog, error) {
	c := &Catalog{layouts: make(map[string]Layout, len(layouts))}
	for _, l := range layouts {
		if err := c.Register(l); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Builtin returns a fresh catalog holding the bundled layouts.
func Builtin() *Catalog {
	c, err := New(builtins()...)
	if err != nil {
		panic(err)
	}
	return c
}

func builtins() []Layout {
	var all []Layout
	all = append(all, mcfLayouts()...)
	all = append(all, ggufLayouts()...)
	all = append(all, safetensorsLayouts()...)
	all = append(all, mediaLayouts()...)
	return all
}

func (c *Catalog) Register(l Layout) error {
	name := strings.TrimSpace(l.Name)
	if name == "" || l.Type == nil {
		return fmt.Errorf("catalog: layout needs a name and a type")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.layouts[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLayout, name)
	}
	l.Name = name
	c.layouts[name] = l
	return nil
}

func (c *Catalog) Lookup(name string) (Layout, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return l, nil
}

// All returns the layouts sorted by name.
func (c *Catalog) All() []Layout {
	c.mu.RLock()
	out := make([]Layout, 0, len(c.layouts))
	for _, l := range c.layouts {
		out = append(out, l)
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b Layout) int { return strings.Compare(a.Name, b.Name) })
	return out
}
