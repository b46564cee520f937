// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package startup declares the symbols the firmware startup sequence binds
// to: the reset entry point, the pre-initialization, BSS zeroing and data
// initialization hooks, and the default exception handler.
//
// Every hook has a weakly bound default. An application may override a hook
// exactly once, by name, before the hook is first resolved. A resolved hook
// never changes again.
package startup

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Kind represents the role of a hook in the startup sequence, the zero
// value carries no role.
type Kind int

const (
	// Entry is the reset entry point.
	Entry Kind = iota + 1
	// PreInit runs before static data initialization.
	PreInit
	// MemInit initializes a memory section (BSS zeroing, data copy).
	MemInit
	// Handler is an exception or interrupt handler.
	Handler
)

func (k Kind) String() string {
	switch k {
	case Entry:
		return "entry"
	case PreInit:
		return "pre-init"
	case MemInit:
		return "mem-init"
	case Handler:
		return "handler"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Hook errors
var (
	ErrUnknownHook = errors.New("unknown hook")
	ErrDuplicate   = errors.New("duplicate hook")
	ErrOverridden  = errors.New("hook already overridden")
	ErrResolved    = errors.New("hook already resolved")
)

// Hook represents a startup symbol with its weakly bound default.
type Hook struct {
	// Name is the symbol the startup sequence refers to
	Name string
	// Default is the symbol bound when no override is present
	Default string
	// Kind is the hook role
	Kind Kind
	// Help is a short description
	Help string
}

// Binding represents the resolution of a hook.
type Binding struct {
	Hook

	// Symbol is the bound implementation
	Symbol string
	// Overridden is true when Symbol is an application definition
	Overridden bool
}

type entry struct {
	Hook

	order    int
	override string
	resolved bool
}

var defaults []Hook

// Add installs a default hook, hooks added at init time are part of every
// Table returned by New.
func Add(h Hook) {
	defaults = append(defaults, h)
}

// Table represents a hook symbol resolution table.
type Table struct {
	sync.Mutex

	hooks map[string]*entry
}

// New returns a table holding all default hooks.
func New() *Table {
	t := &Table{}

	for _, h := range defaults {
		if err := t.Add(h); err != nil {
			panic(err)
		}
	}

	return t
}

// Add installs a default hook in the table.
func (t *Table) Add(h Hook) error {
	t.Lock()
	defer t.Unlock()

	if t.hooks == nil {
		t.hooks = make(map[string]*entry)
	}

	if h.Name == "" || h.Default == "" {
		return fmt.Errorf("invalid hook %q (default %q)", h.Name, h.Default)
	}

	if _, ok := t.hooks[h.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, h.Name)
	}

	t.hooks[h.Name] = &entry{
		Hook:  h,
		order: len(t.hooks),
	}

	return nil
}

// Override binds a hook to an application symbol. A hook can be overridden
// only once and only before being resolved.
func (t *Table) Override(name string, symbol string) error {
	t.Lock()
	defer t.Unlock()

	e, ok := t.hooks[name]

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}

	if symbol == "" {
		return fmt.Errorf("invalid %s override", name)
	}

	switch {
	case e.resolved:
		return fmt.Errorf("%w: %s bound to %s", ErrResolved, name, e.symbol())
	case e.override != "":
		return fmt.Errorf("%w: %s bound to %s", ErrOverridden, name, e.override)
	}

	e.override = symbol

	return nil
}

func (e *entry) symbol() string {
	if e.override != "" {
		return e.override
	}

	return e.Default
}

func (e *entry) binding() Binding {
	return Binding{
		Hook:       e.Hook,
		Symbol:     e.symbol(),
		Overridden: e.override != "",
	}
}

// Resolve returns the binding of a hook, the override when present or the
// default otherwise, and freezes it.
func (t *Table) Resolve(name string) (b Binding, err error) {
	t.Lock()
	defer t.Unlock()

	e, ok := t.hooks[name]

	if !ok {
		return b, fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}

	e.resolved = true

	return e.binding(), nil
}

// Hooks resolves and returns all hooks in installation order.
func (t *Table) Hooks() (bindings []Binding) {
	t.Lock()
	defer t.Unlock()

	entries := make([]*entry, 0, len(t.hooks))

	for _, e := range t.hooks {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})

	for _, e := range entries {
		e.resolved = true
		bindings = append(bindings, e.binding())
	}

	return
}

// Entry returns the binding of the reset entry point.
func (t *Table) Entry() (b Binding, err error) {
	t.Lock()

	var name string

	for _, e := range t.hooks {
		if e.Kind == Entry && (name == "" || e.order < t.hooks[name].order) {
			name = e.Name
		}
	}

	t.Unlock()

	if name == "" {
		return b, fmt.Errorf("%w: no entry point", ErrUnknownHook)
	}

	return t.Resolve(name)
}

// OverridesFromSymbols overrides every hook which has a strong definition in
// the given set of global symbols, hooks already overridden are left
// untouched. It returns the names of the overridden hooks.
func (t *Table) OverridesFromSymbols(strong map[string]bool) (names []string, err error) {
	t.Lock()

	var pending []string

	for name, e := range t.hooks {
		if strong[name] && e.override == "" && !e.resolved {
			pending = append(pending, name)
		}
	}

	t.Unlock()

	sort.Strings(pending)

	for _, name := range pending {
		if err = t.Override(name, name); err != nil {
			return
		}

		names = append(names, name)
	}

	return
}
