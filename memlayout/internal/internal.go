// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package internal holds the inputs shared by all memlayout commands and
// computes layouts from them.
package internal

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/usbarmory/memlayout/layout"
	"github.com/usbarmory/memlayout/mem"
	"github.com/usbarmory/memlayout/startup"
	"github.com/usbarmory/memlayout/util"
)

// Custom is the revision identifier of region maps loaded without one.
const Custom = "custom"

// Inputs represents the build inputs of a layout.
type Inputs struct {
	sync.RWMutex

	// Config is the numeric layout configuration
	Config *layout.Config
	// Sizes holds measured section sizes
	Sizes layout.Sizes
	// Strong holds the global symbols defined by the application
	Strong map[string]bool
	// Overrides holds explicit hook overrides, as name=symbol
	Overrides []string
}

// Default is the process wide set of inputs, filled by flags before any
// command runs.
var Default = &Inputs{
	Config: layout.DefaultConfig(),
	Sizes:  make(layout.Sizes),
}

// LoadConfig reads a JSON layout configuration.
func (in *Inputs) LoadConfig(path string) (err error) {
	f, err := os.Open(path)

	if err != nil {
		return
	}
	defer f.Close()

	conf, err := layout.LoadConfig(f)

	if err != nil {
		return errors.Wrapf(err, "configuration %s", path)
	}

	in.Lock()
	in.Config = conf
	in.Unlock()

	log.Printf("loaded configuration %s: %+v", path, *conf)

	return
}

// LoadSizes reads JSON section sizes, in the form {".data": 1024}, entries
// override previously loaded sizes.
func (in *Inputs) LoadSizes(path string) (err error) {
	buf, err := os.ReadFile(path)

	if err != nil {
		return
	}

	sizes := make(layout.Sizes)

	if err = json.Unmarshal(buf, &sizes); err != nil {
		return errors.Wrapf(err, "section sizes %s", path)
	}

	in.merge(sizes)

	log.Printf("loaded %d section sizes from %s", len(sizes), path)

	return
}

// LoadELF reads section sizes and strong symbols from an application ELF
// image.
func (in *Inputs) LoadELF(path string) (err error) {
	buf, err := os.ReadFile(path)

	if err != nil {
		return
	}

	sizes, err := util.SectionSizes(buf)

	if err != nil {
		return errors.Wrapf(err, "ELF %s", path)
	}

	strong, err := util.StrongSymbols(buf)

	if err != nil {
		return errors.Wrapf(err, "ELF %s symbols", path)
	}

	in.merge(sizes)

	in.Lock()
	in.Strong = strong
	in.Unlock()

	log.Printf("loaded %d section sizes and %d global symbols from %s", len(sizes), len(strong), path)

	return
}

func (in *Inputs) merge(sizes map[string]uint64) {
	in.Lock()
	defer in.Unlock()

	if in.Sizes == nil {
		in.Sizes = make(layout.Sizes)
	}

	for name, size := range sizes {
		in.Sizes[name] = size
	}
}

// WithSizes returns a copy of the inputs with the given section sizes
// replacing the loaded ones.
func (in *Inputs) WithSizes(sizes map[string]uint64) *Inputs {
	in.RLock()
	defer in.RUnlock()

	c := &Inputs{
		Config:    in.Config,
		Strong:    in.Strong,
		Overrides: in.Overrides,
	}

	c.merge(sizes)

	return c
}

// LoadRegions reads a JSON region map and registers it, under the Custom
// identifier when the map does not name its revision. It returns the
// registered revision.
func LoadRegions(path string) (rev string, err error) {
	f, err := os.Open(path)

	if err != nil {
		return
	}
	defer f.Close()

	m, err := mem.LoadMap(f)

	if err != nil {
		return "", errors.Wrapf(err, "region map %s", path)
	}

	if rev = m.Revision; rev == "" {
		rev = Custom
	}

	if err = mem.Register(rev, m.Regions); err != nil {
		return "", errors.Wrapf(err, "region map %s", path)
	}

	log.Printf("registered revision %s from %s", rev, path)

	return
}

// AddHook records an explicit hook override in the form name=symbol.
func (in *Inputs) AddHook(s string) error {
	name, symbol, ok := strings.Cut(s, "=")

	if !ok || name == "" || symbol == "" {
		return fmt.Errorf("invalid hook override %q, expected name=symbol", s)
	}

	in.Lock()
	in.Overrides = append(in.Overrides, s)
	in.Unlock()

	return nil
}

// Hooks returns the startup hook table, with explicit overrides applied
// first and strong application symbols next.
func (in *Inputs) Hooks() (t *startup.Table, err error) {
	in.RLock()
	defer in.RUnlock()

	t = startup.New()

	for _, s := range in.Overrides {
		name, symbol, _ := strings.Cut(s, "=")

		if err = t.Override(name, symbol); err != nil {
			return nil, errors.Wrapf(err, "hook override %s", s)
		}
	}

	names, err := t.OverridesFromSymbols(in.Strong)

	if err != nil {
		return nil, errors.Wrap(err, "application symbols")
	}

	for _, name := range names {
		log.Printf("hook %s defined by application", name)
	}

	return
}

// Compute resolves the layout of a revision and its startup hooks.
func (in *Inputs) Compute(rev string) (l *layout.Layout, hooks []startup.Binding, err error) {
	m, err := mem.Lookup(rev)

	if err != nil {
		return
	}

	in.RLock()
	conf := *in.Config
	sizes := make(layout.Sizes, len(in.Sizes))

	for name, size := range in.Sizes {
		sizes[name] = size
	}
	in.RUnlock()

	if l, err = layout.Compute(m, sizes, &conf); err != nil {
		return nil, nil, errors.Wrapf(err, "revision %s", rev)
	}

	t, err := in.Hooks()

	if err != nil {
		return nil, nil, err
	}

	hooks = t.Hooks()

	log.Printf("computed revision %s, heap %s, stacks %s %s", rev, l.Partition.Heap, l.Partition.Stack0, l.Partition.Stack1)

	return
}
