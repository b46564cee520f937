// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"fmt"

	"github.com/usbarmory/memlayout/mem"
)

// Placement represents a section assigned to its region.
type Placement struct {
	// Name is the section name
	Name string
	// Kind is the section class
	Kind Kind
	// Region is the name of the hosting region
	Region string
	// Align is the effective start alignment
	Align uint64
	// NoLoad marks sections allocated without image contents
	NoLoad bool `json:",omitempty"`
	// Start is the section start address
	Start uint64
	// Size is the section size in bytes
	Size uint64
	// Needed is, for alias sections only, the real bytes accounted before
	// the floor subtraction.
	Needed uint64 `json:",omitempty"`
	// Empty marks sections degraded to no reservation, as their region is
	// not present on the hardware revision.
	Empty bool `json:",omitempty"`
}

// End returns the first address past the section.
func (p *Placement) End() uint64 {
	return p.Start + p.Size
}

// Symbol returns the base name of the section boundary symbols.
func (p *Placement) Symbol() string {
	return symbolName(p.Name)
}

type placer struct {
	m      *mem.Map
	sizes  Sizes
	next   map[string]uint64
	placed map[string]*Placement
}

func (p *placer) cursor(r mem.Region) uint64 {
	if c, ok := p.next[r.Name]; ok {
		return c
	}

	return uint64(r.Start)
}

// spansOf returns the placed spans of the named sections, sections not yet
// placed are omitted. A section followed by the next named section in the
// same region spans up to that section start, so that the alignment gap
// between them is accounted on the other bus view.
func (p *placer) spansOf(names []string) Sizes {
	spans := make(Sizes)

	for i, name := range names {
		s, ok := p.placed[name]

		if !ok {
			continue
		}

		spans[name] = s.Size

		if s.Empty || i+1 == len(names) {
			continue
		}

		if next, ok := p.placed[names[i+1]]; ok && !next.Empty && next.Region == s.Region && next.Start >= s.End() {
			spans[name] = next.Start - s.Start
		}
	}

	return spans
}

// Place assigns sections, in the given order, to their regions. Placement
// is append-only within each region: every section starts at the previous
// section end aligned up to its own alignment.
//
// Section kinds must appear in ascending order and alias sections can only
// refer to sections already placed.
func Place(m *mem.Map, sections []Section, sizes Sizes) (placements []*Placement, err error) {
	p := &placer{
		m:      m,
		sizes:  sizes,
		next:   make(map[string]uint64),
		placed: make(map[string]*Placement),
	}

	for i := range sections {
		s := &sections[i]

		if i > 0 && s.Kind < sections[i-1].Kind {
			return nil, fmt.Errorf("%w: %s (%s) after %s (%s)", ErrSectionOrder, s.Name, s.Kind, sections[i-1].Name, sections[i-1].Kind)
		}

		if _, ok := p.placed[s.Name]; ok {
			return nil, fmt.Errorf("%w: %s placed twice", ErrSectionOrder, s.Name)
		}

		pl, err := p.place(s)

		if err != nil {
			return nil, err
		}

		p.placed[s.Name] = pl
		placements = append(placements, pl)
	}

	return
}

func (p *placer) place(s *Section) (pl *Placement, err error) {
	r, ok := p.m.Region(s.Region)

	if !ok && !optional(s.Region) {
		return nil, fmt.Errorf("%w: %s targets undeclared region %s", ErrMissingRegion, s.Name, s.Region)
	}

	align := s.Align

	if align == 0 {
		align = 1
	}

	if !isPow2(align) {
		return nil, fmt.Errorf("%w: %s alignment %d is not a power of two", ErrInvalidConfig, s.Name, s.Align)
	}

	if s.Size == nil {
		return nil, fmt.Errorf("%w: %s has no size source", ErrInvalidConfig, s.Name)
	}

	alias, isAlias := s.Size.(*AliasOf)

	if isAlias {
		for _, name := range alias.Real {
			if _, ok := p.placed[name]; !ok {
				return nil, fmt.Errorf("%w: %s aliases %s which is not placed yet", ErrSectionOrder, s.Name, name)
			}
		}

		if a := alias.startAlign(p); a > align {
			align = a
		}
	}

	pl = &Placement{
		Name:   s.Name,
		Kind:   s.Kind,
		Region: r.Name,
		Align:  align,
		NoLoad: s.NoLoad,
	}

	aligned := *s
	aligned.Align = align

	if pl.Size, err = s.Size.size(p, &aligned); err != nil {
		return nil, err
	}

	if isAlias {
		pl.Needed, _, _ = alias.Resolve(p.spansOf(alias.Real))
	}

	if r.Empty() {
		if pl.Size != 0 {
			return nil, overflow(r.Name, s.Name, pl.Size, 0)
		}

		pl.Empty = true
		return
	}

	for _, attr := range []int{mem.ATTR_R, mem.ATTR_W, mem.ATTR_X} {
		if s.Attr&(1<<attr) != 0 && !r.Can(attr) {
			return nil, fmt.Errorf("%w: %s requires access not granted by %s", ErrInvalidRegion, s.Name, r)
		}
	}

	pl.Start = AlignUp(p.cursor(r), align)
	end := add(pl.Start, pl.Size)

	if end > r.End() {
		return nil, overflow(r.Name, s.Name, end-uint64(r.Start), uint64(r.Size))
	}

	if isAlias {
		p.next[r.Name] = alias.endAlign(end)
	} else {
		p.next[r.Name] = end
	}

	return
}

func optional(name string) bool {
	for _, n := range mem.Optional {
		if n == name {
			return true
		}
	}

	return false
}
