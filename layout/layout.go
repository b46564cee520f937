// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package layout computes the physical memory layout of a dual-core firmware
// image.
//
// Sections are placed into the regions of a hardware revision in a fixed
// order (text, rodata, rwtext, rwdata, rtc_fast, rtc_slow, external), alias
// placeholders keep the instruction and data bus views of shared memories
// consistent, and the RWDATA space left after static sections is split into
// a heap and one stack per core.
//
// Every inconsistency is returned as an error at build time, layouts are
// never clamped to fit.
package layout

import (
	"fmt"

	"github.com/usbarmory/memlayout/mem"
)

// Symbol represents a named address emitted for the link step and the
// startup code.
type Symbol struct {
	Name  string
	Value uint64
}

// Layout represents a resolved memory layout.
type Layout struct {
	// Revision is the hardware revision identifier
	Revision string
	// Config is the configuration the layout was computed with
	Config Config
	// Regions is the region map of the hardware revision
	Regions []mem.Region
	// Sections lists placed sections in placement order
	Sections []*Placement
	// Partition holds the heap and stacks
	Partition *Partition
}

// Compute resolves the layout of the default section list.
func Compute(m *mem.Map, sizes Sizes, conf *Config) (*Layout, error) {
	if conf == nil {
		conf = DefaultConfig()
	}

	return ComputeSections(m, Sections(conf), sizes, conf)
}

// ComputeSections resolves the layout of an arbitrary section list, heap and
// stacks are partitioned from the RWDATA space following its last static
// section.
func ComputeSections(m *mem.Map, sections []Section, sizes Sizes, conf *Config) (l *Layout, err error) {
	if conf == nil {
		conf = DefaultConfig()
	}

	if err = conf.Validate(); err != nil {
		return
	}

	if err = m.Validate(); err != nil {
		return
	}

	placements, err := Place(m, sections, sizes)

	if err != nil {
		return
	}

	l = &Layout{
		Revision: m.Revision,
		Config:   *conf,
		Regions:  append([]mem.Region(nil), m.Regions...),
		Sections: placements,
	}

	dram, _ := m.Region(mem.RWDATA)
	staticEnd := uint64(dram.Start)

	for _, s := range placements {
		if s.Region != mem.RWDATA || s.Empty {
			continue
		}

		if s.Name == Dynamic {
			staticEnd = s.Start
			break
		}

		staticEnd = s.End()
	}

	if l.Partition, err = Split(dram, staticEnd, conf); err != nil {
		return nil, err
	}

	if err = l.Partition.Verify(dram); err != nil {
		return nil, err
	}

	return
}

// Section returns the named section placement.
func (l *Layout) Section(name string) (*Placement, bool) {
	for _, s := range l.Sections {
		if s.Name == name {
			return s, true
		}
	}

	return nil, false
}

// Region returns the named region.
func (l *Layout) Region(name string) (mem.Region, bool) {
	m := mem.Map{Revision: l.Revision, Regions: l.Regions}
	return m.Region(name)
}

// Symbols returns the named addresses of the layout, section boundaries
// first (in placement order) followed by heap and stacks. Sections degraded
// to empty have both boundaries set to zero.
//
// Stack symbols follow the extents: _stack_start_cpuN is the lowest address
// and _stack_end_cpuN the initial stack pointer.
func (l *Layout) Symbols() (syms []Symbol) {
	for _, s := range l.Sections {
		syms = append(syms,
			Symbol{fmt.Sprintf("_%s_start", s.Symbol()), s.Start},
			Symbol{fmt.Sprintf("_%s_end", s.Symbol()), s.End()},
		)
	}

	if p := l.Partition; p != nil {
		syms = append(syms,
			Symbol{"_heap_start", p.Heap.Start},
			Symbol{"_heap_end", p.Heap.End},
			Symbol{"_stack_start_cpu1", p.Stack1.Start},
			Symbol{"_stack_end_cpu1", p.Stack1.End},
			Symbol{"_stack_start_cpu0", p.Stack0.Start},
			Symbol{"_stack_end_cpu0", p.Stack0.End},
		)
	}

	return
}

// Symbol returns the value of a named address.
func (l *Layout) Symbol(name string) (uint64, bool) {
	for _, s := range l.Symbols() {
		if s.Name == name {
			return s.Value, true
		}
	}

	return 0, false
}
