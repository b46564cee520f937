// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"fmt"
	"strings"
)

// Kind represents the semantic class of a section, kinds are placed in
// ascending order.
type Kind int

const (
	KindText Kind = iota
	KindRoData
	KindRwText
	KindRwData
	KindRtcFast
	KindRtcSlow
	KindExternal
)

var kindNames = []string{
	KindText:     "text",
	KindRoData:   "rodata",
	KindRwText:   "rwtext",
	KindRwData:   "rwdata",
	KindRtcFast:  "rtc_fast",
	KindRtcSlow:  "rtc_slow",
	KindExternal: "external",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}

	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Sizes maps section names to their measured size in bytes.
type Sizes map[string]uint64

// SizeSource determines the size of a section at placement time.
type SizeSource interface {
	size(p *placer, s *Section) (uint64, error)
}

// Fixed is a section size known before placement.
type Fixed uint64

func (f Fixed) size(_ *placer, _ *Section) (uint64, error) {
	return uint64(f), nil
}

// Measured is a section size taken from the measured object sizes, absent
// entries are empty.
type Measured struct{}

func (Measured) size(p *placer, s *Section) (uint64, error) {
	return p.sizes[s.Name], nil
}

type remaining struct{}

func (remaining) size(p *placer, s *Section) (uint64, error) {
	r, _ := p.m.Region(s.Region)
	start := AlignUp(p.cursor(r), s.Align)

	if start >= r.End() {
		return 0, nil
	}

	return r.End() - start, nil
}

// Remaining sizes a section to all space left in its region.
func Remaining() SizeSource {
	return remaining{}
}

// Section represents a named allocation of bytes in a region.
type Section struct {
	// Name is the output section name (e.g. .rwtext)
	Name string
	// Kind is the section class
	Kind Kind
	// Region is the name of the target region
	Region string
	// Align is the section start alignment (power of two)
	Align uint64
	// Size determines the section size
	Size SizeSource
	// Attr holds the region attributes required by the section
	Attr uint32
	// NoLoad marks sections allocated without image contents
	NoLoad bool
}

// Symbol returns the base name of the section boundary symbols (e.g.
// .rtc_fast.text is rtc_fast_text).
func (s *Section) Symbol() string {
	return symbolName(s.Name)
}

func symbolName(name string) string {
	return strings.Trim(strings.NewReplacer(".", "_", "-", "_").Replace(name), "_")
}
