// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mem

import (
	"fmt"
	"strings"

	"github.com/usbarmory/tamago/bits"
)

// Region attribute bits
const (
	ATTR_R = 0
	ATTR_W = 1
	ATTR_X = 2
)

// Region represents a named, contiguous physical address range as seen from
// one bus.
type Region struct {
	// Name is the region identifier (e.g. RWDATA)
	Name string
	// Start is the region base address
	Start uint32
	// Size is the region length in bytes, zero for absent optional memory
	Size uint32
	// Attr holds the ATTR_R, ATTR_W, ATTR_X access bits
	Attr uint32
	// Alias is the name of the region mapping the same storage on the
	// other bus, if any.
	Alias string `json:",omitempty"`
}

// Attributes returns a region attribute word from a linker style access
// string (e.g. "RX", "RW", "RWX").
func Attributes(s string) (attr uint32, err error) {
	for _, c := range strings.ToUpper(s) {
		switch c {
		case 'R':
			bits.Set(&attr, ATTR_R)
		case 'W':
			bits.Set(&attr, ATTR_W)
		case 'X':
			bits.Set(&attr, ATTR_X)
		default:
			return 0, fmt.Errorf("invalid attribute %q", c)
		}
	}

	return
}

// Can returns whether the region carries the given attribute bit.
func (r Region) Can(attr int) bool {
	return bits.IsSet(&r.Attr, attr)
}

// Mode returns the linker style access string of the region attributes.
func (r Region) Mode() string {
	var s strings.Builder

	if r.Can(ATTR_R) {
		s.WriteByte('R')
	}

	if r.Can(ATTR_W) {
		s.WriteByte('W')
	}

	if r.Can(ATTR_X) {
		s.WriteByte('X')
	}

	return s.String()
}

// End returns the first address past the region, as a 64-bit value so that
// regions reaching the top of the 32-bit address space do not wrap.
func (r Region) End() uint64 {
	return uint64(r.Start) + uint64(r.Size)
}

// Empty returns whether the region is declared with zero length.
func (r Region) Empty() bool {
	return r.Size == 0
}

// Overlaps returns whether the two regions share at least one address.
func (r Region) Overlaps(o Region) bool {
	if r.Empty() || o.Empty() {
		return false
	}

	return uint64(r.Start) < o.End() && uint64(o.Start) < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s(%s) %#.8x-%#.8x", r.Name, r.Mode(), r.Start, r.End())
}
