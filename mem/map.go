// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mem

import (
	"errors"
	"fmt"

	"github.com/google/btree"
)

var (
	ErrMissingRegion = errors.New("missing region")
	ErrRegionOverlap = errors.New("overlapping regions")
	ErrInvalidRegion = errors.New("invalid region")
)

// Mandatory regions must be declared with non-zero size by every hardware
// revision.
var Mandatory = []string{IROM, DROM, RWTEXT, RWDATA}

// Optional regions may be absent or declared with zero size, sections
// targeting them then degrade to empty.
var Optional = []string{RTCFastRWTEXT, RTCFastRWDATA, RTCSlow, External}

// Map represents the set of regions of a hardware revision.
type Map struct {
	// Revision is the hardware revision identifier
	Revision string
	// Regions is the list of declared regions
	Regions []Region
}

// Region returns the named region, an absent region is returned as an empty
// one.
func (m *Map) Region(name string) (r Region, ok bool) {
	for _, r = range m.Regions {
		if r.Name == name {
			return r, true
		}
	}

	return Region{Name: name}, false
}

// byAddress orders regions in the btree by start address.
type byAddress Region

func (a byAddress) Less(than btree.Item) bool {
	b := than.(byAddress)

	if a.Start != b.Start {
		return a.Start < b.Start
	}

	return a.Name < b.Name
}

// Validate checks that all mandatory regions are declared and that no two
// regions overlap, unless they are declared as aliases of each other.
func (m *Map) Validate() (err error) {
	names := make(map[string]Region)
	tree := btree.New(2)

	for _, r := range m.Regions {
		if _, ok := names[r.Name]; ok {
			return fmt.Errorf("%w: %s declared twice", ErrInvalidRegion, r.Name)
		}

		if r.End() > 1<<32 {
			return fmt.Errorf("%w: %s wraps the address space (%#x + %#x)", ErrInvalidRegion, r.Name, r.Start, r.Size)
		}

		if !r.Empty() && !r.Can(ATTR_R) {
			return fmt.Errorf("%w: %s is not readable (%s)", ErrInvalidRegion, r.Name, r.Mode())
		}

		names[r.Name] = r

		if !r.Empty() {
			tree.ReplaceOrInsert(byAddress(r))
		}
	}

	for _, name := range Mandatory {
		r, ok := names[name]

		if !ok {
			return fmt.Errorf("%w: revision %s does not declare %s", ErrMissingRegion, m.Revision, name)
		}

		if r.Empty() {
			return fmt.Errorf("%w: revision %s declares %s with zero length", ErrMissingRegion, m.Revision, name)
		}
	}

	for _, r := range m.Regions {
		if r.Alias == "" {
			continue
		}

		a, ok := names[r.Alias]

		if !ok || a.Alias != r.Name {
			return fmt.Errorf("%w: %s alias %s is not reciprocal", ErrInvalidRegion, r.Name, r.Alias)
		}
	}

	var active []Region

	tree.Ascend(func(i btree.Item) bool {
		r := Region(i.(byAddress))
		n := active[:0]

		for _, prev := range active {
			if prev.End() <= uint64(r.Start) {
				continue
			}

			if prev.Alias != r.Name {
				err = fmt.Errorf("%w: %s and %s", ErrRegionOverlap, prev, r)
				return false
			}

			n = append(n, prev)
		}

		active = append(n, r)

		return true
	})

	return
}
