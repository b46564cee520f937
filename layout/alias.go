// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"fmt"
)

// Padding returns the bytes an alias section must reserve to account for
// needed bytes on the other bus, given the floor already mapped by hardware
// without explicit reservation:
//
//	max(needed, floor) - floor
//
// The result is never negative, it is zero whenever needed <= floor.
func Padding(needed uint64, floor uint64) uint64 {
	if needed <= floor {
		return 0
	}

	return needed - floor
}

// AliasOf sizes a placeholder section, within one bus view, after real
// sections placed on the other bus view of the same storage.
type AliasOf struct {
	// Real lists the aliased sections, the first one sets the placeholder
	// start alignment.
	Real []string
	// Reserved is added to the real section sizes (e.g. cache or vector
	// table reservations).
	Reserved uint64
	// Floor is the amount already mapped on this bus view.
	Floor uint64
	// EndAlign is the alignment applied after the placeholder (at least
	// word aligned).
	EndAlign uint64
	// EndOffset is added after EndAlign alignment.
	EndOffset uint64
}

// Resolve returns the bytes needed by the real sections and the resulting
// padding, sizes must hold every real section. When placing, each real
// section is sized by its span up to the next one, alignment gap included.
func (a *AliasOf) Resolve(sizes Sizes) (needed uint64, padding uint64, err error) {
	needed = a.Reserved

	for _, name := range a.Real {
		size, ok := sizes[name]

		if !ok {
			return 0, 0, fmt.Errorf("%w: alias of %s before its placement", ErrSectionOrder, name)
		}

		needed = add(needed, size)
	}

	return needed, Padding(needed, a.Floor), nil
}

func (a *AliasOf) size(p *placer, s *Section) (size uint64, err error) {
	_, size, err = a.Resolve(p.spansOf(a.Real))
	return
}

// startAlign returns the alignment of the first real section.
func (a *AliasOf) startAlign(p *placer) uint64 {
	if len(a.Real) == 0 {
		return 1
	}

	if r, ok := p.placed[a.Real[0]]; ok {
		return r.Align
	}

	return 1
}

// endAlign returns the cursor after a placeholder ending at end.
func (a *AliasOf) endAlign(end uint64) uint64 {
	align := a.EndAlign

	if align < minAlign {
		align = minAlign
	}

	return add(AlignUp(end, align), a.EndOffset)
}
