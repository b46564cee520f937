// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/usbarmory/tamago/dma"

	"github.com/usbarmory/memlayout/mem"
)

// Extent represents the [Start, End) address range of a dynamic memory area.
type Extent struct {
	Start uint64
	End   uint64
}

// Size returns the extent length in bytes.
func (e Extent) Size() uint64 {
	return e.End - e.Start
}

func (e Extent) String() string {
	return fmt.Sprintf("%#.8x-%#.8x (%s)", e.Start, e.End, humanize.IBytes(e.Size()))
}

// Partition represents the split of data RAM left after static sections.
//
// The stacks of the two cores are carved from the space between the heap
// end and the top of the region:
//
//	Heap.Start   Heap.End = Stack1.Start   Stack1.End = Stack0.Start   Stack0.End = top
//	|--- heap ---|------- core 1 stack -------|------- core 0 stack -------|
type Partition struct {
	Heap   Extent
	Stack0 Extent
	Stack1 Extent
	// Unit is the alignment unit of all extents
	Unit uint64
}

// Split partitions region r, whose static sections end at staticEnd, into
// a heap of the configured size and two stacks of equal size. The stack
// space is split in half, rounded down to the alignment unit, the remainder
// is assigned to core 0.
func Split(r mem.Region, staticEnd uint64, conf *Config) (p *Partition, err error) {
	unit := uint64(conf.StackAlign)
	heapSize := uint64(conf.HeapSize)
	top := r.End()

	if unit == 0 {
		unit = 1
	}

	if !isPow2(unit) {
		return nil, fmt.Errorf("%w: stack alignment %d is not a power of two", ErrInvalidConfig, unit)
	}

	if heapSize%unit != 0 {
		return nil, fmt.Errorf("%w: heap size %#x is not a multiple of the %d bytes stack alignment unit (set StackAlign to 1 for byte granularity)", ErrInvalidConfig, heapSize, unit)
	}

	if top%unit != 0 {
		return nil, fmt.Errorf("%w: %s top %#x is not aligned to %d bytes", ErrInvalidRegion, r.Name, top, unit)
	}

	if staticEnd < uint64(r.Start) || staticEnd > top {
		return nil, fmt.Errorf("%w: static sections end %#x outside %s", ErrRegionOverflow, staticEnd, r)
	}

	p = &Partition{
		Unit: unit,
	}

	p.Heap.Start = AlignUp(staticEnd, unit)
	p.Heap.End = add(p.Heap.Start, heapSize)

	if p.Heap.End > top {
		return nil, fmt.Errorf("%w: heap of %s in %s, required %s, region provides %s",
			ErrHeapOverflow, humanize.IBytes(heapSize), r.Name,
			humanize.IBytes(p.Heap.End-uint64(r.Start)), humanize.IBytes(uint64(r.Size)))
	}

	total := top - p.Heap.End
	half := AlignDown(total/2, unit)

	if half == 0 {
		return nil, fmt.Errorf("%w: %s left for both stacks after a %s heap in %s",
			ErrNoStackSpace, humanize.IBytes(total), humanize.IBytes(heapSize), r.Name)
	}

	if minStack := uint64(conf.MinStackSize); half < minStack {
		return nil, fmt.Errorf("%w: per-core stack of %s, required %s",
			ErrNoStackSpace, humanize.IBytes(half), humanize.IBytes(minStack))
	}

	p.Stack1 = Extent{Start: p.Heap.End, End: p.Heap.End + half}
	p.Stack0 = Extent{Start: p.Stack1.End, End: top}

	return
}

// Verify replays the partition of region r into an allocation ledger,
// reserving in sequence the static span, the heap and the two stacks, and
// checks that each reservation lands at the computed address.
//
// Verify is a self-check of the extents computed by Split, the ledger is fed
// those same extents and does not prove their disjointness independently.
func (p *Partition) Verify(r mem.Region) (err error) {
	ledger, err := dma.NewRegion(uint(r.Start), int(r.Size), false)

	if err != nil {
		return fmt.Errorf("could not create %s ledger, %v", r.Name, err)
	}

	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("%w: %s ledger, %v", ErrRegionOverflow, r.Name, e)
		}
	}()

	extents := []struct {
		name  string
		align uint64
		Extent
	}{
		{"static sections", 1, Extent{uint64(r.Start), p.Heap.Start}},
		{"heap", p.Unit, p.Heap},
		{"cpu1 stack", p.Unit, p.Stack1},
		{"cpu0 stack", p.Unit, p.Stack0},
	}

	for _, e := range extents {
		if e.Size() == 0 {
			continue
		}

		addr, _ := ledger.Reserve(int(e.Size()), int(e.align))

		if uint64(addr) != e.Start {
			return fmt.Errorf("%w: %s reserved at %#x, computed %s", ErrRegionOverflow, e.name, addr, e.Extent)
		}
	}

	return
}
