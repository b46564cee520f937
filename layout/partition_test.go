// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"errors"
	"strings"
	"testing"

	"github.com/usbarmory/memlayout/mem"
)

var dram = mem.Region{
	Name:  mem.RWDATA,
	Start: mem.RWDataStart,
	Size:  mem.RWDataSize,
	Attr:  mem.RW,
}

func TestSplit(t *testing.T) {
	conf := DefaultConfig()
	conf.HeapSize = 64 * KiB

	p, err := Split(dram, mem.RWDataStart, conf)

	if err != nil {
		t.Fatal(err)
	}

	var tests = []struct {
		name string
		got  Extent
		want Extent
	}{
		{"heap", p.Heap, Extent{0x3fc88000, 0x3fc98000}},
		{"stack1", p.Stack1, Extent{0x3fc98000, 0x3fcc4000}},
		{"stack0", p.Stack0, Extent{0x3fcc4000, 0x3fcf0000}},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, tt.got, tt.want)
		}
	}

	if p.Stack0.Size() != p.Stack1.Size() {
		t.Errorf("asymmetric stacks %s %s", p.Stack0, p.Stack1)
	}

	if err = p.Verify(dram); err != nil {
		t.Errorf("verify, %v", err)
	}
}

func TestSplitHeapOverflow(t *testing.T) {
	conf := DefaultConfig()
	conf.HeapSize = 480 * KiB

	if _, err := Split(dram, mem.RWDataStart, conf); !errors.Is(err, ErrHeapOverflow) {
		t.Errorf("expected heap overflow, got %v", err)
	}

	// statics push an otherwise fitting heap past the top
	conf.HeapSize = 400 * KiB

	if _, err := Split(dram, mem.RWDataStart+32*KiB, conf); !errors.Is(err, ErrHeapOverflow) {
		t.Errorf("expected heap overflow, got %v", err)
	}
}

func TestSplitNoStackSpace(t *testing.T) {
	conf := DefaultConfig()
	conf.HeapSize = mem.RWDataSize

	if _, err := Split(dram, mem.RWDataStart, conf); !errors.Is(err, ErrNoStackSpace) {
		t.Errorf("expected no stack space, got %v", err)
	}

	// one unit cannot be split in two
	conf.HeapSize = mem.RWDataSize - 16

	if _, err := Split(dram, mem.RWDataStart, conf); !errors.Is(err, ErrNoStackSpace) {
		t.Errorf("expected no stack space, got %v", err)
	}

	conf.HeapSize = 64 * KiB
	conf.MinStackSize = 256 * KiB

	if _, err := Split(dram, mem.RWDataStart, conf); !errors.Is(err, ErrNoStackSpace) {
		t.Errorf("expected no stack space below minimum, got %v", err)
	}
}

func TestSplitInvalid(t *testing.T) {
	conf := DefaultConfig()
	conf.HeapSize = 100

	_, err := Split(dram, mem.RWDataStart, conf)

	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected invalid config for unaligned heap, got %v", err)
	} else if !strings.Contains(err.Error(), "16 bytes stack alignment unit") || !strings.Contains(err.Error(), "StackAlign to 1") {
		t.Errorf("unit not reported, got %v", err)
	}

	// byte granularity accepts any heap size
	conf.StackAlign = 1

	if p, err := Split(dram, mem.RWDataStart, conf); err != nil || p.Heap.Size() != 100 {
		t.Errorf("unexpected byte granularity split %+v, %v", p, err)
	}

	conf = DefaultConfig()
	conf.StackAlign = 24

	if _, err := Split(dram, mem.RWDataStart, conf); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected invalid config for alignment, got %v", err)
	}

	r := dram
	r.Size -= 4

	if _, err := Split(r, mem.RWDataStart, DefaultConfig()); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("expected invalid region for unaligned top, got %v", err)
	}

	if _, err := Split(dram, mem.RWDataStart-4, DefaultConfig()); !errors.Is(err, ErrRegionOverflow) {
		t.Errorf("expected overflow for statics outside region, got %v", err)
	}
}

func TestSplitSymmetric(t *testing.T) {
	for _, unit := range []uint32{1, 4, 16, 64} {
		for static := uint64(0); static < 0x800; static += 0x1b {
			conf := DefaultConfig()
			conf.StackAlign = unit
			conf.HeapSize = 0x1000

			p, err := Split(dram, mem.RWDataStart+static, conf)

			if err != nil {
				t.Fatalf("unit %d static %#x: %v", unit, static, err)
			}

			s0, s1 := p.Stack0.Size(), p.Stack1.Size()

			if s0 < s1 || s0-s1 > 2*uint64(unit) {
				t.Errorf("unit %d static %#x: stack0 %#x stack1 %#x", unit, static, s0, s1)
			}

			if p.Heap.Start%uint64(unit) != 0 || p.Stack1.Start%uint64(unit) != 0 || p.Stack0.Start%uint64(unit) != 0 {
				t.Errorf("unit %d static %#x: unaligned extents %+v", unit, static, p)
			}

			if p.Heap.End != p.Stack1.Start || p.Stack1.End != p.Stack0.Start || p.Stack0.End != dram.End() {
				t.Errorf("unit %d static %#x: extents not contiguous %+v", unit, static, p)
			}

			if p.Heap.Size() != 0x1000 {
				t.Errorf("unit %d static %#x: heap size %#x", unit, static, p.Heap.Size())
			}
		}
	}
}

func TestSplitOddRemainder(t *testing.T) {
	r := mem.Region{Name: mem.RWDATA, Start: 0x1000, Size: 0x101, Attr: mem.RW}

	conf := DefaultConfig()
	conf.StackAlign = 1
	conf.HeapSize = 0

	p, err := Split(r, 0x1000, conf)

	if err != nil {
		t.Fatal(err)
	}

	if p.Stack1.Size() != 0x80 || p.Stack0.Size() != 0x81 {
		t.Errorf("got stack1 %#x stack0 %#x", p.Stack1.Size(), p.Stack0.Size())
	}
}

func TestPartitionVerify(t *testing.T) {
	p := &Partition{
		Unit:   16,
		Heap:   Extent{0x3fc88000, 0x3fc98000},
		Stack1: Extent{0x3fc98000, 0x3fcc4000},
		Stack0: Extent{0x3fcc4000, 0x3fcf0000},
	}

	if err := p.Verify(dram); err != nil {
		t.Fatal(err)
	}

	// overlapping stacks
	p.Stack0.Start -= 0x100

	if err := p.Verify(dram); err == nil {
		t.Error("overlapping extents not detected")
	}

	// past the region top
	p.Stack0 = Extent{0x3fcc4000, 0x3fcf0100}

	if err := p.Verify(dram); err == nil {
		t.Error("out of bounds extent not detected")
	}
}
