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

func testMap(t *testing.T, rev string) *mem.Map {
	t.Helper()

	m, err := mem.Lookup(rev)

	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestPlacementOrder(t *testing.T) {
	m := testMap(t, "v1")

	for _, align := range []uint64{1, 2, 4, 8, 16, 64, 0x400} {
		sections := []Section{
			{Name: "A", Region: mem.RWDATA, Align: align, Size: Fixed(3), Attr: mem.RW},
			{Name: "B", Region: mem.RWDATA, Align: align, Size: Fixed(17), Attr: mem.RW},
			{Name: "C", Region: mem.RWDATA, Align: align, Size: Measured{}, Attr: mem.RW},
		}

		p, err := Place(m, sections, Sizes{"C": 5})

		if err != nil {
			t.Fatalf("align %d: %v", align, err)
		}

		a, b, c := p[0], p[1], p[2]

		if a.Start != AlignUp(mem.RWDataStart, align) {
			t.Errorf("align %d: A at %#x", align, a.Start)
		}

		if b.Start != AlignUp(a.Start+a.Size, align) {
			t.Errorf("align %d: B at %#x, A ends at %#x", align, b.Start, a.End())
		}

		if c.Start != AlignUp(b.Start+b.Size, align) || c.Size != 5 {
			t.Errorf("align %d: C at %#x size %d, B ends at %#x", align, c.Start, c.Size, b.End())
		}
	}
}

func TestPlacementRegionsIndependent(t *testing.T) {
	m := testMap(t, "v1")

	sections := []Section{
		{Name: ".text", Kind: KindText, Region: mem.IROM, Align: 4, Size: Fixed(0x100), Attr: mem.RX},
		{Name: ".rodata", Kind: KindRoData, Region: mem.DROM, Align: 4, Size: Fixed(0x10), Attr: mem.R},
		{Name: ".data", Kind: KindRwData, Region: mem.RWDATA, Align: 4, Size: Fixed(0x10), Attr: mem.RW},
	}

	p, err := Place(m, sections, nil)

	if err != nil {
		t.Fatal(err)
	}

	if p[0].Start != mem.IROMStart || p[1].Start != mem.DROMStart || p[2].Start != mem.RWDataStart {
		t.Errorf("unexpected starts %#x %#x %#x", p[0].Start, p[1].Start, p[2].Start)
	}
}

func TestPlacementOverflow(t *testing.T) {
	m := &mem.Map{
		Revision: "small",
		Regions: []mem.Region{
			{Name: mem.IROM, Start: 0x42000000, Size: 0x1000, Attr: mem.RX},
			{Name: mem.DROM, Start: 0x3c000000, Size: 0x1000, Attr: mem.R},
			{Name: mem.RWTEXT, Start: 0x40370000, Size: 0x1000, Attr: mem.RX},
			{Name: mem.RWDATA, Start: 0x3fc88000, Size: 32 * KiB, Attr: mem.RW},
		},
	}

	sections := []Section{
		{Name: ".data", Kind: KindRwData, Region: mem.RWDATA, Align: 4, Size: Measured{}, Attr: mem.RW},
	}

	_, err := Place(m, sections, Sizes{".data": 40 * KiB})

	if !errors.Is(err, ErrRegionOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}

	for _, s := range []string{"RWDATA", ".data", "required 40 KiB", "region provides 32 KiB"} {
		if !strings.Contains(err.Error(), s) {
			t.Errorf("diagnostic %q does not mention %q", err, s)
		}
	}

	// exact fit
	if _, err = Place(m, sections, Sizes{".data": 32 * KiB}); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestPlacementSectionOrder(t *testing.T) {
	m := testMap(t, "v1")

	sections := []Section{
		{Name: ".data", Kind: KindRwData, Region: mem.RWDATA, Align: 4, Size: Fixed(4), Attr: mem.RW},
		{Name: ".text", Kind: KindText, Region: mem.IROM, Align: 4, Size: Fixed(4), Attr: mem.RX},
	}

	if _, err := Place(m, sections, nil); !errors.Is(err, ErrSectionOrder) {
		t.Errorf("expected section order error, got %v", err)
	}

	sections = []Section{
		{Name: ".rwdata_dummy", Kind: KindRwData, Region: mem.RWDATA, Align: 4, Size: &AliasOf{Real: []string{".rwtext"}}, Attr: mem.RW},
		{Name: ".rwtext", Kind: KindRwData, Region: mem.RWTEXT, Align: 4, Size: Fixed(4), Attr: mem.RX},
	}

	if _, err := Place(m, sections, nil); !errors.Is(err, ErrSectionOrder) {
		t.Errorf("expected section order error for alias, got %v", err)
	}

	sections = []Section{
		{Name: ".data", Kind: KindRwData, Region: mem.RWDATA, Align: 4, Size: Fixed(4), Attr: mem.RW},
		{Name: ".data", Kind: KindRwData, Region: mem.RWDATA, Align: 4, Size: Fixed(4), Attr: mem.RW},
	}

	if _, err := Place(m, sections, nil); !errors.Is(err, ErrSectionOrder) {
		t.Errorf("expected duplicate section error, got %v", err)
	}
}

func TestPlacementAttributes(t *testing.T) {
	m := testMap(t, "v1")

	sections := []Section{
		{Name: ".text", Kind: KindText, Region: mem.RWDATA, Align: 4, Size: Fixed(4), Attr: mem.RX},
	}

	if _, err := Place(m, sections, nil); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("expected invalid region error, got %v", err)
	}
}

func TestPlacementInvalid(t *testing.T) {
	m := testMap(t, "v1")

	var tests = []struct {
		name    string
		section Section
		err     error
	}{
		{"alignment", Section{Name: ".data", Region: mem.RWDATA, Align: 3, Size: Fixed(4)}, ErrInvalidConfig},
		{"no size", Section{Name: ".data", Region: mem.RWDATA, Align: 4}, ErrInvalidConfig},
		{"undeclared region", Section{Name: ".data", Region: "SRAM9", Align: 4, Size: Fixed(4)}, ErrMissingRegion},
	}

	for _, tt := range tests {
		if _, err := Place(m, []Section{tt.section}, nil); !errors.Is(err, tt.err) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.err, err)
		}
	}
}

func TestPlacementEmptyRegion(t *testing.T) {
	m := testMap(t, "v1")

	sections := []Section{
		{Name: ".external.data", Kind: KindExternal, Region: mem.External, Align: 4, Size: Measured{}, Attr: mem.RW},
	}

	p, err := Place(m, sections, nil)

	if err != nil {
		t.Fatal(err)
	}

	if !p[0].Empty || p[0].Start != 0 || p[0].Size != 0 {
		t.Errorf("expected empty placement, got %+v", p[0])
	}

	if _, err = Place(m, sections, Sizes{".external.data": 16}); !errors.Is(err, ErrRegionOverflow) {
		t.Errorf("expected overflow for content in absent region, got %v", err)
	}

	// absent optional region behaves as a zero length one
	m.Regions = m.Regions[:len(m.Regions)-1]

	if p, err = Place(m, sections, nil); err != nil || !p[0].Empty {
		t.Errorf("expected empty placement, got %+v, %v", p, err)
	}
}

func TestPlacementRemaining(t *testing.T) {
	m := testMap(t, "v1")

	sections := []Section{
		{Name: ".data", Kind: KindRwData, Region: mem.RWDATA, Align: 4, Size: Fixed(0x104), Attr: mem.RW},
		{Name: Dynamic, Kind: KindRwData, Region: mem.RWDATA, Align: 16, Size: Remaining(), Attr: mem.RW},
	}

	p, err := Place(m, sections, nil)

	if err != nil {
		t.Fatal(err)
	}

	if p[1].Start != mem.RWDataStart+0x110 || p[1].End() != mem.RWDataStart+mem.RWDataSize {
		t.Errorf("unexpected remaining span %#x-%#x", p[1].Start, p[1].End())
	}
}
