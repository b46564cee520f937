// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/usbarmory/memlayout/layout"
	"github.com/usbarmory/memlayout/mem"
	"github.com/usbarmory/memlayout/startup"
)

const regions = `{
	"Regions": [
		{"Name": "IROM", "Start": 1107296288, "Size": 1048544, "Mode": "RX", "Alias": "DROM"},
		{"Name": "DROM", "Start": 1006632992, "Size": 1048544, "Mode": "R", "Alias": "IROM"},
		{"Name": "RWTEXT", "Start": 1077346304, "Size": 262144, "Mode": "RX", "Alias": "RWDATA"},
		{"Name": "RWDATA", "Start": 1070104576, "Size": 229376, "Mode": "RW", "Alias": "RWTEXT"}
	]
}`

func write(t *testing.T, name string, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	return path
}

func newInputs() *Inputs {
	return &Inputs{
		Config: layout.DefaultConfig(),
		Sizes:  make(layout.Sizes),
	}
}

func TestLoad(t *testing.T) {
	in := newInputs()

	if err := in.LoadConfig(write(t, "config.json", `{"HeapSize": 131072}`)); err != nil {
		t.Fatal(err)
	}

	if err := in.LoadSizes(write(t, "sizes.json", `{".data": 4096, ".bss": 512}`)); err != nil {
		t.Fatal(err)
	}

	if in.Config.HeapSize != 128*1024 || in.Sizes[".data"] != 4096 {
		t.Errorf("unexpected inputs %+v %v", in.Config, in.Sizes)
	}

	l, _, err := in.Compute("v2")

	if err != nil {
		t.Fatal(err)
	}

	if p := l.Partition; p.Heap.Size() != 128*1024 {
		t.Errorf("unexpected heap %s", p.Heap)
	}

	if err = in.LoadConfig(write(t, "config.json", `{"HeapSize": 100}`)); !errors.Is(err, layout.ErrInvalidConfig) {
		t.Errorf("expected invalid configuration, got %v", err)
	}

	if err = in.LoadSizes(write(t, "sizes.json", `[1, 2]`)); err == nil {
		t.Errorf("invalid sizes accepted")
	}

	if err = in.LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("missing file accepted")
	}
}

func TestComputeErrors(t *testing.T) {
	in := newInputs()
	in.Config.HeapSize = 480 * 1024

	if _, _, err := in.Compute("v1"); !errors.Is(err, layout.ErrHeapOverflow) {
		t.Errorf("expected heap overflow, got %v", err)
	}

	if _, _, err := in.Compute("v0"); err == nil {
		t.Errorf("unknown revision accepted")
	}
}

func TestHooks(t *testing.T) {
	in := newInputs()

	if err := in.AddHook(startup.PreInitHook + "=board_pre_init"); err != nil {
		t.Fatal(err)
	}

	for _, s := range []string{"__pre_init", "=x", "__pre_init="} {
		if err := in.AddHook(s); err == nil {
			t.Errorf("%q accepted", s)
		}
	}

	in.Strong = map[string]bool{startup.PreInitHook: true, startup.DefaultHandler: true}

	_, hooks, err := in.Compute("v1")

	if err != nil {
		t.Fatal(err)
	}

	for _, h := range hooks {
		switch h.Name {
		case startup.PreInitHook:
			if h.Symbol != "board_pre_init" {
				t.Errorf("explicit override lost, got %+v", h)
			}
		case startup.DefaultHandler:
			if h.Symbol != startup.DefaultHandler || !h.Overridden {
				t.Errorf("strong symbol ignored, got %+v", h)
			}
		default:
			if h.Overridden {
				t.Errorf("unexpected override %+v", h)
			}
		}
	}

	// a second explicit override of the same hook is rejected
	if err = in.AddHook(startup.PreInitHook + "=other"); err != nil {
		t.Fatal(err)
	}

	if _, _, err = in.Compute("v1"); !errors.Is(err, startup.ErrOverridden) {
		t.Errorf("expected double override error, got %v", err)
	}
}

func TestLoadRegions(t *testing.T) {
	rev, err := LoadRegions(write(t, "regions.json", regions))

	if err != nil {
		t.Fatal(err)
	}

	if rev != Custom {
		t.Errorf("registered as %s", rev)
	}

	if _, err = mem.Lookup(Custom); err != nil {
		t.Fatal(err)
	}

	l, _, err := newInputs().Compute(Custom)

	if err != nil {
		t.Fatal(err)
	}

	if l.Partition.Stack0.End != 0x3fc88000+229376 {
		t.Errorf("unexpected stack top %#x", l.Partition.Stack0.End)
	}

	if _, err = LoadRegions(write(t, "regions.json", `{"Regions": []}`)); !errors.Is(err, mem.ErrMissingRegion) {
		t.Errorf("expected missing region, got %v", err)
	}
}

func TestWithSizes(t *testing.T) {
	in := newInputs()
	in.Sizes[".data"] = 0x100

	c := in.WithSizes(map[string]uint64{".bss": 0x200})

	if _, ok := c.Sizes[".data"]; ok || c.Sizes[".bss"] != 0x200 {
		t.Errorf("unexpected sizes %v", c.Sizes)
	}

	if _, ok := in.Sizes[".bss"]; ok {
		t.Errorf("original inputs modified")
	}
}
