// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package linker renders a computed memory layout for the link step, as a
// GNU ld script fragment, and for the application, as Go constants.
package linker

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/usbarmory/memlayout/layout"
	"github.com/usbarmory/memlayout/startup"
	"github.com/usbarmory/memlayout/util"
)

// Digest returns the layout digest, it covers regions, configuration and
// all emitted symbols.
func Digest(l *layout.Layout) (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n%+v\n", l.Revision, l.Config)

	for _, r := range l.Regions {
		fmt.Fprintf(&buf, "%s %#x %#x %s %s\n", r.Name, r.Start, r.Size, r.Mode(), r.Alias)
	}

	for _, s := range l.Symbols() {
		fmt.Fprintf(&buf, "%s %#x\n", s.Name, s.Value)
	}

	return util.Digest(buf.Bytes())
}

// Script writes the linker script fragment of layout l, binding the given
// startup hooks. Hooks left to their default are provided weakly, overridden
// hooks are assigned explicitly.
func Script(w io.Writer, l *layout.Layout, hooks []startup.Binding) (err error) {
	var buf bytes.Buffer

	digest, err := Digest(l)

	if err != nil {
		return
	}

	fmt.Fprintf(&buf, "/* memory layout for revision %s, digest %s */\n\n", l.Revision, digest)

	fmt.Fprintf(&buf, "MEMORY\n{\n")

	for _, r := range l.Regions {
		if r.Empty() {
			fmt.Fprintf(&buf, "  /* %s not present */\n", r.Name)
			continue
		}

		fmt.Fprintf(&buf, "  %-16s (%s) : ORIGIN = %#.8x, LENGTH = %#.8x\n", r.Name, mode(r.Mode()), r.Start, r.Size)
	}

	fmt.Fprintf(&buf, "}\n\n")

	for _, s := range l.Symbols() {
		fmt.Fprintf(&buf, "%s = %#.8x;\n", s.Name, s.Value)
	}

	fmt.Fprintf(&buf, "\n")

	for _, s := range l.Sections {
		if s.Empty || s.Name == layout.Dynamic {
			continue
		}

		fmt.Fprintf(&buf, "ASSERT(SIZEOF(%s) <= %#x, \"%s exceeds %d bytes in %s\");\n", s.Name, s.Size, s.Name, s.Size, s.Region)
	}

	if len(hooks) > 0 {
		fmt.Fprintf(&buf, "\n")
	}

	var entry string

	for _, h := range hooks {
		switch {
		case !h.Overridden:
			fmt.Fprintf(&buf, "PROVIDE(%s = %s);\n", h.Name, h.Symbol)
		case h.Symbol != h.Name:
			fmt.Fprintf(&buf, "%s = %s;\n", h.Name, h.Symbol)
		default:
			fmt.Fprintf(&buf, "/* %s defined by application */\n", h.Name)
		}

		if h.Kind == startup.Entry && entry == "" {
			entry = h.Symbol
		}
	}

	if entry != "" {
		fmt.Fprintf(&buf, "\nENTRY(%s)\n", entry)
	}

	_, err = w.Write(buf.Bytes())

	return
}

// mode converts a region access string to ld MEMORY attributes, regions
// without W are marked read-only.
func mode(m string) string {
	if !strings.Contains(m, "W") {
		m += "!W"
	}

	return m
}
