// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"fmt"
	"regexp"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/usbarmory/memlayout/layout"
	"github.com/usbarmory/memlayout/linker"
	"github.com/usbarmory/memlayout/memlayout/internal"
	"github.com/usbarmory/memlayout/startup"
	"github.com/usbarmory/memlayout/util"
)

func init() {
	Add(Cmd{
		Name:    "layout",
		Args:    1,
		Pattern: regexp.MustCompile(`^layout (\S+)$`),
		Syntax:  "<revision>",
		Help:    "memory layout report",
		Fn:      layoutCmd,
	})
}

// Report returns the human readable report of a computed layout.
func Report(term *term.Terminal, l *layout.Layout, hooks []startup.Binding) string {
	var buf bytes.Buffer

	digest, _ := linker.Digest(l)
	fmt.Fprintf(&buf, "revision %s, digest %s\n\n", util.Color(term, term.Escape.Cyan, l.Revision), digest)

	t := tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)
	fmt.Fprintf(t, "region\tmode\tstart\tend\tsize\talias\n")

	for _, r := range l.Regions {
		fmt.Fprintf(t, "%s\t%s\t%#.8x\t%#.8x\t%s\t%s\n", r.Name, r.Mode(), r.Start, r.End(), humanize.IBytes(uint64(r.Size)), r.Alias)
	}

	t.Flush()
	buf.WriteString("\n")

	t = tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)
	fmt.Fprintf(t, "section\tkind\tregion\tstart\tend\tsize\talign\n")

	for _, s := range l.Sections {
		name := s.Name

		switch {
		case s.Empty:
			name = util.Color(term, term.Escape.Yellow, name)
		case s.Needed != 0:
			name = util.Color(term, term.Escape.Magenta, name)
		}

		fmt.Fprintf(t, "%s\t%s\t%s\t%#.8x\t%#.8x\t%s\t%d\n", name, s.Kind, s.Region, s.Start, s.End(), humanize.IBytes(s.Size), s.Align)
	}

	t.Flush()
	buf.WriteString("\n")

	if p := l.Partition; p != nil {
		t = tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)
		fmt.Fprintf(t, "heap\t%s\n", p.Heap)
		fmt.Fprintf(t, "stack cpu1\t%s\n", p.Stack1)
		fmt.Fprintf(t, "stack cpu0\t%s\n", p.Stack0)
		t.Flush()
		buf.WriteString("\n")
	}

	t = tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)

	for _, h := range hooks {
		symbol := h.Symbol

		if h.Overridden {
			symbol = util.Color(term, term.Escape.Green, symbol)
		}

		fmt.Fprintf(t, "%s\t%s\t%s\n", h.Name, h.Kind, symbol)
	}

	t.Flush()

	return buf.String()
}

func layoutCmd(term *term.Terminal, arg []string) (res string, err error) {
	l, hooks, err := internal.Default.Compute(arg[0])

	if err != nil {
		return
	}

	return Report(term, l, hooks), nil
}
