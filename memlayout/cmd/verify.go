// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/usbarmory/memlayout/layout"
	"github.com/usbarmory/memlayout/memlayout/internal"
	"github.com/usbarmory/memlayout/util"
)

func init() {
	Add(Cmd{
		Name:    "verify",
		Args:    2,
		Pattern: regexp.MustCompile(`^verify (\S+) (\S+)$`),
		Syntax:  "<revision> <elf>",
		Help:    "check a linked image against the layout",
		Fn:      verifyCmd,
	})
}

// Verify compares the allocated sections and layout symbols of a linked ELF
// image against layout l, it returns a report and the number of mismatches.
func Verify(term *term.Terminal, l *layout.Layout, buf []byte) (res string, mismatches int, err error) {
	var out bytes.Buffer

	sections, err := util.Sections(buf)

	if err != nil {
		return
	}

	t := tabwriter.NewWriter(&out, 0, 8, 2, ' ', 0)
	fmt.Fprintf(t, "name\tlayout\timage\tstatus\n")

	for _, s := range sections {
		p, ok := l.Section(s.Name)

		if !ok || p.Empty || s.Size == 0 {
			continue
		}

		var status error

		switch {
		case s.Addr != p.Start:
			status = fmt.Errorf("address")
		case s.Size > p.Size:
			status = fmt.Errorf("size")
		}

		if status != nil {
			mismatches++
		}

		fmt.Fprintf(t, "%s\t%#.8x+%#x\t%#.8x+%#x\t%s\n", s.Name, p.Start, p.Size, s.Addr, s.Size, util.Status(term, status))
	}

	for _, sym := range l.Symbols() {
		var status error

		e, lookupErr := util.LookupSym(buf, sym.Name)

		if lookupErr != nil {
			continue
		}

		if e.Value != sym.Value {
			mismatches++
			status = fmt.Errorf("value")
		}

		fmt.Fprintf(t, "%s\t%#.8x\t%#.8x\t%s\n", sym.Name, sym.Value, e.Value, util.Status(term, status))
	}

	t.Flush()

	return out.String(), mismatches, nil
}

func verifyCmd(term *term.Terminal, arg []string) (res string, err error) {
	buf, err := os.ReadFile(arg[1])

	if err != nil {
		return
	}

	sizes, err := util.SectionSizes(buf)

	if err != nil {
		return "", fmt.Errorf("invalid image, %v", err)
	}

	// section sizes come from the image under verification
	l, _, err := internal.Default.WithSizes(sizes).Compute(arg[0])

	if err != nil {
		return
	}

	res, n, err := Verify(term, l, buf)

	if err != nil {
		return
	}

	if n > 0 {
		return res, fmt.Errorf("%s does not match revision %s layout, %d mismatches", arg[1], arg[0], n)
	}

	return
}
