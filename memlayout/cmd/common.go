// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/usbarmory/memlayout/mem"
)

func init() {
	Add(Cmd{
		Name: "help",
		Help: "this help",
		Fn:   helpCmd,
	})

	Add(Cmd{
		Name: "revisions",
		Help: "list hardware revisions",
		Fn:   revisionsCmd,
	})
}

func helpCmd(term *term.Terminal, _ []string) (string, error) {
	return Help(term), nil
}

func revisionsCmd(_ *term.Terminal, _ []string) (string, error) {
	var buf bytes.Buffer

	t := tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)
	fmt.Fprintf(t, "revision\tflash\tinternal RAM\tPSRAM\n")

	for _, rev := range mem.Revisions() {
		m, err := mem.Lookup(rev)

		if err != nil {
			return "", err
		}

		iram, _ := m.Region(mem.RWTEXT)
		dram, _ := m.Region(mem.RWDATA)
		flash, _ := m.Region(mem.IROM)
		psram, _ := m.Region(mem.External)

		fmt.Fprintf(t, "%s\t%s\t%s + %s\t%s\n", rev,
			humanize.IBytes(uint64(flash.Size)),
			humanize.IBytes(uint64(iram.Size)),
			humanize.IBytes(uint64(dram.Size)),
			humanize.IBytes(uint64(psram.Size)))
	}

	t.Flush()

	return buf.String(), nil
}
