// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"encoding/json"
	"regexp"

	"golang.org/x/term"

	"github.com/usbarmory/memlayout/linker"
	"github.com/usbarmory/memlayout/memlayout/internal"
)

func init() {
	Add(Cmd{
		Name:    "linker",
		Args:    1,
		Pattern: regexp.MustCompile(`^linker (\S+)$`),
		Syntax:  "<revision>",
		Help:    "linker script fragment",
		Fn:      linkerCmd,
	})

	Add(Cmd{
		Name:    "gosrc",
		Args:    2,
		Pattern: regexp.MustCompile(`^gosrc (\S+) (\w+)$`),
		Syntax:  "<revision> <package>",
		Help:    "Go constants source file",
		Fn:      gosrcCmd,
	})

	Add(Cmd{
		Name:    "json",
		Args:    1,
		Pattern: regexp.MustCompile(`^json (\S+)$`),
		Syntax:  "<revision>",
		Help:    "JSON layout",
		Fn:      jsonCmd,
	})
}

func linkerCmd(_ *term.Terminal, arg []string) (res string, err error) {
	var buf bytes.Buffer

	l, hooks, err := internal.Default.Compute(arg[0])

	if err != nil {
		return
	}

	if err = linker.Script(&buf, l, hooks); err != nil {
		return
	}

	return buf.String(), nil
}

func gosrcCmd(_ *term.Terminal, arg []string) (res string, err error) {
	var buf bytes.Buffer

	l, _, err := internal.Default.Compute(arg[0])

	if err != nil {
		return
	}

	if err = linker.GoSource(&buf, arg[1], l); err != nil {
		return
	}

	return buf.String(), nil
}

func jsonCmd(_ *term.Terminal, arg []string) (res string, err error) {
	l, hooks, err := internal.Default.Compute(arg[0])

	if err != nil {
		return
	}

	digest, err := linker.Digest(l)

	if err != nil {
		return
	}

	buf, err := json.MarshalIndent(struct {
		Layout  interface{}
		Symbols interface{}
		Hooks   interface{}
		Digest  string
	}{l, l.Symbols(), hooks, digest}, "", "\t")

	if err != nil {
		return
	}

	return string(buf) + "\n", nil
}
