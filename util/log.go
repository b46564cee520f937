// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package util

import (
	"io"
	"os"

	"golang.org/x/term"
)

type stdio struct {
	io.Reader
	io.Writer
}

// NewTerminal returns a terminal writing to w, its escape sequences are
// cleared unless color is set.
func NewTerminal(w io.Writer, color bool) *term.Terminal {
	t := term.NewTerminal(stdio{os.Stdin, w}, "")

	if !color {
		t.Escape = &term.EscapeCodes{}
	}

	return t
}

// IsTerminal returns whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Color wraps s between the color escape sequence and the terminal reset
// sequence.
func Color(t *term.Terminal, color []byte, s string) string {
	if t == nil || len(color) == 0 {
		return s
	}

	return string(color) + s + string(t.Escape.Reset)
}

// Status returns an OK or error marker, colored when t supports it.
func Status(t *term.Terminal, err error) string {
	if t == nil {
		t = NewTerminal(io.Discard, false)
	}

	if err != nil {
		return Color(t, t.Escape.Red, "ERR")
	}

	return Color(t, t.Escape.Green, "OK")
}
