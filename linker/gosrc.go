// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package linker

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"strings"
	"text/template"
	"unicode"

	"github.com/usbarmory/memlayout/layout"
)

const goSource = `// Code generated by memlayout. DO NOT EDIT.

package {{.Package}}

// Revision is the hardware revision the layout was computed for.
const Revision = {{printf "%q" .Revision}}

// Digest identifies the layout, it matches the linker script digest.
const Digest = {{printf "%q" .Digest}}

// Memory regions
const (
{{- range .Regions}}
	{{ident .Name "RegionStart"}} = {{printf "%#.8x" .Start}}
	{{ident .Name "RegionSize"}} = {{printf "%#.8x" .Size}}
{{- end}}
)

// Section boundaries, heap and stacks
const (
{{- range .Symbols}}
	{{ident .Name ""}} = {{printf "%#.8x" .Value}}
{{- end}}
)

// Heap and stack sizes
const (
	HeapSize = {{printf "%#x" .Partition.Heap.Size}}
	StackSizeCPU0 = {{printf "%#x" .Partition.Stack0.Size}}
	StackSizeCPU1 = {{printf "%#x" .Partition.Stack1.Size}}
)
`

var goTemplate = template.Must(template.New("gosrc").Funcs(template.FuncMap{
	"ident": ident,
}).Parse(goSource))

// ident converts a symbol or region name to an exported Go identifier (e.g.
// _stack_start_cpu0 is StackStartCpu0, RTC_SLOW is RtcSlow).
func ident(name string, suffix string) string {
	var s strings.Builder

	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, w := range words {
		w = strings.ToLower(w)
		s.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}

	id := s.String() + suffix

	if id == "" || !unicode.IsLetter(rune(id[0])) {
		id = "X" + id
	}

	return id
}

// GoSource writes a Go source file, for package pkg, declaring the layout
// addresses as constants.
func GoSource(w io.Writer, pkg string, l *layout.Layout) (err error) {
	var buf bytes.Buffer

	if !token.IsIdentifier(pkg) {
		return fmt.Errorf("invalid package name %q", pkg)
	}

	if l.Partition == nil {
		return fmt.Errorf("layout %s has no heap and stack partition", l.Revision)
	}

	digest, err := Digest(l)

	if err != nil {
		return
	}

	data := struct {
		*layout.Layout
		Package string
		Digest  string
	}{
		Layout:  l,
		Package: pkg,
		Digest:  digest,
	}

	if err = goTemplate.Execute(&buf, data); err != nil {
		return
	}

	src, err := format.Source(buf.Bytes())

	if err != nil {
		return fmt.Errorf("could not format source, %v", err)
	}

	_, err = w.Write(src)

	return
}
