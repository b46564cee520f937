// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package util

import (
	"bytes"
	"debug/elf"
	"errors"
)

// LookupSym returns the named symbol of an ELF image.
func LookupSym(buf []byte, name string) (*elf.Symbol, error) {
	exe, err := elf.NewFile(bytes.NewReader(buf))

	if err != nil {
		return nil, err
	}

	syms, err := exe.Symbols()

	if err != nil {
		return nil, err
	}

	for _, sym := range syms {
		if sym.Name == name {
			return &sym, nil
		}
	}

	return nil, errors.New("symbol not found")
}

// Sections returns the headers of all allocated sections of an ELF image,
// in file order.
func Sections(buf []byte) (sections []elf.SectionHeader, err error) {
	exe, err := elf.NewFile(bytes.NewReader(buf))

	if err != nil {
		return
	}

	for _, s := range exe.Sections {
		if s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}

		sections = append(sections, s.SectionHeader)
	}

	return
}

// SectionSizes returns the size of each allocated section of an ELF image.
func SectionSizes(buf []byte) (sizes map[string]uint64, err error) {
	sections, err := Sections(buf)

	if err != nil {
		return
	}

	sizes = make(map[string]uint64)

	for _, s := range sections {
		sizes[s.Name] += s.Size
	}

	return
}

// StrongSymbols returns the set of global symbols defined by an ELF image,
// undefined and weak symbols are excluded.
func StrongSymbols(buf []byte) (strong map[string]bool, err error) {
	exe, err := elf.NewFile(bytes.NewReader(buf))

	if err != nil {
		return
	}

	syms, err := exe.Symbols()

	if err != nil {
		return
	}

	strong = make(map[string]bool)

	for _, sym := range syms {
		if sym.Section == elf.SHN_UNDEF || elf.ST_BIND(sym.Info) != elf.STB_GLOBAL {
			continue
		}

		strong[sym.Name] = true
	}

	return
}
