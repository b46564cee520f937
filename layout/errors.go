// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/usbarmory/memlayout/mem"
)

// Layout errors, every error returned by this package matches one of these
// with errors.Is.
var (
	ErrMissingRegion  = mem.ErrMissingRegion
	ErrInvalidRegion  = mem.ErrInvalidRegion
	ErrRegionOverflow = errors.New("region overflow")
	ErrHeapOverflow   = errors.New("heap overflow")
	ErrNoStackSpace   = errors.New("no stack space")
	ErrSectionOrder   = errors.New("section order violation")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

func overflow(region string, section string, required uint64, available uint64) error {
	return fmt.Errorf("%w: %s in %s, required %s, region provides %s",
		ErrRegionOverflow, section, region, humanize.IBytes(required), humanize.IBytes(available))
}
