// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/usbarmory/memlayout/mem"
)

// Config holds the numeric build configuration of a layout.
type Config struct {
	// HeapSize is the heap carved right after the last static RWDATA
	// section.
	HeapSize uint32
	// ReserveICache is the ICache block reserved at the bottom of RWTEXT.
	ReserveICache uint32
	// VectorsSize is the exception vector table size.
	VectorsSize uint32
	// ICacheWindow is the part of RWTEXT which has no RWDATA counterpart,
	// it is the floor of the RWDATA alias padding.
	ICacheWindow uint32
	// FlashFloor is the floor of the DROM alias padding.
	FlashFloor uint32
	// FlashPageSize is the flash MMU page size.
	FlashPageSize uint32
	// StackAlign is the alignment unit of heap and stacks.
	StackAlign uint32
	// MinStackSize is the smallest acceptable per-core stack.
	MinStackSize uint32
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HeapSize:      0x10000, // 64KB
		ReserveICache: mem.ICacheWindow,
		VectorsSize:   0x400,
		ICacheWindow:  mem.ICacheWindow,
		FlashFloor:    0,
		FlashPageSize: mem.FlashPageSize,
		StackAlign:    16,
		MinStackSize:  0,
	}
}

// LoadConfig parses a JSON configuration, fields not present in the input
// retain their default value.
func LoadConfig(r io.Reader) (conf *Config, err error) {
	conf = DefaultConfig()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err = dec.Decode(conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err = conf.Validate(); err != nil {
		return nil, err
	}

	return
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if !isPow2(uint64(c.StackAlign)) {
		return fmt.Errorf("%w: stack alignment %d is not a power of two", ErrInvalidConfig, c.StackAlign)
	}

	if !isPow2(uint64(c.FlashPageSize)) {
		return fmt.Errorf("%w: flash page size %#x is not a power of two", ErrInvalidConfig, c.FlashPageSize)
	}

	if c.HeapSize%c.StackAlign != 0 {
		return fmt.Errorf("%w: heap size %#x is not a multiple of the %d bytes stack alignment unit (set StackAlign to 1 for byte granularity)", ErrInvalidConfig, c.HeapSize, c.StackAlign)
	}

	return nil
}
