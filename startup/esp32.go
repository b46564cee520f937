// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package startup

// ESP32-S3 hook names
const (
	Reset          = "Reset"
	PreInitHook    = "__pre_init"
	ZeroBSS        = "__zero_bss"
	InitData       = "__init_data"
	DefaultHandler = "DefaultHandler"
)

func init() {
	Add(Hook{
		Name:    Reset,
		Default: "ESP32Reset",
		Kind:    Entry,
		Help:    "reset entry point, sets the stack pointer and jumps to the runtime",
	})

	Add(Hook{
		Name:    PreInitHook,
		Default: "DefaultPreInit",
		Kind:    PreInit,
		Help:    "called before .data and .bss initialization",
	})

	Add(Hook{
		Name:    ZeroBSS,
		Default: "default_mem_hook",
		Kind:    MemInit,
		Help:    "returns true when .bss must still be zeroed",
	})

	Add(Hook{
		Name:    InitData,
		Default: "default_mem_hook",
		Kind:    MemInit,
		Help:    "returns true when .data must still be copied",
	})

	Add(Hook{
		Name:    DefaultHandler,
		Default: "EspDefaultHandler",
		Kind:    Handler,
		Help:    "unhandled exceptions and interrupts",
	})
}
