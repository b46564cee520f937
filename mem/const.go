// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mem

// Region names
const (
	IROM          = "IROM"
	DROM          = "DROM"
	RWTEXT        = "RWTEXT"
	RWDATA        = "RWDATA"
	RTCFastRWTEXT = "RTC_FAST_RWTEXT"
	RTCFastRWDATA = "RTC_FAST_RWDATA"
	RTCSlow       = "RTC_SLOW"
	External      = "EXTERNAL"
)

// ESP32-S3 memory map.
//
//	40370000 <- IRAM/ICache -> 40378000 <- D/IRAM (I) -> 403E0000
//	                           3FC88000 <- D/IRAM (D) -> 3FCF0000 <- DRAM/DCache -> 3FD00000
const (
	// Internal SRAM, instruction bus view (includes the ICache block)
	RWTextStart = 0x40370000
	RWTextSize  = 0x00070000 // 448KB

	// Internal SRAM, data bus view (excludes the ICache block)
	RWDataStart = 0x3fc88000
	RWDataSize  = 0x00068000 // 416KB

	// Offset between instruction and data bus views of internal SRAM
	IDBusOffset = RWTextStart + ICacheWindow - RWDataStart

	// ICache reservable block at the bottom of the instruction bus view,
	// it has no data bus counterpart within RWDATA.
	ICacheWindow = 0x8000 // 32KB

	// External flash, both buses. The 0x20 offset skips the image and
	// segment headers so that (paddr % 64KB) == (vaddr % 64KB).
	IROMStart     = 0x42000020
	DROMStart     = 0x3c000020
	FlashHeader   = 0x20
	FlashPageSize = 0x10000 // 64KB

	// RTC fast memory, same block on both buses, core 0 only
	RTCFastStart = 0x600fe000
	RTCFastSize  = 0x00002000 // 8KB

	// RTC slow memory, persists over deep sleep
	RTCSlowStart = 0x50000000
	RTCSlowSize  = 0x00002000 // 8KB

	// External PSRAM, data bus
	ExternalStart = 0x3d000000
)
