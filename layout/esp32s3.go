// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"github.com/usbarmory/memlayout/mem"
)

// Dynamic is the section spanning the RWDATA space left to heap and stacks.
const Dynamic = ".dynamic"

// Sections returns the output sections of a dual-core ESP32-S3 image in
// canonical placement order.
func Sections(conf *Config) []Section {
	return []Section{
		// flash, instruction bus
		{Name: ".text", Kind: KindText, Region: mem.IROM, Align: 4, Size: Measured{}, Attr: mem.RX},

		// flash, data bus: skip the pages mapped for .text
		{Name: ".rodata_dummy", Kind: KindRoData, Region: mem.DROM, Align: 4, NoLoad: true, Attr: mem.R,
			Size: &AliasOf{
				Real:      []string{".text"},
				Floor:     uint64(conf.FlashFloor),
				EndAlign:  uint64(conf.FlashPageSize),
				EndOffset: mem.FlashHeader,
			}},
		{Name: ".rodata", Kind: KindRoData, Region: mem.DROM, Align: 4, Size: Measured{}, Attr: mem.R},

		// internal SRAM, instruction bus
		{Name: ".icache", Kind: KindRwText, Region: mem.RWTEXT, Align: 4, NoLoad: true, Size: Fixed(conf.ReserveICache), Attr: mem.RX},
		{Name: ".vectors", Kind: KindRwText, Region: mem.RWTEXT, Align: 0x400, Size: Fixed(conf.VectorsSize), Attr: mem.RX},
		{Name: ".rwtext", Kind: KindRwText, Region: mem.RWTEXT, Align: 4, Size: Measured{}, Attr: mem.RX},
		{Name: ".rwtext.wifi", Kind: KindRwText, Region: mem.RWTEXT, Align: 4, Size: Measured{}, Attr: mem.RX},

		// internal SRAM, data bus: skip what the instruction bus uses
		{Name: ".rwdata_dummy", Kind: KindRwData, Region: mem.RWDATA, Align: 4, NoLoad: true, Attr: mem.RW,
			Size: &AliasOf{
				Real:     []string{".rwtext", ".rwtext.wifi"},
				Reserved: uint64(conf.ReserveICache) + uint64(conf.VectorsSize),
				Floor:    uint64(conf.ICacheWindow),
				EndAlign: minAlign,
			}},
		{Name: ".data", Kind: KindRwData, Region: mem.RWDATA, Align: 4, Size: Measured{}, Attr: mem.RW},
		{Name: ".bss", Kind: KindRwData, Region: mem.RWDATA, Align: 4, NoLoad: true, Size: Measured{}, Attr: mem.RW},
		{Name: ".noinit", Kind: KindRwData, Region: mem.RWDATA, Align: 4, NoLoad: true, Size: Measured{}, Attr: mem.RW},
		{Name: Dynamic, Kind: KindRwData, Region: mem.RWDATA, Align: uint64(conf.StackAlign), NoLoad: true, Size: Remaining(), Attr: mem.RW},

		// RTC fast memory, code and data views of the same block
		{Name: ".rtc_fast.text", Kind: KindRtcFast, Region: mem.RTCFastRWTEXT, Align: 4, Size: Measured{}, Attr: mem.RX},
		{Name: ".rtc_fast.dummy", Kind: KindRtcFast, Region: mem.RTCFastRWDATA, Align: 4, NoLoad: true, Attr: mem.RW,
			Size: &AliasOf{
				Real:     []string{".rtc_fast.text"},
				EndAlign: minAlign,
			}},
		{Name: ".rtc_fast.data", Kind: KindRtcFast, Region: mem.RTCFastRWDATA, Align: 4, Size: Measured{}, Attr: mem.RW},
		{Name: ".rtc_fast.bss", Kind: KindRtcFast, Region: mem.RTCFastRWDATA, Align: 4, NoLoad: true, Size: Measured{}, Attr: mem.RW},
		{Name: ".rtc_fast.noinit", Kind: KindRtcFast, Region: mem.RTCFastRWDATA, Align: 4, NoLoad: true, Size: Measured{}, Attr: mem.RW},

		// RTC slow memory
		{Name: ".rtc_slow.text", Kind: KindRtcSlow, Region: mem.RTCSlow, Align: 4, Size: Measured{}, Attr: mem.RX},
		{Name: ".rtc_slow.data", Kind: KindRtcSlow, Region: mem.RTCSlow, Align: 4, Size: Measured{}, Attr: mem.RW},
		{Name: ".rtc_slow.bss", Kind: KindRtcSlow, Region: mem.RTCSlow, Align: 4, NoLoad: true, Size: Measured{}, Attr: mem.RW},
		{Name: ".rtc_slow.noinit", Kind: KindRtcSlow, Region: mem.RTCSlow, Align: 4, NoLoad: true, Size: Measured{}, Attr: mem.RW},

		// external PSRAM
		{Name: ".external.data", Kind: KindExternal, Region: mem.External, Align: 4, Size: Measured{}, Attr: mem.RW},
		{Name: ".external.bss", Kind: KindExternal, Region: mem.External, Align: 4, NoLoad: true, Size: Measured{}, Attr: mem.RW},
		{Name: ".external.noinit", Kind: KindExternal, Region: mem.External, Align: 4, NoLoad: true, Size: Measured{}, Attr: mem.RW},
	}
}
