// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/mod/semver"
)

// Region access modes
const (
	R   = 1 << ATTR_R
	RW  = 1<<ATTR_R | 1<<ATTR_W
	RX  = 1<<ATTR_R | 1<<ATTR_X
	RWX = 1<<ATTR_R | 1<<ATTR_W | 1<<ATTR_X
)

var (
	mu        sync.RWMutex
	revisions = make(map[string]*Map)
)

func init() {
	// 4MB flash, no PSRAM
	mustRegister("v1", esp32s3(0x00400000, 0))
	// 8MB flash, no PSRAM
	mustRegister("v2", esp32s3(0x00800000, 0))
	// 8MB flash, 2MB quad PSRAM
	mustRegister("v4", esp32s3(0x00800000, 0x00200000))
	// 16MB flash, 8MB octal PSRAM
	mustRegister("v6", esp32s3(0x01000000, 0x00800000))
}

func esp32s3(flashSize uint32, psramSize uint32) []Region {
	return []Region{
		{Name: IROM, Start: IROMStart, Size: flashSize - FlashHeader, Attr: RX, Alias: DROM},
		{Name: DROM, Start: DROMStart, Size: flashSize - FlashHeader, Attr: R, Alias: IROM},
		{Name: RWTEXT, Start: RWTextStart, Size: RWTextSize, Attr: RX, Alias: RWDATA},
		{Name: RWDATA, Start: RWDataStart, Size: RWDataSize, Attr: RW, Alias: RWTEXT},
		{Name: RTCFastRWTEXT, Start: RTCFastStart, Size: RTCFastSize, Attr: RWX, Alias: RTCFastRWDATA},
		{Name: RTCFastRWDATA, Start: RTCFastStart, Size: RTCFastSize, Attr: RW, Alias: RTCFastRWTEXT},
		{Name: RTCSlow, Start: RTCSlowStart, Size: RTCSlowSize, Attr: RWX},
		{Name: External, Start: ExternalStart, Size: psramSize, Attr: RW},
	}
}

func mustRegister(rev string, regions []Region) {
	if err := Register(rev, regions); err != nil {
		panic(err)
	}
}

// Register validates and adds the region map of a hardware revision, an
// existing revision with the same identifier is replaced.
func Register(rev string, regions []Region) (err error) {
	if rev == "" {
		return errors.New("empty revision identifier")
	}

	m := &Map{
		Revision: rev,
		Regions:  append([]Region(nil), regions...),
	}

	if err = m.Validate(); err != nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	revisions[rev] = m

	return
}

// Lookup returns the region map of a hardware revision.
func Lookup(rev string) (*Map, error) {
	mu.RLock()
	defer mu.RUnlock()

	m, ok := revisions[rev]

	if !ok {
		return nil, fmt.Errorf("unknown hardware revision %q", rev)
	}

	return &Map{
		Revision: m.Revision,
		Regions:  append([]Region(nil), m.Regions...),
	}, nil
}

// Revisions returns all registered hardware revisions in semantic version
// order, identifiers which are not valid versions (e.g. custom) sort first.
func Revisions() (revs []string) {
	mu.RLock()
	defer mu.RUnlock()

	for rev := range revisions {
		revs = append(revs, rev)
	}

	semver.Sort(revs)

	return
}

type jsonRegion struct {
	Name  string
	Start uint32
	Size  uint32
	Mode  string
	Alias string
}

type jsonMap struct {
	Revision string
	Regions  []jsonRegion
}

// LoadMap parses a JSON region map, in the form:
//
//	{
//	  "Revision": "custom",
//	  "Regions": [
//	    {"Name": "RWDATA", "Start": 1070104576, "Size": 425984, "Mode": "RW", "Alias": "RWTEXT"}
//	  ]
//	}
//
// The returned map is validated but not registered.
func LoadMap(r io.Reader) (m *Map, err error) {
	var jm jsonMap

	if err = json.NewDecoder(r).Decode(&jm); err != nil {
		return nil, fmt.Errorf("invalid region map, %v", err)
	}

	m = &Map{
		Revision: jm.Revision,
	}

	for _, jr := range jm.Regions {
		attr, err := Attributes(jr.Mode)

		if err != nil {
			return nil, fmt.Errorf("region %s, %v", jr.Name, err)
		}

		m.Regions = append(m.Regions, Region{
			Name:  jr.Name,
			Start: jr.Start,
			Size:  jr.Size,
			Attr:  attr,
			Alias: jr.Alias,
		})
	}

	if err = m.Validate(); err != nil {
		return nil, err
	}

	return
}
