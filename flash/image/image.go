//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package image loads firmware images to be programmed into flash.
package image

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/errors"
)

const DefaultFill = 0xFF

// Segment is a contiguous run of bytes at a target address.
type Segment struct {
	Addr uint32
	Data []byte
}

func (s *Segment) End() uint32 {
	return s.Addr + uint32(len(s.Data))
}

func (s *Segment) String() string {
	return fmt.Sprintf("0x%08x-0x%08x (%d)", s.Addr, s.End(), len(s.Data))
}

type Image struct {
	Segments []*Segment
	// Start is the entry point, if the image carries one.
	Start uint32
}

func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

// FromBin wraps raw binary data placed at addr.
func FromBin(data []byte, addr uint32) *Image {
	return &Image{Segments: []*Segment{{Addr: addr, Data: data}}}
}

// LoadFile reads an Intel HEX (.hex, .ihex) or raw binary file. Raw binaries
// are placed at addr, HEX records carry their own addresses.
func LoadFile(fname string, addr uint32) (*Image, error) {
	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".hex", ".ihex":
		img, err := ParseHex(data, DefaultFill, 0)
		if err != nil {
			return nil, errors.Annotatef(err, "%s", fname)
		}
		return img, nil
	}
	return FromBin(data, addr), nil
}

// Rebase makes segment addresses relative to base.
func (img *Image) Rebase(base uint32) error {
	for _, s := range img.Segments {
		if s.Addr < base {
			return errors.NotValidf("segment %s below base 0x%x", s, base)
		}
	}
	for _, s := range img.Segments {
		s.Addr -= base
	}
	return nil
}

// Align extends every segment to align-byte boundaries on both ends using
// fill. Segments that end up touching are merged.
func (img *Image) Align(align uint32, fill byte) {
	if align <= 1 || len(img.Segments) == 0 {
		return
	}
	sort.Slice(img.Segments, func(i, j int) bool {
		return img.Segments[i].Addr < img.Segments[j].Addr
	})
	var res []*Segment
	var cur *Segment
	for _, s := range img.Segments {
		start := s.Addr &^ (align - 1)
		end := (s.End() + align - 1) &^ (align - 1)
		if cur == nil || start > cur.End() {
			cur = &Segment{Addr: start}
			res = append(res, cur)
		}
		for cur.End() < end {
			cur.Data = append(cur.Data, fill)
		}
		copy(cur.Data[s.Addr-cur.Addr:], s.Data)
	}
	img.Segments = res
}
