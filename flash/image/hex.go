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
package image

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/juju/errors"
)

// Intel HEX record types.
const (
	recData            = 0
	recEOF             = 1
	recExtSegAddr      = 2
	recStartSegAddr    = 3
	recExtLinearAddr   = 4
	recStartLinearAddr = 5
)

type hexRecord struct {
	typ    uint8
	offset uint16
	data   []byte
}

func parseHexRecord(l string) (*hexRecord, error) {
	if l[0] != ':' {
		return nil, errors.Errorf("invalid start of the line")
	}
	if len(l) < 11 || len(l)%2 != 1 {
		return nil, errors.Errorf("too short (%d)", len(l))
	}
	ld, err := hex.DecodeString(l[1:])
	if err != nil {
		return nil, errors.Errorf("error decoding record body")
	}
	recLen := int(ld[0])
	if len(ld) != 4+recLen+1 {
		return nil, errors.Errorf("invalid length %d", len(ld))
	}
	cs := uint8(0)
	for _, b := range ld[:len(ld)-1] {
		cs += b
	}
	cs = (cs ^ 0xff) + 1
	if want := ld[len(ld)-1]; cs != want {
		return nil, errors.Errorf("invalid checksum (want %02x, got %02x)", want, cs)
	}
	return &hexRecord{
		typ:    ld[3],
		offset: binary.BigEndian.Uint16(ld[1:3]),
		data:   ld[4 : 4+recLen],
	}, nil
}

// ParseHex parses Intel HEX data. Gaps of up to maxGap bytes between data
// records are filled with fill, larger ones start a new segment.
func ParseHex(hexData []byte, fill byte, maxGap int) (*Image, error) {
	img := &Image{}
	scanner := bufio.NewScanner(bytes.NewBuffer(hexData))
	lineNo := 0
	eof := false
	var base uint32
	var cur *Segment
	for !eof && scanner.Scan() {
		lineNo++
		l := scanner.Text()
		if len(l) == 0 {
			continue
		}
		rec, err := parseHexRecord(l)
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNo)
		}
		switch rec.typ {
		case recData:
			addr := base + uint32(rec.offset)
			switch {
			case cur != nil && addr == cur.End():
			case cur != nil && addr > cur.End() && int(addr-cur.End()) <= maxGap:
				for cur.End() < addr {
					cur.Data = append(cur.Data, fill)
				}
			default:
				cur = &Segment{Addr: addr}
				img.Segments = append(img.Segments, cur)
			}
			cur.Data = append(cur.Data, rec.data...)
		case recEOF:
			eof = true
		case recExtSegAddr, recExtLinearAddr:
			if len(rec.data) != 2 {
				return nil, errors.Errorf("line %d: invalid extended address", lineNo)
			}
			base = uint32(binary.BigEndian.Uint16(rec.data))
			if rec.typ == recExtSegAddr {
				base <<= 4
			} else {
				base <<= 16
			}
		case recStartSegAddr:
			if len(rec.data) != 4 {
				return nil, errors.Errorf("line %d: invalid start segment address", lineNo)
			}
			cs := binary.BigEndian.Uint16(rec.data[0:2])
			ip := binary.BigEndian.Uint16(rec.data[2:4])
			img.Start = uint32(cs)<<4 | uint32(ip)
		case recStartLinearAddr:
			if len(rec.data) != 4 {
				return nil, errors.Errorf("line %d: invalid start linear address", lineNo)
			}
			img.Start = binary.BigEndian.Uint32(rec.data)
		default:
			return nil, errors.Errorf("line %d: unsupported record type (%d)", lineNo, rec.typ)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Annotatef(err, "line %d", lineNo)
	}
	if !eof {
		return nil, errors.Errorf("unexpected end of data")
	}
	sort.Slice(img.Segments, func(i, j int) bool {
		return img.Segments[i].Addr < img.Segments[j].Addr
	})
	for i := 1; i < len(img.Segments); i++ {
		if prev, s := img.Segments[i-1], img.Segments[i]; s.Addr < prev.End() {
			return nil, errors.NotValidf("overlapping segments %s and %s", prev, s)
		}
	}
	return img, nil
}
