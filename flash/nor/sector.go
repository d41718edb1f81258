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
// Package nor holds the flash bank model shared by NOR flash drivers and the
// operations dispatcher that serializes access to a bank.
package nor

import (
	"fmt"
)

type ErasedState int

const (
	ErasedUnknown ErasedState = iota
	Erased
	NotErased
)

func (s ErasedState) String() string {
	switch s {
	case Erased:
		return "erased"
	case NotErased:
		return "not erased"
	}
	return "unknown"
}

// Sector is one erase unit of a bank.
type Sector struct {
	Offset    uint32
	Size      uint32
	Erased    ErasedState
	Protected bool
}

func (s Sector) String() string {
	prot := "not protected"
	if s.Protected {
		prot = "protected"
	}
	return fmt.Sprintf("0x%06x (0x%x, %dk) %s, %s", s.Offset, s.Size, s.Size>>10, s.Erased, prot)
}

// SectorAt returns the index of the sector containing offset, or -1.
func SectorAt(sectors []Sector, offset uint32) int {
	for i, s := range sectors {
		if offset >= s.Offset && offset-s.Offset < s.Size {
			return i
		}
	}
	return -1
}
