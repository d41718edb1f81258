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
package main

import (
	"context"

	"github.com/juju/errors"
)

// fmcSim behaves like the HT32 flash controller closely enough for the
// command handlers: commands are carried out when OPCR is written with the
// commit value, programming can only clear bits.
type fmcSim struct {
	flash  []byte
	regs   map[uint32]uint32
	halted bool
}

const (
	simFMC      = 0x40080000
	simTADR     = simFMC + 0x0
	simWRDR     = simFMC + 0x4
	simOCMR     = simFMC + 0xC
	simOPCR     = simFMC + 0x10
	simCommit   = 0x14
	simFinished = 0x1C
	simPage     = 512
)

func newFMCSim(size int) *fmcSim {
	s := &fmcSim{flash: make([]byte, size), regs: map[uint32]uint32{}, halted: true}
	for i := range s.flash {
		s.flash[i] = 0x5A
	}
	s.regs[simOPCR] = simFinished
	return s
}

func (s *fmcSim) IsHalted(ctx context.Context) (bool, error) {
	return s.halted, nil
}

func (s *fmcSim) ReadTargetReg(ctx context.Context, addr uint32) (uint32, error) {
	if int(addr)+4 <= len(s.flash) {
		return uint32(s.flash[addr]) | uint32(s.flash[addr+1])<<8 | uint32(s.flash[addr+2])<<16 | uint32(s.flash[addr+3])<<24, nil
	}
	return s.regs[addr], nil
}

func (s *fmcSim) WriteTargetReg(ctx context.Context, addr uint32, value uint32) error {
	s.regs[addr] = value
	if addr != simOPCR || value != simCommit {
		return nil
	}
	tadr := s.regs[simTADR]
	switch s.regs[simOCMR] {
	case 0x4:
		if int(tadr)+4 > len(s.flash) {
			return errors.Errorf("program @ 0x%x out of range", tadr)
		}
		w := s.regs[simWRDR]
		for i := uint32(0); i < 4; i++ {
			s.flash[tadr+i] &= byte(w >> (8 * i))
		}
	case 0x8:
		start := int(tadr) &^ (simPage - 1)
		for i := start; i < start+simPage && i < len(s.flash); i++ {
			s.flash[i] = 0xFF
		}
	case 0xA:
		for i := range s.flash {
			s.flash[i] = 0xFF
		}
	}
	s.regs[simOPCR] = simFinished
	return nil
}

func (s *fmcSim) ReadTargetMem(ctx context.Context, addr uint32, length int) ([]uint32, error) {
	var res []uint32
	for i := 0; i < length; i++ {
		v, err := s.ReadTargetReg(ctx, addr+uint32(i)*4)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

func (s *fmcSim) WriteTargetMem(ctx context.Context, addr uint32, data []uint32) error {
	return errors.NotSupportedf("direct flash writes")
}
