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
package common

import (
	"context"
)

type TargetRegReader interface {
	// ReadTargetReg reads a single 32-bit word from the target (handy for reading registers).
	ReadTargetReg(ctx context.Context, addr uint32) (uint32, error)
}

type TargetRegWriter interface {
	// WriteTargetReg writes a single 32-bit word to the target.
	WriteTargetReg(ctx context.Context, addr uint32, value uint32) error
}

// TargetRegReaderWriter is the register link flash drivers talk to the
// controller through. Every call is a blocking round trip over the debug link.
type TargetRegReaderWriter interface {
	TargetRegReader
	TargetRegWriter
}

type TargetMemReader interface {
	TargetRegReader
	// ReadTargetMem reads length words at the specified address in the target's memory.
	// addr must be word-aligned.
	ReadTargetMem(ctx context.Context, addr uint32, length int) ([]uint32, error)
}

type TargetMemWriter interface {
	TargetRegWriter
	// WriteTargetMem writes data at the specified address to the target's memory.
	// addr must be word-aligned.
	WriteTargetMem(ctx context.Context, addr uint32, data []uint32) error
}

type TargetMemReaderWriter interface {
	TargetMemReader
	TargetMemWriter
}

// HaltStater reports whether the core is stopped in debug state.
type HaltStater interface {
	IsHalted(ctx context.Context) (bool, error)
}

// FlashTarget is what a flash driver needs from the target: register access
// to the flash controller and the halt state of the core.
type FlashTarget interface {
	TargetRegReaderWriter
	HaltStater
}
