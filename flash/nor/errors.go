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
package nor

import (
	"fmt"

	"github.com/juju/errors"
)

// ErrTargetNotHalted is returned when a flash operation is attempted while the
// core is running.
var ErrTargetNotHalted = errors.New("target not halted")

// AlignmentError reports a write whose offset or size is not a multiple of the
// programming word.
type AlignmentError struct {
	What  string // "offset" or "size"
	Value uint32
	Align uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s 0x%x breaks required %d-byte alignment", e.What, e.Value, e.Align)
}

// LinkError wraps a failed register access on the debug link.
type LinkError struct {
	Op   string // "read" or "write"
	Addr uint32
	Err  error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("debug link %s @ 0x%08x failed: %s", e.Op, e.Addr, e.Err)
}

// TimeoutError is returned when the flash controller stays busy for the whole
// polling budget. Status is the last raw status register value seen.
type TimeoutError struct {
	Status  uint32
	Retries int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for flash after %d retries (status 0x%04x)", e.Retries, e.Status)
}

func IsTargetNotHalted(err error) bool {
	return errors.Cause(err) == ErrTargetNotHalted
}

func IsAlignment(err error) bool {
	_, ok := errors.Cause(err).(*AlignmentError)
	return ok
}

func IsLink(err error) bool {
	_, ok := errors.Cause(err).(*LinkError)
	return ok
}

func IsTimeout(err error) bool {
	_, ok := errors.Cause(err).(*TimeoutError)
	return ok
}
