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
package ht32f523xx

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
)

// ProtectionDecode selects how page protection bits are extracted from the
// option byte words.
type ProtectionDecode int

const (
	// ProtectionDecodeLegacy computes (word << n) & 1, which only ever looks
	// at bit 0 of the word, and only for n == 0. This is what the vendor
	// driver does; kept as the default until confirmed on hardware.
	ProtectionDecodeLegacy ProtectionDecode = iota
	// ProtectionDecodeBitwise computes (word >> n) & 1, one bit per page pair.
	ProtectionDecodeBitwise
)

func (d ProtectionDecode) String() string {
	if d == ProtectionDecodeBitwise {
		return "bitwise"
	}
	return "legacy"
}

func ParseProtectionDecode(s string) (ProtectionDecode, error) {
	switch strings.ToLower(s) {
	case "", "legacy":
		return ProtectionDecodeLegacy, nil
	case "bitwise":
		return ProtectionDecodeBitwise, nil
	}
	return 0, errors.NotValidf("protection decode %q (want legacy or bitwise)", s)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Options struct {
	ProtectionDecode ProtectionDecode
	// CheckBusyBeforeMassErase waits for the controller to become ready
	// before issuing a mass erase. The vendor driver does not.
	CheckBusyBeforeMassErase bool
	// MarkWrittenNotErased clears the erased flag of every sector a
	// successful word program lands in. The vendor driver leaves it alone.
	MarkWrittenNotErased bool
	// Timeout is the number of status poll retries per transaction.
	Timeout      int
	PollInterval time.Duration
	Sleep        SleepFunc
}

func defaultOptions() Options {
	return Options{
		ProtectionDecode: ProtectionDecodeLegacy,
		Timeout:          DefaultTimeout,
		PollInterval:     DefaultPollInterval,
		Sleep:            sleepCtx,
	}
}

type Option func(*Options)

func WithProtectionDecode(d ProtectionDecode) Option {
	return func(o *Options) {
		o.ProtectionDecode = d
	}
}

func WithBusyCheckBeforeMassErase(check bool) Option {
	return func(o *Options) {
		o.CheckBusyBeforeMassErase = check
	}
}

func WithMarkWrittenNotErased(mark bool) Option {
	return func(o *Options) {
		o.MarkWrittenNotErased = mark
	}
}

// WithTimeout sets the poll retry budget. Non-positive values are ignored.
func WithTimeout(retries int) Option {
	return func(o *Options) {
		if retries > 0 {
			o.Timeout = retries
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = d
	}
}

// WithSleep replaces the function used to wait between status polls.
func WithSleep(sleep SleepFunc) Option {
	return func(o *Options) {
		if sleep != nil {
			o.Sleep = sleep
		}
	}
}

// Option keys accepted in bank configuration.
const (
	OptProtectionDecode         = "protection_decode"
	OptCheckBusyBeforeMassErase = "check_busy_before_mass_erase"
	OptMarkWrittenNotErased     = "mark_written_not_erased"
	OptTimeout                  = "timeout"
	OptPollInterval             = "poll_interval"
)

// OptionsFromMap converts bank configuration options into driver options.
func OptionsFromMap(m map[string]string) ([]Option, error) {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var opts []Option
	for _, k := range keys {
		v := m[k]
		switch k {
		case OptProtectionDecode:
			d, err := ParseProtectionDecode(v)
			if err != nil {
				return nil, errors.Trace(err)
			}
			opts = append(opts, WithProtectionDecode(d))
		case OptCheckBusyBeforeMassErase, OptMarkWrittenNotErased:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, errors.NotValidf("%s value %q", k, v)
			}
			if k == OptCheckBusyBeforeMassErase {
				opts = append(opts, WithBusyCheckBeforeMassErase(b))
			} else {
				opts = append(opts, WithMarkWrittenNotErased(b))
			}
		case OptTimeout:
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, errors.NotValidf("%s value %q", k, v)
			}
			opts = append(opts, WithTimeout(n))
		case OptPollInterval:
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				return nil, errors.NotValidf("%s value %q", k, v)
			}
			opts = append(opts, WithPollInterval(d))
		default:
			return nil, errors.NotValidf("option %q", k)
		}
	}
	return opts, nil
}
