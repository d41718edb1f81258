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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	o := New().Options()
	assert.Equal(t, ProtectionDecodeLegacy, o.ProtectionDecode)
	assert.False(t, o.CheckBusyBeforeMassErase)
	assert.False(t, o.MarkWrittenNotErased)
	assert.Equal(t, 1000, o.Timeout)
	assert.Equal(t, 10*time.Millisecond, o.PollInterval)
	assert.NotNil(t, o.Sleep)
}

func TestOptionsFromMap(t *testing.T) {
	cases := []struct {
		m    map[string]string
		fail bool
		want func(o Options) bool
	}{
		{m: nil, want: func(o Options) bool { return o.Timeout == DefaultTimeout }},
		{m: map[string]string{"protection_decode": "legacy"}, want: func(o Options) bool {
			return o.ProtectionDecode == ProtectionDecodeLegacy
		}},
		{m: map[string]string{"protection_decode": "Bitwise"}, want: func(o Options) bool {
			return o.ProtectionDecode == ProtectionDecodeBitwise
		}},
		{m: map[string]string{"protection_decode": "shifty"}, fail: true},
		{m: map[string]string{"check_busy_before_mass_erase": "1"}, want: func(o Options) bool {
			return o.CheckBusyBeforeMassErase && !o.MarkWrittenNotErased
		}},
		{m: map[string]string{"mark_written_not_erased": "true"}, want: func(o Options) bool {
			return o.MarkWrittenNotErased && !o.CheckBusyBeforeMassErase
		}},
		{m: map[string]string{"mark_written_not_erased": "maybe"}, fail: true},
		{m: map[string]string{"timeout": "50"}, want: func(o Options) bool { return o.Timeout == 50 }},
		{m: map[string]string{"timeout": "0"}, fail: true},
		{m: map[string]string{"timeout": "x"}, fail: true},
		{m: map[string]string{"poll_interval": "1ms"}, want: func(o Options) bool {
			return o.PollInterval == time.Millisecond
		}},
		{m: map[string]string{"poll_interval": "-1s"}, fail: true},
		{m: map[string]string{"page_size": "1024"}, fail: true},
	}
	for _, c := range cases {
		opts, err := OptionsFromMap(c.m)
		if c.fail {
			assert.Error(t, err, "%v", c.m)
			continue
		}
		require.NoError(t, err, "%v", c.m)
		assert.True(t, c.want(New(opts...).Options()), "%v", c.m)
	}
}

func TestParseProtectionDecode(t *testing.T) {
	for _, d := range []ProtectionDecode{ProtectionDecodeLegacy, ProtectionDecodeBitwise} {
		pd, err := ParseProtectionDecode(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, pd)
	}
	pd, err := ParseProtectionDecode("")
	require.NoError(t, err)
	assert.Equal(t, ProtectionDecodeLegacy, pd)
}
