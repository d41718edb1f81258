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
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
probe:
  vid: 0x0483
  pid: 0x374b
  swd_clock: 4000000
banks:
  - name: main
    driver: ht32f523xx
    size: 0x10000
    options:
      protection_decode: bitwise
      check_busy_before_mass_erase: "true"
  - name: small
    driver: ht32f523xx
    size: 8192
`

const testINI = `
[probe]
vid = 0x0483
pid = 0x374b
swd_clock = 4000000

[bank main]
driver = ht32f523xx
size = 0x10000
protection_decode = bitwise
check_busy_before_mass_erase = true

[bank small]
driver = ht32f523xx
size = 8192
`

func checkTestConfig(t *testing.T, c *Config) {
	t.Helper()
	assert.Equal(t, Probe{VID: 0x0483, PID: 0x374b, SWDClock: 4000000}, c.Probe)
	require.Len(t, c.Banks, 2)
	assert.Equal(t, &Bank{
		Name:   "main",
		Driver: "ht32f523xx",
		Size:   0x10000,
		Options: map[string]string{
			"protection_decode":            "bitwise",
			"check_busy_before_mass_erase": "true",
		},
	}, c.Banks[0])
	assert.Equal(t, &Bank{Name: "small", Driver: "ht32f523xx", Size: 8192}, c.Banks[1])
	b, err := c.Bank("small")
	require.NoError(t, err)
	assert.Equal(t, uint32(8192), b.Size)
	_, err = c.Bank("flash9")
	assert.True(t, errors.IsNotFound(err))
}

func TestParseYAML(t *testing.T) {
	c, err := ParseYAML([]byte(testYAML))
	require.NoError(t, err)
	checkTestConfig(t, c)
}

func TestParseINI(t *testing.T) {
	c, err := ParseINI([]byte(testINI))
	require.NoError(t, err)
	checkTestConfig(t, c)
}

func TestProbeDefaults(t *testing.T) {
	c, err := ParseYAML([]byte("banks:\n  - {name: b, driver: ht32f523xx, size: 512}\n"))
	require.NoError(t, err)
	assert.Equal(t, Default().Probe, c.Probe)

	c, err = ParseINI([]byte("[bank b]\ndriver = ht32f523xx\nsize = 512\n"))
	require.NoError(t, err)
	assert.Equal(t, Default().Probe, c.Probe)
}

func TestInvalidConfigs(t *testing.T) {
	cases := []struct {
		name string
		ini  bool
		data string
		want []string
	}{
		{name: "no banks", data: "probe: {vid: 1}\n", want: []string{"no banks"}},
		{name: "unknown key", data: "banks: []\nflash: 1\n"},
		{
			name: "all bank problems",
			data: "banks:\n  - {driver: x, size: 1}\n  - {name: a, size: 0}\n  - {name: a, driver: x, size: 1}\n",
			want: []string{"4 error(s)", "bank 0 with no name", `bank "a" with no driver`, `bank "a" size 0`, `duplicate bank "a"`},
		},
		{name: "ini bad size", ini: true, data: "[bank a]\ndriver = x\nsize = big\n", want: []string{"size"}},
		{name: "ini bad vid", ini: true, data: "[probe]\nvid = 0x10000\n[bank a]\ndriver = x\nsize = 1\n", want: []string{"vid"}},
		{name: "ini unknown section", ini: true, data: "[target]\nname = x\n"},
		{name: "ini unknown probe key", ini: true, data: "[probe]\nserial = 1\n"},
		{name: "ini key outside section", ini: true, data: "size = 1\n[bank a]\ndriver = x\nsize = 1\n"},
	}
	for _, c := range cases {
		var err error
		if c.ini {
			_, err = ParseINI([]byte(c.data))
		} else {
			_, err = ParseYAML([]byte(c.data))
		}
		require.Error(t, err, c.name)
		for _, w := range c.want {
			assert.Contains(t, err.Error(), w, c.name)
		}
	}
}

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for fname, data := range map[string]string{
		"ht32.yaml": testYAML,
		"ht32.YML":  testYAML,
		"ht32.ini":  testINI,
	} {
		p := filepath.Join(dir, fname)
		require.NoError(t, ioutil.WriteFile(p, []byte(data), 0644))
		c, err := Load(p)
		require.NoError(t, err, fname)
		checkTestConfig(t, c)
	}

	p := filepath.Join(dir, "ht32.toml")
	require.NoError(t, ioutil.WriteFile(p, []byte(testYAML), 0644))
	_, err = Load(p)
	assert.True(t, errors.IsNotSupported(err), "%s", err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestDefaultRoundTrip(t *testing.T) {
	d := Default()
	require.NoError(t, d.Validate())
	data, err := d.Marshal()
	require.NoError(t, err)
	c, err := ParseYAML(data)
	require.NoError(t, err)
	assert.Equal(t, d, c)
}
