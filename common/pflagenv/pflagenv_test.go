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
package pflagenv

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagSet(t *testing.T) {
	fs := pflag.NewFlagSet("pflagenv-test", pflag.ContinueOnError)

	var bank, config, lockDir string
	var clock uint32
	var verify bool
	fs.StringVar(&bank, "bank", "flash0", "")
	fs.StringVar(&config, "config", "", "")
	fs.StringVar(&lockDir, "lock-dir", "/tmp", "")
	fs.Uint32Var(&clock, "swd-clock", 1000000, "")
	fs.BoolVar(&verify, "verify", false, "")
	require.NoError(t, fs.Parse([]string{"--bank=flash1", "--config="}))

	os.Setenv("HT32TEST_BANK", "env-bank")
	os.Setenv("HT32TEST_CONFIG", "env.yaml")
	os.Setenv("HT32TEST_SWD_CLOCK", "4000000")
	os.Setenv("HT32TEST_VERIFY", "true")
	defer func() {
		for _, v := range []string{"BANK", "CONFIG", "SWD_CLOCK", "VERIFY"} {
			os.Unsetenv("HT32TEST_" + v)
		}
	}()
	require.NoError(t, ParseFlagSet(fs, "HT32TEST_"))

	assert.Equal(t, "flash1", bank)
	assert.Equal(t, "", config)
	assert.Equal(t, uint32(4000000), clock)
	assert.True(t, verify)
	assert.True(t, fs.Changed("swd-clock"))
	assert.Equal(t, "/tmp", lockDir)
	assert.False(t, fs.Changed("lock-dir"))
}

func TestParseFlagSetBadValue(t *testing.T) {
	fs := pflag.NewFlagSet("pflagenv-test", pflag.ContinueOnError)
	var clock uint32
	var verify, halt bool
	fs.Uint32Var(&clock, "swd-clock", 1000000, "")
	fs.BoolVar(&verify, "verify", false, "")
	fs.BoolVar(&halt, "halt", true, "")
	require.NoError(t, fs.Parse(nil))

	os.Setenv("HT32TEST_SWD_CLOCK", "fast")
	os.Setenv("HT32TEST_VERIFY", "sometimes")
	os.Setenv("HT32TEST_HALT", "maybe")
	defer os.Unsetenv("HT32TEST_SWD_CLOCK")
	defer os.Unsetenv("HT32TEST_VERIFY")
	defer os.Unsetenv("HT32TEST_HALT")
	err := ParseFlagSet(fs, "HT32TEST_")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 error(s)")
	assert.Contains(t, err.Error(), "HT32TEST_SWD_CLOCK")

	// Values that fail to parse leave the flag as it was.
	assert.Equal(t, uint32(1000000), clock)
	assert.False(t, verify)
	assert.True(t, halt)
	assert.False(t, fs.Changed("swd-clock"))
	assert.False(t, fs.Changed("halt"))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "HT32FLASH_PROBE_VID", EnvName("probe-vid", "HT32FLASH_"))
}
