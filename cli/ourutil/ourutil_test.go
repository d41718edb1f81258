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
package ourutil

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindNamedSubmatches(t *testing.T) {
	re := regexp.MustCompile(`^(?P<vid>[0-9a-f]{4}):(?P<pid>[0-9a-f]{4})$`)
	assert.Equal(t, map[string]string{"vid": "04d9", "pid": "8004"}, FindNamedSubmatches(re, "04d9:8004"))
	assert.Nil(t, FindNamedSubmatches(re, "04d9"))
}

func TestFreportf(t *testing.T) {
	var buf bytes.Buffer
	Freportf(&buf, "Erasing %d sectors", 4)
	assert.Equal(t, "Erasing 4 sectors\n", buf.String())
}
