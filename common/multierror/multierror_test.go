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
package multierror

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	var err error
	err = Append(err, errors.Errorf("bank flash0: no driver"))
	require.Error(t, err)
	assert.Equal(t, "1 error(s) occurred:\nbank flash0: no driver", err.Error())

	err = Append(err, nil, errors.Errorf("bank flash1: size 0"))
	assert.Equal(t, "2 error(s) occurred:\nbank flash0: no driver\nbank flash1: size 0", err.Error())
	assert.Len(t, err.(*Error).Errors(), 2)

	err = errors.Errorf("old error")
	err = Append(err, errors.Errorf("new error"))
	assert.Equal(t, "2 error(s) occurred:\nold error\nnew error", err.Error())
}

func TestAppendNothing(t *testing.T) {
	assert.Nil(t, Append(nil))
	assert.Nil(t, Append(nil, nil, nil))
	var err error
	for _, e := range []error{nil, nil} {
		err = Append(err, e)
	}
	assert.NoError(t, err)
}
