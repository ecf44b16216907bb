// Copyright 2024-2025 NetCracker Technology Corporation
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

package exception

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorMessage(t *testing.T) {
	ce := &CustomError{
		Status:  http.StatusConflict,
		Code:    PingAlreadyActive,
		Message: PingAlreadyActiveMsg,
		Params:  map[string]interface{}{"target": "127.0.0.1"},
	}
	assert.Equal(t, "ping monitor for 127.0.0.1 is already active (21001)", ce.Error())
	ce.Debug = "second start"
	assert.Equal(t, "ping monitor for 127.0.0.1 is already active (21001: second start)", ce.Error())
}

func TestWrappedSentinels(t *testing.T) {
	err := fmt.Errorf("%w: interval must be positive", ErrInvalidInput)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrAlreadyActive))
}
