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

package disk_cache

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cacheTestName = "disk_cache_test"
)

func TestNewDiskCache(t *testing.T) {
	dirName := t.TempDir()
	dc, err := NewDiskCache(cacheTestName, dirName)
	require.NoError(t, err)
	require.NotNil(t, dc)

	stored := []entities.PingResult{{Timestamp: time.Unix(1700000000, 0).UTC(), RTT: time.Millisecond, Success: true, IP: "10.0.0.1"}}
	jsonBytes, err := json.Marshal(stored)
	require.NoError(t, err)
	assert.NoError(t, dc.StoreItem("10.0.0.1", jsonBytes))
	itemBytes, err := dc.GetItem("10.0.0.1")
	require.NoError(t, err)
	var loaded []entities.PingResult
	require.NoError(t, json.Unmarshal(itemBytes, &loaded))
	require.Len(t, loaded, 1)
	assert.True(t, stored[0].Timestamp.Equal(loaded[0].Timestamp))
	assert.Equal(t, stored[0].RTT, loaded[0].RTT)
	assert.Equal(t, stored[0].IP, loaded[0].IP)

	assert.NoError(t, dc.StoreItem("10.0.0.1", []byte(cacheTestName)))
	itemBytes, err = dc.GetItem("10.0.0.1")
	assert.NoError(t, err)
	assert.Equal(t, cacheTestName, string(itemBytes))
	assert.Equal(t, 1, dc.Count())

	assert.NoError(t, dc.Close())
	files, err := os.ReadDir(dirName)
	require.NoError(t, err)
	objCount := 0
	for _, file := range files {
		if strings.HasPrefix(file.Name(), cacheTestName) {
			objCount++
		}
	}
	assert.Equal(t, 0, objCount)
}

func TestDiskCacheDelete(t *testing.T) {
	dc, err := NewDiskCache(cacheTestName, t.TempDir())
	require.NoError(t, err)
	defer dc.Close()
	require.NoError(t, dc.StoreItem("b", []byte("2")))
	require.NoError(t, dc.StoreItem("a", []byte("1")))
	assert.Equal(t, 2, dc.Count())

	require.NoError(t, dc.Delete("a"))
	require.NoError(t, dc.Delete("missing"))
	val, err := dc.GetItem("a")
	assert.NoError(t, err)
	assert.Nil(t, val)
	assert.Equal(t, 1, dc.Sync())
}

func TestDiskCacheInvalidKeyAndClosed(t *testing.T) {
	dc, err := NewDiskCache(cacheTestName, t.TempDir())
	require.NoError(t, err)
	assert.Error(t, dc.StoreItem("", []byte("x")))
	_, err = dc.GetItem("")
	assert.Error(t, err)
	require.NoError(t, dc.Close())
	assert.Error(t, dc.StoreItem("a", []byte("x")))
	assert.Error(t, dc.Close())
	assert.Equal(t, -1, dc.Count())
}
