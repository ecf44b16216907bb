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

package registry

import (
	"encoding/json"
	"sync"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/services/disk_cache"
	log "github.com/sirupsen/logrus"
)

// PingArchiveName disk cache name prefix
const PingArchiveName = "ping_archive_"

// PingArchive
// results of stopped ping monitors, kept until the target is started again
type PingArchive interface {
	Store(target string, results []entities.PingResult)
	Load(target string) ([]entities.PingResult, bool)
	Delete(target string)
	Close()
}

type diskArchive struct {
	cache disk_cache.DiskCache
}

// NewDiskArchive
// an archive backed by a temporary pogreb store
func NewDiskArchive(cache disk_cache.DiskCache) PingArchive {
	return &diskArchive{cache: cache}
}

func (a *diskArchive) Store(target string, results []entities.PingResult) {
	data, err := json.Marshal(results)
	if err != nil {
		log.Errorf("unable to encode ping results for '%s': %v", target, err)
		return
	}
	if err = a.cache.StoreItem(target, data); err != nil {
		log.Errorf("unable to archive ping results for '%s': %v", target, err)
	}
}

func (a *diskArchive) Load(target string) ([]entities.PingResult, bool) {
	data, err := a.cache.GetItem(target)
	if err != nil {
		log.Errorf("unable to read archived ping results for '%s': %v", target, err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	ret := make([]entities.PingResult, 0)
	if err = json.Unmarshal(data, &ret); err != nil {
		log.Errorf("unable to decode archived ping results for '%s': %v", target, err)
		return nil, false
	}
	return ret, true
}

func (a *diskArchive) Delete(target string) {
	if err := a.cache.Delete(target); err != nil {
		log.Debugf("unable to drop archived ping results for '%s': %v", target, err)
	}
}

func (a *diskArchive) Close() {
	if err := a.cache.Close(); err != nil {
		log.Warnf("ping archive close: %v", err)
	}
}

// memoryArchive
// used when the work directory is not writable
type memoryArchive struct {
	lock    sync.Mutex
	results map[string][]entities.PingResult
}

func NewMemoryArchive() PingArchive {
	return &memoryArchive{results: make(map[string][]entities.PingResult)}
}

func (a *memoryArchive) Store(target string, results []entities.PingResult) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.results[target] = results
}

func (a *memoryArchive) Load(target string) ([]entities.PingResult, bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	results, found := a.results[target]
	if !found {
		return nil, false
	}
	ret := make([]entities.PingResult, len(results))
	copy(ret, results)
	return ret, true
}

func (a *memoryArchive) Delete(target string) {
	a.lock.Lock()
	defer a.lock.Unlock()
	delete(a.results, target)
}

func (a *memoryArchive) Close() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.results = make(map[string][]entities.PingResult)
}
