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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Netcracker/qubership-netdiag-agent/utils"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/akrylysov/pogreb"
	log "github.com/sirupsen/logrus"
)

const (
	ErrorCacheIsNil         = "cache %s is closed"
	ErrorCacheDelete        = "cache %s failed to delete key %s. Error %v"
	ErrorCacheStore         = "cache %s failed to store item under key %s. Error %v"
	ErrorCacheKeyNotInvalid = "invalid cache key for %s"
)

// DiskCache
// a temporary key/value store removed from disk on Close
type DiskCache interface {
	StoreItem(cacheKey string, value []byte) error
	GetItem(cacheKey string) ([]byte, error)
	Delete(cacheKey string) error
	Sync() int
	Count() int
	Close() error
}

// diskCache
// implementation for public interface
type diskCache struct {
	lock      sync.RWMutex // guards db against Close
	db        *pogreb.DB
	cacheName string
	cacheDir  string
}

// NewDiskCache
// creates a new instance under a unique directory in cacheDir (OS temp when empty)
func NewDiskCache(cacheName string, cacheDir string) (DiskCache, error) {
	if cacheDir == view.EmptyString {
		cacheDir = os.TempDir()
	}
	cachePath := filepath.Join(cacheDir, cacheName+utils.MakeUniqueId())
	cacheInstance, err := pogreb.Open(cachePath, nil)
	if err != nil {
		return nil, err
	}
	log.Debugf("Cache %s opened at '%s'", cacheName, cachePath)
	return &diskCache{
		db:        cacheInstance,
		cacheName: cacheName,
		cacheDir:  cachePath,
	}, nil
}

// StoreItem
// store or replace item in cache
func (cache *diskCache) StoreItem(cacheKey string, value []byte) error {
	if cacheKey == view.EmptyString {
		return fmt.Errorf(ErrorCacheKeyNotInvalid, cache.cacheName)
	}
	cache.lock.RLock()
	defer cache.lock.RUnlock()
	if cache.db == nil {
		return fmt.Errorf(ErrorCacheIsNil, cache.cacheName)
	}
	if err := cache.db.Put([]byte(cacheKey), value); err != nil {
		return fmt.Errorf(ErrorCacheStore, cache.cacheName, cacheKey, err)
	}
	return nil
}

// GetItem
// returns item value as byte array, nil when the key is absent
func (cache *diskCache) GetItem(cacheKey string) ([]byte, error) {
	if cacheKey == view.EmptyString {
		return nil, fmt.Errorf(ErrorCacheKeyNotInvalid, cache.cacheName)
	}
	cache.lock.RLock()
	defer cache.lock.RUnlock()
	if cache.db == nil {
		return nil, fmt.Errorf(ErrorCacheIsNil, cache.cacheName)
	}
	return cache.db.Get([]byte(cacheKey))
}

// Delete
// removes the key, absent keys are not an error
func (cache *diskCache) Delete(cacheKey string) error {
	if cacheKey == view.EmptyString {
		return fmt.Errorf(ErrorCacheKeyNotInvalid, cache.cacheName)
	}
	cache.lock.RLock()
	defer cache.lock.RUnlock()
	if cache.db == nil {
		return fmt.Errorf(ErrorCacheIsNil, cache.cacheName)
	}
	if err := cache.db.Delete([]byte(cacheKey)); err != nil {
		return fmt.Errorf(ErrorCacheDelete, cache.cacheName, cacheKey, err)
	}
	return nil
}

// Sync
// flush cache data on disk
func (cache *diskCache) Sync() int {
	cache.lock.RLock()
	defer cache.lock.RUnlock()
	if cache.db != nil {
		if cache.db.Sync() == nil {
			return int(cache.db.Count())
		}
	}
	return -1
}

// Count
// returns cached item count
func (cache *diskCache) Count() int {
	cache.lock.RLock()
	defer cache.lock.RUnlock()
	if cache.db != nil {
		return int(cache.db.Count())
	}
	return -1
}

// Close
// dispose cache and remove underlying files
func (cache *diskCache) Close() error {
	cache.lock.Lock()
	defer cache.lock.Unlock()
	if cache.db == nil {
		return fmt.Errorf(ErrorCacheIsNil, cache.cacheName)
	}
	recCnt := cache.db.Count()
	if err := cache.db.Close(); err != nil {
		return err
	}
	log.Debugf("Cache %s closed (%d)", cache.cacheName, recCnt)
	cache.db = nil
	if _, err := os.Stat(cache.cacheDir); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cache path is not accessible '%s'. Error: %v", cache.cacheDir, err)
		}
		return nil
	}
	if err := os.RemoveAll(cache.cacheDir); err != nil {
		return fmt.Errorf("unable to delete cache files at '%s'. Error: %v", cache.cacheDir, err)
	}
	return nil
}
