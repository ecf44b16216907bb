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

package name_resolver

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/lru"
	log "github.com/sirupsen/logrus"
)

// NameResolver
// an external interface
type NameResolver interface {
	Resolve(ctx context.Context, target string) (string, error)
}

// HostLookup
// resolves a host name into its addresses
type HostLookup func(ctx context.Context, host string) ([]string, error)

// nameResolverImpl
// an internal interface implementation
type nameResolverImpl struct {
	cache  libcache.Cache
	lookup HostLookup
}

// NewNameResolver
// initialize an interface implementation backed by the system resolver
func NewNameResolver(config entities.ResolverConfig) NameResolver {
	return newNameResolver(config, net.DefaultResolver.LookupHost)
}

func newNameResolver(config entities.ResolverConfig, lookup HostLookup) *nameResolverImpl {
	if config.CacheSize <= 0 {
		config.CacheSize = view.DefaultResolverCacheSize
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = view.DefaultResolverCacheTTL
	}
	ret := &nameResolverImpl{cache: libcache.LRU.New(config.CacheSize), lookup: lookup}
	ret.cache.SetTTL(config.CacheTTL)
	return ret
}

// NormalizeTarget
// strips an http(s) scheme, credentials, port and path from a ping or connect target
func NormalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if u, err := url.Parse(target); err == nil {
			return u.Hostname()
		}
	}
	if idx := strings.IndexByte(target, '/'); idx >= 0 {
		target = target[:idx]
	}
	if idx := strings.LastIndexByte(target, '@'); idx >= 0 {
		target = target[idx+1:]
	}
	if host, _, err := net.SplitHostPort(target); err == nil {
		return host
	}
	return strings.TrimSuffix(strings.TrimPrefix(target, "["), "]")
}

// Resolve
// returns the address to probe for the target, IPv4 preferred
// failed lookups are not cached
func (nr *nameResolverImpl) Resolve(ctx context.Context, target string) (string, error) {
	host := NormalizeTarget(target)
	if host == view.EmptyString {
		return view.EmptyString, fmt.Errorf("%w: empty target", exception.ErrInvalidInput)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	if cached, found := nr.cache.Load(host); found {
		return cached.(string), nil
	}
	addresses, err := nr.lookup(ctx, host)
	if err != nil {
		return view.EmptyString, fmt.Errorf("unable to resolve '%s': %w", host, err)
	}
	if len(addresses) == 0 {
		return view.EmptyString, fmt.Errorf("no addresses found for '%s'", host)
	}
	ret := addresses[0]
	for _, addr := range addresses {
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			ret = addr
			break
		}
	}
	nr.cache.Store(host, ret)
	log.Debugf("'%s' resolved to %s (%d addresses)", host, ret, len(addresses))
	return ret, nil
}
