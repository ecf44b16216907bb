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

// Package ping
// periodic ICMP echo monitors, one per target
package ping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/services/name_resolver"
	"github.com/Netcracker/qubership-netdiag-agent/utils"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	log "github.com/sirupsen/logrus"
)

// Listener
// receives every recorded result, must not block
type Listener interface {
	OnPingResult(target string, result entities.PingResult)
}

// PingMonitor
// a running per-target loop
type PingMonitor interface {
	Target() string
	Interval() time.Duration
	GetResults() []entities.PingResult
	IsRunning() bool
	Stop()
}

type pingMonitorImpl struct {
	target   string
	interval time.Duration
	config   entities.PingServiceConfig
	pinger   Pinger
	resolver name_resolver.NameResolver
	listener Listener
	cancel   context.CancelFunc
	done     chan struct{}
	lock     sync.Mutex // protects results
	results  []entities.PingResult
}

// StartMonitor
// validates the request and starts the loop, the first echo is sent one interval after start
// attempts never overlap, ticks missed while an attempt is in flight are dropped
func StartMonitor(target string, interval time.Duration, config entities.PingServiceConfig, pinger Pinger,
	resolver name_resolver.NameResolver, listener Listener) (PingMonitor, error) {
	if strings.TrimSpace(target) == view.EmptyString {
		return nil, fmt.Errorf("%w: empty ping target", exception.ErrInvalidInput)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: ping interval must be positive", exception.ErrInvalidInput)
	}
	if config.Timeout <= 0 {
		config.Timeout = view.DefaultPingTimeout
	}
	if config.MaxResults <= 0 {
		config.MaxResults = view.DefaultPingMaxResults
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &pingMonitorImpl{
		target:   target,
		interval: interval,
		config:   config,
		pinger:   pinger,
		resolver: resolver,
		listener: listener,
		cancel:   cancel,
		done:     make(chan struct{}),
		results:  make([]entities.PingResult, 0),
	}
	utils.SafeAsyncNamed("ping "+target, func() {
		m.run(ctx)
	})
	log.Infof("ping monitor for '%s' started, interval %v", target, interval)
	return m, nil
}

func (m *pingMonitorImpl) Target() string {
	return m.target
}

func (m *pingMonitorImpl) Interval() time.Duration {
	return m.interval
}

// GetResults
// a copy in attempt order
func (m *pingMonitorImpl) GetResults() []entities.PingResult {
	m.lock.Lock()
	defer m.lock.Unlock()
	ret := make([]entities.PingResult, len(m.results))
	copy(ret, m.results)
	return ret
}

func (m *pingMonitorImpl) IsRunning() bool {
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Stop
// cancels the in-flight attempt and waits for the loop, safe to call twice
func (m *pingMonitorImpl) Stop() {
	m.cancel()
	<-m.done
}

func (m *pingMonitorImpl) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("ping monitor for '%s' stopped", m.target)
			return
		case <-ticker.C:
			result, ok := m.attempt(ctx)
			if !ok {
				continue
			}
			m.record(result)
			if m.listener != nil {
				m.listener.OnPingResult(m.target, result)
			}
		}
	}
}

// attempt
// one resolve and echo, not reported when interrupted by Stop
func (m *pingMonitorImpl) attempt(ctx context.Context) (entities.PingResult, bool) {
	result := entities.PingResult{Timestamp: time.Now()}
	attemptCtx, cancel := context.WithTimeout(ctx, m.config.Timeout+time.Second)
	defer cancel()

	ip, err := m.resolver.Resolve(attemptCtx, m.target)
	if err != nil {
		if ctx.Err() != nil {
			return result, false
		}
		result.Error = fmt.Sprintf("name resolution failed: %v", err)
		return result, true
	}
	result.IP = ip
	rtt, err := m.pinger.Ping(attemptCtx, ip)
	if err != nil {
		if ctx.Err() != nil {
			return result, false
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrRequestTimeout
		}
		result.Error = err.Error()
		log.Debugf("ping %s (%s): %v", m.target, ip, err)
		return result, true
	}
	result.Success = true
	result.RTT = rtt
	return result, true
}

// record
// appends and trims the oldest results over the limit
func (m *pingMonitorImpl) record(result entities.PingResult) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.results = append(m.results, result)
	if over := len(m.results) - m.config.MaxResults; over > 0 {
		m.results = m.results[over:]
	}
}
