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

// Package registry
// owns the capture engine, the ping monitors and the TCP probe of the agent
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/services/capture"
	"github.com/Netcracker/qubership-netdiag-agent/services/name_resolver"
	"github.com/Netcracker/qubership-netdiag-agent/services/ping"
	"github.com/Netcracker/qubership-netdiag-agent/services/tcp_probe"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	log "github.com/sirupsen/logrus"
)

// SessionRegistry
// every remote operation of the agent
type SessionRegistry interface {
	GetInterfaces() ([]string, error)
	GetInterfaceDetails() ([]view.InterfaceDetails, error)
	StartCapture(interfaceName, filter string) error
	StopCapture() error
	GetPackets() []entities.Packet
	GetPacketsSince(from int) entities.CaptureSnapshot
	GetCaptureStats() entities.CaptureStats
	GetCaptureStatus() view.CaptureStatus
	StartPing(target string, interval time.Duration) error
	StopPing(target string) error
	GetPingResults(target string) []entities.PingResult
	GetPingTargets() []string
	TestTCPConnection(ctx context.Context, host string, port int, timeout time.Duration) (entities.TCPResult, error)
	Close()
}

// activeMonitor
// a running monitor and the start it belongs to
type activeMonitor struct {
	monitor    ping.PingMonitor
	generation uint64
}

type sessionRegistryImpl struct {
	capture      capture.Capture
	pingConfig   entities.PingServiceConfig
	pinger       ping.Pinger
	resolver     name_resolver.NameResolver
	probe        tcp_probe.TcpProbe
	archive      PingArchive
	pingListener ping.Listener
	lock         sync.Mutex // protects monitors, stopping and starts
	monitors     map[string]activeMonitor
	stopping     map[string]activeMonitor // stopped, results not archived yet
	starts       map[string]uint64        // last generation started per target
}

// NewSessionRegistry
// pingListener may be nil
func NewSessionRegistry(cap capture.Capture, pingConfig entities.PingServiceConfig, pinger ping.Pinger,
	resolver name_resolver.NameResolver, probe tcp_probe.TcpProbe, archive PingArchive, pingListener ping.Listener) SessionRegistry {
	if archive == nil {
		archive = NewMemoryArchive()
	}
	return &sessionRegistryImpl{
		capture:      cap,
		pingConfig:   pingConfig,
		pinger:       pinger,
		resolver:     resolver,
		probe:        probe,
		archive:      archive,
		pingListener: pingListener,
		monitors:     make(map[string]activeMonitor),
		stopping:     make(map[string]activeMonitor),
		starts:       make(map[string]uint64),
	}
}

func (r *sessionRegistryImpl) GetInterfaces() ([]string, error) {
	return r.capture.GetInterfaces()
}

func (r *sessionRegistryImpl) GetInterfaceDetails() ([]view.InterfaceDetails, error) {
	return r.capture.GetInterfaceDetails()
}

func (r *sessionRegistryImpl) StartCapture(interfaceName, filter string) error {
	return r.capture.StartCapture(interfaceName, filter)
}

func (r *sessionRegistryImpl) StopCapture() error {
	return r.capture.StopCapture()
}

func (r *sessionRegistryImpl) GetPackets() []entities.Packet {
	return r.capture.GetPackets()
}

// GetPacketsSince
// from zero is the whole session taken atomically with its statistics
func (r *sessionRegistryImpl) GetPacketsSince(from int) entities.CaptureSnapshot {
	if from <= 0 {
		return r.capture.GetSnapshot()
	}
	return r.capture.GetPacketsSince(from)
}

func (r *sessionRegistryImpl) GetCaptureStats() entities.CaptureStats {
	return r.capture.GetCaptureStats()
}

func (r *sessionRegistryImpl) GetCaptureStatus() view.CaptureStatus {
	return r.capture.GetStatus()
}

// StartPing
// exactly one of concurrent starts for the same target succeeds
// archived results of the target are discarded
func (r *sessionRegistryImpl) StartPing(target string, interval time.Duration) error {
	target = strings.TrimSpace(target)
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, exists := r.monitors[target]; exists {
		return fmt.Errorf("%w: ping monitor for '%s' is running", exception.ErrAlreadyActive, target)
	}
	monitor, err := ping.StartMonitor(target, interval, r.pingConfig, r.pinger, r.resolver, r.pingListener)
	if err != nil {
		return err
	}
	r.starts[target]++
	r.monitors[target] = activeMonitor{monitor: monitor, generation: r.starts[target]}
	r.archive.Delete(target)
	return nil
}

// StopPing
// no-op for unknown targets, the loop is joined outside the registry lock
// the monitor stays readable from stopping until its results are archived
func (r *sessionRegistryImpl) StopPing(target string) error {
	target = strings.TrimSpace(target)
	r.lock.Lock()
	active, exists := r.monitors[target]
	if !exists {
		r.lock.Unlock()
		log.Debugf("no ping monitor for '%s' to stop", target)
		return nil
	}
	delete(r.monitors, target)
	r.stopping[target] = active
	r.lock.Unlock()

	active.monitor.Stop()
	results := active.monitor.GetResults()

	r.lock.Lock()
	defer r.lock.Unlock()
	if r.starts[target] == active.generation {
		r.archive.Store(target, results)
	}
	if current, found := r.stopping[target]; found && current.generation == active.generation {
		delete(r.stopping, target)
	}
	log.Infof("ping monitor for '%s' stopped with %d results", target, len(results))
	return nil
}

// GetPingResults
// the running monitor first, then a stopping one, then the archive, otherwise an empty sequence
func (r *sessionRegistryImpl) GetPingResults(target string) []entities.PingResult {
	target = strings.TrimSpace(target)
	r.lock.Lock()
	active, exists := r.monitors[target]
	if !exists {
		active, exists = r.stopping[target]
	}
	r.lock.Unlock()
	if exists {
		return active.monitor.GetResults()
	}
	if results, found := r.archive.Load(target); found {
		return results
	}
	return make([]entities.PingResult, 0)
}

// GetPingTargets
// targets with a running monitor, sorted
func (r *sessionRegistryImpl) GetPingTargets() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	ret := make([]string, 0, len(r.monitors))
	for target := range r.monitors {
		ret = append(ret, target)
	}
	sort.Strings(ret)
	return ret
}

func (r *sessionRegistryImpl) TestTCPConnection(ctx context.Context, host string, port int, timeout time.Duration) (entities.TCPResult, error) {
	return r.probe.TestTCPConnection(ctx, host, port, timeout)
}

// Close
// stops everything, the registry is not usable afterward
func (r *sessionRegistryImpl) Close() {
	if err := r.capture.StopCapture(); err != nil {
		log.Warnf("unable to stop capture: %v", err)
	}
	for _, target := range r.GetPingTargets() {
		_ = r.StopPing(target)
	}
	r.archive.Close()
}
