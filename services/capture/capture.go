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

// Package capture
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/services/decoder"
	"github.com/Netcracker/qubership-netdiag-agent/utils"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	log "github.com/sirupsen/logrus"
)

const (
	// stopGracePeriod how long Stop waits for the loop before closing the handle under it
	stopGracePeriod = time.Second * 30
	// initialBufferSize packet buffer preallocation
	initialBufferSize = 1024
)

// Capture public interface
type Capture interface {
	StartCapture(interfaceName, filter string) error
	StopCapture() error
	GetPackets() []entities.Packet
	GetPacketsSince(from int) entities.CaptureSnapshot
	GetCaptureStats() entities.CaptureStats
	GetSnapshot() entities.CaptureSnapshot
	GetStatus() view.CaptureStatus
	GetInterfaces() ([]string, error)
	GetInterfaceDetails() ([]view.InterfaceDetails, error)
}

// Listener
// receives capture events, must not block
type Listener interface {
	OnPacket(sessionId string, packet entities.Packet)
	OnCaptureState(status view.CaptureStatus)
}

// captureSession
// one run between start and stop
type captureSession struct {
	id        string
	device    string
	filter    string
	startTime time.Time
	handle    PacketHandle
	stopChan  chan struct{} // closed on stop request
	done      chan struct{} // closed when the loop has exited
	stopOnce  sync.Once
	closeOnce sync.Once
}

// underlying type for public interface
type captureInternal struct {
	serviceConfig entities.CaptureServiceConfig // static part of the configuration
	decoder       decoder.Decoder
	listener      Listener
	openHandle    HandleOpener
	listDevices   DeviceLister
	compileFilter FilterCompiler
	cmdLock       sync.Mutex // serializes start and stop commands
	lock          sync.Mutex // protects the fields below, never held across I/O
	state         view.CaptureState
	session       *captureSession
	packets       []entities.Packet
	stats         entities.CaptureStats
	lastError     string
}

// NewCapture
// creates a new packet capture service instance working on libpcap devices
func NewCapture(staticConfig entities.CaptureServiceConfig, dec decoder.Decoder, listener Listener) Capture {
	return newCaptureInternal(staticConfig, dec, listener, OpenLiveHandle, pcapDevices, CompileLiveFilter)
}

func newCaptureInternal(staticConfig entities.CaptureServiceConfig, dec decoder.Decoder, listener Listener,
	opener HandleOpener, lister DeviceLister, compiler FilterCompiler) *captureInternal {
	if staticConfig.SnapshotLen <= 0 {
		staticConfig.SnapshotLen = view.DefaultSnapLenBytes
	}
	if staticConfig.ReadTimeout <= 0 {
		staticConfig.ReadTimeout = view.DefaultReadTimeout
	}
	if staticConfig.MaxReadErrors <= 0 {
		staticConfig.MaxReadErrors = view.DefaultMaxReadErrors
	}
	return &captureInternal{
		serviceConfig: staticConfig,
		decoder:       dec,
		listener:      listener,
		openHandle:    opener,
		listDevices:   lister,
		compileFilter: compiler,
		state:         view.CapStateNone,
		packets:       make([]entities.Packet, 0),
	}
}

// StartCapture
// opens the interface and starts the acquisition loop
// returns when the loop is confirmed running
func (cap *captureInternal) StartCapture(interfaceName, filter string) error {
	device := view.DeviceName(interfaceName)
	if device == view.EmptyString {
		return fmt.Errorf("%w: empty interface name", exception.ErrInvalidInput)
	}
	if len(filter) > view.FilterMaxLength {
		return fmt.Errorf("%w: filter expression is too big", exception.ErrInvalidInput)
	}
	cap.cmdLock.Lock()
	defer cap.cmdLock.Unlock()
	cap.lock.Lock()
	if cap.state.IsActive() && cap.session != nil {
		active := cap.session
		cap.lock.Unlock()
		return fmt.Errorf("%w: capture '%s' is running on '%s'", exception.ErrAlreadyActive, active.id, active.device)
	}
	cap.lock.Unlock()

	if err := findDevice(cap.listDevices, device); err != nil {
		return err
	}
	handle, err := cap.openHandle(device, cap.serviceConfig)
	if err != nil {
		log.Errorf("Unable to open capture at '%s'. Error: '%v'", device, err)
		return fmt.Errorf("%w: unable to open '%s': %v", exception.ErrInvalidInterface, device, err)
	}
	if filter != view.EmptyString {
		if err = cap.compileFilter(filter, handle.LinkType(), cap.serviceConfig.SnapshotLen); err == nil {
			err = handle.SetBPFFilter(filter)
		}
		if err != nil {
			handle.Close()
			log.Errorf("Unable to set filter '%s'. Error: '%v'", filter, err)
			return fmt.Errorf("%w: filter '%s': %v", exception.ErrInvalidInput, filter, err)
		}
		log.Printf("Using filter: '%s'", filter)
	}

	session := &captureSession{
		id:        utils.MakeUniqueId(),
		device:    device,
		filter:    filter,
		startTime: time.Now(),
		handle:    handle,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	cap.lock.Lock()
	cap.session = session
	cap.packets = make([]entities.Packet, 0, initialBufferSize)
	cap.stats = entities.CaptureStats{StartTime: session.startTime.UnixMilli()}
	cap.state = view.CapStateStarting
	cap.lastError = view.EmptyString
	cap.lock.Unlock()

	started := make(chan struct{})
	utils.SafeAsyncNamed("capture "+session.id, func() {
		cap.capturePackets(session, started)
	})
	select {
	case <-started:
	case <-time.After(view.StartConfirmTimeout):
		session.requestStop()
		<-session.done
		cap.lock.Lock()
		cap.state = view.CapStateFailed
		cap.lastError = "capture start was not confirmed, timeout exceeded"
		cap.lock.Unlock()
		return fmt.Errorf("capture start was not confirmed, timeout exceeded")
	}
	log.Printf("Capturing packets at device '%s'. Snapshot length is %d, session %s",
		device, cap.serviceConfig.SnapshotLen, session.id)
	cap.notifyState()
	return nil
}

// StopCapture
// idempotent, returns after the loop has exited and the handle is closed
func (cap *captureInternal) StopCapture() error {
	cap.cmdLock.Lock()
	defer cap.cmdLock.Unlock()
	cap.lock.Lock()
	session := cap.session
	if session == nil || !cap.state.IsActive() {
		cap.lock.Unlock()
		log.Debugln("no active capture to stop")
		return nil
	}
	cap.state = view.CapStateStopping
	cap.lock.Unlock()

	session.requestStop()
	select {
	case <-session.done:
	case <-time.After(stopGracePeriod):
		log.Warnf("capture '%s' loop did not stop in %v, closing the handle", session.id, stopGracePeriod)
		session.close()
		<-session.done
	}
	log.Printf("capture '%s' stopped", session.id)
	return nil
}

// GetPackets
// returns a copy of the session packets in capture order
func (cap *captureInternal) GetPackets() []entities.Packet {
	cap.lock.Lock()
	defer cap.lock.Unlock()
	ret := make([]entities.Packet, len(cap.packets))
	copy(ret, cap.packets)
	return ret
}

// GetPacketsSince
// returns packets starting from the given index together with statistics
func (cap *captureInternal) GetPacketsSince(from int) entities.CaptureSnapshot {
	cap.lock.Lock()
	defer cap.lock.Unlock()
	if from < 0 {
		from = 0
	}
	if from > len(cap.packets) {
		from = len(cap.packets)
	}
	ret := entities.CaptureSnapshot{
		From:    from,
		Packets: make([]entities.Packet, len(cap.packets)-from),
		Stats:   cap.stats,
	}
	copy(ret.Packets, cap.packets[from:])
	if cap.session != nil {
		ret.SessionId = cap.session.id
	}
	return ret
}

// GetSnapshot
// all packets and statistics taken atomically
func (cap *captureInternal) GetSnapshot() entities.CaptureSnapshot {
	return cap.GetPacketsSince(0)
}

// GetCaptureStats
// returns a copy of the running statistics
func (cap *captureInternal) GetCaptureStats() entities.CaptureStats {
	cap.lock.Lock()
	defer cap.lock.Unlock()
	return cap.stats
}

// GetStatus
// returns the current packet capture status
func (cap *captureInternal) GetStatus() view.CaptureStatus {
	cap.lock.Lock()
	defer cap.lock.Unlock()
	ret := view.CaptureStatus{
		Status:    view.CapStateToReqStatus(cap.state),
		Capturing: cap.state.IsActive(),
		Error:     cap.lastError,
	}
	if cap.session != nil {
		ret.Id = cap.session.id
		ret.Interface = cap.session.device
		ret.Filter = cap.session.filter
		ret.StartTime = cap.session.startTime.UnixMilli()
	}
	return ret
}

func (cap *captureInternal) GetInterfaces() ([]string, error) {
	return LocalInterfaces(cap.listDevices)
}

func (cap *captureInternal) GetInterfaceDetails() ([]view.InterfaceDetails, error) {
	return LocalInterfaceDetails(cap.listDevices)
}

// capturePackets
// goroutine function, reads frames until stop or a fatal read error
func (cap *captureInternal) capturePackets(session *captureSession, started chan<- struct{}) {
	var fatalErr error
	defer close(session.done)
	defer func() {
		cap.finishSession(session, fatalErr)
	}()
	cap.lock.Lock()
	if cap.session == session {
		cap.state = view.CapStateRunning
	}
	cap.lock.Unlock()
	close(started)

	linkType := session.handle.LinkType()
	readErrors := 0
	for {
		select {
		case <-session.stopChan:
			return
		default:
		}
		data, ci, err := session.handle.ReadPacketData()
		if err != nil {
			switch classifyReadError(err) {
			case readTimeout:
				continue
			case readFatal:
				fatalErr = err
				return
			default:
				readErrors++
				log.Debugf("capture '%s' read error %d: %v", session.id, readErrors, err)
				if readErrors >= cap.serviceConfig.MaxReadErrors {
					fatalErr = fmt.Errorf("%d consecutive read errors, last: %v", readErrors, err)
					return
				}
				continue
			}
		}
		readErrors = 0
		packet := cap.decoder.Decode(data, ci, linkType)
		if cap.appendPacket(session, packet) && cap.listener != nil {
			cap.listener.OnPacket(session.id, packet)
		}
	}
}

// appendPacket
// stores the packet and updates statistics in the same critical section
func (cap *captureInternal) appendPacket(session *captureSession, packet entities.Packet) bool {
	cap.lock.Lock()
	defer cap.lock.Unlock()
	if cap.session != session {
		return false
	}
	if cap.serviceConfig.MaxPackets > 0 && len(cap.packets) >= cap.serviceConfig.MaxPackets {
		cap.stats.DroppedPackets++
		return false
	}
	cap.packets = append(cap.packets, packet)
	cap.stats.Update(&packet)
	return true
}

// finishSession
// records the final state and releases the handle
func (cap *captureInternal) finishSession(session *captureSession, fatalErr error) {
	cap.lock.Lock()
	if cap.session == session {
		if fatalErr != nil {
			cap.state = view.CapStateFailed
			cap.lastError = fatalErr.Error()
		} else {
			cap.state = view.CapStateStopped
		}
	}
	total := cap.stats.TotalPackets
	cap.lock.Unlock()
	session.close()
	if fatalErr != nil {
		log.Errorf("capture '%s' at '%s' failed: %v", session.id, session.device, fatalErr)
	} else {
		log.Printf("capture '%s' finished, %d packets, time spent %s", session.id, total, time.Since(session.startTime).String())
	}
	cap.notifyState()
}

// notifyState
// reports the current status to the listener
func (cap *captureInternal) notifyState() {
	if cap.listener != nil {
		cap.listener.OnCaptureState(cap.GetStatus())
	}
}

// requestStop
// asks the loop to exit at its next read
func (s *captureSession) requestStop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// close
// releases the handle once
func (s *captureSession) close() {
	s.closeOnce.Do(func() {
		s.handle.Close()
	})
}
