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

package capture

import (
	"errors"
	"io"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/utils"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	log "github.com/sirupsen/logrus"
)

// PacketHandle
// the part of *pcap.Handle used by the capture loop
type PacketHandle interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
	SetBPFFilter(expr string) error
	Close()
}

// HandleOpener
// opens a live handle on the device
type HandleOpener func(device string, config entities.CaptureServiceConfig) (PacketHandle, error)

// DeviceLister
// enumerates capture devices
type DeviceLister func() ([]pcap.Interface, error)

// FilterCompiler
// validates a filter expression before it is set on a handle
type FilterCompiler func(filter string, linkType layers.LinkType, snapLen int) error

type readErrorKind int

const (
	readTimeout readErrorKind = iota
	readTransient
	readFatal
)

// OpenLiveHandle
// opens the device with libpcap, the read timeout bounds the stop latency of the capture loop
func OpenLiveHandle(device string, config entities.CaptureServiceConfig) (PacketHandle, error) {
	handle, err := pcap.OpenLive(device, int32(config.SnapshotLen), config.Promiscuous, config.ReadTimeout)
	if err != nil {
		return nil, err
	}
	log.Debugf("device '%s' opened, link type %s", device, handle.LinkType().String())
	return handle, nil
}

// CompileLiveFilter
// compiles the filter with libpcap without touching the device
func CompileLiveFilter(filter string, linkType layers.LinkType, snapLen int) error {
	instructions, err := utils.CompileBpf(filter, linkType, snapLen)
	if err != nil {
		return err
	}
	if log.IsLevelEnabled(log.TraceLevel) {
		for idx, ins := range utils.DisassembleBpf(instructions) {
			log.Tracef("bpf %03d: %s", idx, ins)
		}
	}
	log.Debugf("filter '%s' compiled into %d instructions", filter, len(instructions))
	return nil
}

// classifyReadError
// timeouts are expected, a closed or exhausted handle ends the session, anything else is skipped
func classifyReadError(err error) readErrorKind {
	switch {
	case errors.Is(err, pcap.NextErrorTimeoutExpired):
		return readTimeout
	case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets), errors.Is(err, pcap.NextErrorNotActivated):
		return readFatal
	}
	return readTransient
}
