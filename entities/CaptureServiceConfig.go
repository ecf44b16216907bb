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

package entities

import "time"

type CaptureServiceConfig struct {
	SnapshotLen   int           // capture snapshot length (65535 by default)
	Promiscuous   bool          // open interfaces in promiscuous mode
	ReadTimeout   time.Duration // libpcap read timeout, bounds stop latency
	MaxPackets    int           // packets stored per session
	MaxReadErrors int           // consecutive read errors before the interface is considered lost
}

type DecoderConfig struct {
	PayloadDisplayLimit int      // payload bytes rendered into Packet.Payload
	HttpPorts           []uint16 // ports checked for HTTP framing
}

type PingServiceConfig struct {
	Timeout    time.Duration // per attempt
	PacketSize int
	Privileged bool // raw sockets instead of unprivileged datagram ICMP
	MaxResults int  // results kept per target, the oldest are trimmed
}

type ResolverConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

type CaptureControllerConfig struct {
	APIkey         string
	ProductionMode bool
	PushRateLimit  int    // packet events per second
	AllowedOrigin  string // websocket origin, any when empty
}
