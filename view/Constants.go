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

package view

import "time"

const (
	EmptyString  = ""
	ApiKeyHeader = "api-key"
	// DefaultSnapLenBytes maximum bytes kept from each frame
	DefaultSnapLenBytes = 65535
	// DefaultReadTimeout libpcap read timeout, the capture loop checks for stop requests at this granularity
	DefaultReadTimeout = time.Millisecond * 500
	// DefaultMaxPackets packets kept in one capture session
	DefaultMaxPackets = 10000
	// DefaultMaxReadErrors consecutive read errors treated as a lost interface
	DefaultMaxReadErrors = 10
	// DefaultPayloadDisplayLimit bytes of transport payload rendered for display
	DefaultPayloadDisplayLimit = 1024
	// DefaultPingTimeout single echo request timeout
	DefaultPingTimeout = time.Second * 2
	// DefaultPingPacketSize echo request payload size
	DefaultPingPacketSize = 32
	// DefaultPingMaxResults results kept per ping target
	DefaultPingMaxResults = 1000
	// DefaultTcpProbeTimeout used when the caller passes no timeout
	DefaultTcpProbeTimeout = time.Second * 5
	// DefaultResolverCacheSize resolved targets kept in memory
	DefaultResolverCacheSize = 256
	// DefaultResolverCacheTTL lifetime of a resolved target
	DefaultResolverCacheTTL = time.Second * 60
	// DefaultPushRateLimit packet events per second sent to push subscribers
	DefaultPushRateLimit = 200
	// StartConfirmTimeout capture loop start confirmation timeout
	StartConfirmTimeout = time.Second * 5
	// ArrayJoinSeparator a separator to use with strings.Join
	ArrayJoinSeparator = ","
	// FilterMaxLength a limit to capture filter length
	FilterMaxLength = 64 * 1024
)

// DefaultHttpPorts ports where TCP payload is checked for HTTP framing
var DefaultHttpPorts = []uint16{80, 443, 8000, 8008, 8080, 8888}
