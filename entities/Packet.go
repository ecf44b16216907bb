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

// protocol tags
const (
	ProtocolTCP   = "TCP"
	ProtocolUDP   = "UDP"
	ProtocolICMP  = "ICMP"
	ProtocolOther = "OTHER"
)

// Packet
// one decoded frame, never changed after creation
type Packet struct {
	Timestamp time.Time `json:"timestamp"`
	Protocol  string    `json:"protocol"`
	SrcIP     string    `json:"srcIP"`
	DstIP     string    `json:"dstIP"`
	SrcPort   int       `json:"srcPort"`
	DstPort   int       `json:"dstPort"`
	Length    int       `json:"length"` // frame length on the wire
	Info      string    `json:"info"`
	Payload   string    `json:"payload"`
	RawData   string    `json:"rawData"`
	HTTPInfo  *HTTPInfo `json:"httpInfo"` // nil when the payload is not HTTP
}

// HTTPInfo
// request or status line details of a recognized HTTP payload
type HTTPInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Version     string `json:"version"`
	StatusCode  int    `json:"statusCode"`
	StatusText  string `json:"statusText"`
	ContentType string `json:"contentType"`
	Host        string `json:"host"`
	IsRequest   bool   `json:"isRequest"`
}

// CaptureStats
// running aggregate of one capture session
type CaptureStats struct {
	TotalPackets   int   `json:"totalPackets"`
	TCPPackets     int   `json:"tcpPackets"`
	UDPPackets     int   `json:"udpPackets"`
	ICMPPackets    int   `json:"icmpPackets"`
	TotalBytes     int64 `json:"totalBytes"`
	StartTime      int64 `json:"startTime"`      // unix milliseconds
	DroppedPackets int   `json:"droppedPackets"` // frames over the session packet limit
}

// Update
// accounts one stored packet
func (s *CaptureStats) Update(p *Packet) {
	s.TotalPackets++
	s.TotalBytes += int64(p.Length)
	switch p.Protocol {
	case ProtocolTCP:
		s.TCPPackets++
	case ProtocolUDP:
		s.UDPPackets++
	case ProtocolICMP:
		s.ICMPPackets++
	}
}

// OtherPackets
// packets that are neither TCP, UDP nor ICMP
func (s *CaptureStats) OtherPackets() int {
	return s.TotalPackets - s.TCPPackets - s.UDPPackets - s.ICMPPackets
}

// CaptureSnapshot
// packets and statistics copied under one lock
type CaptureSnapshot struct {
	SessionId string       `json:"sessionId"`
	From      int          `json:"from"`
	Packets   []Packet     `json:"packets"`
	Stats     CaptureStats `json:"stats"`
}
