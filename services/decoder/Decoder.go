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

// Package decoder
// turns captured frames into entities.Packet values
package decoder

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/utils"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	malformedNote = "malformed frame: %v"
	truncatedNote = "truncated %s header"
)

// tcpFlagNames in TcpSummary order
var tcpFlagNames = []string{"SYN", "ACK", "FIN", "RST", "PSH", "URG"}

// Decoder
// frame to packet conversion, never fails
type Decoder interface {
	Decode(data []byte, ci gopacket.CaptureInfo, linkType layers.LinkType) entities.Packet
}

type decoderImpl struct {
	payloadLimit int
	httpPorts    map[int]struct{}
}

// NewDecoder
// creates a decoder, zero config values fall back to defaults
func NewDecoder(config entities.DecoderConfig) Decoder {
	if config.PayloadDisplayLimit <= 0 {
		config.PayloadDisplayLimit = view.DefaultPayloadDisplayLimit
	}
	if len(config.HttpPorts) == 0 {
		config.HttpPorts = view.DefaultHttpPorts
	}
	d := &decoderImpl{
		payloadLimit: config.PayloadDisplayLimit,
		httpPorts:    make(map[int]struct{}, len(config.HttpPorts)),
	}
	for _, port := range config.HttpPorts {
		d.httpPorts[int(port)] = struct{}{}
	}
	return d
}

// Decode
// builds a packet from raw frame bytes
// malformed or truncated frames produce a best effort packet with a note in Info
func (d *decoderImpl) Decode(data []byte, ci gopacket.CaptureInfo, linkType layers.LinkType) entities.Packet {
	p := entities.Packet{
		Timestamp: ci.Timestamp,
		Protocol:  entities.ProtocolOther,
		Length:    ci.Length,
		RawData:   RenderRawData(data),
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	if p.Length <= 0 {
		p.Length = len(data)
	}
	err := utils.SafeCall(func() error {
		return d.decodeLayers(&p, data, linkType)
	})
	if err != nil {
		p.Info = appendNote(p.Info, fmt.Sprintf(malformedNote, err))
	}
	return p
}

// decodeLayers
// fills addresses, ports, summary and payload views
func (d *decoderImpl) decodeLayers(p *entities.Packet, data []byte, linkType layers.LinkType) error {
	pkt := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	var (
		ipProto   layers.IPProtocol
		hasIp     bool
		ipPayload []byte
	)
	switch nl := pkt.NetworkLayer().(type) {
	case *layers.IPv4:
		p.SrcIP, p.DstIP = nl.SrcIP.String(), nl.DstIP.String()
		ipProto, hasIp, ipPayload = nl.Protocol, true, nl.Payload
	case *layers.IPv6:
		p.SrcIP, p.DstIP = nl.SrcIP.String(), nl.DstIP.String()
		ipProto, hasIp, ipPayload = nl.NextHeader, true, nl.Payload
	default:
		p.Info = describeNonIp(pkt)
	}
	if hasIp {
		p.Protocol = classify(ipProto, pkt)
		switch p.Protocol {
		case entities.ProtocolTCP:
			d.decodeTcp(p, pkt)
		case entities.ProtocolUDP:
			d.decodeUdp(p, pkt)
		case entities.ProtocolICMP:
			d.decodeIcmp(p, pkt)
		default:
			p.Info = fmt.Sprintf("%s, len=%d", ipProto.String(), len(ipPayload))
			p.Payload = RenderPayload(ipPayload, d.payloadLimit)
		}
	}
	if el := pkt.ErrorLayer(); el != nil {
		p.Info = appendNote(p.Info, fmt.Sprintf(malformedNote, el.Error()))
	}
	return nil
}

// classify
// by network layer protocol field, IPv6 extension headers are looked through
func classify(ipProto layers.IPProtocol, pkt gopacket.Packet) string {
	switch ipProto {
	case layers.IPProtocolTCP:
		return entities.ProtocolTCP
	case layers.IPProtocolUDP:
		return entities.ProtocolUDP
	case layers.IPProtocolICMPv4, layers.IPProtocolICMPv6:
		return entities.ProtocolICMP
	}
	switch {
	case pkt.Layer(layers.LayerTypeTCP) != nil:
		return entities.ProtocolTCP
	case pkt.Layer(layers.LayerTypeUDP) != nil:
		return entities.ProtocolUDP
	case pkt.Layer(layers.LayerTypeICMPv6) != nil:
		return entities.ProtocolICMP
	}
	return entities.ProtocolOther
}

func (d *decoderImpl) decodeTcp(p *entities.Packet, pkt gopacket.Packet) {
	tcp, ok := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)
	if !ok {
		p.Info = fmt.Sprintf(truncatedNote, entities.ProtocolTCP)
		return
	}
	p.SrcPort, p.DstPort = int(tcp.SrcPort), int(tcp.DstPort)
	p.Info = TcpSummary(tcp)
	if len(tcp.Payload) == 0 {
		return
	}
	p.Payload = RenderPayload(tcp.Payload, d.payloadLimit)
	if d.isHttpCandidate(p.SrcPort, p.DstPort, tcp.Payload) {
		p.HTTPInfo = SniffHttp(tcp.Payload)
	}
}

func (d *decoderImpl) decodeUdp(p *entities.Packet, pkt gopacket.Packet) {
	udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		p.Info = fmt.Sprintf(truncatedNote, entities.ProtocolUDP)
		return
	}
	p.SrcPort, p.DstPort = int(udp.SrcPort), int(udp.DstPort)
	p.Info = fmt.Sprintf("len=%d", udp.Length)
	p.Payload = RenderPayload(udp.Payload, d.payloadLimit)
}

// decodeIcmp
// ports stay 0 for ICMP
func (d *decoderImpl) decodeIcmp(p *entities.Packet, pkt gopacket.Packet) {
	if icmp, ok := pkt.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4); ok {
		p.Info = fmt.Sprintf("type=%d code=%d (%s)", icmp.TypeCode.Type(), icmp.TypeCode.Code(), icmp.TypeCode.String())
		switch icmp.TypeCode.Type() {
		case layers.ICMPv4TypeEchoRequest, layers.ICMPv4TypeEchoReply:
			p.Info += fmt.Sprintf(", id=%d, seq=%d", icmp.Id, icmp.Seq)
		}
		p.Payload = RenderPayload(icmp.Payload, d.payloadLimit)
		return
	}
	if icmp, ok := pkt.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6); ok {
		p.Info = fmt.Sprintf("type=%d code=%d (%s)", icmp.TypeCode.Type(), icmp.TypeCode.Code(), icmp.TypeCode.String())
		if echo, ok := pkt.Layer(layers.LayerTypeICMPv6Echo).(*layers.ICMPv6Echo); ok {
			p.Info += fmt.Sprintf(", id=%d, seq=%d", echo.Identifier, echo.SeqNumber)
			p.Payload = RenderPayload(echo.Payload, d.payloadLimit)
		}
		return
	}
	p.Info = fmt.Sprintf(truncatedNote, entities.ProtocolICMP)
}

func (d *decoderImpl) isHttpCandidate(srcPort, dstPort int, payload []byte) bool {
	if _, found := d.httpPorts[dstPort]; found {
		return true
	}
	if _, found := d.httpPorts[srcPort]; found {
		return true
	}
	return LooksLikeHttp(payload)
}

// TcpSummary
// flags, sequence and window info, e.g. "SYN, seq=1, win=64240, len=0"
func TcpSummary(tcp *layers.TCP) string {
	flags := []bool{tcp.SYN, tcp.ACK, tcp.FIN, tcp.RST, tcp.PSH, tcp.URG}
	parts := make([]string, 0, 8)
	for i, set := range flags {
		if set {
			parts = append(parts, tcpFlagNames[i])
		}
	}
	parts = append(parts, fmt.Sprintf("seq=%d", tcp.Seq))
	if tcp.ACK {
		parts = append(parts, fmt.Sprintf("ack=%d", tcp.Ack))
	}
	parts = append(parts, fmt.Sprintf("win=%d", tcp.Window), fmt.Sprintf("len=%d", len(tcp.Payload)))
	return strings.Join(parts, ", ")
}

// describeNonIp
// ARP gets addresses, other frames only their layer chain
func describeNonIp(pkt gopacket.Packet) string {
	if arp, ok := pkt.Layer(layers.LayerTypeARP).(*layers.ARP); ok {
		op := "reply"
		if arp.Operation == layers.ARPRequest {
			op = "request"
		}
		return fmt.Sprintf("ARP %s %s -> %s", op, net.IP(arp.SourceProtAddress).String(), net.IP(arp.DstProtAddress).String())
	}
	names := make([]string, 0, 4)
	for _, l := range pkt.Layers() {
		names = append(names, l.LayerType().String())
	}
	if len(names) == 0 {
		return "unknown frame"
	}
	return strings.Join(names, "/")
}

func appendNote(info, note string) string {
	if info == view.EmptyString {
		return note
	}
	return info + "; " + note
}
