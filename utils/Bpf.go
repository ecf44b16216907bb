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

package utils

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

// CompileBpf
// compiles a tcpdump-style filter expression into raw BPF instructions
// fails when the expression is not valid for the given link type
func CompileBpf(filter string, linkType layers.LinkType, snapLen int) ([]bpf.RawInstruction, error) {
	pcapBpf, err := pcap.CompileBPFFilter(linkType, snapLen, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compile BPF filter: %w", err)
	}
	rawBpf := make([]bpf.RawInstruction, len(pcapBpf))
	for i, ins := range pcapBpf {
		rawBpf[i] = bpf.RawInstruction{Op: ins.Code, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	return rawBpf, nil
}

// DisassembleBpf
// converts raw instructions back into readable form, unknown opcodes are kept raw
func DisassembleBpf(raw []bpf.RawInstruction) []string {
	instructions, _ := bpf.Disassemble(raw)
	ret := make([]string, 0, len(instructions))
	for _, ins := range instructions {
		ret = append(ret, fmt.Sprintf("%v", ins))
	}
	return ret
}
