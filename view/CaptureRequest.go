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

import "strings"

// CaptureRequest
// received capture start request
type CaptureRequest struct {
	Interface string `json:"interface"`
	Filter    string `json:"filter,omitempty"`
}

// PingRequest
// received ping start/stop request
type PingRequest struct {
	Target     string `json:"target"`
	IntervalMs int    `json:"intervalMs,omitempty"`
}

// TcpProbeRequest
// received TCP connection test request
type TcpProbeRequest struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

// InterfaceDetails
// a capture device description
type InterfaceDetails struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Addresses   []string `json:"addresses,omitempty"`
}

// DeviceName
// accepts both "eth0" and the "eth0 (description)" form
func DeviceName(interfaceName string) string {
	fields := strings.Fields(interfaceName)
	if len(fields) == 0 {
		return EmptyString
	}
	return fields[0]
}
