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

type PushEventType string

const (
	PushEventPacket       PushEventType = "packet"
	PushEventCaptureState PushEventType = "capture_state"
	PushEventPingResult   PushEventType = "ping_result"
)

// PushEvent
// a message sent to websocket subscribers
type PushEvent struct {
	Type      PushEventType `json:"type"`
	SessionId string        `json:"sessionId,omitempty"` // capture session of packet events
	Target    string        `json:"target,omitempty"`    // ping target for ping results
	Data      interface{}   `json:"data"`
}
