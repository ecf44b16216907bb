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

package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscriberCount(pc PushController) int {
	impl := pc.(*pushController)
	impl.lock.Lock()
	defer impl.lock.Unlock()
	return len(impl.subscribers)
}

func dial(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestPushEvents(t *testing.T) {
	pc := NewPushController(entities.CaptureControllerConfig{})
	defer pc.Close()
	server := httptest.NewServer(http.HandlerFunc(pc.OnEvents))
	defer server.Close()

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return subscriberCount(pc) == 1 }, 2*time.Second, 5*time.Millisecond)

	pc.OnCaptureState(view.CaptureStatus{Status: view.RequestStatusRunning, Capturing: true, Id: "s1"})
	pc.OnPacket("s1", entities.Packet{Protocol: entities.ProtocolUDP, Length: 42})
	pc.OnPingResult("10.0.0.1", entities.PingResult{Success: true, RTT: time.Millisecond})

	event := readEvent(t, conn)
	assert.Equal(t, string(view.PushEventCaptureState), event["type"])
	assert.Equal(t, "s1", event["sessionId"])

	event = readEvent(t, conn)
	assert.Equal(t, string(view.PushEventPacket), event["type"])
	data := event["data"].(map[string]interface{})
	assert.Equal(t, "UDP", data["protocol"])
	assert.Equal(t, float64(42), data["length"])

	event = readEvent(t, conn)
	assert.Equal(t, string(view.PushEventPingResult), event["type"])
	assert.Equal(t, "10.0.0.1", event["target"])
}

func TestPushPacketRateLimit(t *testing.T) {
	pc := NewPushController(entities.CaptureControllerConfig{PushRateLimit: 2})
	defer pc.Close()
	for i := 0; i < 10; i++ {
		pc.OnPacket("s1", entities.Packet{})
	}
	assert.GreaterOrEqual(t, pc.Dropped(), uint64(7))
	before := pc.Dropped()
	pc.OnCaptureState(view.CaptureStatus{})
	assert.Equal(t, before, pc.Dropped())
}

func TestPushSubscriberDisconnect(t *testing.T) {
	pc := NewPushController(entities.CaptureControllerConfig{})
	defer pc.Close()
	server := httptest.NewServer(http.HandlerFunc(pc.OnEvents))
	defer server.Close()

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return subscriberCount(pc) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return subscriberCount(pc) == 0 }, 2*time.Second, 5*time.Millisecond)
	pc.OnPingResult("10.0.0.1", entities.PingResult{})
}

func TestPushRequiresApiKey(t *testing.T) {
	pc := NewPushController(entities.CaptureControllerConfig{APIkey: "secret"})
	defer pc.Close()
	server := httptest.NewServer(http.HandlerFunc(pc.OnEvents))
	defer server.Close()

	_, resp, err := dial(t, server, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set(view.ApiKeyHeader, "secret")
	conn, _, err := dial(t, server, header)
	require.NoError(t, err)
	conn.Close()
}

func TestPushRejectsForeignOrigin(t *testing.T) {
	pc := NewPushController(entities.CaptureControllerConfig{AllowedOrigin: "https://ui.local"})
	defer pc.Close()
	server := httptest.NewServer(http.HandlerFunc(pc.OnEvents))
	defer server.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.local")
	_, resp, err := dial(t, server, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
