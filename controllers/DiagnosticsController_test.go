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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRegistry struct {
	startCaptureErr error
	startPingErr    error
	pingInterval    time.Duration
	probeTimeout    time.Duration
	from            int
	status          view.CaptureStatus
}

func (s *stubRegistry) GetInterfaces() ([]string, error) { return []string{"eth0", "lo"}, nil }
func (s *stubRegistry) GetInterfaceDetails() ([]view.InterfaceDetails, error) {
	return []view.InterfaceDetails{{Name: "eth0", Addresses: []string{"10.0.0.1"}}}, nil
}
func (s *stubRegistry) StartCapture(interfaceName, filter string) error {
	if s.startCaptureErr == nil {
		s.status = view.CaptureStatus{Status: view.RequestStatusRunning, Capturing: true, Interface: interfaceName, Filter: filter}
	}
	return s.startCaptureErr
}
func (s *stubRegistry) StopCapture() error {
	s.status = view.CaptureStatus{Status: view.RequestStatusStopped}
	return nil
}
func (s *stubRegistry) GetPackets() []entities.Packet {
	return []entities.Packet{{Protocol: entities.ProtocolTCP, Length: 60}}
}
func (s *stubRegistry) GetPacketsSince(from int) entities.CaptureSnapshot {
	s.from = from
	return entities.CaptureSnapshot{SessionId: "s1", From: from, Packets: []entities.Packet{}}
}
func (s *stubRegistry) GetCaptureStats() entities.CaptureStats {
	return entities.CaptureStats{TotalPackets: 5, TCPPackets: 3, UDPPackets: 2, TotalBytes: 300}
}
func (s *stubRegistry) GetCaptureStatus() view.CaptureStatus { return s.status }
func (s *stubRegistry) StartPing(_ string, interval time.Duration) error {
	s.pingInterval = interval
	return s.startPingErr
}
func (s *stubRegistry) StopPing(string) error { return nil }
func (s *stubRegistry) GetPingResults(target string) []entities.PingResult {
	if target == "10.0.0.1" {
		return []entities.PingResult{{Success: true, RTT: 2 * time.Millisecond, IP: target}}
	}
	return []entities.PingResult{}
}
func (s *stubRegistry) GetPingTargets() []string { return []string{"10.0.0.1"} }
func (s *stubRegistry) TestTCPConnection(_ context.Context, host string, port int, timeout time.Duration) (entities.TCPResult, error) {
	s.probeTimeout = timeout
	if port <= 0 {
		return entities.TCPResult{}, fmt.Errorf("%w: port %d is out of range", exception.ErrInvalidInput, port)
	}
	return entities.TCPResult{Success: true, IP: host, ConnectTime: time.Millisecond}, nil
}
func (s *stubRegistry) Close() {}

func call(handler http.HandlerFunc, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) exception.CustomError {
	var ce exception.CustomError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ce))
	return ce
}

func TestOnInterfaces(t *testing.T) {
	ws := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{})
	rec := call(ws.OnInterfaces, http.MethodGet, "/api/v1/interfaces", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["eth0","lo"]`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get(HttpContentType))

	rec = call(ws.OnInterfaceDetails, http.MethodGet, "/api/v1/interfaces/details", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"eth0","addresses":["10.0.0.1"]}]`, rec.Body.String())
}

func TestOnStartCapture(t *testing.T) {
	ws := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{})
	rec := call(ws.OnStartCapture, http.MethodPost, "/api/v1/capture/start", `{"interface":"eth0","filter":"tcp"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	var status view.CaptureStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Capturing)
	assert.Equal(t, "eth0", status.Interface)
}

func TestOnStartCaptureErrors(t *testing.T) {
	for _, tc := range []struct {
		err    error
		filter string
		status int
		code   string
	}{
		{fmt.Errorf("%w: busy", exception.ErrAlreadyActive), "", http.StatusConflict, exception.CaptureAlreadyActive},
		{fmt.Errorf("%w: no such device", exception.ErrInvalidInterface), "", http.StatusBadRequest, exception.InvalidCaptureInterface},
		{fmt.Errorf("%w: syntax", exception.ErrInvalidInput), "tcp port x", http.StatusBadRequest, exception.InvalidCaptureFilter},
		{fmt.Errorf("%w: empty interface", exception.ErrInvalidInput), "", http.StatusBadRequest, exception.UnableToStartCapture},
		{fmt.Errorf("start was not confirmed"), "", http.StatusServiceUnavailable, exception.UnableToStartCapture},
	} {
		ws := NewWebService(&stubRegistry{startCaptureErr: tc.err}, entities.CaptureControllerConfig{})
		body := fmt.Sprintf(`{"interface":"eth0","filter":%q}`, tc.filter)
		rec := call(ws.OnStartCapture, http.MethodPost, "/api/v1/capture/start", body)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.code, decodeError(t, rec).Code, tc.err.Error())
	}
}

func TestOnStartCaptureBadBody(t *testing.T) {
	ws := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{})
	rec := call(ws.OnStartCapture, http.MethodPost, "/api/v1/capture/start", `{"interface":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, exception.BadRequestBody, decodeError(t, rec).Code)
}

func TestOnStopCapture(t *testing.T) {
	ws := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{})
	rec := call(ws.OnStopCapture, http.MethodPost, "/api/v1/capture/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"STOPPED"`)
}

func TestOnPackets(t *testing.T) {
	sr := &stubRegistry{}
	ws := NewWebService(sr, entities.CaptureControllerConfig{})
	rec := call(ws.OnPackets, http.MethodGet, "/api/v1/capture/packets", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var packets []entities.Packet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &packets))
	assert.Len(t, packets, 1)
	assert.Nil(t, packets[0].HTTPInfo)
	assert.Contains(t, rec.Body.String(), `"httpInfo":null`)

	rec = call(ws.OnPackets, http.MethodGet, "/api/v1/capture/packets?from=7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, sr.from)
	assert.Contains(t, rec.Body.String(), `"sessionId":"s1"`)

	rec = call(ws.OnPackets, http.MethodGet, "/api/v1/capture/packets?from=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, exception.InvalidParameterValue, decodeError(t, rec).Code)
}

func TestOnCaptureStats(t *testing.T) {
	ws := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{})
	rec := call(ws.OnCaptureStats, http.MethodGet, "/api/v1/capture/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalPackets":5,"tcpPackets":3,"udpPackets":2,"icmpPackets":0,"totalBytes":300,"startTime":0,"droppedPackets":0}`,
		rec.Body.String())
}

func TestOnStartPing(t *testing.T) {
	sr := &stubRegistry{}
	ws := NewWebService(sr, entities.CaptureControllerConfig{})
	rec := call(ws.OnStartPing, http.MethodPost, "/api/v1/ping/start", `{"target":"10.0.0.1","intervalMs":250}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 250*time.Millisecond, sr.pingInterval)

	rec = call(ws.OnStartPing, http.MethodPost, "/api/v1/ping/start", `{"intervalMs":250}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, exception.RequiredParamsMissing, decodeError(t, rec).Code)

	sr.startPingErr = fmt.Errorf("%w: running", exception.ErrAlreadyActive)
	rec = call(ws.OnStartPing, http.MethodPost, "/api/v1/ping/start", `{"target":"10.0.0.1","intervalMs":250}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	ce := decodeError(t, rec)
	assert.Equal(t, exception.PingAlreadyActive, ce.Code)

	sr.startPingErr = fmt.Errorf("%w: interval", exception.ErrInvalidInput)
	rec = call(ws.OnStartPing, http.MethodPost, "/api/v1/ping/start", `{"target":"10.0.0.1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, exception.UnableToStartPing, decodeError(t, rec).Code)
}

func TestOnPingResults(t *testing.T) {
	ws := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{})
	rec := call(ws.OnPingResults, http.MethodGet, "/api/v1/ping/results?target=10.0.0.1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, float64(2*time.Millisecond), results[0]["RTT"])
	assert.Equal(t, true, results[0]["Success"])

	rec = call(ws.OnPingResults, http.MethodGet, "/api/v1/ping/results?target=10.9.9.9", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = call(ws.OnPingResults, http.MethodGet, "/api/v1/ping/results", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(ws.OnPingTargets, http.MethodGet, "/api/v1/ping/targets", "")
	assert.JSONEq(t, `["10.0.0.1"]`, rec.Body.String())

	rec = call(ws.OnStopPing, http.MethodPost, "/api/v1/ping/stop", `{"target":"10.0.0.1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOnTcpTest(t *testing.T) {
	sr := &stubRegistry{}
	ws := NewWebService(sr, entities.CaptureControllerConfig{})
	rec := call(ws.OnTcpTest, http.MethodPost, "/api/v1/tcp/test", `{"host":"127.0.0.1","port":22,"timeoutMs":1500}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1500*time.Millisecond, sr.probeTimeout)
	assert.Contains(t, rec.Body.String(), `"ConnectTime":1000000`)

	rec = call(ws.OnTcpTest, http.MethodPost, "/api/v1/tcp/test", `{"host":"127.0.0.1","port":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, exception.InvalidTcpProbe, decodeError(t, rec).Code)
}

func TestApiKey(t *testing.T) {
	ws := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{APIkey: "secret"})
	rec := call(ws.OnInterfaces, http.MethodGet, "/api/v1/interfaces", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, exception.ApiKeyNotFound, decodeError(t, rec).Code)

	rec = call(ws.OnInterfaces, http.MethodGet, "/api/v1/interfaces", "", view.ApiKeyHeader, "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	prod := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{ProductionMode: true})
	rec = call(prod.OnCaptureStatus, http.MethodGet, "/api/v1/capture/status", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, exception.EmptyParameter, decodeError(t, rec).Code)
}

func TestOnStatus(t *testing.T) {
	ws := NewWebService(&stubRegistry{}, entities.CaptureControllerConfig{APIkey: "secret"})
	rec := call(ws.OnStatus, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
