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

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/client"
	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient
// client.Client backed by testify mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetInterfaces() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockClient) GetInterfaceDetails() ([]view.InterfaceDetails, error) {
	args := m.Called()
	return args.Get(0).([]view.InterfaceDetails), args.Error(1)
}

func (m *MockClient) StartCapture(interfaceName, filter string) (view.CaptureStatus, error) {
	args := m.Called(interfaceName, filter)
	return args.Get(0).(view.CaptureStatus), args.Error(1)
}

func (m *MockClient) StopCapture() (view.CaptureStatus, error) {
	args := m.Called()
	return args.Get(0).(view.CaptureStatus), args.Error(1)
}

func (m *MockClient) GetPackets() ([]entities.Packet, error) {
	args := m.Called()
	return args.Get(0).([]entities.Packet), args.Error(1)
}

func (m *MockClient) GetPacketsSince(from int) (entities.CaptureSnapshot, error) {
	args := m.Called(from)
	return args.Get(0).(entities.CaptureSnapshot), args.Error(1)
}

func (m *MockClient) GetCaptureStats() (entities.CaptureStats, error) {
	args := m.Called()
	return args.Get(0).(entities.CaptureStats), args.Error(1)
}

func (m *MockClient) GetCaptureStatus() (view.CaptureStatus, error) {
	args := m.Called()
	return args.Get(0).(view.CaptureStatus), args.Error(1)
}

func (m *MockClient) StartPing(target string, interval time.Duration) error {
	return m.Called(target, interval).Error(0)
}

func (m *MockClient) StopPing(target string) error {
	return m.Called(target).Error(0)
}

func (m *MockClient) GetPingResults(target string) ([]entities.PingResult, error) {
	args := m.Called(target)
	return args.Get(0).([]entities.PingResult), args.Error(1)
}

func (m *MockClient) GetPingTargets() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockClient) TestTCPConnection(host string, port int, timeout time.Duration) (entities.TCPResult, error) {
	args := m.Called(host, port, timeout)
	return args.Get(0).(entities.TCPResult), args.Error(1)
}

// run
// executes the command line against the mock, returns stdout and the config the client was built with
func run(t *testing.T, m *MockClient, args ...string) (string, client.Config, error) {
	var out bytes.Buffer
	var used client.Config
	root := newRootCmd(&out, func(config client.Config) (client.Client, error) {
		used = config
		return m, nil
	})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), used, err
}

func TestInterfacesCommand(t *testing.T) {
	m := new(MockClient)
	m.On("GetInterfaces").Return([]string{"eth0", "lo"}, nil)

	out, config, err := run(t, m, "interfaces", "-s", "agent:8080", "--api-key", "secret")
	require.NoError(t, err)
	assert.JSONEq(t, `["eth0","lo"]`, out)
	assert.Equal(t, "agent:8080", config.Server)
	assert.Equal(t, "secret", config.ApiKey)
	m.AssertExpectations(t)
}

func TestInterfaceDetailsYaml(t *testing.T) {
	m := new(MockClient)
	m.On("GetInterfaceDetails").Return([]view.InterfaceDetails{{Name: "eth0", Addresses: []string{"10.0.0.5"}}}, nil)

	out, _, err := run(t, m, "interfaces", "--details", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "- name: eth0\n")
	assert.Contains(t, out, "- 10.0.0.5\n")
	assert.NotContains(t, out, "{")
	m.AssertExpectations(t)
}

func TestCaptureCommands(t *testing.T) {
	m := new(MockClient)
	m.On("StartCapture", "eth0", "tcp port 80").Return(view.CaptureStatus{Status: view.RequestStatusRunning, Capturing: true}, nil)
	m.On("GetPacketsSince", 5).Return(entities.CaptureSnapshot{SessionId: "s1", From: 5, Packets: []entities.Packet{}}, nil)
	m.On("GetPackets").Return([]entities.Packet{{Protocol: entities.ProtocolTCP, Length: 60}}, nil)
	m.On("GetCaptureStats").Return(entities.CaptureStats{TotalPackets: 3}, nil)

	out, _, err := run(t, m, "capture", "start", "eth0", "--filter", "tcp port 80")
	require.NoError(t, err)
	var status view.CaptureStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Capturing)

	out, _, err = run(t, m, "capture", "packets", "--from", "5")
	require.NoError(t, err)
	var snapshot entities.CaptureSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snapshot))
	assert.Equal(t, "s1", snapshot.SessionId)

	out, _, err = run(t, m, "capture", "packets")
	require.NoError(t, err)
	var packets []entities.Packet
	require.NoError(t, json.Unmarshal([]byte(out), &packets))
	assert.Len(t, packets, 1)

	out, _, err = run(t, m, "capture", "stats", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "totalPackets: 3\n")
	m.AssertExpectations(t)
}

func TestPingCommands(t *testing.T) {
	m := new(MockClient)
	m.On("StartPing", "example.org", 500*time.Millisecond).Return(nil)
	m.On("StopPing", "example.org").Return(nil)
	m.On("GetPingTargets").Return([]string{}, nil)
	m.On("GetPingResults", "example.org").Return([]entities.PingResult{{Success: true, RTT: time.Millisecond}}, nil)

	out, _, err := run(t, m, "ping", "start", "example.org", "--interval", "500ms")
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":"example.org","intervalMs":500}`, out)

	_, _, err = run(t, m, "ping", "stop", "example.org")
	require.NoError(t, err)

	out, _, err = run(t, m, "ping", "targets")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	out, _, err = run(t, m, "ping", "results", "example.org")
	require.NoError(t, err)
	var results []entities.PingResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, time.Millisecond, results[0].RTT)
	m.AssertExpectations(t)
}

func TestPingInvalidInterval(t *testing.T) {
	m := new(MockClient)
	_, _, err := run(t, m, "ping", "start", "example.org", "--interval", "0s")
	require.Error(t, err)
	m.AssertNotCalled(t, "StartPing", mock.Anything, mock.Anything)
}

func TestTcpCommand(t *testing.T) {
	m := new(MockClient)
	m.On("TestTCPConnection", "db", 5432, 2*time.Second).Return(entities.TCPResult{Success: false, Error: "connection failed: refused"}, nil)

	out, _, err := run(t, m, "tcp", "db", "5432", "--connect-timeout", "2s")
	require.NoError(t, err)
	var result entities.TCPResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
	assert.Equal(t, "connection failed: refused", result.Error)

	_, _, err = run(t, m, "tcp", "db", "http")
	assert.Error(t, err)
	m.AssertExpectations(t)
}

func TestAgentErrorIsReturned(t *testing.T) {
	m := new(MockClient)
	agentErr := &exception.CustomError{Status: http.StatusConflict, Code: exception.CaptureAlreadyActive, Message: exception.CaptureAlreadyActiveMsg}
	m.On("StartCapture", "eth0", "").Return(view.CaptureStatus{}, agentErr)

	out, _, err := run(t, m, "capture", "start", "eth0")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, client.StatusOf(err))
	assert.Empty(t, out)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netdiagctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://10.0.0.9:8080\napi-key: from-file\noutput: yaml\n"), 0o600))
	m := new(MockClient)
	m.On("GetPingTargets").Return([]string{"10.0.0.1"}, nil)

	out, config, err := run(t, m, "ping", "targets", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.9:8080", config.Server)
	assert.Equal(t, "from-file", config.ApiKey)
	assert.Equal(t, "- 10.0.0.1\n", out)
}

func TestEnvironmentOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netdiagctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api-key: from-file\n"), 0o600))
	t.Setenv("NETDIAG_API_KEY", "from-env")
	m := new(MockClient)
	m.On("GetInterfaces").Return([]string{}, nil)

	_, config, err := run(t, m, "interfaces", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.ApiKey)
}

func TestUnsupportedOutput(t *testing.T) {
	_, _, err := run(t, new(MockClient), "interfaces", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
