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

package tcp_probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/services/name_resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (string, error) {
	return "", errors.New("no such host")
}

func newProbe() TcpProbe {
	return NewTcpProbe(name_resolver.NewNameResolver(entities.ResolverConfig{}))
}

func TestTcpProbeSuccess(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	port := listener.Addr().(*net.TCPAddr).Port

	result, err := newProbe().TestTCPConnection(context.Background(), "127.0.0.1", port, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, "127.0.0.1", result.IP)
	assert.Greater(t, int64(result.ConnectTime), int64(0))
	assert.False(t, result.Timestamp.IsZero())
}

func TestTcpProbeClosedPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	timeout := 500 * time.Millisecond
	start := time.Now()
	result, err := newProbe().TestTCPConnection(context.Background(), "http://127.0.0.1/", port, timeout)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), timeout+250*time.Millisecond)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.ConnectTime)
}

func TestTcpProbeResolutionFailure(t *testing.T) {
	result, err := NewTcpProbe(failingResolver{}).TestTCPConnection(context.Background(), "missing.invalid", 80, time.Second)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no such host")
	assert.Empty(t, result.IP)
}

func TestTcpProbeInvalidInput(t *testing.T) {
	probe := newProbe()
	_, err := probe.TestTCPConnection(context.Background(), " ", 80, time.Second)
	assert.ErrorIs(t, err, exception.ErrInvalidInput)
	_, err = probe.TestTCPConnection(context.Background(), "127.0.0.1", 0, time.Second)
	assert.ErrorIs(t, err, exception.ErrInvalidInput)
	_, err = probe.TestTCPConnection(context.Background(), "127.0.0.1", 70000, time.Second)
	assert.ErrorIs(t, err, exception.ErrInvalidInput)
}
