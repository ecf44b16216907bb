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
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/services/name_resolver"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	log "github.com/sirupsen/logrus"
)

const maxPort = 65535

// TcpProbe
// one-shot connect test, keeps no history
type TcpProbe interface {
	TestTCPConnection(ctx context.Context, host string, port int, timeout time.Duration) (entities.TCPResult, error)
}

type tcpProbeImpl struct {
	resolver name_resolver.NameResolver
}

func NewTcpProbe(resolver name_resolver.NameResolver) TcpProbe {
	return &tcpProbeImpl{resolver: resolver}
}

// TestTCPConnection
// returns an error only for invalid input, connect failures are reported in the result
// the deadline covers name resolution and the handshake
func (p *tcpProbeImpl) TestTCPConnection(ctx context.Context, host string, port int, timeout time.Duration) (entities.TCPResult, error) {
	if strings.TrimSpace(host) == view.EmptyString {
		return entities.TCPResult{}, fmt.Errorf("%w: empty host", exception.ErrInvalidInput)
	}
	if port < 1 || port > maxPort {
		return entities.TCPResult{}, fmt.Errorf("%w: port %d is out of range", exception.ErrInvalidInput, port)
	}
	if timeout <= 0 {
		timeout = view.DefaultTcpProbeTimeout
	}
	result := entities.TCPResult{Timestamp: time.Now()}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ip, err := p.resolver.Resolve(ctx, host)
	if err != nil {
		result.Error = fmt.Sprintf("name resolution failed: %v", err)
		return result, nil
	}
	result.IP = ip

	dialer := net.Dialer{}
	startTime := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		result.Error = fmt.Sprintf("connection failed: %v", err)
		log.Debugf("tcp probe %s:%d failed: %v", ip, port, err)
		return result, nil
	}
	result.ConnectTime = time.Since(startTime)
	result.Success = true
	if err = conn.Close(); err != nil {
		log.Debugf("unable to close probe connection to %s:%d: %v", ip, port, err)
	}
	return result, nil
}
