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

package ping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/utils"
	probing "github.com/go-ping/ping"
)

// ErrRequestTimeout no echo reply within the attempt timeout
var ErrRequestTimeout = errors.New("request timed out")

// Pinger
// sends one echo request and waits for the reply
type Pinger interface {
	Ping(ctx context.Context, ip string) (time.Duration, error)
}

type icmpPinger struct {
	config entities.PingServiceConfig
}

// NewIcmpPinger
// creates a pinger sending ICMP echo through go-ping
func NewIcmpPinger(config entities.PingServiceConfig) Pinger {
	return &icmpPinger{config: config}
}

func (p *icmpPinger) Ping(ctx context.Context, ip string) (time.Duration, error) {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		return 0, fmt.Errorf("unable to create pinger: %w", err)
	}
	pinger.SetPrivileged(p.config.Privileged)
	pinger.Count = 1
	pinger.Timeout = p.config.Timeout
	pinger.Size = p.config.PacketSize

	finished := make(chan error, 1)
	utils.SafeAsync(func() {
		finished <- utils.SafeCall(pinger.Run)
	})
	select {
	case err = <-finished:
	case <-ctx.Done():
		pinger.Stop()
		<-finished
		return 0, ctx.Err()
	}
	if err != nil {
		return 0, fmt.Errorf("ping failed: %w", err)
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, ErrRequestTimeout
	}
	return stats.AvgRtt, nil
}
