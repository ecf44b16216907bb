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
	"fmt"
	"strconv"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/client"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/spf13/cobra"
)

func (c *cli) interfacesCmd() *cobra.Command {
	var details bool
	cmd := &cobra.Command{
		Use:   "interfaces",
		Short: "List capture interfaces of the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				if details {
					return cl.GetInterfaceDetails()
				}
				return cl.GetInterfaces()
			})
		},
	}
	cmd.Flags().BoolVar(&details, "details", false, "include descriptions and addresses")
	return cmd
}

func (c *cli) captureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Packet capture sessions",
	}

	var filter string
	start := &cobra.Command{
		Use:   "start <interface>",
		Short: "Start capturing on an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				return cl.StartCapture(args[0], filter)
			})
		},
	}
	start.Flags().StringVarP(&filter, "filter", "f", "", "BPF filter expression")

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the capture session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				return cl.StopCapture()
			})
		},
	}

	from := -1
	packets := &cobra.Command{
		Use:   "packets",
		Short: "Show captured packets",
		Long: `Show captured packets of the current session.
With --from N only packets starting at index N are returned, together with the session id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				if from >= 0 {
					return cl.GetPacketsSince(from)
				}
				return cl.GetPackets()
			})
		},
	}
	packets.Flags().IntVar(&from, "from", -1, "first packet index")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show capture statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				return cl.GetCaptureStats()
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show capture status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				return cl.GetCaptureStatus()
			})
		},
	}

	cmd.AddCommand(start, stop, packets, stats, status)
	return cmd
}

func (c *cli) pingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Ping monitors",
	}

	start := &cobra.Command{
		Use:   "start <target>",
		Short: "Start pinging a host or an IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := parseDurationFlag(cmd, "interval")
			if err != nil {
				return err
			}
			return c.call(func(cl client.Client) (interface{}, error) {
				if err := cl.StartPing(args[0], interval); err != nil {
					return nil, err
				}
				return view.PingRequest{Target: args[0], IntervalMs: int(interval / time.Millisecond)}, nil
			})
		},
	}
	start.Flags().Duration("interval", time.Second, "time between echo requests")

	stop := &cobra.Command{
		Use:   "stop <target>",
		Short: "Stop pinging the target, its results stay available",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				if err := cl.StopPing(args[0]); err != nil {
					return nil, err
				}
				return view.PingRequest{Target: args[0]}, nil
			})
		},
	}

	results := &cobra.Command{
		Use:   "results <target>",
		Short: "Show ping results of the target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				return cl.GetPingResults(args[0])
			})
		},
	}

	targets := &cobra.Command{
		Use:   "targets",
		Short: "List actively pinged targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl client.Client) (interface{}, error) {
				return cl.GetPingTargets()
			})
		},
	}

	cmd.AddCommand(start, stop, results, targets)
	return cmd
}

func (c *cli) tcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tcp <host> <port>",
		Short: "Test a TCP connection from the agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[1])
			if err != nil || port < 1 || port > 65535 {
				return fmt.Errorf("invalid port '%s'", args[1])
			}
			timeout, err := parseDurationFlag(cmd, "connect-timeout")
			if err != nil {
				return err
			}
			return c.call(func(cl client.Client) (interface{}, error) {
				return cl.TestTCPConnection(args[0], port, timeout)
			})
		},
	}
	cmd.Flags().Duration("connect-timeout", view.DefaultTcpProbeTimeout, "connect timeout")
	return cmd
}
