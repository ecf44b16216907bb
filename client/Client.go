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

package client

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	log "github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"
)

const DefaultTimeout = time.Second * 60

// Config
// agent address and credentials
type Config struct {
	Server   string        // e.g. http://localhost:8080
	ApiKey   string        // sent in the api-key header when not empty
	Timeout  time.Duration // per request, DefaultTimeout when zero
	Insecure bool          // skip TLS verification
}

// Client
// remote access to every agent operation
type Client interface {
	GetInterfaces() ([]string, error)
	GetInterfaceDetails() ([]view.InterfaceDetails, error)
	StartCapture(interfaceName, filter string) (view.CaptureStatus, error)
	StopCapture() (view.CaptureStatus, error)
	GetPackets() ([]entities.Packet, error)
	GetPacketsSince(from int) (entities.CaptureSnapshot, error)
	GetCaptureStats() (entities.CaptureStats, error)
	GetCaptureStatus() (view.CaptureStatus, error)
	StartPing(target string, interval time.Duration) error
	StopPing(target string) error
	GetPingResults(target string) ([]entities.PingResult, error)
	GetPingTargets() ([]string, error)
	TestTCPConnection(host string, port int, timeout time.Duration) (entities.TCPResult, error)
}

type clientImpl struct {
	rc *resty.Client
}

// NewClient
// creates a client for the agent at config.Server
func NewClient(config Config) (Client, error) {
	server := strings.TrimRight(strings.TrimSpace(config.Server), "/")
	if server == view.EmptyString {
		return nil, fmt.Errorf("%w: agent address is empty", exception.ErrInvalidInput)
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: config.Insecure}}
	cl := http.Client{Transport: &tr, Timeout: timeout}
	rc := resty.NewWithClient(&cl)
	rc.SetHostURL(server)
	rc.SetHeader("Accept", "application/json")
	if config.ApiKey != view.EmptyString {
		rc.SetHeader(view.ApiKeyHeader, config.ApiKey)
	}
	return &clientImpl{rc: rc}, nil
}

// StatusOf
// HTTP status of a failed call, zero for transport errors
func StatusOf(err error) int {
	var ce *exception.CustomError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}

// do
// executes the request, a non 2xx answer becomes *exception.CustomError
func (c *clientImpl) do(method, path string, body interface{}, result interface{}, query map[string]string) error {
	req := c.rc.R().SetError(&exception.CustomError{})
	if result != nil {
		req.SetResult(result)
	}
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	if !resp.IsError() {
		return nil
	}
	log.Debugf("%s %s answered %d: %s", method, path, resp.StatusCode(), resp.String())
	ce, ok := resp.Error().(*exception.CustomError)
	if !ok || ce == nil {
		ce = &exception.CustomError{}
	}
	if ce.Status == 0 {
		ce.Status = resp.StatusCode()
	}
	if ce.Message == view.EmptyString {
		ce.Message = http.StatusText(resp.StatusCode())
	}
	return ce
}

func (c *clientImpl) GetInterfaces() ([]string, error) {
	ret := make([]string, 0)
	err := c.do(resty.MethodGet, view.InterfaceListPath, nil, &ret, nil)
	return ret, err
}

func (c *clientImpl) GetInterfaceDetails() ([]view.InterfaceDetails, error) {
	ret := make([]view.InterfaceDetails, 0)
	err := c.do(resty.MethodGet, view.InterfaceDetailsPath, nil, &ret, nil)
	return ret, err
}

func (c *clientImpl) StartCapture(interfaceName, filter string) (view.CaptureStatus, error) {
	var ret view.CaptureStatus
	err := c.do(resty.MethodPost, view.CaptureStartPath, view.CaptureRequest{Interface: interfaceName, Filter: filter}, &ret, nil)
	return ret, err
}

func (c *clientImpl) StopCapture() (view.CaptureStatus, error) {
	var ret view.CaptureStatus
	err := c.do(resty.MethodPost, view.CaptureStopPath, nil, &ret, nil)
	return ret, err
}

func (c *clientImpl) GetPackets() ([]entities.Packet, error) {
	ret := make([]entities.Packet, 0)
	err := c.do(resty.MethodGet, view.CapturePacketsPath, nil, &ret, nil)
	return ret, err
}

// GetPacketsSince
// packets from index "from" of the current session, the session id tells when the buffer was reset
func (c *clientImpl) GetPacketsSince(from int) (entities.CaptureSnapshot, error) {
	var ret entities.CaptureSnapshot
	err := c.do(resty.MethodGet, view.CapturePacketsPath, nil, &ret, map[string]string{view.FromParam: strconv.Itoa(from)})
	return ret, err
}

func (c *clientImpl) GetCaptureStats() (entities.CaptureStats, error) {
	var ret entities.CaptureStats
	err := c.do(resty.MethodGet, view.CaptureStatsPath, nil, &ret, nil)
	return ret, err
}

func (c *clientImpl) GetCaptureStatus() (view.CaptureStatus, error) {
	var ret view.CaptureStatus
	err := c.do(resty.MethodGet, view.CaptureStatusPath, nil, &ret, nil)
	return ret, err
}

func (c *clientImpl) StartPing(target string, interval time.Duration) error {
	return c.do(resty.MethodPost, view.PingStartPath,
		view.PingRequest{Target: target, IntervalMs: int(interval / time.Millisecond)}, nil, nil)
}

func (c *clientImpl) StopPing(target string) error {
	return c.do(resty.MethodPost, view.PingStopPath, view.PingRequest{Target: target}, nil, nil)
}

func (c *clientImpl) GetPingResults(target string) ([]entities.PingResult, error) {
	ret := make([]entities.PingResult, 0)
	err := c.do(resty.MethodGet, view.PingResultsPath, nil, &ret, map[string]string{view.TargetParam: target})
	return ret, err
}

func (c *clientImpl) GetPingTargets() ([]string, error) {
	ret := make([]string, 0)
	err := c.do(resty.MethodGet, view.PingTargetsPath, nil, &ret, nil)
	return ret, err
}

func (c *clientImpl) TestTCPConnection(host string, port int, timeout time.Duration) (entities.TCPResult, error) {
	var ret entities.TCPResult
	err := c.do(resty.MethodPost, view.TcpTestPath,
		view.TcpProbeRequest{Host: host, Port: port, TimeoutMs: int(timeout / time.Millisecond)}, &ret, nil)
	return ret, err
}
