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

// REST paths shared by the agent and its client
const (
	ApiBasePath          = "/api/v1"
	InterfaceListPath    = ApiBasePath + "/interfaces"
	InterfaceDetailsPath = ApiBasePath + "/interfaces/details"
	CaptureStartPath     = ApiBasePath + "/capture/start"
	CaptureStopPath      = ApiBasePath + "/capture/stop"
	CapturePacketsPath   = ApiBasePath + "/capture/packets"
	CaptureStatsPath     = ApiBasePath + "/capture/stats"
	CaptureStatusPath    = ApiBasePath + "/capture/status"
	PingStartPath        = ApiBasePath + "/ping/start"
	PingStopPath         = ApiBasePath + "/ping/stop"
	PingResultsPath      = ApiBasePath + "/ping/results"
	PingTargetsPath      = ApiBasePath + "/ping/targets"
	TcpTestPath          = ApiBasePath + "/tcp/test"
	EventsPath           = ApiBasePath + "/events"
	LivePath             = "/live"
	ReadyPath            = "/ready"
	StartupPath          = "/startup"
	// FromParam first packet index for incremental polling
	FromParam   = "from"
	TargetParam = "target"
)
