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

package service

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/utils"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/netcracker/qubership-core-lib-go/v3/configloader"
	log "github.com/sirupsen/logrus"
)

const (
	ListenAddress        = "LISTEN_ADDRESS"
	OriginAllowed        = "ORIGIN_ALLOWED"
	APIkey               = "NETDIAG_API_KEY"
	ProductionMode       = "PRODUCTION_MODE"
	BasePath             = "BASE_PATH"
	WorkDir              = "WORK_DIR"
	CaptureSnapLen       = "CAPTURE_SNAPSHOT_LEN"
	CapturePromiscuous   = "CAPTURE_PROMISCUOUS"
	CaptureReadTimeout   = "CAPTURE_READ_TIMEOUT"
	CaptureMaxPackets    = "CAPTURE_MAX_PACKETS"
	CaptureMaxReadErrors = "CAPTURE_MAX_READ_ERRORS"
	PayloadDisplayLimit  = "PAYLOAD_DISPLAY_LIMIT"
	HttpPorts            = "HTTP_PORTS"
	PingTimeout          = "PING_TIMEOUT"
	PingPacketSize       = "PING_PACKET_SIZE"
	PingPrivileged       = "PING_PRIVILEGED"
	PingMaxResults       = "PING_MAX_RESULTS"
	ResolverCacheSize    = "RESOLVER_CACHE_SIZE"
	ResolverCacheTTL     = "RESOLVER_CACHE_TTL"
	PushRateLimit        = "PUSH_RATE_LIMIT"
	DefaultListenAddress = ":8080"
)

type SystemInfoService interface {
	Init() error
	GetListenAddress() string
	GetOriginAllowed() string
	GetString(name string) string
	GetInt64(name string, defVal int64) int64
	GetBool(name string) bool
	GetDuration(name string, defVal time.Duration) time.Duration
	GetInstanceId() string
	GetApiKey() string
	GetWorkDir() string
	GetCaptureConfig() entities.CaptureServiceConfig
	GetDecoderConfig() entities.DecoderConfig
	GetPingConfig() entities.PingServiceConfig
	GetResolverConfig() entities.ResolverConfig
	GetCaptureControllerConfig() entities.CaptureControllerConfig
}

// common functions

// NewSystemInfoService
// creates an interface instance
func NewSystemInfoService() (SystemInfoService, error) {
	return newSystemInfoService(configValue)
}

func newSystemInfoService(fallback func(name string) string) (SystemInfoService, error) {
	s := &systemInfoServiceImpl{
		systemInfoMap: make(map[string]interface{}),
		instanceId:    utils.MakeUniqueId(),
		fallback:      fallback,
	}
	log.Printf("instance ID:%s", s.instanceId)
	if err := s.Init(); err != nil {
		log.Error("Failed to read system info: " + err.Error())
		return nil, err
	}
	return s, nil
}

// systemInfoServiceImpl an interface implementation
type systemInfoServiceImpl struct {
	systemInfoMap map[string]interface{} // parameters
	instanceId    string
	fallback      func(name string) string
}

// ConfigKey
// maps an environment variable name to its config.yaml key: CAPTURE_MAX_PACKETS => capture.max.packets
func ConfigKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", ".")
}

// configValue
// reads the value from config.yaml, empty when the loader is not initialised
func configValue(name string) string {
	k := configloader.GetKoanf()
	if k == nil {
		return view.EmptyString
	}
	return k.String(ConfigKey(name))
}

// lookup
// environment first, config.yaml second
func (g systemInfoServiceImpl) lookup(name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != view.EmptyString {
		return v
	}
	if g.fallback != nil {
		return strings.TrimSpace(g.fallback(name))
	}
	return view.EmptyString
}

// extractBoolDef
// extracts bool value from string with default value
func extractBoolDef(v string, defVal bool) bool {
	if v == view.EmptyString {
		return defVal
	}
	val, err := strconv.ParseBool(v)
	if err != nil {
		return defVal
	}
	return val
}

// extractInt
// positive integer with default, malformed values are reported
func (g systemInfoServiceImpl) extractInt(name string, defVal int64) error {
	v := g.lookup(name)
	if v == view.EmptyString {
		g.systemInfoMap[name] = defVal
		return nil
	}
	val, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("improper number format for %s => '%s' (%v)", name, v, err)
	}
	if val <= 0 {
		return fmt.Errorf("non-positive value for %s (%s) is not allowed", name, v)
	}
	g.systemInfoMap[name] = val
	return nil
}

// extractDuration
// accepts Go durations ("500ms") and bare milliseconds
func (g systemInfoServiceImpl) extractDuration(name string, defVal time.Duration) error {
	v := g.lookup(name)
	if v == view.EmptyString {
		g.systemInfoMap[name] = defVal
		return nil
	}
	val, err := time.ParseDuration(v)
	if err != nil {
		ms, convErr := strconv.ParseInt(v, 10, 64)
		if convErr != nil {
			return fmt.Errorf("improper duration format for %s => '%s' (%v)", name, v, err)
		}
		val = time.Duration(ms) * time.Millisecond
	}
	if val <= 0 {
		return fmt.Errorf("non-positive duration for %s (%s) is not allowed", name, v)
	}
	g.systemInfoMap[name] = val
	return nil
}

// extractPorts
// comma separated port list
func (g systemInfoServiceImpl) extractPorts(name string, defVal []uint16) error {
	v := g.lookup(name)
	if v == view.EmptyString {
		g.systemInfoMap[name] = defVal
		return nil
	}
	ports := make([]uint16, 0)
	for _, item := range strings.Split(v, view.ArrayJoinSeparator) {
		item = strings.TrimSpace(item)
		if item == view.EmptyString {
			continue
		}
		port, err := strconv.ParseUint(item, 10, 16)
		if err != nil || port == 0 {
			return fmt.Errorf("improper port '%s' in %s", item, name)
		}
		ports = append(ports, uint16(port))
	}
	g.systemInfoMap[name] = ports
	return nil
}

// interface functions

// Init
// loads configuration from the environment and config.yaml
func (g systemInfoServiceImpl) Init() error {
	g.systemInfoMap[ProductionMode] = extractBoolDef(g.lookup(ProductionMode), false)
	g.systemInfoMap[OriginAllowed] = g.lookup(OriginAllowed)
	g.systemInfoMap[BasePath] = g.lookup(BasePath)
	g.systemInfoMap[WorkDir] = g.lookup(WorkDir)
	listenAddress := g.lookup(ListenAddress)
	if listenAddress == view.EmptyString {
		listenAddress = DefaultListenAddress
	}
	g.systemInfoMap[ListenAddress] = listenAddress

	apiKey := g.lookup(APIkey)
	if apiKey == view.EmptyString {
		if g.GetBool(ProductionMode) {
			return fmt.Errorf("%s is required in production mode", APIkey)
		}
		log.Warnln("API key empty or not present")
	}
	g.systemInfoMap[APIkey] = apiKey

	g.systemInfoMap[CapturePromiscuous] = extractBoolDef(g.lookup(CapturePromiscuous), true)
	g.systemInfoMap[PingPrivileged] = extractBoolDef(g.lookup(PingPrivileged), true)
	for _, item := range []struct {
		name   string
		defVal int64
	}{
		{CaptureSnapLen, view.DefaultSnapLenBytes},
		{CaptureMaxPackets, view.DefaultMaxPackets},
		{CaptureMaxReadErrors, view.DefaultMaxReadErrors},
		{PayloadDisplayLimit, view.DefaultPayloadDisplayLimit},
		{PingPacketSize, view.DefaultPingPacketSize},
		{PingMaxResults, view.DefaultPingMaxResults},
		{ResolverCacheSize, view.DefaultResolverCacheSize},
		{PushRateLimit, view.DefaultPushRateLimit},
	} {
		if err := g.extractInt(item.name, item.defVal); err != nil {
			return err
		}
	}
	for _, item := range []struct {
		name   string
		defVal time.Duration
	}{
		{CaptureReadTimeout, view.DefaultReadTimeout},
		{PingTimeout, view.DefaultPingTimeout},
		{ResolverCacheTTL, view.DefaultResolverCacheTTL},
	} {
		if err := g.extractDuration(item.name, item.defVal); err != nil {
			return err
		}
	}
	return g.extractPorts(HttpPorts, view.DefaultHttpPorts)
}

// GetListenAddress
// returns string value for ListenAddress
func (g systemInfoServiceImpl) GetListenAddress() string {
	return g.GetString(ListenAddress)
}

// GetOriginAllowed
// returns string value for OriginAllowed
func (g systemInfoServiceImpl) GetOriginAllowed() string {
	return g.GetString(OriginAllowed)
}

// GetString
// returns string by name or empty string when not found
func (g systemInfoServiceImpl) GetString(name string) string {
	if v, ok := g.systemInfoMap[name].(string); ok {
		return v
	}
	return ""
}

// GetInt64
// returns int64 by name or defVal when not found
func (g systemInfoServiceImpl) GetInt64(name string, defVal int64) int64 {
	if v, ok := g.systemInfoMap[name].(int64); ok {
		return v
	}
	return defVal
}

// GetBool
// get bool value from configuration
func (g systemInfoServiceImpl) GetBool(name string) bool {
	if v, ok := g.systemInfoMap[name].(bool); ok {
		return v
	}
	return false
}

func (g systemInfoServiceImpl) GetDuration(name string, defVal time.Duration) time.Duration {
	if v, ok := g.systemInfoMap[name].(time.Duration); ok {
		return v
	}
	return defVal
}

// GetInstanceId
// returns unique instance Id, generated at start
func (g systemInfoServiceImpl) GetInstanceId() string {
	return g.instanceId
}

func (g systemInfoServiceImpl) GetApiKey() string {
	return g.GetString(APIkey)
}

func (g systemInfoServiceImpl) GetWorkDir() string {
	return g.GetString(WorkDir)
}

func (g systemInfoServiceImpl) GetCaptureConfig() entities.CaptureServiceConfig {
	ret := entities.CaptureServiceConfig{
		SnapshotLen:   int(g.GetInt64(CaptureSnapLen, view.DefaultSnapLenBytes)),
		Promiscuous:   g.GetBool(CapturePromiscuous),
		ReadTimeout:   g.GetDuration(CaptureReadTimeout, view.DefaultReadTimeout),
		MaxPackets:    int(g.GetInt64(CaptureMaxPackets, view.DefaultMaxPackets)),
		MaxReadErrors: int(g.GetInt64(CaptureMaxReadErrors, view.DefaultMaxReadErrors)),
	}
	log.Printf("Instance Id :%s", g.instanceId)
	log.Printf("Snapshot len:%d", ret.SnapshotLen)
	log.Printf("Max packets :%d", ret.MaxPackets)
	return ret
}

func (g systemInfoServiceImpl) GetDecoderConfig() entities.DecoderConfig {
	ports, _ := g.systemInfoMap[HttpPorts].([]uint16)
	return entities.DecoderConfig{
		PayloadDisplayLimit: int(g.GetInt64(PayloadDisplayLimit, view.DefaultPayloadDisplayLimit)),
		HttpPorts:           ports,
	}
}

func (g systemInfoServiceImpl) GetPingConfig() entities.PingServiceConfig {
	return entities.PingServiceConfig{
		Timeout:    g.GetDuration(PingTimeout, view.DefaultPingTimeout),
		PacketSize: int(g.GetInt64(PingPacketSize, view.DefaultPingPacketSize)),
		Privileged: g.GetBool(PingPrivileged),
		MaxResults: int(g.GetInt64(PingMaxResults, view.DefaultPingMaxResults)),
	}
}

func (g systemInfoServiceImpl) GetResolverConfig() entities.ResolverConfig {
	return entities.ResolverConfig{
		CacheSize: int(g.GetInt64(ResolverCacheSize, view.DefaultResolverCacheSize)),
		CacheTTL:  g.GetDuration(ResolverCacheTTL, view.DefaultResolverCacheTTL),
	}
}

func (g systemInfoServiceImpl) GetCaptureControllerConfig() entities.CaptureControllerConfig {
	return entities.CaptureControllerConfig{
		APIkey:         g.GetApiKey(),
		ProductionMode: g.GetBool(ProductionMode),
		PushRateLimit:  int(g.GetInt64(PushRateLimit, view.DefaultPushRateLimit)),
		AllowedOrigin:  g.GetOriginAllowed(),
	}
}
