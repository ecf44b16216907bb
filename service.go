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
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/controllers"
	"github.com/Netcracker/qubership-netdiag-agent/services/capture"
	"github.com/Netcracker/qubership-netdiag-agent/services/decoder"
	"github.com/Netcracker/qubership-netdiag-agent/services/disk_cache"
	"github.com/Netcracker/qubership-netdiag-agent/services/name_resolver"
	"github.com/Netcracker/qubership-netdiag-agent/services/ping"
	"github.com/Netcracker/qubership-netdiag-agent/services/registry"
	"github.com/Netcracker/qubership-netdiag-agent/services/service"
	"github.com/Netcracker/qubership-netdiag-agent/services/tcp_probe"
	"github.com/Netcracker/qubership-netdiag-agent/utils"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/google/gopacket/pcap"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/netcracker/qubership-core-lib-go/v3/configloader"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

type serviceStatusType int

const (
	serviceStatusRunning serviceStatusType = iota
	serviceStatusStart
	serviceStatusRestart
)

const restartServiceInterval = 10 * time.Second

func makeServer(systemInfoService service.SystemInfoService, r *mux.Router) *http.Server {
	listenAddr := systemInfoService.GetListenAddress()

	log.Infof("Listen addr = %s", listenAddr)

	var corsOptions []handlers.CORSOption

	corsOptions = append(corsOptions,
		handlers.AllowedHeaders([]string{
			"Connection",
			"Accept-Encoding",
			"Content-Encoding",
			"X-Requested-With",
			controllers.HttpContentType,
			view.ApiKeyHeader,
			"Authorization"}))

	allowedOrigin := systemInfoService.GetOriginAllowed()
	if allowedOrigin != "" {
		corsOptions = append(corsOptions, handlers.AllowedOrigins([]string{allowedOrigin}))
	}
	corsOptions = append(corsOptions, handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet}))

	return &http.Server{
		Handler:      handlers.CORS(corsOptions...)(r),
		Addr:         listenAddr,
		WriteTimeout: 300 * time.Second,
		ReadTimeout:  30 * time.Second,
	}
}

// makeRouter
// REST routes are compressed, the websocket route is not since the compressing writer cannot be hijacked
func makeRouter(ws controllers.Service, push controllers.PushController) *mux.Router {
	r := mux.NewRouter()
	r.SkipClean(true)
	r.UseEncodedPath()
	r.HandleFunc(view.EventsPath, push.OnEvents).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(handlers.CompressHandler)
	api.HandleFunc(view.InterfaceListPath, ws.OnInterfaces).Methods(http.MethodGet)
	api.HandleFunc(view.InterfaceDetailsPath, ws.OnInterfaceDetails).Methods(http.MethodGet)
	api.HandleFunc(view.CaptureStartPath, ws.OnStartCapture).Methods(http.MethodPost)
	api.HandleFunc(view.CaptureStopPath, ws.OnStopCapture).Methods(http.MethodPost)
	api.HandleFunc(view.CapturePacketsPath, ws.OnPackets).Methods(http.MethodGet)
	api.HandleFunc(view.CaptureStatsPath, ws.OnCaptureStats).Methods(http.MethodGet)
	api.HandleFunc(view.CaptureStatusPath, ws.OnCaptureStatus).Methods(http.MethodGet)
	api.HandleFunc(view.PingStartPath, ws.OnStartPing).Methods(http.MethodPost)
	api.HandleFunc(view.PingStopPath, ws.OnStopPing).Methods(http.MethodPost)
	api.HandleFunc(view.PingResultsPath, ws.OnPingResults).Methods(http.MethodGet)
	api.HandleFunc(view.PingTargetsPath, ws.OnPingTargets).Methods(http.MethodGet)
	api.HandleFunc(view.TcpTestPath, ws.OnTcpTest).Methods(http.MethodPost)
	// set TTL reactions
	api.HandleFunc(view.LivePath, ws.OnStatus).Methods(http.MethodGet)
	api.HandleFunc(view.ReadyPath, ws.OnStatus).Methods(http.MethodGet)
	api.HandleFunc(view.StartupPath, ws.OnStatus).Methods(http.MethodGet)
	return r
}

// makeArchive
// disk backed archive of stopped ping monitors, memory when the work directory is not usable
func makeArchive(workDir string) registry.PingArchive {
	cache, err := disk_cache.NewDiskCache(registry.PingArchiveName, workDir)
	if err != nil {
		log.Errorf("unable to create ping archive in '%s', results are kept in memory: %v", workDir, err)
		return registry.NewMemoryArchive()
	}
	log.Printf("disk cache \"%s\" created", registry.PingArchiveName)
	return registry.NewDiskArchive(cache)
}

// init
// initialises logging
func init() {
	basePath := os.Getenv(service.BasePath)
	if basePath == "" {
		basePath = "."
	}
	mw := io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename: path.Join(basePath, "logs", "netdiag_agent.log"),
		MaxSize:  10, // megabytes
	})
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	logLevel, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetOutput(mw)
}

// init
// initialises configuration file fallback
func init() {
	sourceParams := configloader.YamlPropertySourceParams{ConfigFilePath: "config.yaml"}
	configloader.Init(configloader.BasePropertySources(sourceParams)...)
}

func main() {
	actionStr := view.EmptyString
	address := view.EmptyString
	logLevel := view.EmptyString
	port := 0
	timeoutVal := time.Second * 10
	flag.StringVar(&actionStr, "action", view.EmptyString, "A local check to run instead of the service: (interfaces, resolve, ping, tcp)")
	flag.DurationVar(&timeoutVal, "wait-time", time.Second*10, "timeout for actions")
	flag.StringVar(&address, "address", "127.0.0.1", "a host or an IP address to check")
	flag.IntVar(&port, "port", 80, "a TCP port for the tcp action")
	flag.StringVar(&logLevel, "log-level", "DEBUG", "A logging level: (trace, debug, info, warning, error, fatal, panic)")
	flag.Parse()
	systemInfoService, mandatoryServiceError := service.NewSystemInfoService()
	if mandatoryServiceError != nil {
		log.Fatalf("unable to prepare service configuration '%v'", mandatoryServiceError)
	}
	resolver := name_resolver.NewNameResolver(systemInfoService.GetResolverConfig())
	probe := tcp_probe.NewTcpProbe(resolver)
	pinger := ping.NewIcmpPinger(systemInfoService.GetPingConfig())
	dec := decoder.NewDecoder(systemInfoService.GetDecoderConfig())
	if actionStr != view.EmptyString {
		level, err := log.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			level = log.DebugLevel
		}
		log.SetLevel(level)
		log.Printf("Debug mode action %s", actionStr)
		runAction(actionStr, address, port, timeoutVal, resolver, probe, pinger)
		return
	}

	push := controllers.NewPushController(systemInfoService.GetCaptureControllerConfig())
	defer push.Close()
	pkt := capture.NewCapture(systemInfoService.GetCaptureConfig(), dec, push)
	sr := registry.NewSessionRegistry(pkt, systemInfoService.GetPingConfig(), pinger, resolver, probe,
		makeArchive(systemInfoService.GetWorkDir()), push)
	defer sr.Close()
	ws := controllers.NewWebService(sr, systemInfoService.GetCaptureControllerConfig())
	failureReportChannel := make(chan string)
	controllerStatus := serviceStatusStart // try to start service
	restartPause := restartServiceInterval // set initial pause
	for {
		if controllerStatus != serviceStatusRunning {
			if controllerStatus == serviceStatusRestart { // when service is restarting
				time.Sleep(restartPause) // make a pause
				restartPause *= 2        // increase interval
			}
			controllerStatus = serviceStatusRunning // mark service as running
			utils.SafeAsync(func() {
				defer func() {
					select {
					case failureReportChannel <- view.EmptyString:
						break // controller failed
					case <-time.After(time.Second * 5): // channel writing timeout
						log.Warnf("unable to notify about controller's failure")
					}
				}()
				srv := makeServer(systemInfoService, makeRouter(ws, push))
				log.Errorf("Service fatal error:%v", srv.ListenAndServe())
			})
		}
		select {
		case <-failureReportChannel:
			{
				log.Error("controller failed unexpectedly")
				controllerStatus = serviceStatusRestart // when failed - ask for a restart
			}
		case <-time.After(time.Hour * 24):
			{
				log.Print("Controller is healthy")
				restartPause = restartServiceInterval // reset interval when service is running
			}
		}
	}
}

// runAction
// one-shot diagnostics from the command line, no HTTP server involved
func runAction(actionStr, address string, port int, timeout time.Duration, resolver name_resolver.NameResolver,
	probe tcp_probe.TcpProbe, pinger ping.Pinger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	switch actionStr {
	case "interfaces":
		{
			devices, err := capture.LocalInterfaceDetails(pcap.FindAllDevs)
			if err != nil {
				log.Errorf("Error listing interfaces: %v", err)
				break
			}
			for idx, device := range devices {
				log.Infof("%d %s (%s) %s", idx, device.Name, device.Description,
					strings.Join(device.Addresses, view.ArrayJoinSeparator))
			}
		}
	case "resolve":
		{
			t1 := time.Now()
			ip, err := resolver.Resolve(ctx, address)
			if err != nil {
				log.Errorf("unable to resolve %s: %v", address, err)
				break
			}
			log.Printf("%s resolved to %s (takes %v)", address, ip, time.Since(t1))
		}
	case "ping":
		{
			ip, err := resolver.Resolve(ctx, address)
			if err != nil {
				log.Errorf("unable to resolve %s: %v", address, err)
				break
			}
			rtt, err := pinger.Ping(ctx, ip)
			if err != nil {
				log.Errorf("ping %s failed: %v", ip, err)
				break
			}
			log.Printf("%s replied in %v", ip, rtt)
		}
	case "tcp":
		{
			result, err := probe.TestTCPConnection(ctx, address, port, timeout)
			if err != nil {
				log.Errorf("tcp test failed: %v", err)
				break
			}
			if result.Success {
				log.Printf("%s:%d (%s) connected in %v", address, port, result.IP, result.ConnectTime)
			} else {
				log.Printf("%s:%d failed: %s", address, port, result.Error)
			}
		}
	default:
		log.Errorf("don't know how to handle action %v", actionStr)
	}
}
