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
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/utils"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	subscriberQueueSize = 256
	writeWait           = 10 * time.Second
)

// PushController
// websocket hub, also the capture and ping listener of the registry
type PushController interface {
	OnEvents(w http.ResponseWriter, r *http.Request)
	OnPacket(sessionId string, packet entities.Packet)
	OnCaptureState(status view.CaptureStatus)
	OnPingResult(target string, result entities.PingResult)
	Dropped() uint64
	Close()
}

// subscriber
// one websocket connection and its outgoing queue
type subscriber struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

type pushController struct {
	config      entities.CaptureControllerConfig
	upgrader    websocket.Upgrader
	limiter     *rate.Limiter
	lock        sync.Mutex
	subscribers map[*subscriber]struct{}
	dropped     atomic.Uint64
	closed      bool
}

// NewPushController
// packet events over PushRateLimit per second are dropped, state and ping events are not limited
func NewPushController(config entities.CaptureControllerConfig) PushController {
	if config.PushRateLimit <= 0 {
		config.PushRateLimit = view.DefaultPushRateLimit
	}
	pc := &pushController{
		config:      config,
		limiter:     rate.NewLimiter(rate.Limit(config.PushRateLimit), config.PushRateLimit),
		subscribers: make(map[*subscriber]struct{}),
	}
	pc.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     pc.checkOrigin,
	}
	return pc
}

// OnEvents
// upgrades the request and streams events until the peer goes away
func (pc *pushController) OnEvents(w http.ResponseWriter, r *http.Request) {
	if err := checkApiKey(w, r, pc.config); err != nil {
		return
	}
	conn, err := pc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("websocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberQueueSize)}
	pc.lock.Lock()
	if pc.closed {
		pc.lock.Unlock()
		sub.close()
		return
	}
	pc.subscribers[sub] = struct{}{}
	count := len(pc.subscribers)
	pc.lock.Unlock()
	log.Debugf("websocket subscriber %s connected (%d total)", r.RemoteAddr, count)

	utils.SafeAsyncNamed("push writer "+r.RemoteAddr, func() {
		pc.writeLoop(sub)
	})
	utils.SafeAsyncNamed("push reader "+r.RemoteAddr, func() {
		pc.readLoop(sub)
	})
}

func (pc *pushController) OnPacket(sessionId string, packet entities.Packet) {
	if !pc.limiter.Allow() {
		pc.dropped.Add(1)
		return
	}
	pc.broadcast(view.PushEvent{Type: view.PushEventPacket, SessionId: sessionId, Data: packet})
}

func (pc *pushController) OnCaptureState(status view.CaptureStatus) {
	pc.broadcast(view.PushEvent{Type: view.PushEventCaptureState, SessionId: status.Id, Data: status})
}

func (pc *pushController) OnPingResult(target string, result entities.PingResult) {
	pc.broadcast(view.PushEvent{Type: view.PushEventPingResult, Target: target, Data: result})
}

// Dropped
// events not delivered because of the rate limit or full subscriber queues
func (pc *pushController) Dropped() uint64 {
	return pc.dropped.Load()
}

// Close
// disconnects all subscribers
func (pc *pushController) Close() {
	pc.lock.Lock()
	defer pc.lock.Unlock()
	pc.closed = true
	for sub := range pc.subscribers {
		delete(pc.subscribers, sub)
		close(sub.send)
	}
}

// broadcast
// never blocks the caller, a full queue drops the event for that subscriber
func (pc *pushController) broadcast(event view.PushEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("unable to encode %s event: %v", event.Type, err)
		return
	}
	pc.lock.Lock()
	defer pc.lock.Unlock()
	for sub := range pc.subscribers {
		select {
		case sub.send <- data:
		default:
			pc.dropped.Add(1)
		}
	}
}

// unregister
// removes the subscriber once, closing its queue stops the writer
func (pc *pushController) unregister(sub *subscriber) {
	pc.lock.Lock()
	defer pc.lock.Unlock()
	if _, found := pc.subscribers[sub]; found {
		delete(pc.subscribers, sub)
		close(sub.send)
	}
}

func (pc *pushController) writeLoop(sub *subscriber) {
	defer sub.close()
	for data := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debugf("websocket write failed: %v", err)
			pc.unregister(sub)
			break
		}
	}
	_ = sub.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// readLoop
// incoming messages are ignored, a read error means the peer has gone
func (pc *pushController) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			pc.unregister(sub)
			sub.close()
			return
		}
	}
}

func (pc *pushController) checkOrigin(r *http.Request) bool {
	if pc.config.AllowedOrigin == view.EmptyString {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == view.EmptyString || origin == pc.config.AllowedOrigin
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}
