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

package decoder

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
)

// Single frame detection only. Requests or responses split across
// segments are not reassembled, continuation frames are not HTTP.

const (
	headerContentType = "content-type"
	headerHost        = "host"
	statusLinePrefix  = "HTTP/"
	minStartLineLen   = len("HTTP/1.1 200")
)

var (
	versionRe   = regexp.MustCompile(`^HTTP/\d(\.\d)?$`)
	headerEnd   = []byte("\r\n\r\n")
	httpMethods = map[string]struct{}{
		"GET": {}, "HEAD": {}, "POST": {}, "PUT": {}, "DELETE": {}, "CONNECT": {}, "OPTIONS": {},
		"TRACE": {}, "PATCH": {}, "PROPFIND": {}, "PROPPATCH": {}, "MKCOL": {}, "COPY": {}, "MOVE": {},
		"LOCK": {}, "UNLOCK": {},
	}
)

// SniffHttp
// parses start line and headers of an HTTP/1.x message carried by one TCP segment
// returns nil when the payload is not recognized as HTTP
func SniffHttp(payload []byte) *entities.HTTPInfo {
	if len(payload) < minStartLineLen {
		return nil
	}
	head := payload
	if idx := bytes.Index(payload, headerEnd); idx >= 0 {
		head = payload[:idx]
	}
	lines := strings.Split(string(head), "\n")
	info := parseStartLine(strings.TrimSuffix(lines[0], "\r"))
	if info == nil {
		return nil
	}
	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			break
		}
		name, value, found := strings.Cut(line, ":")
		if !found || name == "" || strings.ContainsAny(name, " \t") {
			continue // malformed or folded header line
		}
		switch strings.ToLower(name) {
		case headerContentType:
			info.ContentType = strings.TrimSpace(value)
		case headerHost:
			info.Host = strings.TrimSpace(value)
		}
	}
	return info
}

// LooksLikeHttp
// cheap prefix check used for traffic on ports not known as HTTP
func LooksLikeHttp(payload []byte) bool {
	if bytes.HasPrefix(payload, []byte(statusLinePrefix)) {
		return true
	}
	sp := bytes.IndexByte(payload, ' ')
	if sp <= 0 || sp > len("PROPPATCH") {
		return false
	}
	_, known := httpMethods[string(payload[:sp])]
	return known
}

// parseStartLine
// request line: METHOD SP TARGET SP VERSION
// status line: VERSION SP CODE [SP TEXT]
func parseStartLine(line string) *entities.HTTPInfo {
	if strings.HasPrefix(line, statusLinePrefix) {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 2 || !versionRe.MatchString(parts[0]) || len(parts[1]) != 3 {
			return nil
		}
		code, err := strconv.Atoi(parts[1])
		if err != nil || code < 100 || code > 599 {
			return nil
		}
		info := &entities.HTTPInfo{Version: parts[0], StatusCode: code, IsRequest: false}
		if len(parts) == 3 {
			info.StatusText = parts[2]
		}
		return info
	}
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil
	}
	if _, known := httpMethods[parts[0]]; !known {
		return nil
	}
	if !validTarget(parts[0], parts[1]) || !versionRe.MatchString(parts[2]) {
		return nil
	}
	return &entities.HTTPInfo{Method: parts[0], Path: parts[1], Version: parts[2], IsRequest: true}
}

// validTarget
// origin, absolute, authority (CONNECT) or asterisk (OPTIONS) form
func validTarget(method, target string) bool {
	switch {
	case target == "":
		return false
	case strings.HasPrefix(target, "/"):
		return true
	case target == "*":
		return method == "OPTIONS"
	case strings.Contains(target, "://"):
		return true
	case method == "CONNECT":
		return strings.Contains(target, ":")
	}
	return false
}
