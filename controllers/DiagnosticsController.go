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
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/entities"
	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/services/registry"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	log "github.com/sirupsen/logrus"
)

// Service
// an interface to controller
type Service interface {
	OnInterfaces(w http.ResponseWriter, r *http.Request)
	OnInterfaceDetails(w http.ResponseWriter, r *http.Request)
	OnStartCapture(w http.ResponseWriter, r *http.Request)
	OnStopCapture(w http.ResponseWriter, r *http.Request)
	OnPackets(w http.ResponseWriter, r *http.Request)
	OnCaptureStats(w http.ResponseWriter, r *http.Request)
	OnCaptureStatus(w http.ResponseWriter, r *http.Request)
	OnStartPing(w http.ResponseWriter, r *http.Request)
	OnStopPing(w http.ResponseWriter, r *http.Request)
	OnPingResults(w http.ResponseWriter, r *http.Request)
	OnPingTargets(w http.ResponseWriter, r *http.Request)
	OnTcpTest(w http.ResponseWriter, r *http.Request)
	OnStatus(w http.ResponseWriter, r *http.Request)
}

type webService struct {
	entities.CaptureControllerConfig
	registry registry.SessionRegistry
}

// constants
const (
	requestBodyDeferError = "unable to defer request body. error: %v"
	HttpContentType       = "Content-Type"
	invalidApiKey         = "API key not match"
	emptyApiKey           = "empty API key not allowed in production mode"
)

// NewWebService
// creates a new web interface instance
func NewWebService(sr registry.SessionRegistry, config entities.CaptureControllerConfig) Service {
	return &webService{
		CaptureControllerConfig: config,
		registry:                sr,
	}
}

func RespondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set(HttpContentType, "application/json")
	w.WriteHeader(code)
	write, err := w.Write(response)
	if err != nil {
		log.Debugf("%d response bytes written with error: %v", write, err)
	}
}

func RespondWithCustomError(w http.ResponseWriter, err *exception.CustomError) {
	log.Debugf("Request failed. Code = %d. Message = %s. Params: %v. Debug: %s", err.Status, err.Message, err.Params, err.Debug)
	RespondWithJson(w, err.Status, err)
}

// OnInterfaces
// returns list of network interface names or reports error
func (ws *webService) OnInterfaces(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	interfaces, err := ws.registry.GetInterfaces()
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.UnableToListInterfaces,
			Message: exception.UnableToListInterfacesMsg,
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, interfaces)
}

// OnInterfaceDetails
// names, descriptions and addresses of capture devices
func (ws *webService) OnInterfaceDetails(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	details, err := ws.registry.GetInterfaceDetails()
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.UnableToListInterfaces,
			Message: exception.UnableToListInterfacesMsg,
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, details)
}

// OnStartCapture
// try to start packet capture (external interface to receive user requests)
func (ws *webService) OnStartCapture(w http.ResponseWriter, r *http.Request) {
	var rb view.CaptureRequest
	if !ws.decodeBody(w, r, &rb) {
		return
	}
	err := ws.registry.StartCapture(rb.Interface, rb.Filter)
	if err == nil {
		RespondWithJson(w, http.StatusAccepted, ws.registry.GetCaptureStatus())
		return
	}
	params := map[string]interface{}{"interface": rb.Interface, "filter": rb.Filter}
	switch {
	case errors.Is(err, exception.ErrAlreadyActive):
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.CaptureAlreadyActive,
			Message: exception.CaptureAlreadyActiveMsg,
			Params:  map[string]interface{}{"interface": ws.registry.GetCaptureStatus().Interface},
			Debug:   err.Error(),
		})
	case errors.Is(err, exception.ErrInvalidInterface):
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidCaptureInterface,
			Message: exception.InvalidCaptureInterfaceMsg,
			Params:  params,
			Debug:   err.Error(),
		})
	case errors.Is(err, exception.ErrInvalidInput) && rb.Filter != view.EmptyString:
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidCaptureFilter,
			Message: exception.InvalidCaptureFilterMsg,
			Params:  params,
			Debug:   err.Error(),
		})
	default:
		respondWithServiceError(w, err, exception.UnableToStartCapture, exception.UnableToStartCaptureMsg, params)
	}
}

// OnStopCapture
// stops packet capture, no-op when nothing runs
func (ws *webService) OnStopCapture(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	if err := ws.registry.StopCapture(); err != nil {
		respondWithServiceError(w, err, exception.UnableToStopCapture, exception.UnableToStopCaptureMsg, nil)
		return
	}
	RespondWithJson(w, http.StatusOK, ws.registry.GetCaptureStatus())
}

// OnPackets
// all packets, or a snapshot starting at index "from" when the parameter is given
func (ws *webService) OnPackets(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	fromStr := r.URL.Query().Get(view.FromParam)
	if fromStr == view.EmptyString {
		RespondWithJson(w, http.StatusOK, ws.registry.GetPackets())
		return
	}
	from, err := strconv.Atoi(fromStr)
	if err != nil || from < 0 {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidParameterValueMsg,
			Params:  map[string]interface{}{"param": view.FromParam, "value": fromStr},
		})
		return
	}
	RespondWithJson(w, http.StatusOK, ws.registry.GetPacketsSince(from))
}

func (ws *webService) OnCaptureStats(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	RespondWithJson(w, http.StatusOK, ws.registry.GetCaptureStats())
}

func (ws *webService) OnCaptureStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	RespondWithJson(w, http.StatusOK, ws.registry.GetCaptureStatus())
}

// OnStartPing
// starts a ping monitor for the target
func (ws *webService) OnStartPing(w http.ResponseWriter, r *http.Request) {
	var rb view.PingRequest
	if !ws.decodeBody(w, r, &rb) {
		return
	}
	if rb.Target == view.EmptyString {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": view.TargetParam},
		})
		return
	}
	params := map[string]interface{}{"target": rb.Target}
	err := ws.registry.StartPing(rb.Target, time.Duration(rb.IntervalMs)*time.Millisecond)
	switch {
	case err == nil:
		RespondWithJson(w, http.StatusAccepted, rb)
	case errors.Is(err, exception.ErrAlreadyActive):
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.PingAlreadyActive,
			Message: exception.PingAlreadyActiveMsg,
			Params:  params,
			Debug:   err.Error(),
		})
	default:
		respondWithServiceError(w, err, exception.UnableToStartPing, exception.UnableToStartPingMsg, params)
	}
}

// OnStopPing
// stops the monitor, unknown targets are not an error
func (ws *webService) OnStopPing(w http.ResponseWriter, r *http.Request) {
	var rb view.PingRequest
	if !ws.decodeBody(w, r, &rb) {
		return
	}
	if err := ws.registry.StopPing(rb.Target); err != nil {
		respondWithServiceError(w, err, exception.UnableToStopPing, exception.UnableToStopPingMsg,
			map[string]interface{}{"target": rb.Target})
		return
	}
	RespondWithJson(w, http.StatusOK, rb)
}

func (ws *webService) OnPingResults(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	target := r.URL.Query().Get(view.TargetParam)
	if target == view.EmptyString {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": view.TargetParam},
		})
		return
	}
	RespondWithJson(w, http.StatusOK, ws.registry.GetPingResults(target))
}

func (ws *webService) OnPingTargets(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	RespondWithJson(w, http.StatusOK, ws.registry.GetPingTargets())
}

// OnTcpTest
// one-shot TCP connect, connect failures are a successful call with Success=false
func (ws *webService) OnTcpTest(w http.ResponseWriter, r *http.Request) {
	var rb view.TcpProbeRequest
	if !ws.decodeBody(w, r, &rb) {
		return
	}
	result, err := ws.registry.TestTCPConnection(r.Context(), rb.Host, rb.Port, time.Duration(rb.TimeoutMs)*time.Millisecond)
	if err != nil {
		respondWithServiceError(w, err, exception.InvalidTcpProbe, exception.InvalidTcpProbeMsg,
			map[string]interface{}{"host": rb.Host, "port": rb.Port})
		return
	}
	RespondWithJson(w, http.StatusOK, result)
}

// OnStatus
// reports status on TTL requests
func (ws *webService) OnStatus(w http.ResponseWriter, _ *http.Request) {
	RespondWithJson(w, http.StatusOK, "") // always respond OK to calm the watchdogs
}

// respondWithServiceError
// maps the error taxonomy to HTTP statuses
func respondWithServiceError(w http.ResponseWriter, err error, code, message string, params map[string]interface{}) {
	status := http.StatusServiceUnavailable
	switch {
	case errors.Is(err, exception.ErrInvalidInput), errors.Is(err, exception.ErrInvalidInterface):
		status = http.StatusBadRequest
	case errors.Is(err, exception.ErrAlreadyActive):
		status = http.StatusConflict
	case errors.Is(err, exception.ErrNotFound):
		status = http.StatusNotFound
	}
	RespondWithCustomError(w, &exception.CustomError{
		Status:  status,
		Code:    code,
		Message: message,
		Params:  params,
		Debug:   err.Error(),
	})
}

// decodeBody
// reads and unmarshals the request body, responds on failure
func (ws *webService) decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	body, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return false
	}
	if err = json.Unmarshal(body, target); err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return false
	}
	return true
}

// checkAndGetBody
// checks API key and reads body contents
func (ws *webService) checkAndGetBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if err := checkApiKey(w, r, ws.CaptureControllerConfig); err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Debugf(requestBodyDeferError, err)
		}
	}(r.Body)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return nil, err
	}
	return body, nil
}

// checkApiKey
// responds with 401 when the api-key header does not match
func checkApiKey(w http.ResponseWriter, r *http.Request, config entities.CaptureControllerConfig) error {
	if config.APIkey != view.EmptyString {
		if r.Header.Get(view.ApiKeyHeader) != config.APIkey {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusUnauthorized,
				Code:    exception.ApiKeyNotFound,
				Message: exception.ApiKeyNotFoundMsg,
				Debug:   invalidApiKey,
			})
			return errors.New(invalidApiKey)
		}
	} else if config.ProductionMode {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusUnauthorized,
			Code:    exception.EmptyParameter,
			Message: exception.EmptyParameterMsg,
			Params:  map[string]interface{}{"param": view.ApiKeyHeader},
			Debug:   emptyApiKey,
		})
		return errors.New(emptyApiKey)
	}
	return nil
}
