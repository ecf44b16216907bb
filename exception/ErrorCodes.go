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

package exception

const EmptyParameter = "8"
const EmptyParameterMsg = "Parameter $param should not be empty"

const BadRequestBody = "10"
const BadRequestBodyMsg = "Failed to decode body"

const RequiredParamsMissing = "15"
const RequiredParamsMissingMsg = "Required parameters are missing: $params"

const InvalidParameterValue = "16"
const InvalidParameterValueMsg = "Value '$value' is not allowed for parameter $param"

const ApiKeyNotFound = "83"
const ApiKeyNotFoundMsg = "Api key not found or does not match"

// UnableToStartCapture capture codes and messages
const UnableToStartCapture = "20000"
const UnableToStartCaptureMsg = "unable to start capture"
const UnableToStopCapture = "20001"
const UnableToStopCaptureMsg = "unable to stop capture"
const UnableToListInterfaces = "20002"
const UnableToListInterfacesMsg = "unable to list network interfaces"
const CaptureAlreadyActive = "20004"
const CaptureAlreadyActiveMsg = "capture session is already active on $interface"
const InvalidCaptureInterface = "20005"
const InvalidCaptureInterfaceMsg = "network interface $interface can not be opened"
const InvalidCaptureFilter = "20006"
const InvalidCaptureFilterMsg = "capture filter '$filter' is not valid"

// UnableToStartPing ping monitor codes and messages
const UnableToStartPing = "21000"
const UnableToStartPingMsg = "unable to start ping monitor for $target"
const PingAlreadyActive = "21001"
const PingAlreadyActiveMsg = "ping monitor for $target is already active"
const UnableToStopPing = "21002"
const UnableToStopPingMsg = "unable to stop ping monitor for $target"

// InvalidTcpProbe TCP probe codes and messages
const InvalidTcpProbe = "22000"
const InvalidTcpProbeMsg = "unable to probe $host:$port"
