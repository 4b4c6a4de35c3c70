// Copyright 2025 Alibaba Group Holding Ltd.
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

package model

// ApiAccessTokenHeader carries the access token when one is configured.
const ApiAccessTokenHeader = "X-SYSMON-ACCESS-TOKEN"

type ErrorCode string

const (
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorCodeMissingQuery     ErrorCode = "MISSING_QUERY"
	ErrorCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrorCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrorCodeNotRunning       ErrorCode = "NOT_RUNNING"
	ErrorCodeNotSupported     ErrorCode = "NOT_SUPPORTED"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeRuntimeError     ErrorCode = "RUNTIME_ERROR"
	ErrorCodeUnknown          ErrorCode = "UNKNOWN"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
