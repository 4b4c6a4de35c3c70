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

import (
	"github.com/go-playground/validator/v10"

	"github.com/superyngo/system-monitor/pkg/config"
)

type SettingsResponse struct {
	Path     string          `json:"path"`
	Settings config.Settings `json:"settings"`
	// Problems lists what still prevents monitoring from starting.
	Problems []string `json:"problems"`
}

type DirectoryRequest struct {
	Path string `json:"path" validate:"required"`
}

func (r *DirectoryRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

type DirectoryResponse struct {
	Path        string   `json:"path"`
	Changed     bool     `json:"changed"`
	Directories []string `json:"directories"`
}
