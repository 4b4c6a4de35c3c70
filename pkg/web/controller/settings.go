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

package controller

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/superyngo/system-monitor/pkg/config"
	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/web/model"
)

// SettingsController reads and edits the settings file. Every accepted
// change is saved and then applied to the monitor.
type SettingsController struct {
	*basicController
}

func NewSettingsController(ctx *gin.Context) *SettingsController {
	return &SettingsController{basicController: newBasicController(ctx)}
}

func (c *SettingsController) GetSettings() {
	c.respondSettings(settingsStore.Snapshot())
}

// UpdateSettings merges the request body over the current settings.
func (c *SettingsController) UpdateSettings() {
	next := settingsStore.Snapshot()
	if err := c.bindJSON(&next); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error parsing request, MAYBE invalid body format. %v", err),
		)
		return
	}

	if next.Logging.LogLevel != "" {
		if err := log.SetLevel(next.Logging.LogLevel); err != nil {
			c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidRequest, err.Error())
			return
		}
	}
	if err := settingsStore.Replace(next); err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error saving settings. %v", err),
		)
		return
	}
	if err := log.SetOutput(next.Logging.LogFile); err != nil {
		log.Warn("failed to switch log file: %v", err)
	}

	monitorCtrl.Reconfigure()
	c.respondSettings(settingsStore.Snapshot())
}

func (c *SettingsController) AddDirectory() {
	var request model.DirectoryRequest
	if err := c.bindJSON(&request); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error parsing request, MAYBE invalid body format. %v", err),
		)
		return
	}
	if err := request.Validate(); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidRequest, err.Error())
		return
	}

	dir, err := filepath.Abs(request.Path)
	if err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidRequest, err.Error())
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidRequest, "not a directory: "+dir)
		return
	}

	added, err := settingsStore.AddMonitorDirectory(dir)
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error saving settings. %v", err),
		)
		return
	}
	if added {
		monitorCtrl.Reconfigure()
	}
	c.respondDirectories(dir, added)
}

func (c *SettingsController) RemoveDirectory() {
	dir, ok := c.requireQuery("path")
	if !ok {
		return
	}

	removed, err := settingsStore.RemoveMonitorDirectory(dir)
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error saving settings. %v", err),
		)
		return
	}
	if !removed {
		c.RespondError(http.StatusNotFound, model.ErrorCodeNotFound, "directory is not monitored: "+dir)
		return
	}

	monitorCtrl.Reconfigure()
	c.respondDirectories(dir, true)
}

func (c *SettingsController) respondSettings(settings config.Settings) {
	problems := settings.Validate()
	if problems == nil {
		problems = []string{}
	}
	c.RespondSuccess(model.SettingsResponse{
		Path:     settingsStore.Path(),
		Settings: settings,
		Problems: problems,
	})
}

func (c *SettingsController) respondDirectories(dir string, changed bool) {
	c.RespondSuccess(model.DirectoryResponse{
		Path:        dir,
		Changed:     changed,
		Directories: settingsStore.Snapshot().Monitoring.MonitorDirectories,
	})
}
