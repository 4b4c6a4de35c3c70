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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/superyngo/system-monitor/pkg/config"
	"github.com/superyngo/system-monitor/pkg/monitor"
	"github.com/superyngo/system-monitor/pkg/status"
	"github.com/superyngo/system-monitor/pkg/web/model"
)

var (
	settingsStore *config.Store
	monitorCtrl   *monitor.Controller
	statusTracker *status.Tracker
)

// InitMonitor hands the handlers the process-wide settings store, monitor
// and status tracker.
func InitMonitor(store *config.Store, ctrl *monitor.Controller, tracker *status.Tracker) {
	settingsStore = store
	monitorCtrl = ctrl
	statusTracker = tracker
}

func PingHandler(ctx *gin.Context) {
	ctx.Status(http.StatusOK)
}

type basicController struct {
	ctx *gin.Context
}

func newBasicController(ctx *gin.Context) *basicController {
	return &basicController{ctx: ctx}
}

func (c *basicController) RespondError(status int, code model.ErrorCode, message ...string) {
	resp := model.ErrorResponse{
		Code:    code,
		Message: "",
	}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	c.ctx.JSON(status, resp)
}

func (c *basicController) RespondSuccess(data any) {
	if data == nil {
		c.ctx.Status(http.StatusOK)
		return
	}
	c.ctx.JSON(http.StatusOK, data)
}

func (c *basicController) QueryInt64(query string, defaultValue int64) int64 {
	val, err := strconv.ParseInt(query, 10, 64)
	if err != nil {
		return defaultValue
	}
	return val
}

// requireQuery responds 400 and returns false when the query key is absent.
func (c *basicController) requireQuery(key string) (string, bool) {
	val := c.ctx.Query(key)
	if val == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeMissingQuery, "missing query parameter "+key)
		return "", false
	}
	return val, true
}

func (c *basicController) bindJSON(target any) error {
	decoder := json.NewDecoder(c.ctx.Request.Body)
	return decoder.Decode(target)
}

// respondMonitorError maps monitor lifecycle errors onto HTTP replies.
func (c *basicController) respondMonitorError(err error) {
	switch {
	case errors.Is(err, monitor.ErrInvalidConfig):
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidConfig, err.Error())
	case errors.Is(err, monitor.ErrConnection):
		c.RespondError(http.StatusBadGateway, model.ErrorCodeConnectionFailed, err.Error())
	case errors.Is(err, monitor.ErrNotRunning):
		c.RespondError(http.StatusConflict, model.ErrorCodeNotRunning, err.Error())
	default:
		c.RespondError(http.StatusInternalServerError, model.ErrorCodeRuntimeError, err.Error())
	}
}
