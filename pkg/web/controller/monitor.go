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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/superyngo/system-monitor/pkg/web/model"
)

// MonitorController exposes the start/stop entry points and status.
type MonitorController struct {
	*basicController
}

func NewMonitorController(ctx *gin.Context) *MonitorController {
	return &MonitorController{basicController: newBasicController(ctx)}
}

// GetStatus reports the monitor state, the installed job and the last status.
func (c *MonitorController) GetStatus() {
	resp := model.StatusResponse{
		State:      string(monitorCtrl.State()),
		Monitoring: monitorCtrl.Monitoring(),
		Status:     statusTracker.Snapshot(),
	}
	if job, ok := monitorCtrl.Job(); ok {
		resp.Job = &model.JobInfo{
			IntervalMinutes: int(job.Interval / time.Minute),
			NextRun:         job.NextRun,
			LastRun:         job.LastRun,
		}
	}

	c.RespondSuccess(resp)
}

func (c *MonitorController) StartMonitoring() {
	if err := monitorCtrl.BeginMonitoring(c.ctx.Request.Context()); err != nil {
		c.respondMonitorError(err)
		return
	}
	c.respondMonitoring()
}

func (c *MonitorController) StopMonitoring() {
	monitorCtrl.EndMonitoring()
	c.respondMonitoring()
}

func (c *MonitorController) ToggleMonitoring() {
	if _, err := monitorCtrl.Toggle(c.ctx.Request.Context()); err != nil {
		c.respondMonitorError(err)
		return
	}
	c.respondMonitoring()
}

func (c *MonitorController) respondMonitoring() {
	c.RespondSuccess(model.MonitoringResponse{
		State:      string(monitorCtrl.State()),
		Monitoring: monitorCtrl.Monitoring(),
	})
}
