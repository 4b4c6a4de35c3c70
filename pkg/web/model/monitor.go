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
	"time"

	"github.com/superyngo/system-monitor/pkg/status"
)

// JobInfo describes the installed upload job.
type JobInfo struct {
	IntervalMinutes int       `json:"interval_minutes"`
	NextRun         time.Time `json:"next_run"`
	LastRun         time.Time `json:"last_run,omitempty"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	State      string          `json:"state"`
	Monitoring bool            `json:"monitoring"`
	Job        *JobInfo        `json:"job,omitempty"`
	Status     status.Snapshot `json:"status"`
}

type MonitoringResponse struct {
	State      string `json:"state"`
	Monitoring bool   `json:"monitoring"`
}
