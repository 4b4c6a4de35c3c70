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

package metrics

import "time"

// Snapshot is one tick's worth of host metrics. Every sub-record is always
// present; a failed reading leaves it zeroed.
type Snapshot struct {
	Timestamp  time.Time `json:"timestamp"`
	CPUPercent float64   `json:"cpu_percent"`
	Memory     Memory    `json:"memory"`
	Network    Network   `json:"network"`
	Disk       Disk      `json:"disk"`
	Uptime     Uptime    `json:"uptime"`
	Battery    Battery   `json:"battery"`
}

type Memory struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	TotalGB        float64 `json:"total_gb"`
	UsedGB         float64 `json:"used_gb"`
	AvailableGB    float64 `json:"available_gb"`
	Percent        float64 `json:"percent"`
}

type Network struct {
	BytesSentPerSec float64 `json:"bytes_sent_per_sec"`
	BytesRecvPerSec float64 `json:"bytes_recv_per_sec"`
	MBSentPerSec    float64 `json:"mb_sent_per_sec"`
	MBRecvPerSec    float64 `json:"mb_recv_per_sec"`
	Interface       string  `json:"interface"`
}

type Disk struct {
	Path       string  `json:"path"`
	TotalBytes uint64  `json:"total_bytes"`
	UsedBytes  uint64  `json:"used_bytes"`
	FreeBytes  uint64  `json:"free_bytes"`
	TotalGB    float64 `json:"total_gb"`
	UsedGB     float64 `json:"used_gb"`
	FreeGB     float64 `json:"free_gb"`
	Percent    float64 `json:"percent"`
}

type Uptime struct {
	Seconds  float64   `json:"seconds"`
	Minutes  float64   `json:"minutes"`
	Hours    float64   `json:"hours"`
	Days     float64   `json:"days"`
	BootTime time.Time `json:"boot_time"`
}

const (
	TimeLeftUnlimited = "unlimited"
	TimeLeftUnknown   = "unknown"
	TimeLeftNA        = "N/A"
)

type Battery struct {
	Present  bool    `json:"present"`
	Percent  float64 `json:"percent"`
	Plugged  bool    `json:"plugged"`
	TimeLeft string  `json:"time_left"`
}

// Selection narrows what a Sample reads. Disabled metrics are reported zeroed
// without touching the OS.
type Selection struct {
	CPU      bool
	Memory   bool
	Network  bool
	DiskPath string
}

// All enables every metric and reads disk usage at diskPath.
func All(diskPath string) Selection {
	return Selection{CPU: true, Memory: true, Network: true, DiskPath: diskPath}
}
