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

package sink

import (
	"github.com/superyngo/system-monitor/pkg/metrics"
)

// TimestampLayout is the format of the first column of every row.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	BatteryCharging  = "charging"
	BatteryOnBattery = "on battery"
	BatteryNone      = "no battery"
)

// Header names the columns written by Row, in order.
var Header = []string{
	"Timestamp",
	"CPU Usage (%)",
	"RAM Usage (%)",
	"RAM Used (GB)",
	"RAM Total (GB)",
	"Network Upload (MB/s)",
	"Network Download (MB/s)",
	"Directories",
	"Battery (%)",
	"Battery Status",
	"Uptime (hours)",
	"Disk Usage (%)",
	"Disk Free (GB)",
}

// Row lays out snap and the directory summary as one row of Header columns.
func Row(snap metrics.Snapshot, directories string) []any {
	return []any{
		snap.Timestamp.Local().Format(TimestampLayout),
		snap.CPUPercent,
		snap.Memory.Percent,
		snap.Memory.UsedGB,
		snap.Memory.TotalGB,
		snap.Network.MBSentPerSec,
		snap.Network.MBRecvPerSec,
		directories,
		batteryPercent(snap.Battery),
		BatteryStatus(snap.Battery),
		snap.Uptime.Hours,
		snap.Disk.Percent,
		snap.Disk.FreeGB,
	}
}

func batteryPercent(b metrics.Battery) any {
	if !b.Present {
		return metrics.TimeLeftNA
	}
	return b.Percent
}

func BatteryStatus(b metrics.Battery) string {
	switch {
	case b.Plugged:
		return BatteryCharging
	case b.Present:
		return BatteryOnBattery
	default:
		return BatteryNone
	}
}
