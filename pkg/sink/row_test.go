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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superyngo/system-monitor/pkg/config"
	"github.com/superyngo/system-monitor/pkg/metrics"
)

func sampleSnapshot() metrics.Snapshot {
	return metrics.Snapshot{
		Timestamp:  time.Date(2024, 3, 9, 8, 7, 6, 0, time.Local),
		CPUPercent: 12.5,
		Memory:     metrics.Memory{Percent: 40, UsedGB: 6.4, TotalGB: 16},
		Network:    metrics.Network{MBSentPerSec: 0.0123, MBRecvPerSec: 1.5},
		Disk:       metrics.Disk{Percent: 71.2, FreeGB: 120.5},
		Uptime:     metrics.Uptime{Hours: 5.25},
		Battery:    metrics.Battery{TimeLeft: metrics.TimeLeftNA},
	}
}

func TestRowLayout(t *testing.T) {
	row := Row(sampleSnapshot(), "/data: 1 files, 0 dirs, 0MB | Total: 1 files, 0 dirs, 0MB")

	require.Len(t, row, len(Header))
	assert.Equal(t, []any{
		"2024-03-09 08:07:06",
		12.5, 40.0, 6.4, 16.0,
		0.0123, 1.5,
		"/data: 1 files, 0 dirs, 0MB | Total: 1 files, 0 dirs, 0MB",
		"N/A", BatteryNone,
		5.25, 71.2, 120.5,
	}, row)
}

func TestBatteryColumns(t *testing.T) {
	tests := []struct {
		name    string
		battery metrics.Battery
		percent any
		status  string
	}{
		{name: "absent", battery: metrics.Battery{}, percent: "N/A", status: BatteryNone},
		{name: "discharging", battery: metrics.Battery{Present: true, Percent: 55}, percent: 55.0, status: BatteryOnBattery},
		{name: "plugged", battery: metrics.Battery{Present: true, Percent: 99, Plugged: true}, percent: 99.0, status: BatteryCharging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := sampleSnapshot()
			snap.Battery = tt.battery
			row := Row(snap, "")
			assert.Equal(t, tt.percent, row[8])
			assert.Equal(t, tt.status, row[9])
		})
	}
}

func TestNewSelectsSink(t *testing.T) {
	s := config.Default()
	s.GoogleSheets.SpreadsheetURL = "https://docs.google.com/spreadsheets/d/abc-123_X/edit#gid=0"

	got, err := New(s)
	require.NoError(t, err)
	assert.IsType(t, &SheetsSink{}, got)

	s.Sink = config.SinkMySQL
	s.MySQL.DSN = "user:pw@tcp(127.0.0.1:3306)/metrics"
	got, err = New(s)
	require.NoError(t, err)
	assert.IsType(t, &MySQLSink{}, got)

	s.Sink = "carrier-pigeon"
	_, err = New(s)
	assert.Error(t, err)
}

func TestSpreadsheetID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://docs.google.com/spreadsheets/d/1AbC_d-9/edit#gid=0", want: "1AbC_d-9"},
		{in: "1AbC_d-9", want: "1AbC_d-9"},
		{in: "https://example.com/nothing", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SpreadsheetID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
