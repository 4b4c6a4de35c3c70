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

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superyngo/system-monitor/pkg/util/units"
)

var errUnavailable = errors.New("unavailable")

type fakeSource struct {
	cpu       float64
	cpuErr    error
	memory    *mem.VirtualMemoryStat
	memErr    error
	counters  []Counters
	netErr    error
	netCalls  int
	ifaces    []Interface
	ifacesErr error
	ifaceList int
	disk      *disk.UsageStat
	diskErr   error
	diskPaths []string
	boot      time.Time
	bootErr   error
	batteries []BatteryReading
	batErr    error
}

func (f *fakeSource) CPUPercent(context.Context, time.Duration) (float64, error) {
	return f.cpu, f.cpuErr
}

func (f *fakeSource) VirtualMemory(context.Context) (*mem.VirtualMemoryStat, error) {
	return f.memory, f.memErr
}

func (f *fakeSource) NetCounters(context.Context) (Counters, error) {
	if f.netErr != nil {
		return Counters{}, f.netErr
	}
	c := f.counters[min(f.netCalls, len(f.counters)-1)]
	f.netCalls++
	return c, nil
}

func (f *fakeSource) Interfaces(context.Context) ([]Interface, error) {
	f.ifaceList++
	if f.ifacesErr != nil {
		return nil, f.ifacesErr
	}
	return f.ifaces, nil
}

func (f *fakeSource) DiskUsage(_ context.Context, path string) (*disk.UsageStat, error) {
	f.diskPaths = append(f.diskPaths, path)
	return f.disk, f.diskErr
}

func (f *fakeSource) BootTime(context.Context) (time.Time, error) {
	return f.boot, f.bootErr
}

func (f *fakeSource) Batteries() ([]BatteryReading, error) {
	return f.batteries, f.batErr
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCollector(src *fakeSource) (*Collector, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewCollector(WithSource(src), WithClock(clock.Now)), clock
}

func TestNetworkFirstCallSeedsState(t *testing.T) {
	src := &fakeSource{counters: []Counters{{BytesSent: 1000, BytesRecv: 5000}}}
	c, _ := newTestCollector(src)

	got := c.Network(context.Background())

	assert.Zero(t, got.BytesSentPerSec)
	assert.Zero(t, got.BytesRecvPerSec)
	assert.Zero(t, got.MBSentPerSec)
	assert.Zero(t, got.MBRecvPerSec)
}

func TestNetworkRateFromDelta(t *testing.T) {
	src := &fakeSource{counters: []Counters{
		{BytesSent: 1000, BytesRecv: 5000},
		{BytesSent: 1000 + 2*units.MiB, BytesRecv: 5000 + 4*units.MiB},
	}}
	c, clock := newTestCollector(src)

	c.Network(context.Background())
	clock.Advance(2 * time.Second)
	got := c.Network(context.Background())

	assert.Equal(t, float64(units.MiB), got.BytesSentPerSec)
	assert.Equal(t, float64(2*units.MiB), got.BytesRecvPerSec)
	assert.Equal(t, 1.0, got.MBSentPerSec)
	assert.Equal(t, 2.0, got.MBRecvPerSec)
}

func TestNetworkZeroElapsedGuard(t *testing.T) {
	src := &fakeSource{counters: []Counters{{BytesSent: 10}, {BytesSent: 5000}}}
	c, _ := newTestCollector(src)

	c.Network(context.Background())
	got := c.Network(context.Background())

	assert.Zero(t, got.BytesSentPerSec)
}

func TestNetworkCounterReset(t *testing.T) {
	src := &fakeSource{counters: []Counters{
		{BytesSent: 9000, BytesRecv: 100},
		{BytesSent: 10, BytesRecv: 300},
	}}
	c, clock := newTestCollector(src)

	c.Network(context.Background())
	clock.Advance(time.Second)
	got := c.Network(context.Background())

	assert.Zero(t, got.BytesSentPerSec)
	assert.Equal(t, 200.0, got.BytesRecvPerSec)
}

func TestNetworkFailureIsZeroed(t *testing.T) {
	src := &fakeSource{netErr: errUnavailable}
	c, _ := newTestCollector(src)

	got := c.Network(context.Background())

	assert.Equal(t, Network{Interface: unknownInterface}, got)
}

func TestInterfaceRetriedAfterListingFailure(t *testing.T) {
	src := &fakeSource{ifacesErr: errors.New("netlink busy")}
	c, _ := newTestCollector(src)

	assert.Equal(t, "", c.Interface(context.Background()))

	src.ifacesErr = nil
	src.ifaces = []Interface{{Name: "eth0", Up: true, Addrs: []string{"10.0.0.5/24"}}}
	assert.Equal(t, "eth0", c.Interface(context.Background()))

	src.ifaces = []Interface{{Name: "wlan0", Up: true, Addrs: []string{"10.0.0.6/24"}}}
	assert.Equal(t, "eth0", c.Interface(context.Background()))
	assert.Equal(t, 2, src.ifaceList)
}

func TestPrimaryInterface(t *testing.T) {
	tests := []struct {
		name   string
		ifaces []Interface
		want   string
	}{
		{name: "none", ifaces: nil, want: ""},
		{
			name: "skips loopback and down",
			ifaces: []Interface{
				{Name: "lo", Up: true, Loopback: true, Addrs: []string{"127.0.0.1/8"}},
				{Name: "eth0", Up: false, Addrs: []string{"10.0.0.2/24"}},
				{Name: "wlan0", Up: true, Addrs: []string{"192.168.1.20/24"}},
			},
			want: "wlan0",
		},
		{
			name: "requires ipv4",
			ifaces: []Interface{
				{Name: "eth0", Up: true, Addrs: []string{"fe80::1/64"}},
				{Name: "eth1", Up: true, Addrs: []string{"fe80::2/64", "172.16.0.9/16"}},
			},
			want: "eth1",
		},
		{
			name: "name order wins",
			ifaces: []Interface{
				{Name: "eth1", Up: true, Addrs: []string{"10.0.0.3"}},
				{Name: "eth0", Up: true, Addrs: []string{"10.0.0.2"}},
			},
			want: "eth0",
		},
		{
			name: "falls back to first",
			ifaces: []Interface{
				{Name: "lo", Up: true, Loopback: true, Addrs: []string{"127.0.0.1/8"}},
				{Name: "docker0", Up: false},
			},
			want: "docker0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, primaryInterface(tt.ifaces))
		})
	}
}

func TestMemory(t *testing.T) {
	src := &fakeSource{memory: &mem.VirtualMemoryStat{
		Total:       8 * units.GiB,
		Used:        2 * units.GiB,
		Available:   6 * units.GiB,
		UsedPercent: 25.004,
	}}
	c, _ := newTestCollector(src)

	got := c.Memory(context.Background())

	assert.Equal(t, 8.0, got.TotalGB)
	assert.Equal(t, 2.0, got.UsedGB)
	assert.Equal(t, 6.0, got.AvailableGB)
	assert.Equal(t, 25.0, got.Percent)
}

func TestDiskDefaultsPathAndGuardsZeroTotal(t *testing.T) {
	src := &fakeSource{disk: &disk.UsageStat{}}
	c, _ := newTestCollector(src)

	got := c.Disk(context.Background(), "")

	require.Len(t, src.diskPaths, 1)
	assert.Equal(t, DefaultDiskPath(), src.diskPaths[0])
	assert.Zero(t, got.Percent)
}

func TestDiskUsage(t *testing.T) {
	src := &fakeSource{disk: &disk.UsageStat{Total: 100 * units.GiB, Used: 40 * units.GiB, Free: 60 * units.GiB}}
	c, _ := newTestCollector(src)

	got := c.Disk(context.Background(), "/data")

	assert.Equal(t, "/data", got.Path)
	assert.Equal(t, 40.0, got.Percent)
	assert.Equal(t, 60.0, got.FreeGB)
}

func TestUptime(t *testing.T) {
	src := &fakeSource{}
	c, clock := newTestCollector(src)
	src.boot = clock.Now().Add(-36 * time.Hour)

	got := c.Uptime(context.Background())

	assert.Equal(t, 36.0, got.Hours)
	assert.Equal(t, 1.5, got.Days)
	assert.Equal(t, 2160.0, got.Minutes)
}

func TestBattery(t *testing.T) {
	tests := []struct {
		name     string
		readings []BatteryReading
		err      error
		want     Battery
	}{
		{name: "absent", want: Battery{TimeLeft: TimeLeftNA}},
		{name: "read failure", err: errUnavailable, want: Battery{TimeLeft: TimeLeftNA}},
		{
			name:     "charging",
			readings: []BatteryReading{{State: BatteryCharging, Current: 30000, Full: 60000, ChargeRate: 15000}},
			want:     Battery{Present: true, Percent: 50, Plugged: true, TimeLeft: TimeLeftUnlimited},
		},
		{
			name:     "discharging",
			readings: []BatteryReading{{State: BatteryDischarging, Current: 30000, Full: 40000, ChargeRate: 20000}},
			want:     Battery{Present: true, Percent: 75, TimeLeft: "1h 30m"},
		},
		{
			name:     "unknown rate",
			readings: []BatteryReading{{State: BatteryDischarging, Current: 10000, Full: 40000}},
			want:     Battery{Present: true, Percent: 25, TimeLeft: TimeLeftUnknown},
		},
		{
			name:     "full",
			readings: []BatteryReading{{State: BatteryFull, Current: 50000, Full: 50000}},
			want:     Battery{Present: true, Percent: 100, Plugged: true, TimeLeft: TimeLeftUnlimited},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCollector(&fakeSource{batteries: tt.readings, batErr: tt.err})
			assert.Equal(t, tt.want, c.Battery())
		})
	}
}

func TestSampleRespectsSelection(t *testing.T) {
	src := &fakeSource{
		cpu:      42.123,
		memory:   &mem.VirtualMemoryStat{Total: units.GiB},
		counters: []Counters{{BytesSent: 1}},
		ifaces:   []Interface{{Name: "eth0", Up: true, Addrs: []string{"10.1.1.1/8"}}},
		disk:     &disk.UsageStat{Total: 10, Used: 5},
	}
	c, _ := newTestCollector(src)

	got := c.Sample(context.Background(), Selection{CPU: true, DiskPath: "/"})

	assert.Equal(t, 42.12, got.CPUPercent)
	assert.Zero(t, got.Memory)
	assert.Equal(t, Network{Interface: "eth0"}, got.Network)
	assert.Zero(t, src.netCalls)
	assert.Equal(t, 50.0, got.Disk.Percent)
	assert.False(t, got.Battery.Present)
}

func TestSampleSurvivesFailures(t *testing.T) {
	src := &fakeSource{
		cpuErr:  errUnavailable,
		memErr:  errUnavailable,
		netErr:  errUnavailable,
		diskErr: errUnavailable,
		bootErr: errUnavailable,
		batErr:  errUnavailable,
	}
	c, clock := newTestCollector(src)

	got := c.Sample(context.Background(), All("/"))

	assert.Equal(t, clock.Now(), got.Timestamp)
	assert.Zero(t, got.CPUPercent)
	assert.Zero(t, got.Memory)
	assert.Equal(t, "/", got.Disk.Path)
	assert.Zero(t, got.Uptime)
	assert.Equal(t, TimeLeftNA, got.Battery.TimeLeft)
}
