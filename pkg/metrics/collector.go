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
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/util/units"
)

const defaultCPUInterval = time.Second

// Collector samples host metrics. It keeps the previous network counters so
// that throughput can be reported as a rate; all other readings are stateless.
type Collector struct {
	source      Source
	now         func() time.Time
	cpuInterval time.Duration

	ifaceMu       sync.Mutex
	iface         string
	ifaceResolved bool

	mu       sync.Mutex
	lastNet  *Counters
	lastTime time.Time
}

type Option func(*Collector)

func WithSource(source Source) Option {
	return func(c *Collector) { c.source = source }
}

func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithCPUInterval sets how long the blocking CPU reading observes the system.
func WithCPUInterval(interval time.Duration) Option {
	return func(c *Collector) { c.cpuInterval = interval }
}

func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		source:      HostSource(),
		now:         time.Now,
		cpuInterval: defaultCPUInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultDiskPath is the system drive of the running OS.
func DefaultDiskPath() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

// Sample reads every selected metric. It blocks for about the CPU interval.
func (c *Collector) Sample(ctx context.Context, sel Selection) Snapshot {
	snap := Snapshot{
		Timestamp: c.now(),
		Network:   Network{Interface: c.Interface(ctx)},
	}

	if sel.CPU {
		snap.CPUPercent = c.CPU(ctx)
	}
	if sel.Memory {
		snap.Memory = c.Memory(ctx)
	}
	if sel.Network {
		snap.Network = c.Network(ctx)
	}
	snap.Disk = c.Disk(ctx, sel.DiskPath)
	snap.Uptime = c.Uptime(ctx)
	snap.Battery = c.Battery()

	return snap
}

func (c *Collector) CPU(ctx context.Context) float64 {
	pct, err := c.source.CPUPercent(ctx, c.cpuInterval)
	if err != nil {
		log.Warn("failed to read cpu usage: %v", err)
		return 0
	}
	return units.Round(pct, 2)
}

func (c *Collector) Memory(ctx context.Context) Memory {
	vm, err := c.source.VirtualMemory(ctx)
	if err != nil {
		log.Warn("failed to read memory usage: %v", err)
		return Memory{}
	}
	return Memory{
		TotalBytes:     vm.Total,
		UsedBytes:      vm.Used,
		AvailableBytes: vm.Available,
		TotalGB:        units.ToGB(float64(vm.Total), 2),
		UsedGB:         units.ToGB(float64(vm.Used), 2),
		AvailableGB:    units.ToGB(float64(vm.Available), 2),
		Percent:        units.Round(vm.UsedPercent, 2),
	}
}

// Disk reads usage of path, or of DefaultDiskPath when path is empty.
func (c *Collector) Disk(ctx context.Context, path string) Disk {
	if path == "" {
		path = DefaultDiskPath()
	}

	usage, err := c.source.DiskUsage(ctx, path)
	if err != nil {
		log.Warn("failed to read disk usage of %s: %v", path, err)
		return Disk{Path: path}
	}

	var pct float64
	if usage.Total > 0 {
		pct = float64(usage.Used) / float64(usage.Total) * 100
	}
	return Disk{
		Path:       path,
		TotalBytes: usage.Total,
		UsedBytes:  usage.Used,
		FreeBytes:  usage.Free,
		TotalGB:    units.ToGB(float64(usage.Total), 2),
		UsedGB:     units.ToGB(float64(usage.Used), 2),
		FreeGB:     units.ToGB(float64(usage.Free), 2),
		Percent:    units.Round(pct, 2),
	}
}

func (c *Collector) Uptime(ctx context.Context) Uptime {
	boot, err := c.source.BootTime(ctx)
	if err != nil {
		log.Warn("failed to read boot time: %v", err)
		return Uptime{}
	}

	secs := c.now().Sub(boot).Seconds()
	if secs < 0 {
		secs = 0
	}
	return Uptime{
		Seconds:  units.Round(secs, 2),
		Minutes:  units.Round(secs/60, 2),
		Hours:    units.Round(secs/3600, 2),
		Days:     units.Round(secs/86400, 2),
		BootTime: boot,
	}
}

// Battery reports Present=false on machines without one. Read failures are
// logged and reported the same way.
func (c *Collector) Battery() Battery {
	absent := Battery{TimeLeft: TimeLeftNA}

	readings, err := c.source.Batteries()
	if err != nil {
		log.Warn("failed to read battery: %v", err)
		return absent
	}
	if len(readings) == 0 {
		return absent
	}
	return summarizeBatteries(readings)
}

func summarizeBatteries(readings []BatteryReading) Battery {
	var (
		current, full, rate   float64
		charging, discharging bool
	)
	allFull := true
	for _, r := range readings {
		current += r.Current
		full += r.Full
		rate += r.ChargeRate
		switch r.State {
		case BatteryCharging:
			charging = true
		case BatteryDischarging:
			discharging = true
		}
		if r.State != BatteryFull {
			allFull = false
		}
	}

	out := Battery{Present: true, TimeLeft: TimeLeftUnknown}
	if full > 0 {
		out.Percent = units.Round(min(current/full*100, 100), 2)
	}
	out.Plugged = charging || (allFull && !discharging)

	switch {
	case out.Plugged:
		out.TimeLeft = TimeLeftUnlimited
	case discharging && rate > 0:
		out.TimeLeft = formatTimeLeft(time.Duration(current / rate * float64(time.Hour)))
	}
	return out
}

func formatTimeLeft(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
}
