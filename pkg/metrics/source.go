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
	"fmt"
	"slices"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/net"
)

// Source is the raw OS access behind a Collector.
type Source interface {
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	NetCounters(ctx context.Context) (Counters, error)
	Interfaces(ctx context.Context) ([]Interface, error)
	DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error)
	BootTime(ctx context.Context) (time.Time, error)
	Batteries() ([]BatteryReading, error)
}

// Counters are cumulative byte counts across all interfaces.
type Counters struct {
	BytesSent uint64
	BytesRecv uint64
}

type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []string
}

type BatteryState int

const (
	BatteryUnknown BatteryState = iota
	BatteryEmpty
	BatteryFull
	BatteryCharging
	BatteryDischarging
)

// BatteryReading holds energy values in mWh and the rate in mW.
type BatteryReading struct {
	State      BatteryState
	Current    float64
	Full       float64
	ChargeRate float64
}

var errNoCPUSample = errors.New("no cpu sample returned")

type hostSource struct{}

// HostSource reads the local machine through gopsutil and the battery library.
func HostSource() Source {
	return hostSource{}
}

func (hostSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	// first reading primes the counters when interval is zero
	if _, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		return 0, err
	}
	values, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, errNoCPUSample
	}
	return values[0], nil
}

func (hostSource) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (hostSource) NetCounters(ctx context.Context) (Counters, error) {
	stats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return Counters{}, err
	}
	if len(stats) == 0 {
		return Counters{}, fmt.Errorf("no network counters returned")
	}
	return Counters{BytesSent: stats[0].BytesSent, BytesRecv: stats[0].BytesRecv}, nil
}

func (hostSource) Interfaces(ctx context.Context) ([]Interface, error) {
	stats, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(stats))
	for _, st := range stats {
		iface := Interface{
			Name:     st.Name,
			Up:       slices.Contains(st.Flags, "up"),
			Loopback: slices.Contains(st.Flags, "loopback"),
		}
		for _, addr := range st.Addrs {
			iface.Addrs = append(iface.Addrs, addr.Addr)
		}
		out = append(out, iface)
	}
	return out, nil
}

func (hostSource) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

func (hostSource) BootTime(ctx context.Context) (time.Time, error) {
	boot, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(boot), 0), nil
}

// Batteries returns an empty slice on machines without a battery. Entries the
// library could not read at all are dropped.
func (hostSource) Batteries() ([]BatteryReading, error) {
	all, err := battery.GetAll()

	out := make([]BatteryReading, 0, len(all))
	for _, b := range all {
		if b == nil || b.Full <= 0 {
			continue
		}
		out = append(out, BatteryReading{
			State:      convertState(b.State),
			Current:    b.Current,
			Full:       b.Full,
			ChargeRate: b.ChargeRate,
		})
	}
	if err != nil && len(out) == 0 && len(all) > 0 {
		return nil, err
	}
	return out, nil
}

func convertState(state battery.State) BatteryState {
	switch state {
	case battery.Empty:
		return BatteryEmpty
	case battery.Full:
		return BatteryFull
	case battery.Charging:
		return BatteryCharging
	case battery.Discharging:
		return BatteryDischarging
	default:
		return BatteryUnknown
	}
}
