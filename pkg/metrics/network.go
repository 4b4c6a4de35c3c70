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
	"net/netip"
	"slices"
	"strings"

	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/util/units"
)

const unknownInterface = "unknown"

// Network returns throughput since the previous call. The first call only
// records the counters and reports zero rates.
func (c *Collector) Network(ctx context.Context) Network {
	iface := c.Interface(ctx)

	cur, err := c.source.NetCounters(ctx)
	if err != nil {
		log.Warn("failed to read network counters: %v", err)
		return Network{Interface: unknownInterface}
	}
	now := c.now()

	c.mu.Lock()
	prev, prevTime := c.lastNet, c.lastTime
	c.lastNet, c.lastTime = &cur, now
	c.mu.Unlock()

	out := Network{Interface: iface}
	if prev == nil {
		return out
	}

	elapsed := now.Sub(prevTime).Seconds()
	if elapsed <= 0 {
		return out
	}

	out.BytesSentPerSec = units.Round(counterRate(prev.BytesSent, cur.BytesSent, elapsed), 2)
	out.BytesRecvPerSec = units.Round(counterRate(prev.BytesRecv, cur.BytesRecv, elapsed), 2)
	out.MBSentPerSec = units.ToMB(out.BytesSentPerSec, 4)
	out.MBRecvPerSec = units.ToMB(out.BytesRecvPerSec, 4)
	return out
}

// counterRate treats a counter that went backwards as a reset.
func counterRate(prev, cur uint64, elapsed float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) / elapsed
}

// Interface is the label reported with network rates. It is resolved on the
// first successful listing and retried while listing fails.
func (c *Collector) Interface(ctx context.Context) string {
	c.ifaceMu.Lock()
	defer c.ifaceMu.Unlock()
	if c.ifaceResolved {
		return c.iface
	}

	ifaces, err := c.source.Interfaces(ctx)
	if err != nil {
		log.Warn("failed to list network interfaces: %v", err)
		return ""
	}
	c.iface = primaryInterface(ifaces)
	c.ifaceResolved = true
	return c.iface
}

// primaryInterface picks, in name order, the first interface that is up, not
// loopback and has an IPv4 address. Otherwise the first interface, otherwise "".
func primaryInterface(ifaces []Interface) string {
	if len(ifaces) == 0 {
		return ""
	}

	sorted := slices.Clone(ifaces)
	slices.SortFunc(sorted, func(a, b Interface) int { return strings.Compare(a.Name, b.Name) })

	for _, iface := range sorted {
		if !iface.Up || iface.Loopback {
			continue
		}
		if slices.ContainsFunc(iface.Addrs, isRoutableIPv4) {
			return iface.Name
		}
	}
	return sorted[0].Name
}

func isRoutableIPv4(addr string) bool {
	var ip netip.Addr
	if prefix, err := netip.ParsePrefix(addr); err == nil {
		ip = prefix.Addr()
	} else if parsed, err := netip.ParseAddr(addr); err == nil {
		ip = parsed
	} else {
		return false
	}
	return ip.Is4() && !ip.IsLoopback()
}
