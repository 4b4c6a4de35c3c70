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

package monitor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/metrics"
	"github.com/superyngo/system-monitor/pkg/scanner"
	"github.com/superyngo/system-monitor/pkg/sink"
)

// active reports whether the session that owns ctx may keep going.
func (c *Controller) active(ctx context.Context) bool {
	return ctx.Err() == nil && c.running.Load() && c.monitoring.Load()
}

// collectAndUpload is the scheduled job: sample, scan, upload one row. It
// gives up quietly at any checkpoint once monitoring has been stopped.
func (c *Controller) collectAndUpload(ctx context.Context, target sink.Sink) {
	runID := uuid.NewString()
	settings := c.settings.Snapshot()
	mon := settings.Monitoring

	if !c.active(ctx) {
		log.Info("[%s] monitoring stopped, skipping run", runID)
		return
	}

	log.Info("[%s] collecting metrics", runID)
	snap := c.sampler.Sample(ctx, metrics.Selection{
		CPU:      mon.EnableCPUMonitoring,
		Memory:   mon.EnableRAMMonitoring,
		Network:  mon.EnableInternetMonitoring,
		DiskPath: mon.DiskPath,
	})
	if !c.active(ctx) {
		log.Info("[%s] monitoring stopped after collecting metrics", runID)
		return
	}

	var directories string
	if mon.EnableDirectoryMonitoring && len(mon.MonitorDirectories) > 0 {
		log.Info("[%s] scanning %d director(ies)", runID, len(mon.MonitorDirectories))
		results := c.scan(ctx, scanner.Options{
			MaxDepth:       mon.MaxDepth,
			MaxFilesPerDir: mon.MaxFilesPerDir,
			Exclude:        mon.ExcludePatterns,
		}, mon.MonitorDirectories)
		if !c.active(ctx) {
			log.Info("[%s] monitoring stopped after scanning", runID)
			return
		}
		directories = scanner.FormatForSink(results)
	}

	if !c.active(ctx) {
		log.Info("[%s] monitoring stopped before upload", runID)
		return
	}

	// an upload that has started is allowed to finish
	err := target.Upload(context.WithoutCancel(ctx), snap, directories)
	if !c.active(ctx) {
		log.Info("[%s] monitoring stopped during upload, keeping current status", runID)
		return
	}
	if err != nil {
		log.Error("[%s] upload failed: %v", runID, err)
		c.status.UpdateStatus(StatusUploadFailed, true)
		return
	}

	log.Info("[%s] upload complete", runID)
	c.status.UpdateStatus(StatusUploaded, true)
	if settings.UI.ShowNotifications {
		c.status.Notify("Upload complete", fmt.Sprintf("CPU %.1f%%, RAM %.1f%%", snap.CPUPercent, snap.Memory.Percent))
	}
}
