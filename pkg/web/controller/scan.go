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
	"github.com/gin-gonic/gin"

	"github.com/superyngo/system-monitor/pkg/scanner"
	"github.com/superyngo/system-monitor/pkg/web/model"
)

type ScanController struct {
	*basicController
}

func NewScanController(ctx *gin.Context) *ScanController {
	return &ScanController{basicController: newBasicController(ctx)}
}

// ScanDirectories scans every ?path= with the configured limits. Without a
// path it previews the monitored directories.
func (c *ScanController) ScanDirectories() {
	mon := settingsStore.Snapshot().Monitoring
	paths := c.ctx.QueryArray("path")
	if len(paths) == 0 {
		paths = mon.MonitorDirectories
	}

	s := scanner.New(scanner.Options{
		MaxDepth:       mon.MaxDepth,
		MaxFilesPerDir: mon.MaxFilesPerDir,
		Exclude:        mon.ExcludePatterns,
	})
	results := s.ScanMultiple(c.ctx.Request.Context(), paths)

	c.RespondSuccess(model.ScanResponse{
		Results:   results,
		Summary:   scanner.Summarize(results),
		Formatted: scanner.FormatForSink(results),
	})
}
