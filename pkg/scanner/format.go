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

package scanner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/superyngo/system-monitor/pkg/util/units"
)

const segmentSeparator = " | "

func Summarize(results []Result) Summary {
	summary := Summary{DirectoriesScanned: len(results)}
	for _, r := range results {
		if r.Failed() {
			summary.Failed++
			continue
		}
		summary.Successful++
		summary.TotalFiles += r.TotalFiles
		summary.TotalSubdirectories += r.TotalDirectories
		summary.TotalSizeBytes += r.TotalSizeBytes
	}
	summary.TotalSizeMB = units.ToMB(float64(summary.TotalSizeBytes), 2)
	summary.TotalSizeGB = units.ToGB(float64(summary.TotalSizeBytes), 4)
	return summary
}

// FormatForSink renders results as a single cell:
//
//	/a: 2 files, 0 dirs, 5MB | /b: error - permission denied | Total: 2 files, 0 dirs, 5MB
func FormatForSink(results []Result) string {
	parts := make([]string, 0, len(results)+1)
	for _, r := range results {
		if r.Failed() {
			parts = append(parts, fmt.Sprintf("%s: error - %s", r.Path, r.Error))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d files, %d dirs, %sMB",
			r.Path, r.TotalFiles, r.TotalDirectories, formatMB(r.TotalSizeMB)))
	}

	summary := Summarize(results)
	parts = append(parts, fmt.Sprintf("Total: %d files, %d dirs, %sMB",
		summary.TotalFiles, summary.TotalSubdirectories, formatMB(summary.TotalSizeMB)))

	return strings.Join(parts, segmentSeparator)
}

func formatMB(mb float64) string {
	return strconv.FormatFloat(mb, 'f', -1, 64)
}
