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

import "time"

const (
	MsgNotExist         = "directory does not exist"
	MsgNotDirectory     = "path is not a directory"
	MsgPermissionDenied = "permission denied"
)

// Result describes one scanned root. When Error is set only Path, Exists,
// IsDirectory and ScanTime are meaningful.
type Result struct {
	Path             string      `json:"path"`
	Exists           bool        `json:"exists"`
	IsDirectory      bool        `json:"is_directory"`
	ScanTime         time.Time   `json:"scan_time"`
	Error            string      `json:"error,omitempty"`
	TotalFiles       int         `json:"total_files"`
	TotalDirectories int         `json:"total_directories"`
	TotalSizeBytes   int64       `json:"total_size_bytes"`
	TotalSizeMB      float64     `json:"total_size_mb"`
	TotalSizeGB      float64     `json:"total_size_gb"`
	Files            []FileEntry `json:"files,omitempty"`
	Subdirectories   []DirEntry  `json:"subdirectories,omitempty"`
}

func (r Result) Failed() bool {
	return r.Error != ""
}

type FileEntry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	CreatedAt  time.Time `json:"created_at"`
	Extension  string    `json:"extension"`
}

// DirEntry carries its own Files and Subdirectories only when the walk had
// depth left to descend into it.
type DirEntry struct {
	Name           string      `json:"name"`
	Path           string      `json:"path"`
	ModifiedAt     time.Time   `json:"modified_at"`
	CreatedAt      time.Time   `json:"created_at"`
	Files          []FileEntry `json:"files,omitempty"`
	Subdirectories []DirEntry  `json:"subdirectories,omitempty"`
}

// Summary aggregates successful scans; failed ones are only counted.
type Summary struct {
	DirectoriesScanned  int     `json:"directories_scanned"`
	TotalFiles          int     `json:"total_files"`
	TotalSubdirectories int     `json:"total_subdirectories"`
	TotalSizeBytes      int64   `json:"total_size_bytes"`
	TotalSizeMB         float64 `json:"total_size_mb"`
	TotalSizeGB         float64 `json:"total_size_gb"`
	Successful          int     `json:"successful"`
	Failed              int     `json:"failed"`
}
