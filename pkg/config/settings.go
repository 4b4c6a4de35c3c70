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

package config

import (
	"slices"
	"time"
)

const (
	SinkSheets = "sheets"
	SinkMySQL  = "mysql"
)

const (
	DefaultIntervalMinutes = 5
	DefaultWorksheetName   = "System Monitor"
	DefaultMySQLTable      = "system_monitor"
	DefaultMaxDepth        = 3
	DefaultMaxFilesPerDir  = 100
)

// Settings is the persisted user configuration. A value obtained from
// Store.Snapshot is never mutated afterwards.
type Settings struct {
	Sink         string             `json:"sink" yaml:"sink" validate:"oneof=sheets mysql"`
	GoogleSheets SheetsSettings     `json:"google_sheets" yaml:"google_sheets" validate:"-"`
	MySQL        MySQLSettings      `json:"mysql" yaml:"mysql" validate:"-"`
	Monitoring   MonitoringSettings `json:"monitoring" yaml:"monitoring"`
	UI           UISettings         `json:"ui" yaml:"ui"`
	Logging      LoggingSettings    `json:"logging" yaml:"logging"`
}

type SheetsSettings struct {
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file" validate:"required"`
	SpreadsheetURL  string `json:"spreadsheet_url" yaml:"spreadsheet_url" validate:"required"`
	WorksheetName   string `json:"worksheet_name" yaml:"worksheet_name" validate:"required"`
}

type MySQLSettings struct {
	DSN   string `json:"dsn" yaml:"dsn" validate:"required"`
	Table string `json:"table" yaml:"table" validate:"required,identifier"`
}

type MonitoringSettings struct {
	IntervalMinutes           int      `json:"interval_minutes" yaml:"interval_minutes" validate:"min=1"`
	MonitorDirectories        []string `json:"monitor_directories" yaml:"monitor_directories"`
	ExcludePatterns           []string `json:"exclude_patterns" yaml:"exclude_patterns"`
	MaxDepth                  int      `json:"max_depth" yaml:"max_depth" validate:"min=1"`
	MaxFilesPerDir            int      `json:"max_files_per_dir" yaml:"max_files_per_dir" validate:"min=1"`
	DiskPath                  string   `json:"disk_path" yaml:"disk_path"`
	EnableCPUMonitoring       bool     `json:"enable_cpu_monitoring" yaml:"enable_cpu_monitoring"`
	EnableRAMMonitoring       bool     `json:"enable_ram_monitoring" yaml:"enable_ram_monitoring"`
	EnableInternetMonitoring  bool     `json:"enable_internet_monitoring" yaml:"enable_internet_monitoring"`
	EnableDirectoryMonitoring bool     `json:"enable_directory_monitoring" yaml:"enable_directory_monitoring"`
}

type UISettings struct {
	ShowNotifications bool `json:"show_notifications" yaml:"show_notifications"`
}

type LoggingSettings struct {
	LogLevel string `json:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file"`
}

// Default returns the settings used for any key missing from the file.
func Default() Settings {
	return Settings{
		Sink: SinkSheets,
		GoogleSheets: SheetsSettings{
			WorksheetName: DefaultWorksheetName,
		},
		MySQL: MySQLSettings{
			Table: DefaultMySQLTable,
		},
		Monitoring: MonitoringSettings{
			IntervalMinutes:           DefaultIntervalMinutes,
			MonitorDirectories:        []string{},
			ExcludePatterns:           []string{},
			MaxDepth:                  DefaultMaxDepth,
			MaxFilesPerDir:            DefaultMaxFilesPerDir,
			EnableCPUMonitoring:       true,
			EnableRAMMonitoring:       true,
			EnableInternetMonitoring:  true,
			EnableDirectoryMonitoring: true,
		},
		UI: UISettings{
			ShowNotifications: true,
		},
		Logging: LoggingSettings{
			LogLevel: "INFO",
		},
	}
}

// Interval is the upload period.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.Monitoring.IntervalMinutes) * time.Minute
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	out := s
	out.Monitoring.MonitorDirectories = slices.Clone(s.Monitoring.MonitorDirectories)
	out.Monitoring.ExcludePatterns = slices.Clone(s.Monitoring.ExcludePatterns)
	return out
}
