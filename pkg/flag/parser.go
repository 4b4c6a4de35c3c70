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

package flag

import (
	"flag"
	stdlog "log"
	"os"
	"time"

	"github.com/superyngo/system-monitor/pkg/log"
)

const (
	configPathEnv      = "SYSMON_CONFIG"
	listenAddrEnv      = "SYSMON_LISTEN"
	accessTokenEnv     = "SYSMON_ACCESS_TOKEN"
	shutdownTimeoutEnv = "SYSMON_SHUTDOWN_TIMEOUT"
)

// InitFlags registers CLI flags and env overrides.
func InitFlags() {
	// Set default values
	ConfigPath = "config.json"
	ListenAddr = "127.0.0.1:44780"
	LogLevel = ""
	AccessToken = ""
	ShutdownTimeout = time.Second * 5
	NoAutoStart = false

	// First, set default values from environment variables
	if v := os.Getenv(configPathEnv); v != "" {
		ConfigPath = v
	}
	if v := os.Getenv(listenAddrEnv); v != "" {
		ListenAddr = v
	}
	if v := os.Getenv(accessTokenEnv); v != "" {
		AccessToken = v
	}
	if v := os.Getenv(shutdownTimeoutEnv); v != "" {
		duration, err := time.ParseDuration(v)
		if err != nil {
			stdlog.Panicf("Failed to parse shutdown timeout from env: %v", err)
		}
		ShutdownTimeout = duration
	}

	// Then define flags with current values as defaults
	flag.StringVar(&ConfigPath, "config", ConfigPath, "Settings file path, JSON or YAML (default: config.json)")
	flag.StringVar(&ListenAddr, "listen", ListenAddr, "Control API listen address (default: 127.0.0.1:44780)")
	flag.StringVar(&LogLevel, "log-level", LogLevel, "Log level (debug, info, warning, error), overrides the settings file")
	flag.StringVar(&AccessToken, "access-token", AccessToken, "Access token for control API authentication")
	flag.DurationVar(&ShutdownTimeout, "shutdown-timeout", ShutdownTimeout, "Upper bound for joining the tick loop on shutdown (default: 5s)")
	flag.BoolVar(&NoAutoStart, "no-autostart", NoAutoStart, "Do not begin monitoring at startup even if settings are valid")

	// Parse flags - these will override environment variables if provided
	flag.Parse()

	log.Info("settings file is: %s", ConfigPath)
	log.Info("control API address is: %s", ListenAddr)
}
