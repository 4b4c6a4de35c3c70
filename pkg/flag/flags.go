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

import "time"

var (
	// ConfigPath points to the settings file (JSON or YAML).
	ConfigPath string

	// ListenAddr controls the local control API listener.
	ListenAddr string

	// LogLevel overrides logging.log_level from the settings file when set.
	LogLevel string

	// AccessToken guards API entrypoints when set.
	AccessToken string

	// ShutdownTimeout bounds how long shutdown waits for the tick loop.
	ShutdownTimeout time.Duration

	// NoAutoStart keeps the monitor in the ready state after startup.
	NoAutoStart bool
)
