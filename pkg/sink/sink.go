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

package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/superyngo/system-monitor/pkg/config"
	"github.com/superyngo/system-monitor/pkg/metrics"
)

// ReconnectWindow is how long an established connection is reused before
// Connect verifies it again.
const ReconnectWindow = 5 * time.Minute

// Sink appends one row per upload to a remote store. Implementations are
// safe for concurrent use. Failed uploads are not retried or queued.
type Sink interface {
	Connect(ctx context.Context) error
	Upload(ctx context.Context, snap metrics.Snapshot, directories string) error
	TestConnection(ctx context.Context) ConnectionResult
	Close() error
}

// History is implemented by sinks that can read back and trim their rows.
type History interface {
	// LastRows returns up to n most recent data rows, oldest first.
	LastRows(ctx context.Context, n int) ([][]string, error)
	// Prune removes rows older than keepDays and reports how many went.
	Prune(ctx context.Context, keepDays int) (int, error)
}

type ConnectionResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Target    string `json:"target,omitempty"`
	Worksheet string `json:"worksheet,omitempty"`
	Error     string `json:"error,omitempty"`
}

func failedResult(err error) ConnectionResult {
	return ConnectionResult{Message: "connection failed", Error: err.Error()}
}

// New builds the sink selected by settings.Sink.
func New(settings config.Settings) (Sink, error) {
	switch settings.Sink {
	case config.SinkSheets, "":
		return NewSheets(SheetsConfig{
			CredentialsFile: settings.GoogleSheets.CredentialsFile,
			SpreadsheetURL:  settings.GoogleSheets.SpreadsheetURL,
			WorksheetName:   settings.GoogleSheets.WorksheetName,
		})
	case config.SinkMySQL:
		return NewMySQL(MySQLConfig{
			DSN:   settings.MySQL.DSN,
			Table: settings.MySQL.Table,
		})
	default:
		return nil, fmt.Errorf("unknown sink type %q", settings.Sink)
	}
}
