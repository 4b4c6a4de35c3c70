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
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/superyngo/system-monitor/pkg/config"
	"github.com/superyngo/system-monitor/pkg/metrics"
	"github.com/superyngo/system-monitor/pkg/monitor"
	"github.com/superyngo/system-monitor/pkg/sink"
	"github.com/superyngo/system-monitor/pkg/status"
)

type mockSampler struct{}

func (mockSampler) Sample(context.Context, metrics.Selection) metrics.Snapshot {
	return metrics.Snapshot{Timestamp: time.Now(), CPUPercent: 12.5}
}

// mockSink records uploads and serves canned rows.
type mockSink struct {
	mu         sync.Mutex
	connectErr string
	rows       [][]string
	lastN      int
	keepDays   int
	pruned     int
	uploads    int
}

func (m *mockSink) Connect(context.Context) error { return nil }

func (m *mockSink) Upload(context.Context, metrics.Snapshot, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	return nil
}

func (m *mockSink) TestConnection(context.Context) sink.ConnectionResult {
	if m.connectErr != "" {
		return sink.ConnectionResult{Message: "connection failed", Error: m.connectErr}
	}
	return sink.ConnectionResult{Success: true, Message: "connected", Target: "samples"}
}

func (m *mockSink) Close() error { return nil }

func (m *mockSink) LastRows(_ context.Context, n int) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastN = n
	return m.rows, nil
}

func (m *mockSink) Prune(_ context.Context, keepDays int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keepDays = keepDays
	return m.pruned, nil
}

// appendOnlySink cannot read rows back.
type appendOnlySink struct{}

func (appendOnlySink) Connect(context.Context) error                          { return nil }
func (appendOnlySink) Upload(context.Context, metrics.Snapshot, string) error { return nil }
func (appendOnlySink) TestConnection(context.Context) sink.ConnectionResult {
	return sink.ConnectionResult{Success: true}
}
func (appendOnlySink) Close() error { return nil }

func validTestSettings() config.Settings {
	s := config.Default()
	s.Sink = config.SinkMySQL
	s.MySQL.DSN = "monitor:secret@tcp(127.0.0.1:3306)/metrics"
	s.Monitoring.IntervalMinutes = 1
	s.Monitoring.EnableDirectoryMonitoring = false
	return s
}

// setupMonitor wires the package handlers to a started monitor backed by s.
func setupMonitor(t *testing.T, settings config.Settings, s sink.Sink) (*config.Store, *monitor.Controller) {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"), settings)
	tracker := status.NewTracker()
	ctrl := monitor.NewController(store, mockSampler{}, tracker,
		monitor.WithSinkFactory(func(config.Settings) (sink.Sink, error) { return s, nil }),
		monitor.WithTickPeriod(5*time.Millisecond),
		monitor.WithRestartDelay(10*time.Millisecond),
	)
	ctrl.Start()
	InitMonitor(store, ctrl, tracker)
	t.Cleanup(func() { _ = ctrl.Shutdown(time.Second) })
	return store, ctrl
}

func newTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(method, path, bytes.NewReader(body))
	return ctx, w
}
