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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superyngo/system-monitor/pkg/monitor"
	"github.com/superyngo/system-monitor/pkg/web/model"
)

func setupMonitorController(method, path string) (*MonitorController, *httptest.ResponseRecorder) {
	ctx, w := newTestContext(method, path, nil)
	return NewMonitorController(ctx), w
}

func TestStartMonitoringEndpoint(t *testing.T) {
	s := &mockSink{}
	_, ctrl := setupMonitor(t, validTestSettings(), s)

	c, w := setupMonitorController(http.MethodPost, "/monitoring/start")
	c.StartMonitoring()

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.MonitoringResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Monitoring)
	assert.Equal(t, string(monitor.StateActive), resp.State)
	assert.True(t, ctrl.Monitoring())

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.uploads == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStartMonitoringInvalidConfig(t *testing.T) {
	settings := validTestSettings()
	settings.MySQL.DSN = ""
	setupMonitor(t, settings, &mockSink{})

	c, w := setupMonitorController(http.MethodPost, "/monitoring/start")
	c.StartMonitoring()

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrorCodeInvalidConfig, resp.Code)
	assert.Contains(t, resp.Message, "mysql.dsn is not set")
}

func TestStartMonitoringConnectionFailure(t *testing.T) {
	setupMonitor(t, validTestSettings(), &mockSink{connectErr: "access denied"})

	c, w := setupMonitorController(http.MethodPost, "/monitoring/start")
	c.StartMonitoring()

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrorCodeConnectionFailed, resp.Code)
}

func TestStopAndToggleEndpoints(t *testing.T) {
	_, ctrl := setupMonitor(t, validTestSettings(), &mockSink{})

	c, w := setupMonitorController(http.MethodPost, "/monitoring/toggle")
	c.ToggleMonitoring()
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ctrl.Monitoring())

	c, w = setupMonitorController(http.MethodPost, "/monitoring/stop")
	c.StopMonitoring()
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ctrl.Monitoring())

	var resp model.MonitoringResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(monitor.StateReady), resp.State)
}

func TestGetStatusEndpoint(t *testing.T) {
	_, ctrl := setupMonitor(t, validTestSettings(), &mockSink{})

	c, w := setupMonitorController(http.MethodGet, "/status")
	c.GetStatus()

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(monitor.StateReady), resp.State)
	assert.Nil(t, resp.Job)
	assert.Equal(t, monitor.StatusReady, resp.Status.Text)

	require.NoError(t, ctrl.BeginMonitoring(t.Context()))

	c, w = setupMonitorController(http.MethodGet, "/status")
	c.GetStatus()

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Monitoring)
	require.NotNil(t, resp.Job)
	assert.Equal(t, 1, resp.Job.IntervalMinutes)
}
