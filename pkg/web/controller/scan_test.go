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
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superyngo/system-monitor/pkg/scanner"
	"github.com/superyngo/system-monitor/pkg/web/model"
)

func TestScanDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.log"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	missing := filepath.Join(dir, "missing")

	setupMonitor(t, validTestSettings(), &mockSink{})

	path := fmt.Sprintf("/scan?path=%s&path=%s", url.QueryEscape(dir), url.QueryEscape(missing))
	ctx, w := newTestContext(http.MethodGet, path, nil)
	NewScanController(ctx).ScanDirectories()

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[0].TotalFiles)
	assert.Equal(t, 1, resp.Results[0].TotalDirectories)
	assert.False(t, resp.Results[1].Exists)
	assert.Equal(t, scanner.MsgNotExist, resp.Results[1].Error)
	assert.Equal(t, 1, resp.Summary.Successful)
	assert.Equal(t, 1, resp.Summary.Failed)
	assert.Contains(t, resp.Formatted, missing+": error - "+scanner.MsgNotExist)
}

func TestScanDefaultsToMonitoredDirectories(t *testing.T) {
	dir := t.TempDir()
	settings := validTestSettings()
	settings.Monitoring.MonitorDirectories = []string{dir}
	setupMonitor(t, settings, &mockSink{})

	ctx, w := newTestContext(http.MethodGet, "/scan", nil)
	NewScanController(ctx).ScanDirectories()

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, dir, resp.Results[0].Path)
}
