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
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/superyngo/system-monitor/pkg/sink"
	"github.com/superyngo/system-monitor/pkg/web/model"
)

const defaultRowCount = 10

var errNoHistory = errors.New("the configured sink cannot read back rows")

// SinkController talks to the configured upload sink directly.
type SinkController struct {
	*basicController
}

func NewSinkController(ctx *gin.Context) *SinkController {
	return &SinkController{basicController: newBasicController(ctx)}
}

func (c *SinkController) TestConnection() {
	var result sink.ConnectionResult
	err := monitorCtrl.WithSink(func(s sink.Sink) error {
		result = s.TestConnection(c.ctx.Request.Context())
		return nil
	})
	if err != nil {
		c.respondMonitorError(err)
		return
	}
	if !result.Success {
		c.RespondError(http.StatusBadGateway, model.ErrorCodeConnectionFailed, result.Error)
		return
	}

	c.RespondSuccess(result)
}

// GetRows returns the last ?n= rows, ten by default.
func (c *SinkController) GetRows() {
	n := c.QueryInt64(c.ctx.Query("n"), defaultRowCount)
	if n <= 0 {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidRequest, "n must be positive")
		return
	}

	var rows [][]string
	err := c.withHistory(func(h sink.History) (err error) {
		rows, err = h.LastRows(c.ctx.Request.Context(), int(n))
		return err
	})
	if err != nil {
		c.respondSinkError(err)
		return
	}

	c.RespondSuccess(model.RowsResponse{Header: sink.Header, Rows: rows})
}

func (c *SinkController) PruneRows() {
	raw, ok := c.requireQuery("keep_days")
	if !ok {
		return
	}
	keepDays, err := strconv.Atoi(raw)
	if err != nil || keepDays < 0 {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidRequest, "keep_days must be a non-negative integer")
		return
	}

	var removed int
	err = c.withHistory(func(h sink.History) (err error) {
		removed, err = h.Prune(c.ctx.Request.Context(), keepDays)
		return err
	})
	if err != nil {
		c.respondSinkError(err)
		return
	}

	c.RespondSuccess(model.PruneResponse{KeepDays: keepDays, Removed: removed})
}

func (c *SinkController) withHistory(fn func(sink.History) error) error {
	return monitorCtrl.WithSink(func(s sink.Sink) error {
		h, ok := s.(sink.History)
		if !ok {
			return errNoHistory
		}
		return fn(h)
	})
}

func (c *SinkController) respondSinkError(err error) {
	if errors.Is(err, errNoHistory) {
		c.RespondError(http.StatusNotImplemented, model.ErrorCodeNotSupported, err.Error())
		return
	}
	c.respondMonitorError(err)
}
