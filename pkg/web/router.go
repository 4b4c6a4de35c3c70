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

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/web/controller"
	"github.com/superyngo/system-monitor/pkg/web/model"
)

// NewRouter builds the local control API. Handlers act on the monitor wired
// in through controller.InitMonitor.
func NewRouter(accessToken string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logMiddleware(), accessTokenMiddleware(accessToken))

	r.GET("/ping", controller.PingHandler)
	r.GET("/status", withMonitor(func(c *controller.MonitorController) { c.GetStatus() }))

	monitoring := r.Group("/monitoring")
	{
		monitoring.POST("/start", withMonitor(func(c *controller.MonitorController) { c.StartMonitoring() }))
		monitoring.POST("/stop", withMonitor(func(c *controller.MonitorController) { c.StopMonitoring() }))
		monitoring.POST("/toggle", withMonitor(func(c *controller.MonitorController) { c.ToggleMonitoring() }))
	}

	settings := r.Group("/settings")
	{
		settings.GET("", withSettings(func(c *controller.SettingsController) { c.GetSettings() }))
		settings.PUT("", withSettings(func(c *controller.SettingsController) { c.UpdateSettings() }))
		settings.POST("/directories", withSettings(func(c *controller.SettingsController) { c.AddDirectory() }))
		settings.DELETE("/directories", withSettings(func(c *controller.SettingsController) { c.RemoveDirectory() }))
	}

	r.GET("/scan", withScan(func(c *controller.ScanController) { c.ScanDirectories() }))

	sink := r.Group("/sink")
	{
		sink.POST("/test", withSink(func(c *controller.SinkController) { c.TestConnection() }))
		sink.GET("/rows", withSink(func(c *controller.SinkController) { c.GetRows() }))
		sink.DELETE("/rows", withSink(func(c *controller.SinkController) { c.PruneRows() }))
	}

	return r
}

func withMonitor(fn func(*controller.MonitorController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewMonitorController(ctx))
	}
}

func withSettings(fn func(*controller.SettingsController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewSettingsController(ctx))
	}
}

func withScan(fn func(*controller.ScanController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewScanController(ctx))
	}
}

func withSink(fn func(*controller.SinkController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewSinkController(ctx))
	}
}

func accessTokenMiddleware(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}

		requestedToken := ctx.GetHeader(model.ApiAccessTokenHeader)
		if requestedToken == "" || requestedToken != token {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Code:    model.ErrorCodeInvalidRequest,
				Message: "Unauthorized: invalid or missing header " + model.ApiAccessTokenHeader,
			})
			return
		}

		ctx.Next()
	}
}

func logMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		log.Debug("Requested: %v - %v", ctx.Request.Method, ctx.Request.URL.String())
		ctx.Next()
	}
}
