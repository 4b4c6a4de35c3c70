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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/superyngo/system-monitor/pkg/config"
	"github.com/superyngo/system-monitor/pkg/flag"
	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/metrics"
	"github.com/superyngo/system-monitor/pkg/monitor"
	"github.com/superyngo/system-monitor/pkg/status"
	"github.com/superyngo/system-monitor/pkg/util/safego"
	"github.com/superyngo/system-monitor/pkg/web"
	"github.com/superyngo/system-monitor/pkg/web/controller"
)

const httpShutdownTimeout = 5 * time.Second

// main loads the settings, starts the monitor and serves the control API
// until SIGINT or SIGTERM.
func main() {
	flag.InitFlags()
	defer log.Sync()

	store, err := config.Load(flag.ConfigPath)
	if err != nil {
		log.Error("failed to load settings, using defaults: %v", err)
		store = config.NewStore(flag.ConfigPath, config.Default())
	}
	settings := store.Snapshot()
	applyLogging(settings)
	safego.InitPanicLogger(context.Background())

	tracker := status.NewTracker()
	ctrl := monitor.NewController(store, metrics.NewCollector(), tracker)
	ctrl.Start()

	switch problems := settings.Validate(); {
	case flag.NoAutoStart:
		log.Info("autostart disabled, waiting for a start request")
	case len(problems) > 0:
		log.Warn("settings incomplete, monitoring not started: %v", problems)
		tracker.UpdateStatus(monitor.StatusUnconfigured, false)
	default:
		if err := ctrl.BeginMonitoring(context.Background()); err != nil {
			log.Error("failed to start monitoring: %v", err)
		}
	}

	controller.InitMonitor(store, ctrl, tracker)
	srv := &http.Server{
		Addr:              flag.ListenAddr,
		Handler:           web.NewRouter(flag.AccessToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("control API listening on %s", flag.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// a second signal skips the graceful path
		stop()
		safego.Go(forceExitOnSignal)

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("control API stopped: %v", err)
	}
	if err := ctrl.Shutdown(flag.ShutdownTimeout); err != nil {
		log.Warn("monitor shutdown incomplete: %v", err)
	}
}

func applyLogging(settings config.Settings) {
	level := settings.Logging.LogLevel
	if flag.LogLevel != "" {
		level = flag.LogLevel
	}
	if level != "" {
		if err := log.SetLevel(level); err != nil {
			log.Warn("ignoring log level: %v", err)
		}
	}
	if err := log.SetOutput(settings.Logging.LogFile); err != nil {
		log.Warn("failed to open log file: %v", err)
	}
}

func forceExitOnSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Warn("second signal received, exiting now")
	log.Sync()
	os.Exit(1)
}
