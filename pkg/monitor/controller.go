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

package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/superyngo/system-monitor/pkg/config"
	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/metrics"
	"github.com/superyngo/system-monitor/pkg/scanner"
	"github.com/superyngo/system-monitor/pkg/schedule"
	"github.com/superyngo/system-monitor/pkg/sink"
	"github.com/superyngo/system-monitor/pkg/status"
	"github.com/superyngo/system-monitor/pkg/util/safego"
)

var (
	ErrNotRunning    = errors.New("monitor is not running")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrConnection    = errors.New("sink connection failed")
)

// Status texts reported to the status sink.
const (
	StatusReady            = "ready"
	StatusMonitoring       = "monitoring"
	StatusUploaded         = "uploaded"
	StatusUploadFailed     = "upload failed"
	StatusConfigError      = "config error"
	StatusConnectionFailed = "connection failed"
	StatusStopped          = "stopped"
	StatusSettingsUpdated  = "settings updated"
	StatusUnconfigured     = "please configure"
)

const (
	defaultTickPeriod   = time.Second
	defaultRestartDelay = time.Second
)

var defaultFaultBackoff = wait.Backoff{
	Duration: 5 * time.Second,
	Factor:   1.5,
	Cap:      30 * time.Second,
	Steps:    math.MaxInt32,
}

type State string

const (
	StateIdle   State = "idle"
	StateReady  State = "ready"
	StateActive State = "active"
)

// SettingsSource hands out immutable settings snapshots.
type SettingsSource interface {
	Snapshot() config.Settings
}

type Sampler interface {
	Sample(ctx context.Context, sel metrics.Selection) metrics.Snapshot
}

// ScanFunc scans paths with the given limits.
type ScanFunc func(ctx context.Context, opts scanner.Options, paths []string) []scanner.Result

// SinkFactory builds the upload sink described by settings.
type SinkFactory func(settings config.Settings) (sink.Sink, error)

func scanWithScanner(ctx context.Context, opts scanner.Options, paths []string) []scanner.Result {
	return scanner.New(opts).ScanMultiple(ctx, paths)
}

type Option func(*Controller)

func WithScanFunc(fn ScanFunc) Option {
	return func(c *Controller) { c.scan = fn }
}

func WithSinkFactory(fn SinkFactory) Option {
	return func(c *Controller) { c.newSink = fn }
}

func WithTickPeriod(d time.Duration) Option {
	return func(c *Controller) { c.tickPeriod = d }
}

func WithRestartDelay(d time.Duration) Option {
	return func(c *Controller) { c.restartDelay = d }
}

func WithFaultBackoff(b wait.Backoff) Option {
	return func(c *Controller) { c.faultBackoff = b }
}

// Controller drives periodic collect-and-upload runs. It moves between
// idle (not started), ready (tick loop running) and active (a job is
// installed and runs on the tick loop).
type Controller struct {
	settings SettingsSource
	sampler  Sampler
	scan     ScanFunc
	newSink  SinkFactory
	status   status.Sink

	tickPeriod   time.Duration
	restartDelay time.Duration
	faultBackoff wait.Backoff

	schedule   *schedule.Schedule
	running    atomic.Bool
	monitoring atomic.Bool

	// lifecycle serializes Start, Begin, End, Reconfigure and Shutdown.
	lifecycle sync.Mutex
	stopCh    chan struct{}
	done      chan struct{}
	wake      chan struct{}
	restart   *time.Timer
	// restartGen invalidates a restart whose timer already fired but has
	// not yet taken lifecycle.
	restartGen uint64

	mu            sync.Mutex
	sink          sink.Sink
	cancelSession context.CancelFunc
}

func NewController(settings SettingsSource, sampler Sampler, statusSink status.Sink, opts ...Option) *Controller {
	c := &Controller{
		settings:     settings,
		sampler:      sampler,
		scan:         scanWithScanner,
		newSink:      sink.New,
		status:       statusSink,
		tickPeriod:   defaultTickPeriod,
		restartDelay: defaultRestartDelay,
		faultBackoff: defaultFaultBackoff,
		schedule:     schedule.New(),
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	switch {
	case c.monitoring.Load():
		return StateActive
	case c.running.Load():
		return StateReady
	default:
		return StateIdle
	}
}

func (c *Controller) Running() bool    { return c.running.Load() }
func (c *Controller) Monitoring() bool { return c.monitoring.Load() }

// Job describes the installed upload job, if any.
func (c *Controller) Job() (schedule.JobInfo, bool) {
	return c.schedule.Job()
}

// Start launches the tick loop. It is a no-op when already running.
func (c *Controller) Start() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.running.Load() {
		return
	}
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})
	c.running.Store(true)

	stop, done := c.stopCh, c.done
	safego.Go(func() { c.loop(stop, done) })

	c.status.UpdateStatus(StatusReady, false)
	log.Info("monitor started")
}

// BeginMonitoring validates the current settings, verifies the sink and
// installs the upload job with its first run due immediately. Calling it
// while active replaces the running session.
func (c *Controller) BeginMonitoring(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	return c.beginLocked(ctx)
}

func (c *Controller) beginLocked(ctx context.Context) error {
	if !c.running.Load() {
		return ErrNotRunning
	}
	c.cancelRestartLocked()

	settings := c.settings.Snapshot()
	if problems := settings.Validate(); len(problems) > 0 {
		return c.configFailed(strings.Join(problems, "; "))
	}

	target, err := c.newSink(settings)
	if err != nil {
		return c.configFailed(err.Error())
	}
	if result := target.TestConnection(ctx); !result.Success {
		_ = target.Close()
		log.Error("sink connection test failed: %s", result.Error)
		c.status.UpdateStatus(StatusConnectionFailed, c.monitoring.Load())
		c.status.Notify("Connection failed", result.Error)
		return fmt.Errorf("%w: %s", ErrConnection, result.Error)
	}

	if previous := c.endSessionLocked(); previous != nil {
		closeSink(previous)
	}

	session, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.sink = target
	c.cancelSession = cancel
	c.mu.Unlock()

	c.schedule.Replace(settings.Interval(), func() { c.collectAndUpload(session, target) }, true)
	c.monitoring.Store(true)
	c.status.UpdateStatus(StatusMonitoring, true)
	c.poke()

	log.Info("monitoring started, uploading every %d minute(s)", settings.Monitoring.IntervalMinutes)
	return nil
}

func (c *Controller) configFailed(msg string) error {
	log.Error("configuration invalid: %s", msg)
	c.status.UpdateStatus(StatusConfigError, c.monitoring.Load())
	c.status.Notify("Configuration error", msg)
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

// EndMonitoring removes the upload job. An in-flight run stops at its next
// checkpoint.
func (c *Controller) EndMonitoring() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.endLocked()
}

func (c *Controller) endLocked() {
	pending := c.cancelRestartLocked()
	if !c.monitoring.Load() {
		if pending {
			c.status.UpdateStatus(StatusStopped, false)
			log.Info("pending monitoring restart cancelled")
		}
		return
	}
	if previous := c.endSessionLocked(); previous != nil {
		safego.Go(func() { closeSink(previous) })
	}
	c.status.UpdateStatus(StatusStopped, false)
	log.Info("monitoring stopped")
}

// endSessionLocked clears the job, cancels the session and hands back its
// sink for the caller to close.
func (c *Controller) endSessionLocked() sink.Sink {
	c.monitoring.Store(false)
	c.schedule.Clear()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelSession != nil {
		c.cancelSession()
		c.cancelSession = nil
	}
	previous := c.sink
	c.sink = nil
	return previous
}

// Toggle flips monitoring and reports whether it is now on.
func (c *Controller) Toggle(ctx context.Context) (bool, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	return c.toggleLocked(ctx, !c.monitoring.Load())
}

func (c *Controller) SetMonitoring(ctx context.Context, on bool) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if on && c.monitoring.Load() {
		return nil
	}
	_, err := c.toggleLocked(ctx, on)
	return err
}

func (c *Controller) toggleLocked(ctx context.Context, on bool) (bool, error) {
	if !on {
		c.endLocked()
		return false, nil
	}
	if err := c.beginLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// cancelRestartLocked drops a pending restart and reports whether there was
// one.
func (c *Controller) cancelRestartLocked() bool {
	if c.restart == nil {
		return false
	}
	c.restart.Stop()
	c.restart = nil
	c.restartGen++
	return true
}

// Reconfigure applies changed settings. An active session is ended and
// begun again after the restart delay, provided the monitor still runs.
func (c *Controller) Reconfigure() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.monitoring.Load() {
		c.status.UpdateStatus(StatusSettingsUpdated, false)
		return
	}

	if previous := c.endSessionLocked(); previous != nil {
		safego.Go(func() { closeSink(previous) })
	}
	c.status.UpdateStatus(StatusSettingsUpdated, false)

	c.cancelRestartLocked()
	gen := c.restartGen
	c.restart = safego.GoAfter(c.restartDelay, func() {
		c.lifecycle.Lock()
		defer c.lifecycle.Unlock()
		if gen != c.restartGen || !c.running.Load() {
			return
		}
		c.restart = nil
		if err := c.beginLocked(context.Background()); err != nil {
			log.Error("failed to restart monitoring after settings change: %v", err)
		}
	})
}

// Shutdown ends monitoring, stops the tick loop waiting at most timeout for
// it, and releases the sink and status presence. It is safe to call more
// than once.
func (c *Controller) Shutdown(timeout time.Duration) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.running.Load() {
		return nil
	}
	c.cancelRestartLocked()

	previous := c.endSessionLocked()
	c.running.Store(false)
	close(c.stopCh)

	var err error
	select {
	case <-c.done:
	case <-time.After(timeout):
		err = fmt.Errorf("tick loop did not stop within %s", timeout)
		log.Warn("%v", err)
	}

	if previous != nil {
		closeSink(previous)
	}
	c.status.UpdateStatus(StatusStopped, false)
	if closer, ok := c.status.(io.Closer); ok {
		_ = closer.Close()
	}
	log.Info("monitor shut down")
	return err
}

// WithSink runs fn against the active session's sink, or against a sink
// built from the current settings when no session is active.
func (c *Controller) WithSink(fn func(sink.Sink) error) error {
	c.mu.Lock()
	current := c.sink
	c.mu.Unlock()
	if current != nil {
		return fn(current)
	}

	target, err := c.newSink(c.settings.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	defer closeSink(target)
	return fn(target)
}

func (c *Controller) poke() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func closeSink(s sink.Sink) {
	if err := s.Close(); err != nil {
		log.Warn("failed to close sink: %v", err)
	}
}
