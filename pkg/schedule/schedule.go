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

package schedule

import (
	"sync"
	"time"
)

// Schedule holds at most one recurring job. The lock covers installing,
// clearing and the due check; the job body runs without it.
type Schedule struct {
	mu  sync.Mutex
	job *job
	now func() time.Time
}

type job struct {
	interval time.Duration
	action   func()
	next     time.Time
	lastRun  time.Time
}

// JobInfo is a read-only view of the installed job.
type JobInfo struct {
	Interval time.Duration `json:"interval"`
	NextRun  time.Time     `json:"next_run"`
	LastRun  time.Time     `json:"last_run,omitempty"`
}

func New() *Schedule {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Schedule {
	return &Schedule{now: now}
}

// Replace drops any installed job and installs action every interval. With
// runNow the first run is due immediately instead of after one interval.
func (s *Schedule) Replace(interval time.Duration, action func(), runNow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.now()
	if !runNow {
		next = next.Add(interval)
	}
	s.job = &job{interval: interval, action: action, next: next}
}

func (s *Schedule) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = nil
}

func (s *Schedule) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

func (s *Schedule) Job() (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return JobInfo{}, false
	}
	return JobInfo{Interval: s.job.interval, NextRun: s.job.next, LastRun: s.job.lastRun}, true
}

// due claims the job if it is due and advances its next run time.
func (s *Schedule) due() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return nil
	}
	now := s.now()
	if now.Before(s.job.next) {
		return nil
	}
	s.job.lastRun = now
	s.job.next = now.Add(s.job.interval)
	return s.job.action
}

// RunPending runs the job if it is due and reports whether it ran. Missed
// runs are not replayed.
func (s *Schedule) RunPending() bool {
	action := s.due()
	if action == nil {
		return false
	}
	action()
	return true
}
