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

package status

import (
	"slices"
	"sync"
	"time"

	"github.com/superyngo/system-monitor/pkg/log"
)

// Sink receives fire-and-forget presence updates from the monitor.
type Sink interface {
	UpdateStatus(text string, monitoring bool)
	Notify(title, message string)
}

const defaultFeedSize = 20

type Notification struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Snapshot is what the control API shows in place of a tray icon.
type Snapshot struct {
	Text          string         `json:"text"`
	Monitoring    bool           `json:"monitoring"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Notifications []Notification `json:"notifications"`
	Released      bool           `json:"released"`
}

// Tracker is an in-memory Sink. After Close it ignores further updates.
type Tracker struct {
	mu         sync.RWMutex
	text       string
	monitoring bool
	updatedAt  time.Time
	feed       []Notification
	feedSize   int
	released   bool
	now        func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		text:     "starting",
		feedSize: defaultFeedSize,
		now:      time.Now,
	}
}

func (t *Tracker) UpdateStatus(text string, monitoring bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.text = text
	t.monitoring = monitoring
	t.updatedAt = t.now()
	log.Info("status: %s (monitoring=%t)", text, monitoring)
}

func (t *Tracker) Notify(title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.feed = append(t.feed, Notification{Title: title, Message: message, At: t.now()})
	if over := len(t.feed) - t.feedSize; over > 0 {
		t.feed = slices.Delete(t.feed, 0, over)
	}
	log.Info("notification: %s - %s", title, message)
}

// Close releases the presence; it is safe to call more than once.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.released = true
	return nil
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		Text:          t.text,
		Monitoring:    t.monitoring,
		UpdatedAt:     t.updatedAt,
		Notifications: slices.Clone(t.feed),
		Released:      t.released,
	}
}
