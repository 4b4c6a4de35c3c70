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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/superyngo/system-monitor/pkg/log"
)

// Store owns the settings file. Readers take a Snapshot; writers go through
// Update/Replace which persist the result.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

// NewStore wraps settings without touching the filesystem until Save.
func NewStore(path string, settings Settings) *Store {
	return &Store{path: path, settings: settings.Clone()}
}

// Load reads path on top of Default. A missing file is created with the
// defaults. JSON files are accepted since YAML is a superset of it.
func Load(path string) (*Store, error) {
	store := NewStore(path, Default())

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("settings file %s not found, writing defaults", path)
			if err := store.Save(); err != nil {
				log.Warn("failed to write default settings: %v", err)
			}
			return store, nil
		}
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	merged := Default()
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if merged.Monitoring.IntervalMinutes < 1 {
		merged.Monitoring.IntervalMinutes = 1
	}
	store.settings = merged.Clone()

	log.Info("settings loaded from %s", path)
	return store, nil
}

func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a private copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Replace swaps in next and persists it.
func (s *Store) Replace(next Settings) error {
	return s.Update(func(cur *Settings) { *cur = next.Clone() })
}

// Update applies fn to a copy of the settings, then stores and saves it.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	next := s.settings.Clone()
	fn(&next)
	if next.Monitoring.IntervalMinutes < 1 {
		next.Monitoring.IntervalMinutes = 1
	}
	s.settings = next
	s.mu.Unlock()

	return s.Save()
}

// SetIntervalMinutes clamps minutes to at least one.
func (s *Store) SetIntervalMinutes(minutes int) error {
	return s.Update(func(cur *Settings) { cur.Monitoring.IntervalMinutes = max(1, minutes) })
}

// AddMonitorDirectory appends dir unless it is already monitored.
func (s *Store) AddMonitorDirectory(dir string) (bool, error) {
	added := false
	err := s.Update(func(cur *Settings) {
		if slices.Contains(cur.Monitoring.MonitorDirectories, dir) {
			return
		}
		cur.Monitoring.MonitorDirectories = append(cur.Monitoring.MonitorDirectories, dir)
		added = true
	})
	return added, err
}

// RemoveMonitorDirectory drops dir if present.
func (s *Store) RemoveMonitorDirectory(dir string) (bool, error) {
	removed := false
	err := s.Update(func(cur *Settings) {
		idx := slices.Index(cur.Monitoring.MonitorDirectories, dir)
		if idx < 0 {
			return
		}
		cur.Monitoring.MonitorDirectories = slices.Delete(cur.Monitoring.MonitorDirectories, idx, idx+1)
		removed = true
	})
	return removed, err
}

// Save writes the settings as YAML for .yaml/.yml paths, JSON otherwise.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	snapshot := s.Snapshot()
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(snapshot)
	default:
		data, err = json.MarshalIndent(snapshot, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace settings: %w", err)
	}

	log.Info("settings saved to %s", s.path)
	return nil
}
