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

package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/util/units"
)

const (
	DefaultMaxDepth       = 3
	DefaultMaxFilesPerDir = 100

	scanConcurrency = 4
)

type Options struct {
	// MaxDepth bounds how many path segments below the root are listed.
	MaxDepth int
	// MaxFilesPerDir caps file entries per directory. Directories are not capped.
	MaxFilesPerDir int
	// Exclude holds doublestar patterns matched against slash-separated paths
	// relative to the scan root.
	Exclude []string
}

type Scanner struct {
	maxDepth int
	maxFiles int
	exclude  []string
	now      func() time.Time
}

func New(opts Options) *Scanner {
	s := &Scanner{
		maxDepth: opts.MaxDepth,
		maxFiles: opts.MaxFilesPerDir,
		now:      time.Now,
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxDepth
	}
	if s.maxFiles <= 0 {
		s.maxFiles = DefaultMaxFilesPerDir
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			log.Warn("ignoring invalid exclude pattern %q", pattern)
			continue
		}
		s.exclude = append(s.exclude, pattern)
	}
	return s
}

type totals struct {
	files int
	dirs  int
	bytes int64
}

// Scan walks root depth-first. Problems with individual entries are skipped;
// only a root that cannot be opened produces an error result.
func (s *Scanner) Scan(ctx context.Context, root string) Result {
	result := Result{Path: root, ScanTime: s.now()}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn("scan root does not exist: %s", root)
		result.Error = MsgNotExist
		return result
	case errors.Is(err, os.ErrPermission):
		log.Warn("no permission to access scan root: %s", root)
		result.Exists = true
		result.Error = MsgPermissionDenied
		return result
	case err != nil:
		log.Error("failed to stat scan root %s: %v", root, err)
		result.Error = err.Error()
		return result
	}

	result.Exists = true
	if !info.IsDir() {
		log.Warn("scan root is not a directory: %s", root)
		result.Error = MsgNotDirectory
		return result
	}
	result.IsDirectory = true

	var t totals
	if err := s.walk(ctx, root, root, 0, &result.Files, &result.Subdirectories, &t); err != nil {
		return s.failed(root, err)
	}

	result.TotalFiles = t.files
	result.TotalDirectories = t.dirs
	result.TotalSizeBytes = t.bytes
	result.TotalSizeMB = units.ToMB(float64(t.bytes), 2)
	result.TotalSizeGB = units.ToGB(float64(t.bytes), 4)

	log.Info("scanned %s: %d files, %d dirs", root, t.files, t.dirs)
	return result
}

func (s *Scanner) failed(root string, err error) Result {
	result := Result{Path: root, Exists: true, IsDirectory: true, ScanTime: s.now()}
	switch {
	case errors.Is(err, os.ErrPermission):
		log.Warn("no permission to list scan root: %s", root)
		result.Error = MsgPermissionDenied
	default:
		log.Error("failed to scan %s: %v", root, err)
		result.Error = err.Error()
	}
	return result
}

// walk lists dir, which sits depth segments below root. Entries of dir are
// depth+1 segments deep, so listing stops once depth reaches maxDepth.
func (s *Scanner) walk(ctx context.Context, root, dir string, depth int, files *[]FileEntry, subdirs *[]DirEntry, t *totals) error {
	if depth >= s.maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if depth == 0 {
			return err
		}
		log.Debug("cannot list %s: %v", dir, err)
		return nil
	}

	fileCount, skipped := 0, 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())
		if s.excluded(root, path) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			log.Debug("skipping unreadable entry %s: %v", path, err)
			continue
		}

		if info.IsDir() {
			sub := DirEntry{
				Name:       entry.Name(),
				Path:       path,
				ModifiedAt: info.ModTime(),
				CreatedAt:  createTime(info),
			}
			t.dirs++
			if depth < s.maxDepth-1 {
				if err := s.walk(ctx, root, path, depth+1, &sub.Files, &sub.Subdirectories, t); err != nil {
					return err
				}
			}
			*subdirs = append(*subdirs, sub)
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}
		if fileCount >= s.maxFiles {
			skipped++
			continue
		}

		*files = append(*files, FileEntry{
			Name:       entry.Name(),
			Path:       path,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
			CreatedAt:  createTime(info),
			Extension:  strings.ToLower(filepath.Ext(entry.Name())),
		})
		fileCount++
		t.files++
		t.bytes += info.Size()
	}

	if skipped > 0 {
		log.Debug("file cap reached in %s, skipped %d files", dir, skipped)
	}
	return nil
}

func (s *Scanner) excluded(root, path string) bool {
	if len(s.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// ScanMultiple scans each distinct path and returns results in input order.
func (s *Scanner) ScanMultiple(ctx context.Context, paths []string) []Result {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}

	results := make([]Result, len(unique))
	var g errgroup.Group
	g.SetLimit(scanConcurrency)
	for i, p := range unique {
		g.Go(func() error {
			log.Info("scanning directory %s", p)
			results[i] = s.Scan(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
