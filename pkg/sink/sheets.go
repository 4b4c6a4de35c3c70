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

package sink

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/superyngo/system-monitor/pkg/config"
	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/metrics"
)

const (
	newSheetRows    = 1000
	newSheetColumns = 20
	lastColumn      = "M"

	valueInputUserEntered = "USER_ENTERED"
	insertDataInsertRows  = "INSERT_ROWS"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetURL  string
	WorksheetName   string
	// ClientOptions, when set, replace the credentials-file options.
	ClientOptions []option.ClientOption
}

// SheetsSink appends rows to one worksheet of a Google spreadsheet using a
// service account.
type SheetsSink struct {
	cfg           SheetsConfig
	spreadsheetID string
	now           func() time.Time

	mu          sync.Mutex
	svc         *sheets.Service
	title       string
	connectedAt time.Time
}

func NewSheets(cfg SheetsConfig) (*SheetsSink, error) {
	id, err := SpreadsheetID(cfg.SpreadsheetURL)
	if err != nil {
		return nil, err
	}
	if cfg.WorksheetName == "" {
		cfg.WorksheetName = config.DefaultWorksheetName
	}
	return &SheetsSink{cfg: cfg, spreadsheetID: id, now: time.Now}, nil
}

// SpreadsheetID extracts the id from a spreadsheet URL. A bare id is returned
// unchanged.
func SpreadsheetID(url string) (string, error) {
	url = strings.TrimSpace(url)
	if m := spreadsheetIDPattern.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	if url != "" && !strings.ContainsAny(url, "/:?#") {
		return url, nil
	}
	return "", fmt.Errorf("cannot find spreadsheet id in %q", url)
}

func (s *SheetsSink) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *SheetsSink) connectLocked(ctx context.Context) error {
	if s.svc != nil && s.now().Sub(s.connectedAt) < ReconnectWindow {
		return nil
	}

	log.Info("connecting to spreadsheet %s", s.spreadsheetID)
	opts := s.cfg.ClientOptions
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(s.cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		}
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		s.svc = nil
		return fmt.Errorf("failed to create sheets client: %w", err)
	}

	spreadsheet, err := svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		s.svc = nil
		return fmt.Errorf("failed to open spreadsheet %s: %w", s.spreadsheetID, err)
	}

	if !hasSheet(spreadsheet, s.cfg.WorksheetName) {
		if err := s.addWorksheet(ctx, svc); err != nil {
			s.svc = nil
			return err
		}
	}

	s.svc = svc
	s.title = ""
	if spreadsheet.Properties != nil {
		s.title = spreadsheet.Properties.Title
	}
	s.connectedAt = s.now()
	log.Info("connected to spreadsheet %q, worksheet %q", s.title, s.cfg.WorksheetName)
	return nil
}

func hasSheet(spreadsheet *sheets.Spreadsheet, title string) bool {
	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return true
		}
	}
	return false
}

func (s *SheetsSink) addWorksheet(ctx context.Context, svc *sheets.Service) error {
	log.Info("creating worksheet %q", s.cfg.WorksheetName)
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: s.cfg.WorksheetName,
					GridProperties: &sheets.GridProperties{
						RowCount:    newSheetRows,
						ColumnCount: newSheetColumns,
					},
				},
			},
		}},
	}
	if _, err := svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create worksheet %q: %w", s.cfg.WorksheetName, err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := s.append(ctx, svc, header); err != nil {
		// the worksheet exists now; a missing header is not fatal
		log.Error("failed to write header row: %v", err)
	}
	return nil
}

func (s *SheetsSink) append(ctx context.Context, svc *sheets.Service, row []any) error {
	values := &sheets.ValueRange{Values: [][]any{row}}
	_, err := svc.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetRange("A1"), values).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertDataInsertRows).
		Context(ctx).
		Do()
	return err
}

// sheetRange quotes the worksheet title for A1 notation.
func (s *SheetsSink) sheetRange(cells string) string {
	return "'" + strings.ReplaceAll(s.cfg.WorksheetName, "'", "''") + "'!" + cells
}

func (s *SheetsSink) Upload(ctx context.Context, snap metrics.Snapshot, directories string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return err
	}
	if err := s.append(ctx, s.svc, Row(snap, directories)); err != nil {
		// force a fresh client on the next attempt
		s.connectedAt = time.Time{}
		return fmt.Errorf("failed to append row: %w", err)
	}

	log.Info("uploaded row: CPU %.2f%%, RAM %.2f%%", snap.CPUPercent, snap.Memory.Percent)
	return nil
}

func (s *SheetsSink) TestConnection(ctx context.Context) ConnectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		log.Error("sheets connection test failed: %v", err)
		return failedResult(err)
	}
	return ConnectionResult{
		Success:   true,
		Message:   "connected",
		Target:    s.title,
		Worksheet: s.cfg.WorksheetName,
	}
}

func (s *SheetsSink) readAll(ctx context.Context) ([][]string, error) {
	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetRange("A:"+lastColumn)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SheetsSink) LastRows(ctx context.Context, n int) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 || n <= 0 {
		return [][]string{}, nil
	}
	data := rows[1:]
	if len(data) > n {
		data = data[len(data)-n:]
	}
	return data, nil
}

var errNegativeKeepDays = errors.New("keep days must not be negative")

// Prune keeps the header, rows newer than keepDays and rows whose timestamp
// cannot be parsed.
func (s *SheetsSink) Prune(ctx context.Context, keepDays int) (int, error) {
	if keepDays < 0 {
		return 0, errNegativeKeepDays
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) <= 1 {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -keepDays)
	keep := [][]any{toCells(rows[0])}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		ts, err := time.ParseInLocation(TimestampLayout, row[0], time.Local)
		if err != nil || !ts.Before(cutoff) {
			keep = append(keep, toCells(row))
		}
	}

	removed := len(rows) - len(keep)
	if removed == 0 {
		return 0, nil
	}

	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetRange("A:"+lastColumn), &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("failed to clear worksheet: %w", err)
	}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetRange("A1"), &sheets.ValueRange{Values: keep}).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to rewrite worksheet: %w", err)
	}

	log.Info("pruned %d rows older than %d days", removed, keepDays)
	return removed, nil
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func (s *SheetsSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.svc = nil
	return nil
}
