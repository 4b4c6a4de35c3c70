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
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/superyngo/system-monitor/pkg/log"
	"github.com/superyngo/system-monitor/pkg/metrics"
)

var schemaBackoff = wait.Backoff{
	Steps:    3,
	Duration: 200 * time.Millisecond,
	Factor:   2,
	Jitter:   0.1,
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const rowColumns = "recorded_at, cpu_percent, ram_percent, ram_used_gb, ram_total_gb, net_up_mbps, net_down_mbps, " +
	"directories, battery_percent, battery_status, uptime_hours, disk_percent, disk_free_gb"

type MySQLConfig struct {
	DSN   string
	Table string
}

// MySQLSink inserts one row per upload into a table it creates on first use.
type MySQLSink struct {
	cfg MySQLConfig
	now func() time.Time

	mu          sync.Mutex
	db          *sql.DB
	schemaReady bool
	verifiedAt  time.Time
}

func NewMySQL(cfg MySQLConfig) (*MySQLSink, error) {
	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}
	if cfg.DSN == "" {
		return nil, errors.New("mysql dsn is empty")
	}
	return &MySQLSink{cfg: cfg, now: time.Now}, nil
}

// openDB forces parseTime so DATETIME columns scan into time.Time.
func openDB(dsn string) (*sql.DB, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	parsed.ParseTime = true
	parsed.Loc = time.Local
	return sql.Open("mysql", parsed.FormatDSN())
}

func (s *MySQLSink) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *MySQLSink) connectLocked(ctx context.Context) error {
	if s.db == nil {
		db, err := openDB(s.cfg.DSN)
		if err != nil {
			return err
		}
		s.db = db
	}
	if s.schemaReady && s.now().Sub(s.verifiedAt) < ReconnectWindow {
		return nil
	}

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping mysql: %w", err)
	}
	if !s.schemaReady {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		s.schemaReady = true
	}
	s.verifiedAt = s.now()
	return nil
}

func (s *MySQLSink) ensureSchema(ctx context.Context) error {
	stmt := "CREATE TABLE IF NOT EXISTS `" + s.cfg.Table + "` (" +
		"id CHAR(36) NOT NULL PRIMARY KEY, " +
		"recorded_at DATETIME NOT NULL, " +
		"cpu_percent DOUBLE NOT NULL, " +
		"ram_percent DOUBLE NOT NULL, " +
		"ram_used_gb DOUBLE NOT NULL, " +
		"ram_total_gb DOUBLE NOT NULL, " +
		"net_up_mbps DOUBLE NOT NULL, " +
		"net_down_mbps DOUBLE NOT NULL, " +
		"directories TEXT NOT NULL, " +
		"battery_percent DOUBLE NULL, " +
		"battery_status VARCHAR(32) NOT NULL, " +
		"uptime_hours DOUBLE NOT NULL, " +
		"disk_percent DOUBLE NOT NULL, " +
		"disk_free_gb DOUBLE NOT NULL, " +
		"INDEX idx_recorded_at (recorded_at))"

	return retry.OnError(schemaBackoff, func(err error) bool {
		if !retryableConnError(err) {
			return false
		}
		log.Warn("failed to create table %s, retrying: %v", s.cfg.Table, err)
		return true
	}, func() error {
		_, err := s.db.ExecContext(ctx, stmt)
		return err
	})
}

func retryableConnError(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn)
}

func (s *MySQLSink) Upload(ctx context.Context, snap metrics.Snapshot, directories string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return err
	}

	var battery sql.NullFloat64
	if snap.Battery.Present {
		battery = sql.NullFloat64{Float64: snap.Battery.Percent, Valid: true}
	}

	stmt := "INSERT INTO `" + s.cfg.Table + "` (id, " + rowColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, stmt,
		uuid.New().String(),
		snap.Timestamp,
		snap.CPUPercent,
		snap.Memory.Percent,
		snap.Memory.UsedGB,
		snap.Memory.TotalGB,
		snap.Network.MBSentPerSec,
		snap.Network.MBRecvPerSec,
		directories,
		battery,
		BatteryStatus(snap.Battery),
		snap.Uptime.Hours,
		snap.Disk.Percent,
		snap.Disk.FreeGB,
	)
	if err != nil {
		s.verifiedAt = time.Time{}
		return fmt.Errorf("failed to insert row: %w", err)
	}

	log.Info("uploaded row: CPU %.2f%%, RAM %.2f%%", snap.CPUPercent, snap.Memory.Percent)
	return nil
}

func (s *MySQLSink) TestConnection(ctx context.Context) ConnectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		log.Error("mysql connection test failed: %v", err)
		return failedResult(err)
	}
	return ConnectionResult{Success: true, Message: "connected", Target: s.cfg.Table}
}

func (s *MySQLSink) LastRows(ctx context.Context, n int) ([][]string, error) {
	if n <= 0 {
		return [][]string{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}

	query := "SELECT " + rowColumns + " FROM `" + s.cfg.Table + "` ORDER BY recorded_at DESC LIMIT ?"
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	out := make([][]string, 0, n)
	for rows.Next() {
		var (
			recordedAt   time.Time
			battery      sql.NullFloat64
			dirs, status string
			cpu, ram     float64
			ramUsed      float64
			ramTotal     float64
			netUp, netDn float64
			uptime       float64
			diskPct      float64
			diskFree     float64
		)
		if err := rows.Scan(&recordedAt, &cpu, &ram, &ramUsed, &ramTotal, &netUp, &netDn,
			&dirs, &battery, &status, &uptime, &diskPct, &diskFree); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		batteryCell := metrics.TimeLeftNA
		if battery.Valid {
			batteryCell = formatFloat(battery.Float64)
		}
		out = append(out, []string{
			recordedAt.Local().Format(TimestampLayout),
			formatFloat(cpu), formatFloat(ram), formatFloat(ramUsed), formatFloat(ramTotal),
			formatFloat(netUp), formatFloat(netDn),
			dirs, batteryCell, status,
			formatFloat(uptime), formatFloat(diskPct), formatFloat(diskFree),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}

func (s *MySQLSink) Prune(ctx context.Context, keepDays int) (int, error) {
	if keepDays < 0 {
		return 0, errNegativeKeepDays
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return 0, err
	}

	cutoff := s.now().AddDate(0, 0, -keepDays)
	res, err := s.db.ExecContext(ctx, "DELETE FROM `"+s.cfg.Table+"` WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune rows: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}

	log.Info("pruned %d rows older than %d days", affected, keepDays)
	return int(affected), nil
}

func (s *MySQLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.schemaReady = false
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
