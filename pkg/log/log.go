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

package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFileEnvKey = "SYSMON_LOG_FILE"

var (
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

	mu    sync.RWMutex
	base  *zap.Logger
	sugar *zap.SugaredLogger
)

func init() {
	logger, err := build(os.Getenv(logFileEnvKey))
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	base = logger
	sugar = base.Sugar()
}

func build(logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel

	if logFile != "" {
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
	} else {
		// outputs log to stdout pipe by default
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stdout"}
	}

	return cfg.Build()
}

// SetOutput redirects the process logger to logFile. An empty path keeps the
// current output. The env key SYSMON_LOG_FILE wins over any later call.
func SetOutput(logFile string) error {
	if logFile == "" || os.Getenv(logFileEnvKey) != "" {
		return nil
	}

	logger, err := build(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	mu.Lock()
	old := base
	base = logger
	sugar = base.Sugar()
	mu.Unlock()

	_ = old.Sync()
	return nil
}

// SetLevel accepts zap level names (debug, info, warn, error) as well as the
// WARNING/CRITICAL spellings used by older config files.
func SetLevel(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	atomicLevel.SetLevel(lvl)
	return nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "WARNING":
		return zapcore.WarnLevel, nil
	case "CRITICAL", "FATAL":
		return zapcore.FatalLevel, nil
	}
	return zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
}

// Level reports the active level name.
func Level() string {
	return atomicLevel.Level().String()
}

func logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

func Debug(format string, args ...any) {
	logger().Debugf(format, args...)
}

func Info(format string, args ...any) {
	logger().Infof(format, args...)
}

func Warn(format string, args ...any) {
	logger().Warnf(format, args...)
}

// Warning is an alias to Warn for compatibility.
func Warning(format string, args ...any) {
	Warn(format, args...)
}

func Error(format string, args ...any) {
	logger().Errorf(format, args...)
}
