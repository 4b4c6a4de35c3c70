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
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
			return identifierPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate reports every problem that prevents monitoring from starting. An
// empty result means the settings are usable.
func (s Settings) Validate() []string {
	var problems []string

	problems = append(problems, structProblems("", s)...)
	switch s.Sink {
	case SinkMySQL:
		problems = append(problems, structProblems("mysql", s.MySQL)...)
	case SinkSheets:
		problems = append(problems, structProblems("google_sheets", s.GoogleSheets)...)
		if cred := s.GoogleSheets.CredentialsFile; cred != "" {
			if _, err := os.Stat(cred); err != nil {
				problems = append(problems, fmt.Sprintf("credentials file does not exist: %s", cred))
			}
		}
	}

	for _, dir := range s.Monitoring.MonitorDirectories {
		if _, err := os.Stat(dir); err != nil {
			problems = append(problems, fmt.Sprintf("monitored directory does not exist: %s", dir))
		}
	}
	for _, pattern := range s.Monitoring.ExcludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			problems = append(problems, fmt.Sprintf("invalid exclude pattern: %s", pattern))
		}
	}

	return problems
}

func structProblems(prefix string, target any) []string {
	err := structValidator().Struct(target)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fieldPath(prefix, fe.Namespace()), fe))
	}
	return problems
}

// fieldPath turns "Settings.monitoring.interval_minutes" into
// "monitoring.interval_minutes".
func fieldPath(prefix, namespace string) string {
	path := namespace
	if i := strings.Index(namespace, "."); i >= 0 {
		path = namespace[i+1:]
	}
	if prefix != "" {
		path = prefix + "." + path
	}
	return path
}

func describe(path string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is not set", path)
	case "min":
		return fmt.Sprintf("%s must be at least %s", path, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", path, fe.Param(), fe.Value())
	case "identifier":
		return fmt.Sprintf("%s may only contain letters, digits and underscores", path)
	default:
		return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}
}
