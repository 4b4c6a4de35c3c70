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

package model

import "testing"

func TestDirectoryRequestValidate(t *testing.T) {
	req := DirectoryRequest{Path: "/var/log"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected validation success: %v", err)
	}

	req.Path = ""
	if err := req.Validate(); err == nil {
		t.Fatalf("expected validation error when path is empty")
	}
}
