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
	"fmt"
	"time"

	runtimeutil "k8s.io/apimachinery/pkg/util/runtime"

	"github.com/superyngo/system-monitor/pkg/log"
)

// loop runs pending jobs every tick until stop is closed. A panicking tick
// is logged and followed by a growing pause; a clean tick resets the pause.
func (c *Controller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.tickPeriod)
	defer ticker.Stop()

	backoff := c.faultBackoff
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		case <-c.wake:
		}

		if err := c.tick(); err != nil {
			pause := backoff.Step()
			log.Error("monitor tick failed, pausing %s: %v", pause, err)
			select {
			case <-stop:
				return
			case <-time.After(pause):
			}
			continue
		}
		backoff = c.faultBackoff
	}
}

func (c *Controller) tick() (err error) {
	defer runtimeutil.HandleCrash(func(r any) {
		err = fmt.Errorf("panic: %v", r)
	})

	if !c.monitoring.Load() {
		return nil
	}
	c.schedule.RunPending()
	return nil
}
