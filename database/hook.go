/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

// SlowQueryHook logs a warning for every successful query that ran longer
// than Threshold.
type SlowQueryHook struct {
	Threshold time.Duration
	logger    Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

var slowTag = color.New(color.FgYellow, color.Bold).SprintFunc()

// NewSlowQueryHook returns a hook logging through logger, or through the
// global logger when logger is nil.
func NewSlowQueryHook(threshold time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{Threshold: threshold, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.Threshold <= 0 {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.Threshold {
		return
	}
	logger := h.logger
	if logger == nil {
		logger = GetLogger()
	}
	logger.Warn(slowTag("[SLOW QUERY]")+" "+event.Operation(),
		"duration", duration.Round(time.Microsecond),
		"threshold", h.Threshold,
		"query", event.Query,
	)
}
