// Copyright 2025 Tom Barlow
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

package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tombee/claudecode"
)

var (
	invocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claudecode_invocation_duration_seconds",
			Help:    "Duration of backend invocations",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"status"},
	)

	invocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudecode_invocations_total",
			Help: "Total backend invocations by outcome",
		},
		[]string{"status"},
	)

	failuresByCode = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudecode_invocation_failures_total",
			Help: "Failed invocations by boundary error code",
		},
		[]string{"error_code"},
	)

	toolCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claudecode_tool_calls_total",
		Help: "Tool calls surfaced in validated results",
	})
)

// recordInvocation records metrics for one finished invocation.
func recordInvocation(res *claudecode.Result, seconds float64) {
	status := "success"
	if !res.Success {
		status = "failure"
		failuresByCode.WithLabelValues(string(res.ErrorCode)).Inc()
	}
	invocationsTotal.WithLabelValues(status).Inc()
	invocationDuration.WithLabelValues(status).Observe(seconds)
	if n := len(res.ToolCalls); n > 0 {
		toolCallsTotal.Add(float64(n))
	}
}
