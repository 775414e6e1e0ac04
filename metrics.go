// Copyright 2025 The DBQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dbqrules

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbqrules_checks_total",
		Help: "Total evaluated checks by status and fault kind",
	}, []string{"status", "fault"})

	checkViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbqrules_check_violations_total",
		Help: "Total violations found per check",
	}, []string{"check"})

	checkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbqrules_check_duration_seconds",
		Help:    "Duration of a single check evaluation",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})
)

func observeResult(result *CheckResult) {
	fault := string(result.Fault)
	if fault == "" {
		fault = "none"
	}
	checksTotal.WithLabelValues(string(result.Status), fault).Inc()
	checkViolations.WithLabelValues(result.Name).Add(float64(result.Violations))
	checkDuration.Observe(float64(result.DurationMs) / 1000)
}
