// Copyright 2025 Blink Labs Software
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

package archive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const archiveMetricNamePrefix = "archive_"

type exporterMetrics struct {
	exports *prometheus.CounterVec
	entries prometheus.Counter
	bytes   prometheus.Counter
}

func (e *Exporter) initMetrics() {
	promRegistry := e.promRegistry
	if promRegistry == nil {
		promRegistry = prometheus.NewRegistry()
	}
	promautoFactory := promauto.With(promRegistry)
	e.metrics.exports = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: archiveMetricNamePrefix + "exports_total",
			Help: "Journal exports by target scheme and result",
		},
		[]string{"scheme", "result"},
	)
	e.metrics.entries = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: archiveMetricNamePrefix + "exported_entries_total",
			Help: "Journal entries written by successful exports",
		},
	)
	e.metrics.bytes = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: archiveMetricNamePrefix + "exported_bytes_total",
			Help: "Compressed bytes written by successful exports",
		},
	)
}
