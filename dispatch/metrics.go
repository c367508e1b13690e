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

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type dispatchMetrics struct {
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	resolves     *prometheus.CounterVec
	queueDepth   prometheus.Gauge
	queueFull    prometheus.Counter
}

func (d *Dispatcher) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	d.metrics = &dispatchMetrics{
		calls: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_calls_total",
				Help: "total receiver calls by kind and result",
			},
			[]string{"kind", "result"},
		),
		callDuration: promautoFactory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_call_duration_seconds",
				Help:    "receiver call latency by kind",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		resolves: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_resolves_total",
				Help: "total resolve invocations by result",
			},
			[]string{"result"},
		),
		queueDepth: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispatch_queue_depth",
				Help: "calls waiting for a worker",
			},
		),
		queueFull: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_queue_full_total",
				Help: "calls submitted while the queue was full",
			},
		),
	}
}
