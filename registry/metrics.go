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

package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type registryMetrics struct {
	approvals   prometheus.Counter
	revocations prometheus.Counter
	transfers   *prometheus.CounterVec
	reversals   prometheus.Counter
	mints       prometheus.Counter
	refunds     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	outgoing    *prometheus.CounterVec
}

func (r *Registry) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	r.metrics = &registryMetrics{
		approvals: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_approvals_total",
				Help: "total approvals issued",
			},
		),
		revocations: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_revocations_total",
				Help: "total approval entries revoked",
			},
		),
		transfers: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_transfers_total",
				Help: "total committed transfers by kind",
			},
			[]string{"kind"},
		),
		reversals: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_transfer_reversals_total",
				Help: "total transfers returned to the previous owner on resolve",
			},
		),
		mints: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_tickets_minted_total",
				Help: "total tickets minted",
			},
		),
		refunds: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_refunds_total",
				Help: "total refunds paid by kind",
			},
			[]string{"kind"},
		),
		failures: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_invocation_failures_total",
				Help: "total aborted invocations by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		outgoing: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_outgoing_calls_total",
				Help: "total outgoing calls released after commit by kind",
			},
			[]string{"kind"},
		),
	}
}
