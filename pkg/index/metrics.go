// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "polixy",
			Name:      "index_events_total",
			Help:      "Resource events applied to the index.",
		},
		[]string{"kind", "op"},
	)
	metricDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "polixy",
			Name:      "index_dropped_events_total",
			Help:      "Resource events dropped due to schema errors.",
		},
		[]string{"kind"},
	)
	metricUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "polixy",
			Name:      "index_updates_total",
			Help:      "Distinct configuration values published to server cells.",
		},
	)
)

// RegisterMetrics registers the index metrics with the given registerer.
func RegisterMetrics(r prometheus.Registerer) {
	r.MustRegister(metricEvents, metricDropped, metricUpdates)
}
