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

package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type hubMetrics struct {
	packets        *prometheus.CounterVec
	callbackErrors prometheus.Counter
	dropped        prometheus.Counter
}

func newHubMetrics(promRegistry prometheus.Registerer) *hubMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &hubMetrics{
		packets: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_deliveries_total",
				Help: "packets delivered by the relay hub by kind",
			},
			[]string{"kind"},
		),
		callbackErrors: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_callback_errors_total",
				Help: "callbacks rejected by the receiving engine",
			},
		),
		dropped: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_dropped_total",
				Help: "packets dropped on a full queue or at stop",
			},
		),
	}
}
