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

package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamePrefix = "governance_"

type engineMetrics struct {
	proposalsCreated prometheus.Counter
	votesCast        prometheus.Counter
	votedPower       prometheus.Counter
	executions       *prometheus.CounterVec
	remoteQueries    *prometheus.CounterVec
	callbacks        *prometheus.CounterVec
	tallyQueries     *prometheus.CounterVec
}

func (e *Engine) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	e.metrics.proposalsCreated = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "proposals_created_total",
			Help: "total proposals created",
		},
	)
	e.metrics.votesCast = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "votes_cast_total",
			Help: "total votes recorded",
		},
	)
	e.metrics.votedPower = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "voted_power_total",
			Help: "sum of the power of all recorded votes",
		},
	)
	e.metrics.executions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "executions_total",
			Help: "execute calls by outcome",
		},
		[]string{"status"},
	)
	e.metrics.remoteQueries = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "remote_queries_total",
			Help: "tally queries for prerequisites by result",
		},
		[]string{"result"},
	)
	e.metrics.callbacks = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "callbacks_total",
			Help: "tally query callbacks by result",
		},
		[]string{"result"},
	)
	e.metrics.tallyQueries = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "tally_queries_served_total",
			Help: "cross-chain tally queries answered by result",
		},
		[]string{"result"},
	)
}
