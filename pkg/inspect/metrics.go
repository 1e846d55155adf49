// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package inspect

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsInspect holds Prometheus metrics for inspections and mappings.
type metricsInspect struct {
	once sync.Once

	inspections *prometheus.CounterVec
	errors      prometheus.Counter
	mappings    prometheus.Counter
}

var inspMetrics metricsInspect

func (m *metricsInspect) init() {
	m.once.Do(func() {
		m.inspections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siginspect_inspections_total",
			Help: "Successful signature inspections by primary kind",
		}, []string{"kind"})
		m.errors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siginspect_inspection_errors_total",
			Help: "Inspections that failed with an InspectionError",
		})
		m.mappings = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siginspect_mappings_total",
			Help: "Value mappings split into positional and keyword arguments",
		})

		prometheus.MustRegister(m.inspections, m.errors, m.mappings)
	})
}

func recordInspection(k Kind) {
	inspMetrics.init()
	inspMetrics.inspections.WithLabelValues(k.String()).Inc()
}

func recordInspectionError() { inspMetrics.init(); inspMetrics.errors.Inc() }
func recordMapping()         { inspMetrics.init(); inspMetrics.mappings.Inc() }
