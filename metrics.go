// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package tickwheel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	timersScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickwheel_timers_scheduled_total",
		Help: "Total number of timers scheduled, by kind.",
	}, []string{"kind"} /* once | periodic */)

	timersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickwheel_timers_cancelled_total",
		Help: "Total number of timers cancelled before firing.",
	})

	timersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickwheel_timers_expired_total",
		Help: "Total number of timers that fired.",
	})

	timersOutstanding = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tickwheel_timers_outstanding",
		Help: "Number of timers currently scheduled on the thread driver.",
	})
)
