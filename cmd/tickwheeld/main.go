// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Command tickwheeld is a small demo process: it arms a handful of
// one-shot timers on a ThreadDriver and serves their Prometheus metrics
// until signalled to stop.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/coreflux/tickwheel"
	"github.com/coreflux/tickwheel/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tickwheeld: %v\n", err)
		return 1
	}

	flagSet := flag.NewFlagSet("tickwheeld", flag.ContinueOnError)
	tickDuration := flagSet.Duration("tick-duration", cfg.TickDuration, "wheel tick duration")
	demoTimers := flagSet.Int("demo-timers", cfg.DemoTimers, "number of demo one-shot timers to arm")
	metricsAddr := flagSet.String("metrics-addr", cfg.MetricsAddr, "address to serve /metrics on")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tickwheeld: %v\n", err)
		return 1
	}

	driver := tickwheel.NewThreadDriver(*tickDuration)
	defer driver.Shutdown()

	for i := 1; i <= *demoTimers; i++ {
		n := i
		delay := time.Duration(n) * time.Second
		if _, err := driver.ScheduleOnce(delay, func() {
			tickwheel.DBG("tickwheeld: demo timer %d fired\n", n)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "tickwheeld: scheduling demo timer %d: %v\n", n, err)
			return 1
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: *metricsAddr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "tickwheeld: metrics server: %v\n", err)
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tickwheeld: metrics server shutdown: %v\n", err)
		return 1
	}
	return 0
}
