// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package config loads the demo command's settings from a .env file or
// the process environment.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the settings tickwheeld needs to stand up a ThreadDriver
// and its metrics endpoint.
type Config struct {
	// TickDuration is how long one wheel tick lasts in wall-clock time.
	TickDuration time.Duration `env:"TICKWHEELD_TICK_DURATION" env-default:"1ms"`
	// DemoTimers is how many one-shot demo timers tickwheeld arms at
	// startup, spaced one second apart, before it starts serving metrics.
	DemoTimers int `env:"TICKWHEELD_DEMO_TIMERS" env-default:"5"`
	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint.
	MetricsAddr string `env:"TICKWHEELD_METRICS_ADDR" env-default:":9090"`
}

// Load reads Config from a .env file in the working directory, falling
// back to the process environment when no such file exists.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(".env", &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	return cfg, nil
}
