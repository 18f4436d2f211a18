// Copyright (c) 2026 xwdoor
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"fmt"
	"log"
	"time"

	"github.com/xwdoor/bubble/internal/fusion"
	"github.com/xwdoor/bubble/internal/sample"
)

// RunMockConsole runs the full pipeline over the mock source with a plain
// listener callback printing each event to stdout. No broker, no config
// file; useful as a smoke test of the fusion path.
func RunMockConsole() error {
	deliver := fusion.DelivererFunc(func(e fusion.Event) {
		fmt.Printf(
			"STATE=%-14s  ROLL=%7.2f  PITCH=%7.2f\n",
			e.State, e.Coordinate.X, e.Coordinate.Y,
		)
	})

	diag := func(ch sample.Channel, s fusion.JitterStats) {
		log.Printf("console: %s jitter n=%d mean=%.2fms min=%.2fms max=%.2fms",
			ch, s.Count, s.Mean, s.Min, s.Max)
	}

	pipe, err := fusion.New(fusion.Config{}, deliver, diag)
	if err != nil {
		return err
	}
	if err := pipe.Start(); err != nil {
		return err
	}
	defer pipe.Stop()

	src := sample.NewMockSource()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		for _, ch := range sample.Channels {
			s, err := src.Read(ch)
			if err != nil {
				return err
			}
			if err := pipe.Feed(ch, s); err != nil {
				return err
			}
		}
	}
	return nil
}
