// Copyright (c) 2026 xwdoor
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"

	"github.com/xwdoor/bubble/internal/app"
	"github.com/xwdoor/bubble/internal/config"
)

func main() {
	configPath := flag.String("config", "./bubble_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting bubble display (MQTT subscriber → SSD1306)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
