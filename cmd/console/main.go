// Copyright (c) 2026 xwdoor
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"log"

	"github.com/xwdoor/bubble/internal/app"
)

func main() {
	log.Println("starting bubble (mock console)")

	if err := app.RunMockConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
