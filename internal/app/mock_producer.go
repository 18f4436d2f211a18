// Copyright (c) 2026 xwdoor
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"fmt"
	"log"
	"sync"

	"github.com/xwdoor/bubble/internal/config"
	"github.com/xwdoor/bubble/internal/sample"
)

// RunMockProducer streams synthesized samples through the real fusion
// pipeline to MQTT, for development without hardware.
func RunMockProducer() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTClientIDProducer)
	if err != nil {
		return fmt.Errorf("mock producer: MQTT connect: %w", err)
	}
	defer client.Disconnect(250)
	log.Printf("mock producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	return produce("mock producer", client, sample.NewMockSource(), stop, &wg)
}
