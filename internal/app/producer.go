// Copyright (c) 2026 xwdoor
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/xwdoor/bubble/internal/config"
	"github.com/xwdoor/bubble/internal/fusion"
	"github.com/xwdoor/bubble/internal/sample"
	"github.com/xwdoor/bubble/internal/sensors"
)

// RunProducer reads the MPU-9250 and streams orientation events plus
// jitter and environment diagnostics over MQTT until interrupted.
func RunProducer() error {
	cfg := config.Get()

	src, err := sensors.NewMPU9250(cfg.IMUI2CBus, cfg.IMUI2CAddr, cfg.IMUAccelRange)
	if err != nil {
		return fmt.Errorf("producer: IMU init: %w", err)
	}
	defer src.Close()

	client, err := connectMQTT(cfg.MQTTClientIDProducer)
	if err != nil {
		return fmt.Errorf("producer: MQTT connect: %w", err)
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	stop := make(chan struct{})
	var wg sync.WaitGroup

	// Environment diagnostic on its own slow ticker; a missing sensor
	// disables it but never stops the producer.
	wg.Add(1)
	go func() {
		defer wg.Done()
		publishEnv(client, stop)
	}()

	return produce("producer", client, src, stop, &wg)
}

// produce runs the fusion pipeline over src: one ticker goroutine per
// channel feeds samples at the configured period, events and jitter
// snapshots go out through client, and an interrupt winds everything down.
// produce closes stop when shutdown begins so side loops sharing wg can
// wind down with the sample loops.
func produce(name string, client mqtt.Client, src sample.Source, stop chan struct{}, wg *sync.WaitGroup) error {
	cfg := config.Get()

	deliver := fusion.DelivererFunc(func(e fusion.Event) {
		payload, err := json.Marshal(e)
		if err != nil {
			log.Printf("%s: event marshal error: %v", name, err)
			return
		}
		if token := client.Publish(cfg.TopicEvents, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("%s: MQTT publish error (events): %v", name, token.Error())
		}
	})

	diag := func(ch sample.Channel, stats fusion.JitterStats) {
		payload, err := json.Marshal(jitterReport{Channel: ch, JitterStats: stats})
		if err != nil {
			log.Printf("%s: jitter marshal error: %v", name, err)
			return
		}
		if token := client.Publish(cfg.TopicJitter, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("%s: MQTT publish error (jitter): %v", name, token.Error())
		}
	}

	period := time.Duration(cfg.SamplingPeriodMS) * time.Millisecond
	pipe, err := fusion.New(fusion.Config{
		WindowSize:     cfg.WindowSize,
		RingSize:       cfg.JitterRingSize,
		SamplingPeriod: period,
	}, deliver, diag)
	if err != nil {
		return fmt.Errorf("%s: pipeline: %w", name, err)
	}
	if err := pipe.Start(); err != nil {
		return fmt.Errorf("%s: pipeline start: %w", name, err)
	}

	for _, ch := range sample.Channels {
		wg.Add(1)
		go func(ch sample.Channel) {
			defer wg.Done()

			ticker := time.NewTicker(period)
			defer ticker.Stop()

			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					s, err := src.Read(ch)
					if err != nil {
						log.Printf("%s: %s read error: %v", name, ch, err)
						continue
					}
					if err := pipe.Feed(ch, s); err != nil {
						log.Printf("%s: %s feed error: %v", name, ch, err)
					}
				}
			}
		}(ch)
	}

	log.Printf("%s: sample loops running at %v per channel", name, period)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("%s: shutting down", name)
	close(stop)
	wg.Wait()
	pipe.Stop()
	return nil
}

// publishEnv samples the BME280 every 10 seconds and publishes the reading.
// The first failed read disables the loop.
func publishEnv(client mqtt.Client, stop <-chan struct{}) {
	cfg := config.Get()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s, err := sensors.ReadEnv()
			if err != nil {
				log.Printf("producer: env sensor unavailable, disabling diagnostics: %v", err)
				return
			}
			payload, err := json.Marshal(s)
			if err != nil {
				log.Printf("producer: env marshal error: %v", err)
				continue
			}
			if token := client.Publish(cfg.TopicEnv, 0, true, payload); token.Wait() && token.Error() != nil {
				log.Printf("producer: MQTT publish error (env): %v", token.Error())
			}
		}
	}
}
