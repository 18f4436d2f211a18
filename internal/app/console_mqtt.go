package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/xwdoor/bubble/internal/config"
	"github.com/xwdoor/bubble/internal/env"
	"github.com/xwdoor/bubble/internal/fusion"
	"github.com/xwdoor/bubble/internal/heading"
)

// RunConsoleMQTT subscribes to every bubble topic and prints formatted
// lines until interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	eventsToken := client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e fusion.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("console: event unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[BUBBLE] %-14s ROLL=%7.2f PITCH=%7.2f at=%s\n",
			e.State, e.Coordinate.X, e.Coordinate.Y, e.At.Format("15:04:05.000"),
		)
	})
	eventsToken.Wait()
	if eventsToken.Error() != nil {
		return eventsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicEvents)

	jitterToken := client.Subscribe(cfg.TopicJitter, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r jitterReport
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: jitter unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[JITTER] %-14s n=%d mean=%.2fms min=%.2fms max=%.2fms\n",
			r.Channel, r.Count, r.Mean, r.Min, r.Max,
		)
	})
	jitterToken.Wait()
	if jitterToken.Error() != nil {
		return jitterToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicJitter)

	headingToken := client.Subscribe(cfg.TopicHeading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f heading.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("console: heading unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[HEAD  ] time=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° valid=%t\n",
			f.Time, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Valid,
		)
	})
	headingToken.Wait()
	if headingToken.Error() != nil {
		return headingToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicHeading)

	envToken := client.Subscribe(cfg.TopicEnv, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: env unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[ENV   ] temp=%.1f°C pressure=%.1fhPa humidity=%.1f%%\n",
			s.Temperature, s.Pressure, s.Humidity,
		)
	})
	envToken.Wait()
	if envToken.Error() != nil {
		return envToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicEnv)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
