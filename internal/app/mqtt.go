package app

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/xwdoor/bubble/internal/config"
	"github.com/xwdoor/bubble/internal/fusion"
	"github.com/xwdoor/bubble/internal/sample"
)

// connectMQTT dials the configured broker with the given client ID.
func connectMQTT(clientID string) (mqtt.Client, error) {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

// jitterReport is the wire shape for jitter diagnostics: the channel the
// ring belongs to plus its statistics.
type jitterReport struct {
	Channel sample.Channel `json:"channel"`
	fusion.JitterStats
}
