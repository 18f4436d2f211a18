package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/xwdoor/bubble/internal/config"
	"github.com/xwdoor/bubble/internal/fusion"
	"github.com/xwdoor/bubble/internal/sample"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RunWeb subscribes to the event and jitter topics and serves the latest
// snapshots over a JSON API plus a live WebSocket event stream.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu         sync.RWMutex
		lastEvent  fusion.Event
		haveEvent  bool
		lastJitter = map[sample.Channel]fusion.JitterStats{}
	)

	// Connected WebSocket clients; broadcast and close are serialized by
	// wsMu so nothing else ever writes to a connection concurrently.
	var (
		wsMu      sync.Mutex
		wsClients = map[*websocket.Conn]struct{}{}
	)

	client, err := connectMQTT(cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	eventsToken := client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e fusion.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("web: event unmarshal error: %v", err)
			return
		}

		mu.Lock()
		lastEvent = e
		haveEvent = true
		mu.Unlock()

		wsMu.Lock()
		for conn := range wsClients {
			if err := conn.WriteJSON(e); err != nil {
				conn.Close()
				delete(wsClients, conn)
			}
		}
		wsMu.Unlock()
	})
	eventsToken.Wait()
	if eventsToken.Error() != nil {
		return eventsToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicEvents)

	jitterToken := client.Subscribe(cfg.TopicJitter, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r jitterReport
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("web: jitter unmarshal error: %v", err)
			return
		}

		mu.Lock()
		lastJitter[r.Channel] = r.JitterStats
		mu.Unlock()
	})
	jitterToken.Wait()
	if jitterToken.Error() != nil {
		return jitterToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicJitter)

	// JSON API: latest orientation event
	http.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveEvent {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastEvent); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// JSON API: latest jitter stats per channel
	http.HandleFunc("/api/jitter", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastJitter); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// Live event stream
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}

		wsMu.Lock()
		wsClients[conn] = struct{}{}
		wsMu.Unlock()

		// Catch the new client up with the current state.
		mu.RLock()
		if haveEvent {
			wsMu.Lock()
			if err := conn.WriteJSON(lastEvent); err != nil {
				log.Printf("web: websocket write error: %v", err)
			}
			wsMu.Unlock()
		}
		mu.RUnlock()

		// Drain reads until the peer goes away.
		go func() {
			defer func() {
				wsMu.Lock()
				delete(wsClients, conn)
				wsMu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Printf("web: websocket error: %v", err)
					}
					return
				}
			}
		}()
	})

	// Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	log.Printf("web: server listening on %s", cfg.WebAddr)
	return http.ListenAndServe(cfg.WebAddr, nil)
}
