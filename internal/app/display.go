package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/xwdoor/bubble/internal/config"
	"github.com/xwdoor/bubble/internal/fusion"
	"github.com/xwdoor/bubble/internal/orientation"
)

// Bubble geometry on the 128x64 panel: the crosshair center, how far the
// bubble travels, and the tilt that pins it to the edge.
const (
	displayW = 128
	displayH = 64

	bubbleCenterX = 64
	bubbleCenterY = 32
	bubbleRadius  = 5
	bubbleSpanX   = 56
	bubbleSpanY   = 24
	bubbleMaxTilt = 45.0
)

// RunDisplay renders the latest orientation event as a spirit-level bubble
// on an SSD1306 OLED: a crosshair, the bubble positioned by roll/pitch, and
// the state name along the bottom row.
func RunDisplay() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("display: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("display: I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("display: init: %w", err)
	}
	log.Println("display: panel initialized")

	var (
		mu        sync.RWMutex
		lastEvent fusion.Event
		haveEvent bool
	)

	client, err := connectMQTT(cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e fusion.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("display: event unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastEvent = e
		haveEvent = true
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicEvents)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting render loop")

	for range ticker.C {
		mu.RLock()
		e, have := lastEvent, haveEvent
		mu.RUnlock()

		img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
		if have {
			renderBubble(img, e)
		} else {
			renderWaiting(img)
		}

		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			log.Printf("display: draw error: %v", err)
		}
	}
	return nil
}

// renderBubble draws the crosshair, the bubble at the event's coordinate,
// and the orientation state along the bottom row.
func renderBubble(img *image1bit.VerticalLSB, e fusion.Event) {
	// Crosshair with a small ring marking the flat region.
	for x := bubbleCenterX - bubbleSpanX; x <= bubbleCenterX+bubbleSpanX; x++ {
		img.SetBit(x, bubbleCenterY, image1bit.On)
	}
	for y := bubbleCenterY - bubbleSpanY; y <= bubbleCenterY+bubbleSpanY; y++ {
		img.SetBit(bubbleCenterX, y, image1bit.On)
	}
	drawRing(img, bubbleCenterX, bubbleCenterY, bubbleRadius+3)

	// An unknown orientation (degenerate input) has no meaningful position,
	// so only the label changes.
	if e.State != orientation.Unknown {
		bx := bubbleCenterX + offset(e.Coordinate.X, bubbleSpanX)
		by := bubbleCenterY + offset(e.Coordinate.Y, bubbleSpanY)
		drawDisc(img, bx, by, bubbleRadius)
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	drawer.Dot = fixed.P(0, 63)
	drawer.DrawBytes([]byte(string(e.State)))
}

func renderWaiting(img *image1bit.VerticalLSB) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(30, 26)
	drawer.DrawBytes([]byte("bubble"))

	drawer.Dot = fixed.P(30, 43)
	drawer.DrawBytes([]byte("Waiting..."))
}

// offset maps a tilt in degrees onto pixels of bubble travel, clamped so
// the bubble pins to the edge past bubbleMaxTilt.
func offset(deg float64, span int) int {
	if deg > bubbleMaxTilt {
		deg = bubbleMaxTilt
	}
	if deg < -bubbleMaxTilt {
		deg = -bubbleMaxTilt
	}
	return int(deg / bubbleMaxTilt * float64(span))
}

func drawDisc(img *image1bit.VerticalLSB, cx, cy, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.SetBit(cx+dx, cy+dy, image1bit.On)
			}
		}
	}
}

func drawRing(img *image1bit.VerticalLSB, cx, cy, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d := dx*dx + dy*dy
			if d <= r*r && d > (r-1)*(r-1) {
				img.SetBit(cx+dx, cy+dy, image1bit.On)
			}
		}
	}
}
