package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/xwdoor/bubble/internal/config"
	"github.com/xwdoor/bubble/internal/heading"
)

// RunHeadingProducer opens the GPS serial port, parses NMEA sentences, and
// publishes heading fixes as JSON to the heading topic. The fixes serve as
// an independent reference for the magnetometer channel.
func RunHeadingProducer() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTClientIDHeading)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("heading: connected to MQTT broker at %s", cfg.MQTTBroker)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("heading: serial port opened on %s at %d baud", cfg.GPSSerialPort, cfg.GPSBaudRate)

	reader := bufio.NewReader(port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("heading: serial read error: %v", err)
			return err
		}

		fix, ok := parseHeadingLine(line)
		if !ok {
			// Non-RMC sentence or serial noise; the stream keeps going.
			continue
		}

		payload, err := json.Marshal(fix)
		if err != nil {
			log.Printf("heading: JSON marshal error: %v", err)
			continue
		}

		if token := client.Publish(cfg.TopicHeading, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("heading: publish error: %v", token.Error())
			continue
		}

		log.Printf("heading: published fix: %+v", fix)
	}
}

// parseHeadingLine parses one serial line into a heading fix. ok is false
// for blank lines, non-NMEA noise, unparsable sentences and every sentence
// type other than RMC.
func parseHeadingLine(line string) (heading.Fix, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return heading.Fix{}, false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return heading.Fix{}, false
	}

	m, ok := sentence.(nmea.RMC)
	if !ok {
		return heading.Fix{}, false
	}
	return fixFromRMC(m), true
}

// fixFromRMC maps one RMC sentence onto the published heading fix.
func fixFromRMC(m nmea.RMC) heading.Fix {
	return heading.Fix{
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		CourseDeg:  m.Course,
		Valid:      m.Validity == nmea.ValidRMC,
	}
}
