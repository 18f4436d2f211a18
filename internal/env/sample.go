package env

import "time"

// Sample represents a single environmental measurement (BME280).
type Sample struct {
	Temperature float64   `json:"temp_c"`       // °C
	Pressure    float64   `json:"pressure_hpa"` // hPa
	Humidity    float64   `json:"humidity_pct"` // %RH
	At          time.Time `json:"at"`
}
