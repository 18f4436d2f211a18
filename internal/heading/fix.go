package heading

// Fix represents a single heading/speed reference from the GPS, suitable
// for JSON and MQTT. It gives the magnetometer channel an independent
// sanity reference.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "2026-08-29"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Valid      bool    `json:"valid"`       // receiver reported an active fix
}
