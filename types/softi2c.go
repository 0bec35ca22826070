package types

// ------------------------
// Software I2C (config/softi2c)
// ------------------------

type SoftI2CConfig struct {
	// Backend selects the pin source: "fake", "sim", "rp2" or "periph".
	Backend string       `json:"backend"`
	Buses   []SoftI2CBus `json:"buses"`
}

type SoftI2CBus struct {
	ID           string `json:"id"`
	SCL          int    `json:"scl"`
	SDA          int    `json:"sda"`
	Pull         string `json:"pull,omitempty"`           // "up", "down", "" (external pull-ups)
	FreqHz       uint32 `json:"freq_hz,omitempty"`        // clock rate; default 100 kHz
	HalfPeriodUS int    `json:"half_period_us,omitempty"` // overrides FreqHz
	StretchLimit int    `json:"stretch_limit,omitempty"`  // default 100000 polls
}

// SoftI2CStats is published on heartbeat/softi2c/<id>.
type SoftI2CStats struct {
	Bus              string `json:"bus"`
	Transactions     uint32 `json:"transactions"`
	Nacks            uint32 `json:"nacks"`
	Timeouts         uint32 `json:"timeouts"`
	ArbitrationLosts uint32 `json:"arbitration_losts"`
	TS               int64  `json:"ts_ms"`
}

// ------------------------
// Heartbeat (config/heartbeat)
// ------------------------

type HeartbeatConfig struct {
	// Interval in seconds.
	Interval float64 `json:"interval"`
}
