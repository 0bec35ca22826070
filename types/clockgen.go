package types

// ------------------------
// Clock generator (config/clockgen, clockgen/...)
// ------------------------

type ClockgenConfig struct {
	Bus      string        `json:"bus"`
	Addr     uint16        `json:"addr,omitempty"`
	XtalHz   uint32        `json:"xtal_hz,omitempty"`
	LoadPF   int           `json:"load_pf,omitempty"`  // 6, 8 or 10
	DriveMA  int           `json:"drive_ma,omitempty"` // 2, 4, 6 or 8
	Outputs  []ClockOutput `json:"outputs,omitempty"`
	Attempts int           `json:"attempts,omitempty"` // Configure retries while the chip initialises
}

type ClockOutput struct {
	Index   uint8  `json:"index"`
	Hz      uint32 `json:"hz"`
	Enabled bool   `json:"enabled"`
}

// ClockSet is the payload of clockgen/control/set. Hz 0 keeps the current
// frequency; Enabled nil keeps the current enable state.
type ClockSet struct {
	Index   uint8  `json:"index"`
	Hz      uint32 `json:"hz,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// ClockOutputState describes one output on clockgen/state.
type ClockOutputState struct {
	Index    uint8   `json:"index"`
	Hz       uint32  `json:"hz"`
	ActualHz float64 `json:"actual_hz"`
	PLL      string  `json:"pll"`
	Enabled  bool    `json:"enabled"`
}

// ClockState is retained on clockgen/state.
type ClockState struct {
	Link    Link               `json:"link"`
	Error   string             `json:"error,omitempty"`
	Outputs []ClockOutputState `json:"outputs"`
	TS      int64              `json:"ts_ms"`
}
