package types

// ------------------------
// Capacitive touch (config/touch, touch/...)
// ------------------------

type TouchConfig struct {
	Bus         string  `json:"bus"`
	Addr        uint16  `json:"addr,omitempty"`
	PollMS      int     `json:"poll_ms,omitempty"`
	Sensitivity uint8   `json:"sensitivity,omitempty"` // 1..128, power of two
	Thresholds  []uint8 `json:"thresholds,omitempty"`
	Inputs      uint8   `json:"inputs,omitempty"` // enable mask, default all
	MultiTouch  uint8   `json:"multi_touch,omitempty"`
	LinkLEDs    bool    `json:"link_leds,omitempty"`
}

// TouchState is retained on touch/state.
type TouchState struct {
	Touched uint8 `json:"touched"` // bit n = input n+1
	TS      int64 `json:"ts_ms"`
}

// TouchEvent is published on touch/event for every input edge.
type TouchEvent struct {
	Input   int   `json:"input"` // 1-based, as printed on the board
	Pressed bool  `json:"pressed"`
	TS      int64 `json:"ts_ms"`
}

// TouchCalibrate is the payload of touch/control/calibrate.
type TouchCalibrate struct {
	Mask uint8 `json:"mask"`
}
