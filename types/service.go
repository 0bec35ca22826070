package types

// ------------------------
// Common service state (retained on <service>/status)
// ------------------------

type ServiceStatus struct {
	Level  string `json:"level"`  // "idle", "ready", "degraded", "stopped"
	Status string `json:"status"` // short code, e.g. "configured"
	Error  string `json:"error,omitempty"`
	TS     int64  `json:"ts_ms"`
}

// Link is the link/state reported for a device.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

// ------------------------
// Generic replies
// ------------------------

type OKReply struct {
	OK     bool `json:"ok"`
	Result any  `json:"result,omitempty"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
