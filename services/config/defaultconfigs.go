package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// Pico with a Click shield: both boards share one software bus on GP6/GP7.
const cfgPico = `{
  "softi2c": {
    "backend": "rp2",
    "buses": [
      {"id": "soft0", "scl": 7, "sda": 6, "pull": "up"}
    ]
  },
  "touch": {
    "bus": "soft0",
    "poll_ms": 50,
    "sensitivity": 32,
    "link_leds": true
  },
  "clockgen": {
    "bus": "soft0",
    "drive_ma": 8,
    "outputs": [
      {"index": 0, "hz": 10000000, "enabled": true},
      {"index": 1, "hz": 32768, "enabled": true}
    ]
  },
  "heartbeat": {
    "interval": 2
  }
}`

// Raspberry Pi, BCM numbering, external pull-ups on the Click board.
const cfgRPi = `{
  "softi2c": {
    "backend": "periph",
    "buses": [
      {"id": "soft0", "scl": 23, "sda": 24, "half_period_us": 10}
    ]
  },
  "touch": {"bus": "soft0", "poll_ms": 100},
  "clockgen": {
    "bus": "soft0",
    "outputs": [{"index": 0, "hz": 1000000, "enabled": true}]
  },
  "heartbeat": {"interval": 5}
}`

// Host run against simulated peripherals.
const cfgSim = `{
  "softi2c": {
    "backend": "sim",
    "buses": [
      {"id": "soft0", "stretch_limit": 1000}
    ]
  },
  "touch": {"bus": "soft0", "poll_ms": 200},
  "clockgen": {
    "bus": "soft0",
    "outputs": [{"index": 0, "hz": 25000000, "enabled": true}]
  },
  "heartbeat": {"interval": 1}
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"rpi":  []byte(cfgRPi),
	"sim":  []byte(cfgSim),
}
