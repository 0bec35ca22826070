// Package platform supplies GPIO pins and hardware buses per build target and
// the open-drain adapter the software I2C engine runs on.
//
// Build targets:
//
//	rp2040 || rp2350     machine.Pin and machine.I2C
//	linux && !tinygo     periph.io GPIO ("periph" backend) or host fakes
//	anything else        host fakes only
package platform

import (
	"sync"

	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

// Backend names accepted by Open.
const (
	BackendFake   = "fake"
	BackendRP2    = "rp2"
	BackendPeriph = "periph"
)

var ErrBackend = &errcode.E{C: errcode.Unsupported, Op: "platform", Msg: "backend not available on this build"}

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Toggle()
	Number() int
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// I2CBusFactory injects configured hardware I²C instances by id.
type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// ----------------------------- Open drain ------------------------------------

type odMode uint8

const (
	odUnknown odMode = iota
	odReleased
	odLow
)

// OpenDrain emulates an open-drain line on a push-pull GPIO by switching its
// direction: input lets the external pull-up take the line high, output-low
// pulls it down. The pin is never driven high.
type OpenDrain struct {
	p    GPIOPin
	pull Pull
	mode odMode
}

// NewOpenDrain wraps p. pull is applied while released; use PullUp when the
// board has no external pull-up resistors.
func NewOpenDrain(p GPIOPin, pull Pull) *OpenDrain {
	return &OpenDrain{p: p, pull: pull}
}

// Release switches the pin to input. A failed switch leaves the mode unknown
// so the next call retries.
func (o *OpenDrain) Release() {
	if o.mode == odReleased {
		return
	}
	o.mode = odUnknown
	if err := o.p.ConfigureInput(o.pull); err == nil {
		o.mode = odReleased
	}
}

// PullLow switches the pin to output low, retrying after a failed switch.
func (o *OpenDrain) PullLow() {
	if o.mode == odLow {
		return
	}
	o.mode = odUnknown
	if err := o.p.ConfigureOutput(false); err == nil {
		o.mode = odLow
	}
}

func (o *OpenDrain) Get() bool { return o.p.Get() }

// Pin returns the wrapped GPIO.
func (o *OpenDrain) Pin() GPIOPin { return o.p }

// ----------------------------- Shared bus ------------------------------------

// SharedI2C serialises transactions from several owners onto one bus.
type SharedI2C struct {
	mu  sync.Mutex
	bus drivers.I2C
}

func NewSharedI2C(bus drivers.I2C) *SharedI2C { return &SharedI2C{bus: bus} }

func (s *SharedI2C) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Tx(addr, w, r)
}

// ----------------------------- Pins by number --------------------------------

// Lines claims the two pins of a software I2C bus and wraps them.
func Lines(f PinFactory, scl, sda int, pull Pull) (*OpenDrain, *OpenDrain, error) {
	sp, ok := f.ByNumber(scl)
	if !ok {
		return nil, nil, &errcode.E{C: errcode.UnknownPin, Op: "platform", Msg: "scl"}
	}
	dp, ok := f.ByNumber(sda)
	if !ok {
		return nil, nil, &errcode.E{C: errcode.UnknownPin, Op: "platform", Msg: "sda"}
	}
	if scl == sda {
		return nil, nil, &errcode.E{C: errcode.PinInUse, Op: "platform", Msg: "scl and sda share a pin"}
	}
	return NewOpenDrain(sp, pull), NewOpenDrain(dp, pull), nil
}
