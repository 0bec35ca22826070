//go:build linux && !tinygo && !rp2040 && !rp2350

package platform

import (
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Open returns the pin factory for backend. "periph" uses the host's GPIO
// through periph.io; "fake" (or "") returns host fakes.
func Open(backend string) (PinFactory, error) {
	switch backend {
	case "", BackendFake:
		return DefaultPinFactory(), nil
	case BackendPeriph:
		return NewPeriphPinFactory()
	}
	return nil, ErrBackend
}

// NewPeriphPinFactory initialises periph host drivers and maps pin numbers to
// "GPIO<n>" names (Raspberry Pi BCM numbering).
func NewPeriphPinFactory() (PinFactory, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return periphPinFactory{}, nil
}

type periphPinFactory struct{}

func (periphPinFactory) ByNumber(n int) (GPIOPin, bool) {
	p := gpioreg.ByName("GPIO" + strconv.Itoa(n))
	if p == nil {
		return nil, false
	}
	return &periphPin{p: p, n: n}, true
}

type periphPin struct {
	p gpio.PinIO
	n int
}

func (r *periphPin) ConfigureInput(pull Pull) error {
	gp := gpio.Float
	switch pull {
	case PullUp:
		gp = gpio.PullUp
	case PullDown:
		gp = gpio.PullDown
	}
	return r.p.In(gp, gpio.NoEdge)
}

func (r *periphPin) ConfigureOutput(initial bool) error {
	return r.p.Out(gpio.Level(initial))
}

func (r *periphPin) Set(level bool) { _ = r.p.Out(gpio.Level(level)) }
func (r *periphPin) Get() bool      { return r.p.Read() == gpio.High }
func (r *periphPin) Toggle()        { r.Set(!r.Get()) }
func (r *periphPin) Number() int    { return r.n }
