//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"tinygo.org/x/drivers"
)

// ----------------------------- I²C (host) ------------------------------------

type hostI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// DefaultI2CFactory has no hardware buses on host builds; every Click board
// runs on the software bus.
func DefaultI2CFactory() I2CBusFactory {
	return &hostI2CFactory{buses: map[string]drivers.I2C{}}
}

// ----------------------------- GPIO (host) -----------------------------------

// FakePin is a host GPIO with a weak pull model: an input with a pull resistor
// settles to the pull level unless something external drives it (Drive).
type FakePin struct {
	mu       sync.RWMutex
	number   int
	level    bool
	modeOut  bool
	external *bool

	// Counters for tests.
	drivesHigh int
	reconfigs  int
}

func (p *FakePin) ConfigureInput(pull Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.reconfigs++
	switch {
	case p.external != nil:
		p.level = *p.external
	case pull == PullUp:
		p.level = true
	case pull == PullDown:
		p.level = false
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.reconfigs++
	p.level = initial
	if initial {
		p.drivesHigh++
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	if p.modeOut {
		p.level = level
		if level {
			p.drivesHigh++
		}
	}
	p.mu.Unlock()
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Toggle() { p.Set(!p.Get()) }

func (p *FakePin) Number() int { return p.number }

// Drive simulates an external device holding the line while the pin is an
// input. Pass nil to let go.
func (p *FakePin) Drive(level *bool) {
	p.mu.Lock()
	p.external = level
	if !p.modeOut && level != nil {
		p.level = *level
	}
	p.mu.Unlock()
}

// Output reports whether the pin is currently configured as an output.
func (p *FakePin) Output() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// DrivesHigh counts the times the pin was actively driven high.
func (p *FakePin) DrivesHigh() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.drivesHigh
}

// Reconfigs counts direction changes.
func (p *FakePin) Reconfigs() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reconfigs
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (GPIOPin, bool) {
	return f.pin(n), true
}

// Get exposes the underlying *FakePin for tests.
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

func (f *HostPinFactory) pin(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n}
		f.pins[n] = p
	}
	return p
}

// DefaultPinFactory provides a host GPIO factory.
func DefaultPinFactory() PinFactory {
	return &HostPinFactory{pins: make(map[int]*FakePin)}
}
