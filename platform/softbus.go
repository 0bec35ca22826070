package platform

import (
	"sort"
	"sync"

	"clickcode-go/drivers/softi2c"
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

// BusStats is the counter snapshot of one software bus.
type BusStats struct {
	ID string
	softi2c.Stats
}

// Buses hands out I²C buses by id: software buses added with Add or AddLines,
// then the hardware buses of the fallback factory. Software buses are wrapped
// in a SharedI2C so several services can use one bus.
type Buses struct {
	pins     PinFactory
	hardware I2CBusFactory

	mu      sync.Mutex
	soft    map[string]*softi2c.Bus
	shared  map[string]*SharedI2C
	claimed map[int]string // pin -> bus id
}

// NewBuses returns a registry claiming pins from pins. hardware may be nil.
func NewBuses(pins PinFactory, hardware I2CBusFactory) *Buses {
	return &Buses{
		pins:     pins,
		hardware: hardware,
		soft:     map[string]*softi2c.Bus{},
		shared:   map[string]*SharedI2C{},
		claimed:  map[int]string{},
	}
}

// Add builds a software bus on GPIO numbers scl and sda.
func (b *Buses) Add(id string, scl, sda int, pull Pull, cfg softi2c.Config) (*softi2c.Bus, error) {
	if b.pins == nil {
		return nil, &errcode.E{C: errcode.NotReady, Op: "platform", Msg: "no pin factory"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range [2]int{scl, sda} {
		if owner, taken := b.claimed[n]; taken {
			return nil, &errcode.E{C: errcode.PinInUse, Op: "platform", Msg: "pin claimed by bus " + owner}
		}
	}
	if err := b.checkID(id); err != nil {
		return nil, err
	}
	sl, dl, err := Lines(b.pins, scl, sda, pull)
	if err != nil {
		return nil, err
	}
	b.claimed[scl], b.claimed[sda] = id, id
	return b.add(id, sl, dl, cfg), nil
}

// AddLines builds a software bus on existing lines.
func (b *Buses) AddLines(id string, scl, sda softi2c.Line, cfg softi2c.Config) (*softi2c.Bus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkID(id); err != nil {
		return nil, err
	}
	return b.add(id, scl, sda, cfg), nil
}

func (b *Buses) checkID(id string) error {
	if _, dup := b.soft[id]; dup || id == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "platform", Msg: "duplicate or empty bus id " + id}
	}
	return nil
}

// add registers a new bus. b.mu must be held.
func (b *Buses) add(id string, scl, sda softi2c.Line, cfg softi2c.Config) *softi2c.Bus {
	bus := softi2c.New(scl, sda, cfg)
	b.soft[id] = bus
	b.shared[id] = NewSharedI2C(bus)
	return bus
}

// ByID implements I2CBusFactory.
func (b *Buses) ByID(id string) (drivers.I2C, bool) {
	b.mu.Lock()
	s, ok := b.shared[id]
	b.mu.Unlock()
	if ok {
		return s, true
	}
	if b.hardware != nil {
		return b.hardware.ByID(id)
	}
	return nil, false
}

// Stats returns the counters of every software bus, ordered by id.
func (b *Buses) Stats() []BusStats {
	b.mu.Lock()
	out := make([]BusStats, 0, len(b.soft))
	for id, bus := range b.soft {
		out = append(out, BusStats{ID: id, Stats: bus.Stats()})
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
