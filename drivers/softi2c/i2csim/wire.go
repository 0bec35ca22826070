// Package i2csim simulates a two-wire open-drain bus with pull-up resistors
// and register-file peripherals, so a bit-banged master can be exercised on a
// host without hardware.
//
// Everything runs on the caller's goroutine: a level change made by the
// master is settled immediately and every attached Target reacts to the
// resulting edge before the master's call returns. Clock stretching is
// counted in master polls of SCL rather than in time.
package i2csim

import "clickcode-go/platform"

// Net selects one of the two bus lines.
type Net uint8

const (
	SCL Net = iota
	SDA
)

// Condition is a bus condition decoded from a line transition.
type Condition uint8

const (
	None Condition = iota
	Start
	RepeatedStart
	Stop
)

func (c Condition) String() string {
	switch c {
	case Start:
		return "S"
	case RepeatedStart:
		return "Sr"
	case Stop:
		return "P"
	default:
		return "-"
	}
}

// Event is one settled line transition.
type Event struct {
	SCL, SDA bool
	Cond     Condition
}

const (
	masterID = 0
	faultID  = 31
)

// Wire is the shared bus. Each participant can only pull a net low or let it
// go; a net reads high when nobody pulls it.
type Wire struct {
	// TraceLimit caps the recorded transitions and bits; the older half is
	// dropped when it is exceeded. Zero keeps everything.
	TraceLimit int

	pulls    [2]uint32
	level    [2]bool
	open     bool
	settling bool

	targets []*Target
	nextID  uint

	trace []Event
	bits  []bool

	drivenHigh int
}

// New returns an idle bus (both lines high).
func New() *Wire {
	return &Wire{level: [2]bool{true, true}, nextID: 1}
}

// Attach connects t to the bus.
func (w *Wire) Attach(t *Target) *Target {
	if w.nextID >= faultID {
		panic("i2csim: too many targets")
	}
	t.w = w
	t.id = w.nextID
	w.nextID++
	w.targets = append(w.targets, t)
	return t
}

// Master returns the master's view of SCL and SDA.
func (w *Wire) Master() (scl, sda *Line) {
	return &Line{w: w, net: SCL, id: masterID}, &Line{w: w, net: SDA, id: masterID}
}

// Pins returns the master's lines as GPIO pins that follow the push-pull
// direction model (input = released, output low = pulled).
func (w *Wire) Pins() (scl, sda *Pin) {
	return &Pin{w: w, net: SCL, id: masterID, n: 0}, &Pin{w: w, net: SDA, id: masterID, n: 1}
}

// Level reads a net without counting as a master poll.
func (w *Wire) Level(n Net) bool { return w.level[n] }

// Hold pulls n low on behalf of a faulty participant until Let is called.
func (w *Wire) Hold(n Net) { w.set(n, faultID, true) }

// Let releases a Hold.
func (w *Wire) Let(n Net) { w.set(n, faultID, false) }

// Open reports whether a START has been seen without a following STOP.
func (w *Wire) Open() bool { return w.open }

// Trace returns the recorded transitions.
func (w *Wire) Trace() []Event { return append([]Event(nil), w.trace...) }

// Conditions returns the START/repeated START/STOP sequence seen so far.
func (w *Wire) Conditions() []Condition {
	var out []Condition
	for _, ev := range w.trace {
		if ev.Cond != None {
			out = append(out, ev.Cond)
		}
	}
	return out
}

// Bits returns SDA as sampled on every rising SCL edge.
func (w *Wire) Bits() []bool { return append([]bool(nil), w.bits...) }

// DrivenHigh counts the times a master pin actively drove a net high.
func (w *Wire) DrivenHigh() int { return w.drivenHigh }

// ResetTrace clears the recorded transitions and bits.
func (w *Wire) ResetTrace() {
	w.trace = w.trace[:0]
	w.bits = w.bits[:0]
}

func (w *Wire) set(n Net, id uint, low bool) {
	if low {
		w.pulls[n] |= 1 << id
	} else {
		w.pulls[n] &^= 1 << id
	}
	w.settle()
}

// settle applies level changes until the bus is stable. Reactions of targets
// that change a line are picked up by the next iteration, not by recursion.
func (w *Wire) settle() {
	if w.settling {
		return
	}
	w.settling = true
	defer func() { w.settling = false }()
	for {
		cur := [2]bool{w.pulls[SCL] == 0, w.pulls[SDA] == 0}
		if cur == w.level {
			return
		}
		prev := w.level
		w.level = cur

		ev := Event{SCL: cur[SCL], SDA: cur[SDA]}
		clockHigh := prev[SCL] && cur[SCL]
		switch {
		case clockHigh && prev[SDA] && !cur[SDA]:
			ev.Cond = Start
			if w.open {
				ev.Cond = RepeatedStart
			}
			w.open = true
		case clockHigh && !prev[SDA] && cur[SDA]:
			ev.Cond = Stop
			w.open = false
		case !prev[SCL] && cur[SCL]:
			w.bits = append(w.bits, cur[SDA])
		}
		w.trace = append(w.trace, ev)
		if w.TraceLimit > 0 {
			w.trace = trim(w.trace, w.TraceLimit)
			w.bits = trim(w.bits, w.TraceLimit)
		}

		for _, t := range w.targets {
			t.edge(prev, cur)
		}
	}
}

func trim[T any](s []T, limit int) []T {
	if len(s) <= limit {
		return s
	}
	return append(s[:0], s[len(s)/2:]...)
}

// poll is a master read of n. Reading SCL advances every clock stretch.
func (w *Wire) poll(n Net) bool {
	if n == SCL {
		for _, t := range w.targets {
			t.tick()
		}
	}
	return w.level[n]
}

// Line is an open-drain handle on one net.
type Line struct {
	w   *Wire
	net Net
	id  uint
}

func (l *Line) Release() { l.w.set(l.net, l.id, false) }
func (l *Line) PullLow() { l.w.set(l.net, l.id, true) }
func (l *Line) Get() bool {
	return l.w.poll(l.net)
}

// Pin is a master net seen as a push-pull GPIO. Configuring it as an input
// releases the net; an output low pulls it. Driving an output high is
// recorded as a fault (it would fight the other participants) and otherwise
// behaves like a release.
type Pin struct {
	w   *Wire
	net Net
	id  uint
	n   int
	out bool
}

func (p *Pin) ConfigureInput(platform.Pull) error {
	p.out = false
	p.w.set(p.net, p.id, false)
	return nil
}

func (p *Pin) ConfigureOutput(initial bool) error {
	p.out = true
	p.Set(initial)
	return nil
}

func (p *Pin) Set(level bool) {
	if !p.out {
		return
	}
	if level {
		p.w.drivenHigh++
	}
	p.w.set(p.net, p.id, !level)
}

func (p *Pin) Get() bool   { return p.w.poll(p.net) }
func (p *Pin) Toggle()     { p.Set(!p.Get()) }
func (p *Pin) Number() int { return p.n }
