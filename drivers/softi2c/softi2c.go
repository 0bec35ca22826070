// Package softi2c implements an I2C master by bit-banging two open-drain GPIO
// lines. It is meant for boards where the sensor is not wired to a hardware
// I2C controller.
//
//	bus := softi2c.New(scl, sda, softi2c.Config{})
//	err := bus.ReadRegister(0x28, 0x03, buf[:1])
//
// The lines are never driven high: a one is produced by releasing the line
// and letting the external pull-up float it (see Line). Every wait on the
// clock line is bounded by Config.StretchLimit polls, so a peer that holds SCL
// low forever surfaces as a timeout instead of a hang.
//
// A Bus is not safe for concurrent use. Give each bus a single owner.
package softi2c

import (
	"sync/atomic"
	"time"

	"clickcode-go/errcode"
)

// Line is one open-drain signal.
type Line interface {
	// Release lets the pull-up take the line high. It never drives high.
	Release()
	// PullLow drives the line to logic 0.
	PullLow()
	// Get samples the current level.
	Get() bool
}

// Defaults approximate standard mode (100 kHz).
const (
	DefaultHalfPeriod   = 5 * time.Microsecond
	DefaultStretchLimit = 100000
)

// Errors returned by the bus primitives. They carry an errcode.Code so callers
// can test with errors.Is(err, errcode.Timeout) as well as with the sentinels.
var (
	ErrTimeout         error = &errcode.E{C: errcode.Timeout, Op: "softi2c", Msg: "clock held low"}
	ErrArbitrationLost error = &errcode.E{C: errcode.ArbitrationLost, Op: "softi2c", Msg: "line did not read back"}
	ErrNack            error = &errcode.E{C: errcode.Nack, Op: "softi2c", Msg: "no acknowledge"}
	ErrAddress         error = &errcode.E{C: errcode.InvalidParams, Op: "softi2c", Msg: "address out of 7-bit range"}
)

// Config controls timing. All fields are optional.
type Config struct {
	// HalfPeriod is the delay between edges. Default 5 µs.
	HalfPeriod time.Duration
	// StretchLimit bounds the polls spent waiting for SCL to rise.
	// Default 100000.
	StretchLimit int
	// Delay performs the inter-edge wait. Defaults to time.Sleep; tests and
	// simulations pass a no-op.
	Delay func(time.Duration)
}

// Stats is a snapshot of bus counters.
type Stats struct {
	Transactions     uint32
	Nacks            uint32
	Timeouts         uint32
	ArbitrationLosts uint32
}

// Bus is a bit-banged I2C master.
type Bus struct {
	scl, sda Line

	half  time.Duration
	limit int
	delay func(time.Duration)

	// started records an open transaction; the next Start is a repeated START.
	started bool

	reg [1]byte

	txns, nacks, timeouts, lost atomic.Uint32
}

// New returns a bus over the given lines and releases both of them.
func New(scl, sda Line, cfgs ...Config) *Bus {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.HalfPeriod <= 0 {
		c.HalfPeriod = DefaultHalfPeriod
	}
	if c.StretchLimit <= 0 {
		c.StretchLimit = DefaultStretchLimit
	}
	if c.Delay == nil {
		c.Delay = time.Sleep
	}
	b := &Bus{
		scl:   scl,
		sda:   sda,
		half:  c.HalfPeriod,
		limit: c.StretchLimit,
		delay: c.Delay,
	}
	sda.Release()
	scl.Release()
	return b
}

// Started reports whether a START is open.
func (b *Bus) Started() bool { return b.started }

// Stats returns a snapshot of the counters. Safe to call from any goroutine.
func (b *Bus) Stats() Stats {
	return Stats{
		Transactions:     b.txns.Load(),
		Nacks:            b.nacks.Load(),
		Timeouts:         b.timeouts.Load(),
		ArbitrationLosts: b.lost.Load(),
	}
}

func (b *Bus) wait() { b.delay(b.half) }

// releaseSCL lets SCL go and polls until it reads high, allowing the peer to
// stretch the clock for at most limit polls.
func (b *Bus) releaseSCL() error {
	b.scl.Release()
	for i := 0; i < b.limit; i++ {
		if b.scl.Get() {
			return nil
		}
	}
	b.timeouts.Add(1)
	return ErrTimeout
}

func (b *Bus) lostArbitration() error {
	b.lost.Add(1)
	return ErrArbitrationLost
}

// Start emits a START condition, or a repeated START if a transaction is
// already open. On failure the started flag is left as it was.
func (b *Bus) Start() error {
	if b.started {
		// Repeated START: SDA up while SCL is still low, then clock up.
		b.sda.Release()
		b.wait()
		if err := b.releaseSCL(); err != nil {
			return err
		}
		b.wait()
	} else if err := b.releaseSCL(); err != nil {
		// An idle bus has SCL high; a low clock here is a stuck peer.
		return err
	}
	if !b.sda.Get() {
		return b.lostArbitration()
	}
	// SCL is high: SDA falling is the START edge.
	b.sda.PullLow()
	b.wait()
	b.scl.PullLow()
	b.started = true
	return nil
}

// Stop emits a STOP condition and leaves both lines released.
func (b *Bus) Stop() error {
	b.sda.PullLow()
	b.wait()
	if err := b.releaseSCL(); err != nil {
		return err
	}
	b.wait()
	// SCL is high: SDA rising is the STOP edge.
	b.sda.Release()
	b.wait()
	b.started = false
	if !b.sda.Get() {
		return b.lostArbitration()
	}
	return nil
}

// WriteBit clocks one bit out. A one that reads back as zero means another
// master (or a fault) is pulling SDA low.
func (b *Bus) WriteBit(bit bool) error {
	if bit {
		b.sda.Release()
	} else {
		b.sda.PullLow()
	}
	b.wait()
	if err := b.releaseSCL(); err != nil {
		return err
	}
	b.wait()
	lost := bit && !b.sda.Get()
	// SCL goes low either way so the next bit cannot change SDA under a high clock.
	b.scl.PullLow()
	if lost {
		return b.lostArbitration()
	}
	return nil
}

// ReadBit releases SDA to the peer and samples it while SCL is high.
func (b *Bus) ReadBit() (bool, error) {
	b.sda.Release()
	b.wait()
	if err := b.releaseSCL(); err != nil {
		return false, err
	}
	b.wait()
	bit := b.sda.Get()
	b.scl.PullLow()
	return bit, nil
}

// WriteByteFrame optionally opens a transaction, sends v MSB first, reads the
// acknowledge bit and optionally closes the transaction. Every step runs even
// after a failure; the errors are folded. A high acknowledge bit is ErrNack.
func (b *Bus) WriteByteFrame(v byte, start, stop bool) error {
	var f errcode.Fold
	if start {
		f.Add(b.Start())
	}
	for i := 7; i >= 0; i-- {
		f.Add(b.WriteBit(v&(1<<i) != 0))
	}
	nack, err := b.ReadBit()
	f.Add(err)
	if stop {
		f.Add(b.Stop())
	}
	if err == nil && nack {
		b.nacks.Add(1)
		f.Add(ErrNack)
	}
	return f.Err()
}

// ReadByteFrame reads one byte MSB first, answers with nack (true leaves SDA high
// to end a read) and optionally closes the transaction.
func (b *Bus) ReadByteFrame(nack, stop bool) (byte, error) {
	var f errcode.Fold
	var v byte
	for i := 0; i < 8; i++ {
		bit, err := b.ReadBit()
		f.Add(err)
		v <<= 1
		if bit {
			v |= 1
		}
	}
	f.Add(b.WriteBit(nack))
	if stop {
		f.Add(b.Stop())
	}
	return v, f.Err()
}
