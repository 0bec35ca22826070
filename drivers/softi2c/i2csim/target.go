package i2csim

import "sync"

type phase uint8

const (
	idle phase = iota
	address
	writing
	reading
	done // read ended by a master NACK; waiting for STOP or repeated START
)

// Target is a register-file peripheral at a 7-bit address. The first byte of
// a write transfer sets the register pointer, further bytes are stored at the
// pointer. Reads return registers from the pointer. The pointer auto-increments
// and wraps at 256.
type Target struct {
	Addr uint8

	// Stretch holds SCL low for this many master polls after every falling
	// clock edge while the target is addressed. The master sees Stretch-1
	// low reads.
	Stretch int

	// NackWrites makes the target refuse data bytes; the address is still
	// acknowledged.
	NackWrites bool

	w  *Wire
	id uint

	mu       sync.Mutex
	regs     [256]byte
	ptr      uint8
	received []byte
	txns     int

	st        phase
	bit       int
	shift     byte
	first     bool
	tx        byte
	masterAck bool
	hold      int
}

// NewTarget returns a target at addr; attach it with Wire.Attach.
func NewTarget(addr uint8) *Target { return &Target{Addr: addr} }

// Set stores v at reg.
func (t *Target) Set(reg uint8, v ...byte) {
	t.mu.Lock()
	for _, b := range v {
		t.regs[reg] = b
		reg++
	}
	t.mu.Unlock()
}

// Reg returns the value at reg.
func (t *Target) Reg(reg uint8) byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.regs[reg]
}

// Pointer returns the register pointer.
func (t *Target) Pointer() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ptr
}

// Received returns every byte written to the target after its address,
// register pointers included.
func (t *Target) Received() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.received...)
}

// Transactions counts the times the target was addressed.
func (t *Target) Transactions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txns
}

func (t *Target) pull(n Net)    { t.w.set(n, t.id, true) }
func (t *Target) release(n Net) { t.w.set(n, t.id, false) }

func (t *Target) edge(prev, cur [2]bool) {
	clockHigh := prev[SCL] && cur[SCL]
	switch {
	case clockHigh && prev[SDA] && !cur[SDA]:
		t.release(SDA)
		t.st, t.bit, t.shift = address, 0, 0
	case clockHigh && !prev[SDA] && cur[SDA]:
		t.release(SDA)
		t.st = idle
	case !prev[SCL] && cur[SCL]:
		t.rise(cur[SDA])
	case prev[SCL] && !cur[SCL]:
		t.fall()
	}
}

// rise samples on a rising clock.
func (t *Target) rise(sda bool) {
	switch t.st {
	case address, writing:
		if t.bit < 8 {
			t.shift <<= 1
			if sda {
				t.shift |= 1
			}
		}
		t.bit++
	case reading:
		t.bit++
		if t.bit == 9 {
			t.masterAck = !sda
		}
	}
}

// fall sets up SDA for the next clock.
func (t *Target) fall() {
	switch t.st {
	case address:
		switch t.bit {
		case 8:
			if t.shift>>1 != t.Addr {
				t.st = idle
				return
			}
			t.mu.Lock()
			t.txns++
			t.mu.Unlock()
			t.pull(SDA)
		case 9:
			t.release(SDA)
			t.bit = 0
			if t.shift&1 == 1 {
				t.st = reading
				t.load()
				t.drive()
			} else {
				t.st = writing
				t.first = true
			}
			t.shift = 0
		}
	case writing:
		switch t.bit {
		case 8:
			if !t.NackWrites {
				t.store(t.shift)
				t.pull(SDA)
			}
		case 9:
			t.release(SDA)
			t.bit, t.shift = 0, 0
		}
	case reading:
		switch {
		case t.bit < 8:
			t.drive()
		case t.bit == 8:
			t.release(SDA)
		case t.bit == 9:
			if t.masterAck {
				t.bit = 0
				t.load()
				t.drive()
			} else {
				t.st = done
				t.release(SDA)
			}
		}
	}
	if t.Stretch > 0 && (t.st == writing || t.st == reading) {
		t.hold = t.Stretch
		t.pull(SCL)
	}
}

func (t *Target) tick() {
	if t.hold <= 0 {
		return
	}
	t.hold--
	if t.hold == 0 {
		t.release(SCL)
	}
}

// drive puts bit number t.bit (MSB first) of the byte in flight on SDA.
func (t *Target) drive() {
	if t.tx&(0x80>>uint(t.bit)) != 0 {
		t.release(SDA)
	} else {
		t.pull(SDA)
	}
}

func (t *Target) load() {
	t.mu.Lock()
	t.tx = t.regs[t.ptr]
	t.ptr++
	t.mu.Unlock()
}

func (t *Target) store(v byte) {
	t.mu.Lock()
	t.received = append(t.received, v)
	if t.first {
		t.ptr = v
		t.first = false
	} else {
		t.regs[t.ptr] = v
		t.ptr++
	}
	t.mu.Unlock()
}
