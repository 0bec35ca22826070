package softi2c_test

import (
	"bytes"
	"errors"
	"testing"

	"clickcode-go/drivers/softi2c"
	"clickcode-go/drivers/softi2c/i2csim"
	"clickcode-go/errcode"
)

func TestWriteRegister_AllByteValuesMSBFirst(t *testing.T) {
	w, tg, b := newSim(t, 100)
	for v := 0; v < 256; v++ {
		w.ResetTrace()
		if err := b.WriteRegister(devAddr, 0x10, []byte{byte(v)}); err != nil {
			t.Fatalf("write %#02x: %v", v, err)
		}
		if got := tg.Reg(0x10); got != byte(v) {
			t.Fatalf("target holds %#02x, want %#02x", got, v)
		}
		// address (8+ack), register (8+ack), then the data byte.
		bits := w.Bits()
		if len(bits) < 26 {
			t.Fatalf("only %d clocked bits", len(bits))
		}
		var got byte
		for _, bit := range bits[18:26] {
			got <<= 1
			if bit {
				got |= 1
			}
		}
		if got != byte(v) {
			t.Fatalf("wire carried %#08b, want %#08b MSB first", got, v)
		}
	}
}

func TestReadRegister_ExplicitSequence(t *testing.T) {
	w, tg, b := newSim(t, 100)
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01}
	tg.Set(0x40, payload...)

	// The sequence a register read helper issues, step by step.
	steps := []error{
		b.WriteByteFrame(devAddr<<1, true, false),
		b.WriteByteFrame(0x40, false, false),
		b.WriteByteFrame(devAddr<<1|1, true, false),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	got := make([]byte, len(payload))
	for i := range got {
		last := i == len(got)-1
		v, err := b.ReadByteFrame(last, last)
		if err != nil {
			t.Fatalf("read byte %d: %v", i, err)
		}
		got[i] = v
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("read % x, want % x", got, payload)
	}
	assertConditions(t, w, i2csim.Start, i2csim.RepeatedStart, i2csim.Stop)
}

func TestReadRegister(t *testing.T) {
	w, tg, b := newSim(t, 100)
	tg.Set(0xFD, 0x51, 0x5D, 0x83)

	var id [3]byte
	if err := b.ReadRegister(devAddr, 0xFD, id[:]); err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if id != [3]byte{0x51, 0x5D, 0x83} {
		t.Fatalf("read % x", id)
	}
	assertConditions(t, w, i2csim.Start, i2csim.RepeatedStart, i2csim.Stop)
	if b.Started() || !w.Level(i2csim.SCL) || !w.Level(i2csim.SDA) {
		t.Fatal("bus not idle after read")
	}
	if got := b.Stats().Transactions; got != 1 {
		t.Fatalf("transactions = %d, want 1", got)
	}
}

func TestTx_WriteThenReadOnly(t *testing.T) {
	w, tg, b := newSim(t, 100)
	if err := b.Tx(devAddr, []byte{0x08, 1, 2, 3}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := tg.Received(); !bytes.Equal(got, []byte{0x08, 1, 2, 3}) {
		t.Fatalf("target received % x", got)
	}

	// A read-only transfer continues from the register pointer.
	if err := b.Tx(devAddr, []byte{0x08}, nil); err != nil {
		t.Fatal(err)
	}
	w.ResetTrace()
	var r [2]byte
	if err := b.Tx(devAddr, nil, r[:]); err != nil {
		t.Fatalf("read: %v", err)
	}
	if r != [2]byte{1, 2} {
		t.Fatalf("read % x, want 01 02", r)
	}
	assertConditions(t, w, i2csim.Start, i2csim.Stop)
}

func TestTx_NackStillStops(t *testing.T) {
	w, tg, b := newSim(t, 100)
	tg.NackWrites = true

	err := b.WriteRegister(devAddr, 0x01, []byte{0xAA, 0xBB})
	if !errors.Is(err, errcode.Nack) {
		t.Fatalf("err = %v, want nack", err)
	}
	// Every byte was still clocked out and the transfer was closed:
	// address, register, 0xAA and 0xBB at 9 bits each, plus the STOP clock.
	const want = 4*9 + 1
	if got := len(w.Bits()); got != want {
		t.Fatalf("clocked %d bits, want %d", got, want)
	}
	assertConditions(t, w, i2csim.Start, i2csim.Stop)
	if b.Started() {
		t.Fatal("bus left started")
	}
}

func TestTx_AbsentDevice(t *testing.T) {
	_, _, b := newSim(t, 100)
	var r [1]byte
	err := b.ReadRegister(0x10, 0x00, r[:])
	if !errors.Is(err, errcode.Nack) {
		t.Fatalf("err = %v, want nack", err)
	}
	if r[0] != 0xFF {
		t.Fatalf("released bus reads %#02x, want 0xff", r[0])
	}
}

func TestTx_InvalidAddress(t *testing.T) {
	w, _, b := newSim(t, 100)
	if err := b.Tx(0x80, []byte{0}, nil); !errors.Is(err, softi2c.ErrAddress) {
		t.Fatalf("err = %v, want ErrAddress", err)
	}
	if len(w.Trace()) != 0 {
		t.Fatal("invalid address touched the wire")
	}
}

func TestProbe(t *testing.T) {
	_, _, b := newSim(t, 100)
	if !b.Probe(devAddr) {
		t.Fatal("present target not found")
	}
	if b.Probe(devAddr + 1) {
		t.Fatal("absent target acknowledged")
	}
}

func assertConditions(t *testing.T, w *i2csim.Wire, want ...i2csim.Condition) {
	t.Helper()
	got := w.Conditions()
	if len(got) != len(want) {
		t.Fatalf("conditions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("conditions = %v, want %v", got, want)
		}
	}
}
