package cap1166_test

import (
	"errors"
	"testing"
	"time"

	"clickcode-go/drivers/cap1166"
	"clickcode-go/drivers/softi2c"
	"clickcode-go/drivers/softi2c/i2csim"
	"clickcode-go/errcode"
)

func newDevice(t *testing.T) (*i2csim.Target, *cap1166.Device) {
	t.Helper()
	w := i2csim.New()
	tg := w.Attach(i2csim.NewTarget(cap1166.Address))
	tg.Set(0xFD, 0x51, 0x5D, 0x83)
	scl, sda := w.Master()
	b := softi2c.New(scl, sda, softi2c.Config{StretchLimit: 100, Delay: func(time.Duration) {}})
	d := cap1166.New(b)
	return tg, &d
}

func TestConfigure_Defaults(t *testing.T) {
	tg, d := newDevice(t)
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	checks := []struct {
		reg  uint8
		want byte
	}{
		{0x1F, 0x2F}, // 32x, default base shift
		{0x21, 0x3F},
		{0x27, 0x3F},
		{0x2A, 0x00},
		{0x72, 0x00},
	}
	for _, c := range checks {
		if got := tg.Reg(c.reg); got != c.want {
			t.Errorf("reg %#02x = %#02x, want %#02x", c.reg, got, c.want)
		}
	}
	for i := uint8(0); i < cap1166.Inputs; i++ {
		if got := tg.Reg(0x30 + i); got != 0x40 {
			t.Errorf("threshold %d = %#02x, want 0x40", i, got)
		}
	}
}

func TestConfigure_Options(t *testing.T) {
	tg, d := newDevice(t)
	cfg := cap1166.Config{
		Sensitivity: 128,
		Thresholds:  [cap1166.Inputs]uint8{0x10, 0, 0xFF},
		Inputs:      0b000111,
		MultiTouch:  2,
		LinkLEDs:    true,
	}
	if err := d.Configure(cfg); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got := tg.Reg(0x1F); got != 0x0F {
		t.Errorf("sensitivity = %#02x, want 0x0F", got)
	}
	if got := tg.Reg(0x27); got != 0x07 {
		t.Errorf("interrupt enable = %#02x, want inputs mask", got)
	}
	if got := tg.Reg(0x2A); got != 0x84 {
		t.Errorf("multi-touch = %#02x, want 0x84", got)
	}
	if got := tg.Reg(0x72); got != 0x07 {
		t.Errorf("led linking = %#02x, want 0x07", got)
	}
	if a, b, c := tg.Reg(0x30), tg.Reg(0x31), tg.Reg(0x32); a != 0x10 || b != 0x40 || c != 0x7F {
		t.Errorf("thresholds = %#02x %#02x %#02x", a, b, c)
	}
}

func TestConfigure_WrongProduct(t *testing.T) {
	tg, d := newDevice(t)
	tg.Set(0xFD, 0x50)
	if err := d.Configure(); !errors.Is(err, cap1166.ErrProductID) {
		t.Fatalf("Configure err = %v, want ErrProductID", err)
	}
	if tg.Reg(0x21) != 0 {
		t.Fatal("registers written after id mismatch")
	}
}

func TestConfigure_NoDevice(t *testing.T) {
	w := i2csim.New()
	scl, sda := w.Master()
	d := cap1166.New(softi2c.New(scl, sda, softi2c.Config{StretchLimit: 100, Delay: func(time.Duration) {}}))
	if err := d.Configure(); !errors.Is(err, errcode.Nack) {
		t.Fatalf("Configure err = %v, want nack", err)
	}
}

func TestTouched_ClearsInterrupt(t *testing.T) {
	tg, d := newDevice(t)
	tg.Set(0x00, 0x41) // gain bits plus INT
	tg.Set(0x03, 0b100101)
	mask, err := d.Touched()
	if err != nil {
		t.Fatalf("Touched: %v", err)
	}
	if mask != 0b100101 {
		t.Fatalf("Touched = %06b", mask)
	}
	if got := tg.Reg(0x00); got != 0x40 {
		t.Fatalf("main control = %#02x, want INT cleared and gain kept", got)
	}
}

func TestTouched_NoInterruptNoWrite(t *testing.T) {
	tg, d := newDevice(t)
	before := len(tg.Received())
	if _, err := d.Touched(); err != nil {
		t.Fatalf("Touched: %v", err)
	}
	// Only the two register pointers: input status, then main control.
	got := tg.Received()[before:]
	if len(got) != 2 || got[0] != 0x03 || got[1] != 0x00 {
		t.Fatalf("bytes written = % X, want 03 00", got)
	}
}

func TestStatusAndDeltas(t *testing.T) {
	tg, d := newDevice(t)
	tg.Set(0x02, cap1166.StatusTouch|cap1166.StatusMulti, 0x03, 0x01)
	tg.Set(0x10, 0x05, 0xFB, 0x7F, 0x80, 0, 0)
	st, err := d.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.General != 0x05 || st.Inputs != 0x03 || st.LEDs != 0x01 {
		t.Fatalf("Status = %+v", st)
	}
	if v, err := d.Delta(1); err != nil || v != -5 {
		t.Fatalf("Delta(1) = %d, %v", v, err)
	}
	all, err := d.Deltas()
	if err != nil {
		t.Fatalf("Deltas: %v", err)
	}
	if all != [cap1166.Inputs]int8{5, -5, 127, -128, 0, 0} {
		t.Fatalf("Deltas = %v", all)
	}
	if _, err := d.Delta(cap1166.Inputs); !errors.Is(err, cap1166.ErrInput) {
		t.Fatalf("Delta out of range err = %v", err)
	}
}

func TestStandbyCalibrateLEDs(t *testing.T) {
	tg, d := newDevice(t)
	tg.Set(0x00, 0x81)
	if err := d.SetStandby(true); err != nil {
		t.Fatalf("SetStandby: %v", err)
	}
	if got := tg.Reg(0x00); got != 0xA0 {
		t.Fatalf("main control = %#02x, want 0xA0", got)
	}
	if err := d.SetStandby(false); err != nil {
		t.Fatalf("SetStandby: %v", err)
	}
	if got := tg.Reg(0x00); got != 0x80 {
		t.Fatalf("main control = %#02x, want 0x80", got)
	}
	if err := d.Calibrate(0xFF); err != nil || tg.Reg(0x26) != 0x3F {
		t.Fatalf("Calibrate: %v, reg %#02x", err, tg.Reg(0x26))
	}
	if err := d.LinkLEDs(0x02); err != nil || tg.Reg(0x72) != 0x02 {
		t.Fatalf("LinkLEDs: %v, reg %#02x", err, tg.Reg(0x72))
	}
	if rev, err := d.Revision(); err != nil || rev != 0x83 {
		t.Fatalf("Revision = %#02x, %v", rev, err)
	}
}
