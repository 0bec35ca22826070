// Package si5351 drives the Si5351A clock generator found on the Clock Gen
// Click board.
//
// The chip multiplies a crystal (25 or 27 MHz) up to a 600–900 MHz VCO with
// one of two fractional PLLs and divides the VCO down per output with a
// fractional multisynth and an optional power-of-two R divider:
//
//	d := si5351.New(bus)
//	_ = d.Configure()
//	plan, err := d.SetFrequency(0, si5351.PLLA, 10_000_000)
//	_ = d.EnableOutputs(1 << 0)
//
// NewPlan and EncodeParams are pure and usable without a device.
package si5351

import (
	"errors"

	"clickcode-go/errcode"
	"clickcode-go/x/mathx"

	"tinygo.org/x/drivers"
)

// Errors returned by the driver.
var (
	ErrNotReady = errors.New("si5351: device initialising")
	ErrRange    = errors.New("si5351: frequency out of range")
	ErrParams   = errors.New("si5351: divider out of range")
	ErrOutput   = errors.New("si5351: no such output")
)

// DefaultXtalHz is the crystal fitted to the Click board.
const DefaultXtalHz = 25_000_000

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x60 if zero.
	Address uint16
	// XtalHz defaults to 25 MHz.
	XtalHz uint32
	// XtalLoad defaults to 10 pF.
	XtalLoad Load
	// Drive applies to every output. Zero is 2 mA, the chip default.
	Drive Drive
}

// Device wraps an I2C connection to an Si5351A.
type Device struct {
	bus     drivers.I2C
	Address uint16

	xtal    uint32
	drive   Drive
	ctrl    [Outputs]byte // last CLKx control byte written
	enabled uint8
	buf     [9]byte
}

// New creates a new Si5351 connection. The I2C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
		xtal:    DefaultXtalHz,
	}
}

// Configure applies cfg, disables and powers down every output and sets the
// crystal load. It returns ErrNotReady while the chip is still in its
// power-up init; callers retry. All writes are attempted even after a failure.
func (d *Device) Configure(cfgs ...Config) error {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.XtalHz != 0 {
		d.xtal = c.XtalHz
	}
	if c.XtalLoad == 0 {
		c.XtalLoad = Load10pF
	}
	d.drive = c.Drive & clkDriveMask

	st, err := d.Status()
	if err != nil {
		return err
	}
	if st&StatusSysInit != 0 {
		return ErrNotReady
	}

	var f errcode.Fold
	f.Add(d.write(regOutputEnable, 0xFF))
	d.enabled = 0
	for i := range d.ctrl {
		d.ctrl[i] = clkPowerDown | clkInputMS | byte(d.drive)
	}
	f.Add(d.write(regCLK0Control, d.ctrl[:]...))
	f.Add(d.write(regCrystalLoad, byte(c.XtalLoad)|xtalLoadFixed))
	return f.Err()
}

// XtalHz returns the crystal frequency in use.
func (d *Device) XtalHz() uint32 { return d.xtal }

// Status reads the device status register (StatusSysInit, StatusLOLA, ...).
func (d *Device) Status() (byte, error) {
	d.buf[0] = regDeviceStatus
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:2]); err != nil {
		return 0, err
	}
	return d.buf[1], nil
}

// SetPLL programs the feedback multisynth of pll. f.A must be 15..90.
func (d *Device) SetPLL(pll PLL, f Frac) error {
	if pll > PLLB || !f.valid() || f.A < minPLLMult || f.A > maxPLLMult {
		return ErrParams
	}
	reg := byte(regPLLAParams)
	if pll == PLLB {
		reg = regPLLBParams
	}
	p := EncodeParams(f, 0, false)
	return d.write(reg, p[:]...)
}

// ResetPLL soft-resets the selected PLLs; required after changing a PLL.
func (d *Device) ResetPLL(plls ...PLL) error {
	var v byte
	for _, p := range plls {
		switch p {
		case PLLA:
			v |= pllResetA
		case PLLB:
			v |= pllResetB
		}
	}
	if v == 0 {
		return nil
	}
	return d.write(regPLLReset, v)
}

// SetMultisynth programs the output divider of out and powers the output up
// with pll as its source. Integer dividers with an even A run in integer mode.
func (d *Device) SetMultisynth(out uint8, pll PLL, f Frac, rdiv uint8, divBy4 bool) error {
	if out >= Outputs {
		return ErrOutput
	}
	if pll > PLLB || rdiv > maxRDiv {
		return ErrParams
	}
	if !divBy4 && !(f.valid() && (mathx.Between(f.A, minMSDiv, maxMSDiv) || f.Integer() && f.A == 6)) {
		return ErrParams
	}
	p := EncodeParams(f, rdiv, divBy4)

	ctrl := clkInputMS | byte(d.drive)
	if divBy4 || f.Integer() && f.A%2 == 0 {
		ctrl |= clkMSInt
	}
	if pll == PLLB {
		ctrl |= clkSrcPLLB
	}

	var fd errcode.Fold
	fd.Add(d.write(regMS0Params+8*out, p[:]...))
	if !fd.Add(d.write(regCLK0Control+out, ctrl)) {
		d.ctrl[out] = ctrl
	}
	return fd.Err()
}

// SetFrequency plans hz, programs pll and the output divider of out, then
// resets the PLL. Outputs up to 112.5 MHz share a 900 MHz VCO and may use the
// same PLL; faster outputs need a PLL of their own.
func (d *Device) SetFrequency(out uint8, pll PLL, hz uint32) (Plan, error) {
	if out >= Outputs {
		return Plan{}, ErrOutput
	}
	p, err := NewPlan(d.xtal, hz)
	if err != nil {
		return Plan{}, err
	}
	var f errcode.Fold
	f.Add(d.SetPLL(pll, p.PLL))
	f.Add(d.SetMultisynth(out, pll, p.MS, p.RDiv, p.DivBy4))
	f.Add(d.ResetPLL(pll))
	return p, f.Err()
}

// PowerDown powers an output down without touching its divider.
func (d *Device) PowerDown(out uint8) error {
	if out >= Outputs {
		return ErrOutput
	}
	ctrl := d.ctrl[out] | clkPowerDown
	if err := d.write(regCLK0Control+out, ctrl); err != nil {
		return err
	}
	d.ctrl[out] = ctrl
	return nil
}

// EnableOutputs enables the outputs whose bits are set in mask and disables
// the others.
func (d *Device) EnableOutputs(mask uint8) error {
	mask &= 1<<Outputs - 1
	if err := d.write(regOutputEnable, ^mask); err != nil {
		return err
	}
	d.enabled = mask
	return nil
}

// Enabled returns the output enable mask last written.
func (d *Device) Enabled() uint8 { return d.enabled }

func (d *Device) write(reg byte, data ...byte) error {
	if len(data)+1 > len(d.buf) {
		return ErrParams
	}
	d.buf[0] = reg
	n := copy(d.buf[1:], data)
	return d.bus.Tx(d.Address, d.buf[:1+n], nil)
}
