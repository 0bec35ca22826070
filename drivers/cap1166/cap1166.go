// Package cap1166 provides a driver for the Microchip CAP1166 six-channel
// capacitive touch controller used on the Cap Touch 2 Click board.
//
//	d := cap1166.New(bus)
//	if err := d.Configure(cap1166.Config{Sensitivity: 32}); err != nil { ... }
//	mask, err := d.Touched() // bit n set while CSn+1 is touched
//
// The controller latches touches and raises INT; Touched reads the input
// status and clears INT so the next touch is reported again.
package cap1166

import (
	"errors"

	"clickcode-go/errcode"
	"clickcode-go/x/mathx"

	"tinygo.org/x/drivers"
)

// Errors returned by the driver.
var (
	ErrProductID = errors.New("cap1166: unexpected product or manufacturer id")
	ErrInput     = errors.New("cap1166: no such input")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x28 if zero.
	Address uint16
	// Sensitivity is the delta gain, a power of two 1..128. Higher is more
	// sensitive. Default 32.
	Sensitivity uint8
	// Thresholds per input, 1..127 delta counts. Zero entries use 64.
	Thresholds [Inputs]uint8
	// Inputs enables sensing per bit. Default all six.
	Inputs uint8
	// Interrupts selects inputs that raise INT. Default Inputs.
	Interrupts uint8
	// MultiTouch blocks touches beyond this many simultaneous inputs (1..4).
	// Zero leaves multiple touches unblocked.
	MultiTouch uint8
	// LinkLEDs drives each LED output from its sensor input.
	LinkLEDs bool
}

// Status is a snapshot of the status registers.
type Status struct {
	General byte  // StatusTouch, StatusMulti, ...
	Inputs  uint8 // latched touched inputs
	LEDs    uint8
}

// Device wraps an I2C connection to a CAP1166.
type Device struct {
	bus     drivers.I2C
	Address uint16

	buf  [Inputs + 1]byte
	wbuf [Inputs + 1]byte
}

// New creates a new CAP1166 connection. The I2C bus must already be
// configured. This function only creates the Device object; it does not touch
// the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
	}
}

// Configure checks the product and manufacturer IDs and programs the sensing
// registers from cfg. Register writes continue after a failure and the
// errors are folded.
func (d *Device) Configure(cfgs ...Config) error {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.Sensitivity == 0 {
		c.Sensitivity = 32
	}
	if c.Inputs == 0 {
		c.Inputs = allInputs
	}
	if c.Interrupts == 0 {
		c.Interrupts = c.Inputs
	}

	var id [2]byte
	if err := d.read(regProductID, id[:]); err != nil {
		return err
	}
	if id[0] != productID || id[1] != manufacturerID {
		return ErrProductID
	}

	var th [Inputs]byte
	for i, v := range c.Thresholds {
		if v == 0 {
			v = defaultThreshold
		}
		th[i] = mathx.Clamp(v, 1, 0x7F)
	}
	var multi byte
	if c.MultiTouch > 0 {
		multi = multiBlockEnable | (mathx.Clamp(c.MultiTouch, 1, 4)-1)<<2
	}
	var leds byte
	if c.LinkLEDs {
		leds = c.Inputs & allInputs
	}

	var f errcode.Fold
	f.Add(d.write(regSensitivity, deltaSense(c.Sensitivity)<<4|baseShift))
	f.Add(d.write(regInputEnable, c.Inputs&allInputs))
	f.Add(d.write(regInterruptEnable, c.Interrupts&allInputs))
	f.Add(d.write(regThreshold, th[:]...))
	f.Add(d.write(regMultiTouch, multi))
	f.Add(d.write(regLEDLinking, leds))
	return f.Err()
}

// deltaSense maps a gain of 128, 64, ... 1 to the DELTA_SENSE field 0..7.
// Gains between powers of two round down.
func deltaSense(gain uint8) byte {
	ds := byte(7)
	for g := gain; g > 1 && ds > 0; g >>= 1 {
		ds--
	}
	return ds
}

// Revision reads the silicon revision.
func (d *Device) Revision() (byte, error) {
	if err := d.read(regRevision, d.buf[:1]); err != nil {
		return 0, err
	}
	return d.buf[0], nil
}

// Touched returns the touched inputs (bit 0 is CS1) and clears the interrupt
// latch. The latch is cleared even when the status read fails.
func (d *Device) Touched() (uint8, error) {
	var f errcode.Fold
	var mask uint8
	if !f.Add(d.read(regInputStatus, d.buf[:1])) {
		mask = d.buf[0] & allInputs
	}
	f.Add(d.ClearInterrupt())
	return mask, f.Err()
}

// ClearInterrupt clears the INT bit of the main control register if set.
func (d *Device) ClearInterrupt() error {
	if err := d.read(regMainControl, d.buf[:1]); err != nil {
		return err
	}
	if d.buf[0]&mainInt == 0 {
		return nil
	}
	return d.write(regMainControl, d.buf[0]&^mainInt)
}

// Status reads the general, input and LED status registers.
func (d *Device) Status() (Status, error) {
	if err := d.read(regGeneralStatus, d.buf[:3]); err != nil {
		return Status{}, err
	}
	return Status{
		General: d.buf[0],
		Inputs:  d.buf[1] & allInputs,
		LEDs:    d.buf[2] & allInputs,
	}, nil
}

// Delta returns the signed delta count of input (0-based).
func (d *Device) Delta(input int) (int8, error) {
	if input < 0 || input >= Inputs {
		return 0, ErrInput
	}
	if err := d.read(regInputDelta+byte(input), d.buf[:1]); err != nil {
		return 0, err
	}
	return int8(d.buf[0]), nil
}

// Deltas reads all six delta counts in one transaction.
func (d *Device) Deltas() ([Inputs]int8, error) {
	var out [Inputs]int8
	if err := d.read(regInputDelta, d.buf[:Inputs]); err != nil {
		return out, err
	}
	for i := range out {
		out[i] = int8(d.buf[i])
	}
	return out, nil
}

// Calibrate starts a recalibration of the inputs in mask.
func (d *Device) Calibrate(mask uint8) error {
	return d.write(regCalibrate, mask&allInputs)
}

// SetStandby moves the controller in or out of standby, preserving the gain
// bits.
func (d *Device) SetStandby(on bool) error {
	if err := d.read(regMainControl, d.buf[:1]); err != nil {
		return err
	}
	v := d.buf[0] &^ (mainStandby | mainInt)
	if on {
		v |= mainStandby
	}
	return d.write(regMainControl, v)
}

// LinkLEDs drives the LED outputs in mask from their sensor inputs.
func (d *Device) LinkLEDs(mask uint8) error {
	return d.write(regLEDLinking, mask&allInputs)
}

func (d *Device) read(reg byte, data []byte) error {
	d.buf[len(d.buf)-1] = reg
	return d.bus.Tx(d.Address, d.buf[len(d.buf)-1:], data)
}

func (d *Device) write(reg byte, data ...byte) error {
	d.wbuf[0] = reg
	n := copy(d.wbuf[1:], data)
	return d.bus.Tx(d.Address, d.wbuf[:1+n], nil)
}
