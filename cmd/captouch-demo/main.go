// captouch-demo polls a Cap Touch 2 Click (CAP1166) on a software I2C bus and
// prints input edges.
package main

import (
	"time"

	"clickcode-go/drivers/cap1166"
	"clickcode-go/drivers/softi2c"
	"clickcode-go/platform"
	"clickcode-go/x/conv"
)

// ---------- Configuration ----------

const (
	sclPin = 7
	sdaPin = 6

	pollEvery  = 50 * time.Millisecond
	retryEvery = time.Second
)

// demo holds what the board support code kept in globals.
type demo struct {
	bus  *softi2c.Bus
	dev  cap1166.Device
	last uint8
	buf  [20]byte
}

// init opens the bus and configures the controller.
func (d *demo) init() error {
	pins, err := platform.Open("")
	if err != nil {
		return err
	}
	scl, sda, err := platform.Lines(pins, sclPin, sdaPin, platform.PullUp)
	if err != nil {
		return err
	}
	d.bus = softi2c.New(scl, sda)
	d.dev = cap1166.New(d.bus)
	return d.dev.Configure(cap1166.Config{LinkLEDs: true})
}

// task runs one poll and prints what changed.
func (d *demo) task() error {
	mask, err := d.dev.Touched()
	if err != nil {
		return err
	}
	changed := mask ^ d.last
	for i := 0; i < cap1166.Inputs; i++ {
		bit := uint8(1) << i
		if changed&bit == 0 {
			continue
		}
		state := "released"
		if mask&bit != 0 {
			state = "pressed"
		}
		println("CS"+string(conv.Utoa(d.buf[:], uint64(i+1))), state)
	}
	if changed != 0 {
		println("touched", string(conv.Bits(d.buf[:], mask, cap1166.Inputs)))
	}
	d.last = mask
	return nil
}

func main() {
	time.Sleep(2 * time.Second)
	println("captouch-demo")

	var d demo
	for {
		err := d.init()
		if err == nil {
			break
		}
		println("Warn: init:", err.Error())
		time.Sleep(retryEvery)
	}
	for {
		if err := d.task(); err != nil {
			st := d.bus.Stats()
			println("Warn: poll:", err.Error(), "timeouts", st.Timeouts, "nacks", st.Nacks)
		}
		time.Sleep(pollEvery)
	}
}
