// clockgen-demo steps a Clock Gen Click (Si5351A) output through a list of
// frequencies on a software I2C bus.
package main

import (
	"errors"
	"time"

	"clickcode-go/drivers/si5351"
	"clickcode-go/drivers/softi2c"
	"clickcode-go/platform"
	"clickcode-go/x/conv"
)

// ---------- Configuration ----------

const (
	sclPin = 7
	sdaPin = 6

	output = 0
	dwell  = 5 * time.Second
)

var steps = []uint32{
	32_768,
	1_000_000,
	10_000_000,
	25_000_000,
	148_500_000,
}

type demo struct {
	dev    si5351.Device
	next   int
	hzBuf  [20]byte
	vcoBuf [20]byte
}

func (d *demo) init() error {
	pins, err := platform.Open("")
	if err != nil {
		return err
	}
	scl, sda, err := platform.Lines(pins, sclPin, sdaPin, platform.PullUp)
	if err != nil {
		return err
	}
	d.dev = si5351.New(softi2c.New(scl, sda))
	for {
		err = d.dev.Configure(si5351.Config{Drive: si5351.Drive8mA})
		if !errors.Is(err, si5351.ErrNotReady) {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (d *demo) task() error {
	hz := steps[d.next]
	d.next = (d.next + 1) % len(steps)

	pll := si5351.PLLA
	if hz > si5351.VCOMax/8 {
		pll = si5351.PLLB
	}
	plan, err := d.dev.SetFrequency(output, pll, hz)
	if err != nil {
		return err
	}
	if err := d.dev.EnableOutputs(1 << output); err != nil {
		return err
	}
	println("CLK0", string(conv.Utoa(d.hzBuf[:], uint64(hz))), "Hz, VCO",
		string(conv.Utoa(d.vcoBuf[:], uint64(plan.VCO))), "Hz, R div", plan.RDiv)
	return nil
}

func main() {
	time.Sleep(2 * time.Second)
	println("clockgen-demo")

	var d demo
	if err := d.init(); err != nil {
		println("Error: init:", err.Error())
		return
	}
	for {
		if err := d.task(); err != nil {
			println("Warn:", err.Error())
		}
		time.Sleep(dwell)
	}
}
