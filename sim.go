package main

import (
	"clickcode-go/drivers/softi2c"
	"clickcode-go/drivers/softi2c/i2csim"
	"clickcode-go/platform"
)

// simBoard is a simulated Click pair on one wire: a CAP1166 at 0x28 and an
// Si5351A at 0x60, reached through GPIO-style pins so the open-drain adapter
// is exercised as on hardware.
type simBoard struct {
	wire  *i2csim.Wire
	touch *i2csim.Target
	clock *i2csim.Target
}

func newSimBoard() *simBoard {
	w := i2csim.New()
	w.TraceLimit = 1024
	sb := &simBoard{
		wire:  w,
		touch: w.Attach(i2csim.NewTarget(0x28)),
		clock: w.Attach(i2csim.NewTarget(0x60)),
	}
	// CAP1166 identification registers.
	sb.touch.Set(0xFD, 0x51, 0x5D, 0x83)
	return sb
}

func (sb *simBoard) lines() (scl, sda softi2c.Line) {
	sp, dp := sb.wire.Pins()
	return platform.NewOpenDrain(sp, platform.PullNone), platform.NewOpenDrain(dp, platform.PullNone)
}
