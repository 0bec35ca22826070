package main

import (
	"context"
	"errors"
	"time"

	"clickcode-go/bus"
	"clickcode-go/drivers/softi2c"
	"clickcode-go/platform"
	"clickcode-go/services/clockgen"
	"clickcode-go/services/config"
	"clickcode-go/services/heartbeat"
	"clickcode-go/services/touch"
	"clickcode-go/types"
	"clickcode-go/x/strx"
	"clickcode-go/x/timex"
)

const (
	busQueueLen   = 16
	configTimeout = 5 * time.Second

	backendSim = "sim"
)

// app owns everything main used to keep in globals: the message bus, the
// software I2C buses and the services running on them.
type app struct {
	bus   *bus.Bus
	buses *platform.Buses
	sims  []*simBoard
}

func newApp() *app {
	return &app{bus: bus.NewBus(busQueueLen)}
}

// start publishes the configuration, builds the software buses it describes
// and starts the services.
func (a *app) start(ctx context.Context) error {
	config.NewConfigService().Start(ctx, a.bus.NewConnection("config"))

	conn := a.bus.NewConnection("app")
	var cfg types.SoftI2CConfig
	if err := waitConfig(ctx, conn, "softi2c", &cfg); err != nil {
		return err
	}
	if err := a.openBuses(cfg); err != nil {
		return err
	}

	_ = heartbeat.New(a.buses).Start(ctx, a.bus.NewConnection("heartbeat"))
	_ = touch.New(a.buses).Start(ctx, a.bus.NewConnection("touch"))
	_ = clockgen.New(a.buses).Start(ctx, a.bus.NewConnection("clockgen"))
	println("Info: services started")
	return nil
}

// openBuses builds one software I2C bus per configured entry.
func (a *app) openBuses(cfg types.SoftI2CConfig) error {
	backend := strx.Coalesce(cfg.Backend, platform.BackendFake)
	if backend == backendSim {
		a.buses = platform.NewBuses(nil, nil)
	} else {
		pins, err := platform.Open(backend)
		if err != nil {
			return err
		}
		a.buses = platform.NewBuses(pins, platform.DefaultI2CFactory())
	}

	for _, bc := range cfg.Buses {
		sc := softi2c.Config{
			HalfPeriod:   timex.HalfPeriod(strx.Coalesce(bc.FreqHz, 100_000)),
			StretchLimit: bc.StretchLimit,
		}
		if bc.HalfPeriodUS > 0 {
			sc.HalfPeriod = timex.Micros(bc.HalfPeriodUS)
		}
		var err error
		if backend == backendSim {
			sb := newSimBoard()
			a.sims = append(a.sims, sb)
			scl, sda := sb.lines()
			_, err = a.buses.AddLines(bc.ID, scl, sda, sc)
		} else {
			_, err = a.buses.Add(bc.ID, bc.SCL, bc.SDA, pullFor(bc.Pull), sc)
		}
		if err != nil {
			println("Warn: softi2c bus", bc.ID, "not opened:", err.Error())
			continue
		}
		println("Info: softi2c bus", bc.ID, "on", backend)
	}
	return nil
}

func pullFor(s string) platform.Pull {
	switch s {
	case "up":
		return platform.PullUp
	case "down":
		return platform.PullDown
	}
	return platform.PullNone
}

// waitConfig waits for the retained config/<key> message and decodes it.
func waitConfig[T any](ctx context.Context, conn *bus.Connection, key string, dst *T) error {
	sub := conn.Subscribe(bus.T("config", key))
	defer conn.Unsubscribe(sub)

	t := time.NewTimer(configTimeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return errors.New("no config/" + key)
	case m := <-sub.Channel():
		return types.Decode(m.Payload, dst)
	}
}
