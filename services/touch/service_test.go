package touch

import (
	"context"
	"testing"
	"time"

	"clickcode-go/bus"
	"clickcode-go/drivers/softi2c"
	"clickcode-go/drivers/softi2c/i2csim"
	"clickcode-go/platform"
	"clickcode-go/types"
)

func newRig(t *testing.T) (*i2csim.Target, *bus.Connection, context.CancelFunc) {
	t.Helper()
	w := i2csim.New()
	tg := w.Attach(i2csim.NewTarget(0x28))
	tg.Set(0xFD, 0x51, 0x5D, 0x83)
	scl, sda := w.Master()

	buses := platform.NewBuses(nil, nil)
	if _, err := buses.AddLines("soft0", scl, sda, softi2c.Config{StretchLimit: 100, Delay: func(time.Duration) {}}); err != nil {
		t.Fatalf("AddLines: %v", err)
	}

	conn := bus.NewBus(32).NewConnection("test-touch")
	ctx, cancel := context.WithCancel(context.Background())
	if err := New(buses).Start(ctx, conn); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(cancel)
	// Published once the service has subscribed.
	waitStatus(t, conn, "idle")
	return tg, conn, cancel
}

func waitStatus(t *testing.T, conn *bus.Connection, level string) types.ServiceStatus {
	t.Helper()
	sub := conn.Subscribe(topicStatus)
	defer conn.Unsubscribe(sub)
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.ServiceStatus); ok && st.Level == level {
				return st
			}
		case <-deadline:
			t.Fatalf("timeout waiting for touch status %q", level)
		}
	}
}

func TestEdges(t *testing.T) {
	got := Edges(0b000101, 0b100100)
	want := []types.TouchEvent{{Input: 1, Pressed: false}, {Input: 6, Pressed: true}}
	if len(got) != len(want) {
		t.Fatalf("Edges = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Edges = %+v, want %+v", got, want)
		}
	}
	if Edges(0x3F, 0x3F) != nil {
		t.Fatal("no change should give no events")
	}
}

func TestTouch_PublishesEventsAndState(t *testing.T) {
	tg, conn, _ := newRig(t)
	evSub := conn.Subscribe(topicEvent)
	stSub := conn.Subscribe(topicState)

	conn.Publish(conn.NewMessage(topicConfig, map[string]any{"bus": "soft0", "poll_ms": 10}, true))
	waitStatus(t, conn, "ready")
	if tg.Reg(0x1F) != 0x2F {
		t.Fatalf("sensitivity not programmed: %#02x", tg.Reg(0x1F))
	}

	tg.Set(0x03, 0b000011)
	for _, want := range []types.TouchEvent{{Input: 1, Pressed: true}, {Input: 2, Pressed: true}} {
		select {
		case m := <-evSub.Channel():
			ev := m.Payload.(types.TouchEvent)
			if ev.Input != want.Input || ev.Pressed != want.Pressed {
				t.Fatalf("event = %+v, want %+v", ev, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %+v", want)
		}
	}
	select {
	case m := <-stSub.Channel():
		if st := m.Payload.(types.TouchState); st.Touched != 0b000011 {
			t.Fatalf("state = %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for touch/state")
	}

	tg.Set(0x03, 0b000010)
	select {
	case m := <-evSub.Channel():
		if ev := m.Payload.(types.TouchEvent); ev.Input != 1 || ev.Pressed {
			t.Fatalf("release event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for release")
	}
}

func TestTouch_UnknownBusDegrades(t *testing.T) {
	_, conn, _ := newRig(t)
	conn.Publish(conn.NewMessage(topicConfig, types.TouchConfig{Bus: "soft9"}, true))
	if st := waitStatus(t, conn, "degraded"); st.Error != "no_device" {
		t.Fatalf("status = %+v, want no_device", st)
	}
}

func TestTouch_Control(t *testing.T) {
	tg, conn, _ := newRig(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Before configuration the device is not ready.
	rep, err := conn.RequestWait(ctx, conn.NewMessage(bus.T("touch", "control", "calibrate"), nil, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if e, ok := rep.Payload.(types.ErrorReply); !ok || e.Error != "not_ready" {
		t.Fatalf("reply = %#v", rep.Payload)
	}

	conn.Publish(conn.NewMessage(topicConfig, types.TouchConfig{Bus: "soft0", PollMS: 1000}, true))
	waitStatus(t, conn, "ready")

	rep, err = conn.RequestWait(ctx, conn.NewMessage(bus.T("touch", "control", "calibrate"), types.TouchCalibrate{Mask: 0x05}, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if r, ok := rep.Payload.(types.OKReply); !ok || !r.OK {
		t.Fatalf("reply = %#v", rep.Payload)
	}
	if tg.Reg(0x26) != 0x05 {
		t.Fatalf("calibrate register = %#02x", tg.Reg(0x26))
	}

	tg.Set(0x03, 0b010000)
	rep, err = conn.RequestWait(ctx, conn.NewMessage(bus.T("touch", "control", "read_now"), nil, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	r, ok := rep.Payload.(types.OKReply)
	if !ok || r.Result.(types.TouchState).Touched != 0b010000 {
		t.Fatalf("read_now reply = %#v", rep.Payload)
	}

	rep, err = conn.RequestWait(ctx, conn.NewMessage(bus.T("touch", "control", "reboot"), nil, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if e, ok := rep.Payload.(types.ErrorReply); !ok || e.Error != "unsupported" {
		t.Fatalf("reply = %#v", rep.Payload)
	}
}

func TestTouch_ReadNowPublishesEdges(t *testing.T) {
	tg, conn, _ := newRig(t)
	evSub := conn.Subscribe(topicEvent)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Slowest poll rate so only the request samples the controller.
	conn.Publish(conn.NewMessage(topicConfig, types.TouchConfig{Bus: "soft0", PollMS: maxPollMS}, true))
	waitStatus(t, conn, "ready")

	tg.Set(0x03, 0b000100)
	rep, err := conn.RequestWait(ctx, conn.NewMessage(bus.T("touch", "control", "read_now"), nil, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if r, ok := rep.Payload.(types.OKReply); !ok || r.Result.(types.TouchState).Touched != 0b000100 {
		t.Fatalf("read_now reply = %#v", rep.Payload)
	}
	select {
	case m := <-evSub.Channel():
		if ev := m.Payload.(types.TouchEvent); ev.Input != 3 || !ev.Pressed {
			t.Fatalf("event = %+v, want input 3 pressed", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("read_now touch produced no event")
	}
}
