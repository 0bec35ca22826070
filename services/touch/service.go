// Package touch polls a CAP1166 capacitive touch controller and publishes
// the touched inputs.
//
// Topics:
//
//	config/touch              types.TouchConfig (retained, consumed)
//	touch/state               types.TouchState (retained, on change)
//	touch/event               types.TouchEvent per input edge
//	touch/status              types.ServiceStatus (retained)
//	touch/control/calibrate   types.TouchCalibrate, replies on ReplyTo
//	touch/control/read_now    replies with types.TouchState
package touch

import (
	"context"
	"time"

	"clickcode-go/bus"
	"clickcode-go/drivers/cap1166"
	"clickcode-go/errcode"
	"clickcode-go/platform"
	"clickcode-go/types"
	"clickcode-go/x/mathx"
	"clickcode-go/x/timex"
)

var (
	topicConfig = bus.T("config", "touch")
	topicCtrl   = bus.T("touch", "control", "+")
	topicState  = bus.T("touch", "state")
	topicEvent  = bus.T("touch", "event")
	topicStatus = bus.T("touch", "status")
)

const (
	defaultPoll = 50 * time.Millisecond
	minPollMS   = 10
	maxPollMS   = 10_000
)

type Service struct {
	buses platform.I2CBusFactory

	conn    *bus.Connection
	dev     *cap1166.Device
	touched uint8
	failing errcode.Code
}

// New returns a touch service resolving its bus id through buses.
func New(buses platform.I2CBusFactory) *Service {
	return &Service{buses: buses}
}

// Start the touch service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.conn = conn
	go s.serviceLoop(ctx)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig)
	ctrlSub := s.conn.Subscribe(topicCtrl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishStatus("idle", "awaiting_config", nil)

	tick := time.NewTicker(defaultPoll)
	tick.Stop()
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publishStatus("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			var cfg types.TouchConfig
			if err := types.Decode(msg.Payload, &cfg); err != nil {
				s.publishStatus("degraded", "config_decode_failed", err)
				continue
			}
			if err := s.apply(cfg); err != nil {
				s.publishStatus("degraded", "configure_failed", err)
				continue
			}
			poll := time.Duration(mathx.Clamp(cfg.PollMS, minPollMS, maxPollMS)) * time.Millisecond
			if cfg.PollMS == 0 {
				poll = defaultPoll
			}
			tick.Reset(poll)
			println("Info: touch configured, polling every", poll.String())
			s.publishStatus("ready", "configured", nil)

		case msg := <-ctrlSub.Channel():
			s.control(msg)

		case now := <-tick.C:
			s.poll(now)
		}
	}
}

// apply builds the driver on the configured bus and programs it.
func (s *Service) apply(cfg types.TouchConfig) error {
	i2c, ok := s.buses.ByID(cfg.Bus)
	if !ok {
		return &errcode.E{C: errcode.NoDevice, Op: "touch", Msg: "unknown bus " + cfg.Bus}
	}
	d := cap1166.New(i2c)
	dc := cap1166.Config{
		Address:     cfg.Addr,
		Sensitivity: cfg.Sensitivity,
		Inputs:      cfg.Inputs,
		MultiTouch:  cfg.MultiTouch,
		LinkLEDs:    cfg.LinkLEDs,
	}
	copy(dc.Thresholds[:], cfg.Thresholds)
	if err := d.Configure(dc); err != nil {
		return err
	}
	s.dev = &d
	s.touched = 0
	s.failing = errcode.OK
	return nil
}

func (s *Service) poll(now time.Time) {
	if s.dev == nil {
		return
	}
	_, _ = s.sample(now)
}

// sample reads the touched inputs, clearing the latched status, and publishes
// any edges. Every read goes through here so no touch is lost between
// polls and requests.
func (s *Service) sample(now time.Time) (uint8, error) {
	mask, err := s.dev.Touched()
	if code := errcode.Of(err); code != s.failing {
		// Status follows transitions only.
		s.failing = code
		if err != nil {
			println("Warn: touch read failed:", err.Error())
			s.publishStatus("degraded", "read_failed", err)
		} else {
			s.publishStatus("ready", "recovered", nil)
		}
	}
	if err != nil {
		return 0, err
	}
	if mask == s.touched {
		return mask, nil
	}
	ts := now.UnixMilli()
	for _, ev := range Edges(s.touched, mask) {
		ev.TS = ts
		s.conn.Publish(s.conn.NewMessage(topicEvent, ev, false))
	}
	s.touched = mask
	s.conn.Publish(s.conn.NewMessage(topicState, types.TouchState{Touched: mask, TS: ts}, true))
	return mask, nil
}

func (s *Service) control(msg *bus.Message) {
	if len(msg.Topic) < 3 {
		return
	}
	method, _ := msg.Topic[2].(string)
	if s.dev == nil {
		s.replyErr(msg, string(errcode.NotReady))
		return
	}
	switch method {
	case "calibrate":
		var req types.TouchCalibrate
		if msg.Payload != nil {
			if err := types.Decode(msg.Payload, &req); err != nil {
				s.replyErr(msg, string(errcode.InvalidParams))
				return
			}
		}
		if req.Mask == 0 {
			req.Mask = 0xFF
		}
		if err := s.dev.Calibrate(req.Mask); err != nil {
			s.replyErr(msg, string(errcode.Of(err)))
			return
		}
		s.replyOK(msg, nil)
	case "read_now":
		now := time.Now()
		mask, err := s.sample(now)
		if err != nil {
			s.replyErr(msg, string(errcode.Of(err)))
			return
		}
		s.replyOK(msg, types.TouchState{Touched: mask, TS: now.UnixMilli()})
	default:
		s.replyErr(msg, string(errcode.Unsupported))
	}
}

// Edges lists the inputs that changed between two touch masks, lowest input
// first.
func Edges(prev, cur uint8) []types.TouchEvent {
	var out []types.TouchEvent
	for i := 0; i < cap1166.Inputs; i++ {
		bit := uint8(1) << i
		if (prev^cur)&bit == 0 {
			continue
		}
		out = append(out, types.TouchEvent{Input: i + 1, Pressed: cur&bit != 0})
	}
	return out
}

// ---- helpers ----

func (s *Service) publishStatus(level, status string, err error) {
	st := types.ServiceStatus{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = string(errcode.Of(err))
	}
	s.conn.Publish(s.conn.NewMessage(topicStatus, st, true))
}

func (s *Service) replyOK(req *bus.Message, result any) {
	s.conn.Reply(req, types.OKReply{OK: true, Result: result}, false)
}

func (s *Service) replyErr(req *bus.Message, e string) {
	s.conn.Reply(req, types.ErrorReply{OK: false, Error: e}, false)
}
