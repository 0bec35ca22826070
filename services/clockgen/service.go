// Package clockgen programs an Si5351A clock generator from config/clockgen
// and serves run-time frequency changes.
//
// Topics:
//
//	config/clockgen           types.ClockgenConfig (retained, consumed)
//	clockgen/state            types.ClockState (retained)
//	clockgen/control/set      types.ClockSet, replies with types.ClockOutputState
//	clockgen/control/status   replies with the device status register
//
// Outputs up to 112.5 MHz share PLLA at a fixed 900 MHz VCO. A faster output
// takes PLLB, so only one such output can be active at a time.
package clockgen

import (
	"context"
	"errors"
	"time"

	"clickcode-go/bus"
	"clickcode-go/drivers/si5351"
	"clickcode-go/errcode"
	"clickcode-go/platform"
	"clickcode-go/types"
	"clickcode-go/x/mathx"
	"clickcode-go/x/timex"
)

var (
	topicConfig = bus.T("config", "clockgen")
	topicCtrl   = bus.T("clockgen", "control", "+")
	topicState  = bus.T("clockgen", "state")
)

const (
	defaultAttempts = 5
	retryDelay      = 10 * time.Millisecond
	sharedMaxHz     = si5351.VCOMax / 8
)

type Service struct {
	buses platform.I2CBusFactory

	conn    *bus.Connection
	dev     *si5351.Device
	outputs [si5351.Outputs]types.ClockOutputState
	pllB    int // output owning PLLB, -1 if free
	lastErr error
}

// New returns a clock generator service resolving its bus id through buses.
func New(buses platform.I2CBusFactory) *Service {
	s := &Service{buses: buses, pllB: -1}
	for i := range s.outputs {
		s.outputs[i].Index = uint8(i)
	}
	return s
}

// Start the clock generator service.
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

	s.publishState(types.LinkDown)

	for {
		select {
		case <-ctx.Done():
			println("Info: clockgen service stopping")
			return

		case msg := <-cfgSub.Channel():
			var cfg types.ClockgenConfig
			if err := types.Decode(msg.Payload, &cfg); err != nil {
				s.lastErr = err
				s.publishState(types.LinkDegraded)
				continue
			}
			s.lastErr = s.apply(cfg)
			if s.lastErr != nil {
				println("Warn: clockgen configure failed:", s.lastErr.Error())
				s.publishState(types.LinkDegraded)
				continue
			}
			println("Info: clockgen configured")
			s.publishState(types.LinkUp)

		case msg := <-ctrlSub.Channel():
			s.control(msg)
		}
	}
}

// apply programs the device from cfg. Output errors are folded so one bad
// output does not stop the others.
func (s *Service) apply(cfg types.ClockgenConfig) error {
	i2c, ok := s.buses.ByID(cfg.Bus)
	if !ok {
		return &errcode.E{C: errcode.NoDevice, Op: "clockgen", Msg: "unknown bus " + cfg.Bus}
	}
	d := si5351.New(i2c)
	dc := si5351.Config{
		Address:  cfg.Addr,
		XtalHz:   cfg.XtalHz,
		XtalLoad: loadFor(cfg.LoadPF),
		Drive:    driveFor(cfg.DriveMA),
	}
	attempts := defaultAttempts
	if cfg.Attempts > 0 {
		attempts = mathx.Clamp(cfg.Attempts, 1, 100)
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = d.Configure(dc); !errors.Is(err, si5351.ErrNotReady) {
			break
		}
		time.Sleep(retryDelay)
	}
	if err != nil {
		return err
	}

	s.dev = &d
	s.pllB = -1
	for i := range s.outputs {
		s.outputs[i] = types.ClockOutputState{Index: uint8(i)}
	}
	var f errcode.Fold
	for _, o := range cfg.Outputs {
		on := o.Enabled
		_, err := s.set(types.ClockSet{Index: o.Index, Hz: o.Hz, Enabled: &on})
		f.Add(err)
	}
	return f.Err()
}

// set applies one output change.
func (s *Service) set(req types.ClockSet) (types.ClockOutputState, error) {
	if s.dev == nil {
		return types.ClockOutputState{}, errcode.NotReady
	}
	if req.Index >= si5351.Outputs {
		return types.ClockOutputState{}, si5351.ErrOutput
	}
	o := &s.outputs[req.Index]
	if req.Hz != 0 {
		pll, err := s.pickPLL(req.Index, req.Hz)
		if err != nil {
			return *o, err
		}
		plan, err := s.dev.SetFrequency(req.Index, pll, req.Hz)
		if err != nil {
			return *o, err
		}
		o.Hz = req.Hz
		o.ActualHz = plan.Hz(s.dev.XtalHz())
		o.PLL = "a"
		if pll == si5351.PLLB {
			o.PLL = "b"
			s.pllB = int(req.Index)
		} else if s.pllB == int(req.Index) {
			s.pllB = -1
		}
	}
	if req.Enabled != nil {
		on := *req.Enabled
		if on && o.Hz == 0 {
			return *o, &errcode.E{C: errcode.InvalidParams, Op: "clockgen", Msg: "output has no frequency"}
		}
		mask := s.dev.Enabled()
		if on {
			mask |= 1 << req.Index
		} else {
			mask &^= 1 << req.Index
		}
		if err := s.dev.EnableOutputs(mask); err != nil {
			return *o, err
		}
		o.Enabled = on
	}
	return *o, nil
}

func (s *Service) pickPLL(out uint8, hz uint32) (si5351.PLL, error) {
	if hz <= sharedMaxHz {
		return si5351.PLLA, nil
	}
	if s.pllB >= 0 && s.pllB != int(out) {
		return 0, &errcode.E{C: errcode.Busy, Op: "clockgen", Msg: "PLLB in use"}
	}
	return si5351.PLLB, nil
}

func (s *Service) control(msg *bus.Message) {
	if len(msg.Topic) < 3 {
		return
	}
	method, _ := msg.Topic[2].(string)
	switch method {
	case "set":
		var req types.ClockSet
		if err := types.Decode(msg.Payload, &req); err != nil {
			s.replyErr(msg, errcode.InvalidParams)
			return
		}
		st, err := s.set(req)
		if err != nil {
			s.replyErr(msg, codeOf(err))
			return
		}
		s.replyOK(msg, st)
		s.publishState(types.LinkUp)
	case "status":
		if s.dev == nil {
			s.replyErr(msg, errcode.NotReady)
			return
		}
		st, err := s.dev.Status()
		if err != nil {
			s.replyErr(msg, codeOf(err))
			return
		}
		s.replyOK(msg, map[string]any{
			"status":  st,
			"lol_a":   st&si5351.StatusLOLA != 0,
			"lol_b":   st&si5351.StatusLOLB != 0,
			"los_xtl": st&si5351.StatusLOSXtal != 0,
		})
	default:
		s.replyErr(msg, errcode.Unsupported)
	}
}

// codeOf maps driver errors onto bus error codes.
func codeOf(err error) errcode.Code {
	switch {
	case errors.Is(err, si5351.ErrRange), errors.Is(err, si5351.ErrParams), errors.Is(err, si5351.ErrOutput):
		return errcode.InvalidParams
	case errors.Is(err, si5351.ErrNotReady):
		return errcode.NotReady
	}
	return errcode.Of(err)
}

func loadFor(pf int) si5351.Load {
	switch pf {
	case 6:
		return si5351.Load6pF
	case 8:
		return si5351.Load8pF
	}
	return si5351.Load10pF
}

func driveFor(ma int) si5351.Drive {
	switch {
	case ma >= 8:
		return si5351.Drive8mA
	case ma >= 6:
		return si5351.Drive6mA
	case ma >= 4:
		return si5351.Drive4mA
	}
	return si5351.Drive2mA
}

// ---- helpers ----

func (s *Service) publishState(link types.Link) {
	st := types.ClockState{
		Link:    link,
		Outputs: append([]types.ClockOutputState(nil), s.outputs[:]...),
		TS:      timex.NowMs(),
	}
	if link != types.LinkUp && s.lastErr != nil {
		st.Error = string(codeOf(s.lastErr))
	}
	s.conn.Publish(s.conn.NewMessage(topicState, st, true))
}

func (s *Service) replyOK(req *bus.Message, result any) {
	s.conn.Reply(req, types.OKReply{OK: true, Result: result}, false)
}

func (s *Service) replyErr(req *bus.Message, c errcode.Code) {
	s.conn.Reply(req, types.ErrorReply{OK: false, Error: string(c)}, false)
}
