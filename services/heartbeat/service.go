// Package heartbeat prints a liveness line and publishes the counters of the
// software I2C buses on heartbeat/softi2c/<id> at a configurable interval.
package heartbeat

import (
	"context"
	"time"

	"clickcode-go/bus"
	"clickcode-go/platform"
	"clickcode-go/types"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

const defaultInterval = time.Second

// StatsSource supplies bus counters; *platform.Buses implements it.
type StatsSource interface {
	Stats() []platform.BusStats
}

type Service struct {
	stats StatsSource
	last  map[string]platform.BusStats
}

// New returns a heartbeat service. stats may be nil.
func New(stats StatsSource) *Service {
	return &Service{stats: stats, last: map[string]platform.BusStats{}}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case t := <-tick.C:
			println("Info:", t.Format("15:04:05"), "Heartbeat")
			s.publishStats(conn, t)
		case msg := <-cfgSub.Channel():
			var cfg types.HeartbeatConfig
			if err := types.Decode(msg.Payload, &cfg); err != nil || cfg.Interval <= 0 {
				println("Warn: heartbeat: ignoring config")
				continue
			}
			tick.Reset(time.Duration(cfg.Interval * float64(time.Second)))
			println("Info:", "Heartbeat interval set to", cfg.Interval, "seconds")
		}
	}
}

// publishStats publishes each bus's counters and warns when faults grew
// since the last beat.
func (s *Service) publishStats(conn *bus.Connection, now time.Time) {
	if s.stats == nil {
		return
	}
	for _, st := range s.stats.Stats() {
		prev := s.last[st.ID]
		if st.Timeouts > prev.Timeouts || st.ArbitrationLosts > prev.ArbitrationLosts {
			println("Warn: softi2c", st.ID, "timeouts", st.Timeouts, "arbitration losses", st.ArbitrationLosts)
		}
		s.last[st.ID] = st
		conn.Publish(conn.NewMessage(bus.T("heartbeat", "softi2c", st.ID), types.SoftI2CStats{
			Bus:              st.ID,
			Transactions:     st.Transactions,
			Nacks:            st.Nacks,
			Timeouts:         st.Timeouts,
			ArbitrationLosts: st.ArbitrationLosts,
			TS:               now.UnixMilli(),
		}, false))
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
