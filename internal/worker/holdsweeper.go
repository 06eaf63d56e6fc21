// Package worker hosts the background loops of the reservation engine.
package worker

import (
	"context"
	"log/slog"
	"time"

	"stayfinder/internal/usecase/commands"
)

// HoldSweeper periodically releases pending holds whose payment never
// arrived, returning their dates to the pool. Sweeping is idempotent: a
// missed tick only delays release, it never loses one.
type HoldSweeper struct {
	commands commands.ReservationCommands
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewHoldSweeper(cmds commands.ReservationCommands, interval time.Duration) *HoldSweeper {
	return &HoldSweeper{
		commands: cmds,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *HoldSweeper) Start() {
	go s.run()
}

func (s *HoldSweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *HoldSweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("hold sweeper started", "interval", s.interval)

	for {
		select {
		case <-s.stop:
			slog.Info("hold sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *HoldSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.commands.ExpireStaleHolds(ctx); err != nil {
		slog.Error("hold sweep failed", "error", err.Error())
	}
}
