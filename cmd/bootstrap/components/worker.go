package components

import (
	"context"

	"stayfinder/internal/pkg/config"
	"stayfinder/internal/usecase/commands"
	"stayfinder/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewHoldSweeper,
	),
	fx.Invoke(startHoldSweeper),
)

func NewHoldSweeper(cfg config.Config, cmds commands.ReservationCommands) *worker.HoldSweeper {
	return worker.NewHoldSweeper(cmds, cfg.Reservation.HoldSweepInterval)
}

func startHoldSweeper(lc fx.Lifecycle, sweeper *worker.HoldSweeper) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			sweeper.Stop()
			return nil
		},
	})
}
