package components

import (
	"stayfinder/internal/domain/reservation"
	"stayfinder/internal/pkg/clock"
	"stayfinder/internal/pkg/config"
	"stayfinder/internal/usecase/commands"
	"stayfinder/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(cfg config.Config) config.ReservationConfig {
		return cfg.Reservation
	},
	fx.Annotate(
		NewPriceCalculator,
		fx.As(new(reservation.PriceCalculator)),
	),
	reservation.NewFactory,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewReservationCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewReservationQueries,
		queries.NewAvailabilityQueries,
	),
)

func NewPriceCalculator(cfg config.ReservationConfig) *reservation.NightlyPriceCalculator {
	return reservation.NewNightlyPriceCalculator(cfg.ServiceFeeCents)
}
