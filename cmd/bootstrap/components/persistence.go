package components

import (
	"stayfinder/internal/infra/pg"
	"stayfinder/internal/infra/readstore"
	"stayfinder/internal/infra/uow"
	"stayfinder/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(queries.ReservationReadStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) pg.DBTX {
	return pool
}
