package storage

import (
	"context"
	"fmt"

	"rental/internal/domain/admindashboard"
	"rental/internal/domain/admins"
	"rental/internal/domain/blockeddates"
	"rental/internal/domain/bookings"
	"rental/internal/domain/messages"
	"rental/internal/domain/pricingrules"
	"rental/internal/domain/settings"
	"rental/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool         *pgxpool.Pool // IMPORTANT: set the pool so WithTx works
	Bookings     bookings.Store
	BlockedDates blockeddates.Store
	PricingRules pricingrules.Store
	Settings     settings.Store
	Messages     messages.Store
	Admins       admins.Store
	Dashboard    admindashboard.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:         db,
		Bookings:     bookings.NewRepository(db),
		BlockedDates: blockeddates.NewRepository(db),
		PricingRules: pricingrules.NewRepository(db),
		Settings:     settings.NewRepository(db),
		Messages:     messages.NewRepository(db),
		Admins:       admins.NewRepository(db),
		Dashboard:    admindashboard.NewRepository(db),
	}
}

// Tx is a temporary, tx-scoped set of repos for atomic units of work.
type Tx struct {
	Bookings     bookings.Store
	BlockedDates blockeddates.Store
	PricingRules pricingrules.Store
	Settings     settings.Store
}

// UnitOfWork runs fn atomically against tx-scoped repositories.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(tx *Tx) error) error
}

// WithTx runs a booking unit-of-work atomically.
func (c *Container) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil (did you forget to set pool in NewContainer?)")
	}

	return dbx.WithTx(ctx, c.pool, func(tx pgx.Tx) error {
		return fn(&Tx{
			Bookings:     bookings.NewRepository(tx),
			BlockedDates: blockeddates.NewRepository(tx),
			PricingRules: pricingrules.NewRepository(tx),
			Settings:     settings.NewRepository(tx),
		})
	})
}
