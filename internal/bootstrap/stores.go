package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/database"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"go.uber.org/zap"
)

// Stores holds the repositories for the configured database driver.
type Stores struct {
	Bookings repository.BookingRepository
	Products repository.ProductRepository
	Ping     func(ctx context.Context) error
	Close    func()
}

func OpenStores(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		if cfg.AutoMigrate {
			if err := database.Migrate(cfg, log); err != nil {
				return nil, err
			}
		}
		pool, err := database.OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Bookings: repository.NewBookingRepository(pool),
			Products: repository.NewProductRepository(pool),
			Ping:     pool.Ping,
			Close:    pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := repository.CreateBunSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Stores{
			Bookings: repository.NewBunBookingRepository(db),
			Products: repository.NewBunProductRepository(db),
			Ping:     db.PingContext,
			Close: func() {
				if err := db.Close(); err != nil {
					log.Warn("close sqlite", zap.Error(err))
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
