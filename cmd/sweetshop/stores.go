package main

import (
	"context"
	"fmt"

	"github.com/sweetshop/inventory-api/internal/api/handler"
	"github.com/sweetshop/inventory-api/internal/core/ports"
	"github.com/sweetshop/inventory-api/internal/infrastructure/db/mongo"
	"github.com/sweetshop/inventory-api/internal/infrastructure/db/sqlstore"
	"github.com/sweetshop/inventory-api/internal/pkg/config"
)

// stores is the persistence backend selected by STORE_DRIVER.
type stores struct {
	users   ports.UserRepository
	items   ports.ItemRepository
	migrate func(ctx context.Context) error
	ping    handler.Check
	close   func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	timeout := cfg.Store.Timeout

	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, err
		}
		return &stores{
			users:   mongo.NewUserRepository(db, timeout),
			items:   mongo.NewItemRepository(db, timeout),
			migrate: func(ctx context.Context) error { return mongo.EnsureIndexes(ctx, db) },
			ping:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:   client.Disconnect,
		}, nil

	case config.DriverMySQL, config.DriverSQLite:
		dialect, dsn := sqlstore.MySQL, cfg.SQL.MySQLDSN
		if cfg.Store.Driver == config.DriverSQLite {
			dialect, dsn = sqlstore.SQLite, cfg.SQL.SQLitePath
		}
		db, err := sqlstore.Open(ctx, dialect, dsn)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:   sqlstore.NewUserRepository(db, timeout),
			items:   sqlstore.NewItemRepository(db, timeout),
			migrate: db.Migrate,
			ping:    db.PingContext,
			close:   func(context.Context) error { return db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
