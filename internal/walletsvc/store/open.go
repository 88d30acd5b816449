package store

import (
	"context"
	"fmt"

	"github.com/romcheg/offline-cards/internal/db"
	pgdb "github.com/romcheg/offline-cards/internal/walletsvc/db"
)

// Open connects the store selected by driver and prepares its schema. The
// returned close func releases the connection.
func Open(ctx context.Context, driver, postgresURL, mongoURI string) (CardStore, func(), error) {
	switch driver {
	case "postgres":
		pool, err := pgdb.Connect(postgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s := NewPostgresCardStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pgdb.ClosePool()
			return nil, nil, err
		}
		return s, pgdb.ClosePool, nil
	case "mongo":
		database, err := db.ConnectToDB(mongoURI)
		if err != nil {
			return nil, nil, err
		}
		s := NewMongoCardStore(database)
		if err := s.EnsureIndexes(ctx); err != nil {
			db.Disconnect(database)
			return nil, nil, err
		}
		return s, func() { db.Disconnect(database) }, nil
	case "memory", "":
		return NewMemoryCardStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", driver)
}
