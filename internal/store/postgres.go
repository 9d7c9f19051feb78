package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
)

// OwnerStore resolves car ownership from the relational side of the system
// (cars and users live in Postgres; alerts live in Mongo).
type OwnerStore struct {
	pool *pgxpool.Pool
}

// NewOwnerStore connects to Postgres and verifies the connection.
func NewOwnerStore(ctx context.Context, connString string) (*OwnerStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Printf("Connected to Postgres")

	return &OwnerStore{pool: pool}, nil
}

// GetContact returns the owner contact info for a car. A car with no owner
// row is an error; the engine treats any lookup error as owner unknown.
func (s *OwnerStore) GetContact(ctx context.Context, carID string) (*models.OwnerContact, error) {
	const query = `
		SELECT COALESCE(u.email, ''), COALESCE(u.phone, ''), COALESCE(c.model, '')
		FROM cars c
		JOIN users u ON u.user_id = c.owner_id
		WHERE c.car_id = $1`

	var contact models.OwnerContact
	err := s.pool.QueryRow(ctx, query, carID).Scan(&contact.Email, &contact.Phone, &contact.CarModel)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no owner found for car %s", carID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up owner for car %s: %w", carID, err)
	}

	return &contact, nil
}

// Ping verifies the Postgres connection.
func (s *OwnerStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *OwnerStore) Close() {
	s.pool.Close()
}
