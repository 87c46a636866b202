package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gardenlab/garden-telemetry/internal/model/entities"
	"github.com/gardenlab/garden-telemetry/internal/services/resolver"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("registry: not found")

// Store gives the pipeline read access to the entity tables owned by
// the external CRUD surface: sensors, flowerpots and the pot-sensor
// association. The core never writes these tables.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and verifies the connection.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("registry: pool config: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("registry: database unreachable: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports whether the database still answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// OwnersBySensor resolves the association table: every pot linked to
// the sensor, each joined with its garden.
func (s *Store) OwnersBySensor(ctx context.Context, sensorID int64) ([]resolver.Owner, error) {
	const q = `
		SELECT fs.flowerpot_id, f.garden_id
		FROM flowerpot_sensors fs
		JOIN flowerpots f ON f.id = fs.flowerpot_id
		WHERE fs.sensor_id = $1`

	rows, err := s.pool.Query(ctx, q, sensorID)
	if err != nil {
		return nil, fmt.Errorf("registry: query links for sensor %d: %w", sensorID, err)
	}
	defer rows.Close()

	var owners []resolver.Owner
	for rows.Next() {
		var o resolver.Owner
		if err := rows.Scan(&o.FlowerpotID, &o.GardenID); err != nil {
			return nil, fmt.Errorf("registry: scan link row: %w", err)
		}
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: iterate link rows: %w", err)
	}
	return owners, nil
}

// SensorByID fetches one sensor; ErrNotFound when the id is unknown.
func (s *Store) SensorByID(ctx context.Context, id int64) (entities.Sensor, error) {
	const q = `SELECT id, name, pin, type FROM sensors WHERE id = $1`

	var sensor entities.Sensor
	err := s.pool.QueryRow(ctx, q, id).Scan(&sensor.ID, &sensor.Name, &sensor.Pin, &sensor.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Sensor{}, ErrNotFound
	}
	if err != nil {
		return entities.Sensor{}, fmt.Errorf("registry: query sensor %d: %w", id, err)
	}
	return sensor, nil
}

// FlowerpotByID fetches one pot; ErrNotFound when the id is unknown.
func (s *Store) FlowerpotByID(ctx context.Context, id int64) (entities.Flowerpot, error) {
	const q = `SELECT id, name, species, category_id, garden_id FROM flowerpots WHERE id = $1`

	var pot entities.Flowerpot
	err := s.pool.QueryRow(ctx, q, id).Scan(&pot.ID, &pot.Name, &pot.Species, &pot.CategoryID, &pot.GardenID)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Flowerpot{}, ErrNotFound
	}
	if err != nil {
		return entities.Flowerpot{}, fmt.Errorf("registry: query flowerpot %d: %w", id, err)
	}
	return pot, nil
}
