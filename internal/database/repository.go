// Package database provides PostgreSQL storage for measurements and status checks.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ar-measure/backend/internal/config"
	"github.com/ar-measure/backend/internal/models"
)

// listLimit caps every list query. There is no pagination; callers beyond
// the cap get no further records.
const listLimit = 1000

// ErrMeasurementNotFound is returned when a delete targets an id with no
// matching document.
var ErrMeasurementNotFound = errors.New("measurement not found")

// Repository defines the storage operations for measurements and status checks.
type Repository interface {
	// CreateStatusCheck stores a new status check with a generated id and
	// the current server time.
	CreateStatusCheck(ctx context.Context, req *models.CreateStatusCheckRequest) (*models.StatusCheck, error)

	// GetStatusChecks retrieves stored status checks in insertion order,
	// capped at 1000.
	GetStatusChecks(ctx context.Context) ([]models.StatusCheck, error)

	// CreateMeasurement stores a new measurement with a generated id and
	// the current server time in epoch milliseconds.
	CreateMeasurement(ctx context.Context, req *models.CreateMeasurementRequest) (*models.Measurement, error)

	// GetMeasurements retrieves measurements newest first, capped at 1000.
	GetMeasurements(ctx context.Context) ([]models.Measurement, error)

	// GetMeasurementByID retrieves a measurement by id, or nil if absent.
	GetMeasurementByID(ctx context.Context, id string) (*models.Measurement, error)

	// DeleteMeasurement removes a measurement by id. Returns
	// ErrMeasurementNotFound when no document matched.
	DeleteMeasurement(ctx context.Context, id string) error

	// Close closes the database connection.
	Close()
}

// PostgresRepository implements Repository using PostgreSQL. Points and
// results are stored as JSONB so the nested documents round-trip without a
// relational mapping.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresRepository connects to PostgreSQL and ensures the schema exists.
func NewPostgresRepository(cfg *config.Config, logger *zap.Logger) (Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresRepository{
		pool:   pool,
		logger: logger,
	}

	if err := repo.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to PostgreSQL database")
	return repo, nil
}

// migrate creates the collections if they don't exist.
func (r *PostgresRepository) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS status_checks (
			id UUID PRIMARY KEY,
			client_name TEXT NOT NULL,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS measurements (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			mode TEXT NOT NULL,
			points JSONB NOT NULL DEFAULT '[]',
			calibration_scale DOUBLE PRECISION NOT NULL,
			result JSONB NOT NULL DEFAULT '{}',
			unit TEXT NOT NULL,
			timestamp_ms BIGINT NOT NULL,
			image_data TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_measurements_timestamp ON measurements(timestamp_ms);
	`

	_, err := r.pool.Exec(ctx, query)
	return err
}

// CreateStatusCheck stores a new status check.
func (r *PostgresRepository) CreateStatusCheck(ctx context.Context, req *models.CreateStatusCheckRequest) (*models.StatusCheck, error) {
	check := &models.StatusCheck{
		ID:         uuid.New().String(),
		ClientName: req.ClientName,
		Timestamp:  time.Now().UTC(),
	}

	query := `INSERT INTO status_checks (id, client_name, timestamp) VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, check.ID, check.ClientName, check.Timestamp); err != nil {
		r.logger.Error("Failed to create status check", zap.Error(err))
		return nil, fmt.Errorf("failed to create status check: %w", err)
	}

	r.logger.Info("Created status check",
		zap.String("id", check.ID),
		zap.String("client", check.ClientName),
	)
	return check, nil
}

// GetStatusChecks retrieves stored status checks.
func (r *PostgresRepository) GetStatusChecks(ctx context.Context) ([]models.StatusCheck, error) {
	query := `
		SELECT id, client_name, timestamp
		FROM status_checks
		ORDER BY timestamp ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, listLimit)
	if err != nil {
		r.logger.Error("Failed to get status checks", zap.Error(err))
		return nil, fmt.Errorf("failed to get status checks: %w", err)
	}
	defer rows.Close()

	checks := []models.StatusCheck{}
	for rows.Next() {
		var check models.StatusCheck
		if err := rows.Scan(&check.ID, &check.ClientName, &check.Timestamp); err != nil {
			r.logger.Error("Failed to scan status check row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan status check: %w", err)
		}
		checks = append(checks, check)
	}

	return checks, nil
}

// newMeasurement builds the persisted document from a validated create
// request, assigning the generated id and the server timestamp.
func newMeasurement(req *models.CreateMeasurementRequest) *models.Measurement {
	points := make([]models.Point, 0, len(req.Points))
	for _, p := range req.Points {
		points = append(points, models.Point{X: *p.X, Y: *p.Y, ID: p.ID})
	}

	return &models.Measurement{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Mode:             req.Mode,
		Points:           points,
		CalibrationScale: *req.CalibrationScale,
		Result:           *req.Result,
		Unit:             req.Unit,
		Timestamp:        time.Now().UnixMilli(),
		ImageData:        req.ImageData,
	}
}

// CreateMeasurement stores a new measurement.
func (r *PostgresRepository) CreateMeasurement(ctx context.Context, req *models.CreateMeasurementRequest) (*models.Measurement, error) {
	measurement := newMeasurement(req)

	query := `
		INSERT INTO measurements (id, name, mode, points, calibration_scale, result, unit, timestamp_ms, image_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		measurement.ID,
		measurement.Name,
		measurement.Mode,
		measurement.Points,
		measurement.CalibrationScale,
		measurement.Result,
		measurement.Unit,
		measurement.Timestamp,
		measurement.ImageData,
	)

	if err != nil {
		r.logger.Error("Failed to create measurement", zap.Error(err))
		return nil, fmt.Errorf("failed to create measurement: %w", err)
	}

	r.logger.Info("Created measurement",
		zap.String("id", measurement.ID),
		zap.String("mode", measurement.Mode),
	)
	return measurement, nil
}

// GetMeasurements retrieves measurements ordered by timestamp descending.
func (r *PostgresRepository) GetMeasurements(ctx context.Context) ([]models.Measurement, error) {
	query := `
		SELECT id, name, mode, points, calibration_scale, result, unit, timestamp_ms, image_data
		FROM measurements
		ORDER BY timestamp_ms DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, listLimit)
	if err != nil {
		r.logger.Error("Failed to get measurements", zap.Error(err))
		return nil, fmt.Errorf("failed to get measurements: %w", err)
	}
	defer rows.Close()

	measurements := []models.Measurement{}
	for rows.Next() {
		var m models.Measurement
		err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Mode,
			&m.Points,
			&m.CalibrationScale,
			&m.Result,
			&m.Unit,
			&m.Timestamp,
			&m.ImageData,
		)
		if err != nil {
			r.logger.Error("Failed to scan measurement row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		measurements = append(measurements, m)
	}

	return measurements, nil
}

// GetMeasurementByID retrieves a measurement by its id.
func (r *PostgresRepository) GetMeasurementByID(ctx context.Context, id string) (*models.Measurement, error) {
	query := `
		SELECT id, name, mode, points, calibration_scale, result, unit, timestamp_ms, image_data
		FROM measurements
		WHERE id = $1
	`

	var m models.Measurement
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.Mode,
		&m.Points,
		&m.CalibrationScale,
		&m.Result,
		&m.Unit,
		&m.Timestamp,
		&m.ImageData,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get measurement", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get measurement: %w", err)
	}

	return &m, nil
}

// DeleteMeasurement removes a measurement by its id.
func (r *PostgresRepository) DeleteMeasurement(ctx context.Context, id string) error {
	query := `DELETE FROM measurements WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete measurement", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete measurement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMeasurementNotFound
	}

	r.logger.Info("Deleted measurement", zap.String("id", id))
	return nil
}

// Close closes the database connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
	r.logger.Info("Closed database connection")
}
