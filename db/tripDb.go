package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ddc002021/MapServerMCP/models"

	_ "github.com/lib/pq"
)

type TripRepository interface {
	ListTrips() ([]models.Trip, error)
	Close() error
}

type PostgresTripRepository struct {
	db *sql.DB
}

func NewPostgresTripRepository(databaseURL string) (*PostgresTripRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresTripRepository{db: db}, nil
}

func (r *PostgresTripRepository) ListTrips() ([]models.Trip, error) {
	query := `
		SELECT trip_date, trip_hour, mode, distance_km, duration_minutes,
		       origin_lat, origin_lon, origin_label,
		       dest_lat, dest_lon, dest_label
		FROM mapagent.trip_history
		ORDER BY trip_date DESC, trip_hour DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		var trip models.Trip
		err := rows.Scan(
			&trip.Date, &trip.Hour, &trip.Mode, &trip.DistanceKM, &trip.DurationMinutes,
			&trip.Origin.Lat, &trip.Origin.Lon, &trip.Origin.Label,
			&trip.Destination.Lat, &trip.Destination.Lon, &trip.Destination.Label,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}

	return trips, nil
}

func (r *PostgresTripRepository) Close() error {
	return r.db.Close()
}

// JSONTripRepository serves trips from a static JSON file, the default when
// no database is configured. The file is read once at construction.
type JSONTripRepository struct {
	trips []models.Trip
}

func NewJSONTripRepository(dataFile string) (*JSONTripRepository, error) {
	raw, err := os.ReadFile(dataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read trip data file: %w", err)
	}

	var trips []models.Trip
	if err := json.Unmarshal(raw, &trips); err != nil {
		return nil, fmt.Errorf("failed to parse trip data file: %w", err)
	}

	return &JSONTripRepository{trips: trips}, nil
}

func (r *JSONTripRepository) ListTrips() ([]models.Trip, error) {
	trips := make([]models.Trip, len(r.trips))
	copy(trips, r.trips)
	return trips, nil
}

func (r *JSONTripRepository) Close() error {
	return nil
}
