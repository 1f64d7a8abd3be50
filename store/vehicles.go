package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Vehicle statuses. ON_TRIP is only ever set by the dispatcher inside a
// trip transaction; IN_SHOP by maintenance logging.
const (
	VehicleAvailable    = "AVAILABLE"
	VehicleOnTrip       = "ON_TRIP"
	VehicleInShop       = "IN_SHOP"
	VehicleOutOfService = "OUT_OF_SERVICE"
)

type Vehicle struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Model           string    `json:"model"`
	LicensePlate    string    `json:"license_plate"`
	VehicleType     string    `json:"vehicle_type"`
	MaxCapacityKg   float64   `json:"max_capacity_kg"`
	OdometerKm      float64   `json:"odometer_km"`
	AcquisitionCost float64   `json:"acquisition_cost"`
	Status          string    `json:"status"`
	Retired         bool      `json:"is_retired"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

const vehicleSelectCols = `id, name, model, license_plate, vehicle_type, max_capacity_kg, odometer_km, acquisition_cost, status, is_retired, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*Vehicle, error) {
	var v Vehicle
	var retired int
	var createdAt, updatedAt any
	err := row.Scan(&v.ID, &v.Name, &v.Model, &v.LicensePlate, &v.VehicleType,
		&v.MaxCapacityKg, &v.OdometerKm, &v.AcquisitionCost, &v.Status, &retired,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	v.Retired = retired != 0
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	return &v, nil
}

func scanVehicles(rows *sql.Rows) ([]*Vehicle, error) {
	var vehicles []*Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (db *DB) CreateVehicle(v *Vehicle) error {
	if v.Status == "" {
		v.Status = VehicleAvailable
	}
	id, err := db.insertID(`INSERT INTO vehicles (name, model, license_plate, vehicle_type, max_capacity_kg, odometer_km, acquisition_cost, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Name, v.Model, v.LicensePlate, v.VehicleType, v.MaxCapacityKg, v.OdometerKm, v.AcquisitionCost, v.Status)
	if err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}
	v.ID = id
	return nil
}

func (db *DB) GetVehicle(id int64) (*Vehicle, error) {
	return scanVehicle(db.QueryRow(db.Q(`SELECT `+vehicleSelectCols+` FROM vehicles WHERE id=? AND is_retired=0`), id))
}

func (db *DB) UpdateVehicle(v *Vehicle) error {
	_, err := db.Exec(db.Q(`UPDATE vehicles SET name=?, model=?, vehicle_type=?, max_capacity_kg=?, odometer_km=?, acquisition_cost=?, status=?, updated_at=datetime('now','localtime') WHERE id=?`),
		v.Name, v.Model, v.VehicleType, v.MaxCapacityKg, v.OdometerKm, v.AcquisitionCost, v.Status, v.ID)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

// RetireVehicle soft-deletes: the row stays for trip/fuel history.
func (db *DB) RetireVehicle(id int64) error {
	result, err := db.Exec(db.Q(`UPDATE vehicles SET is_retired=1, updated_at=datetime('now','localtime') WHERE id=? AND is_retired=0`), id)
	if err != nil {
		return fmt.Errorf("retire vehicle: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) ListVehicles(status, vehicleType string) ([]*Vehicle, error) {
	query := `SELECT ` + vehicleSelectCols + ` FROM vehicles WHERE is_retired=0`
	var args []any
	if status != "" {
		query += ` AND status=?`
		args = append(args, status)
	}
	if vehicleType != "" {
		query += ` AND vehicle_type=?`
		args = append(args, vehicleType)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()
	return scanVehicles(rows)
}
