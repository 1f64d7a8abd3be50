package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Trip statuses. There is no CANCELLED status: cancellation removes the row
// and leaves an audit_log entry instead.
const (
	TripDraft      = "DRAFT"
	TripDispatched = "DISPATCHED"
	TripCompleted  = "COMPLETED"
)

type Trip struct {
	ID            int64      `json:"id"`
	VehicleID     int64      `json:"vehicle_id"`
	DriverID      int64      `json:"driver_id"`
	CargoWeightKg float64    `json:"cargo_weight_kg"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	Status        string     `json:"status"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	EndOdometer   *float64   `json:"end_odometer,omitempty"`
	Revenue       float64    `json:"revenue"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TripDetail is the denormalized listing row (trip joined with vehicle and driver).
type TripDetail struct {
	Trip
	VehicleName string `json:"vehicle_name"`
	VehicleType string `json:"vehicle_type"`
	DriverName  string `json:"driver_name"`
}

const tripSelectCols = `id, vehicle_id, driver_id, cargo_weight_kg, origin, destination, status, start_time, end_time, end_odometer, revenue, created_by, created_at, updated_at`

func scanTrip(row interface{ Scan(...any) error }) (*Trip, error) {
	var t Trip
	var startTime, endTime any
	var endOdometer sql.NullFloat64
	var createdAt, updatedAt any
	err := row.Scan(&t.ID, &t.VehicleID, &t.DriverID, &t.CargoWeightKg, &t.Origin,
		&t.Destination, &t.Status, &startTime, &endTime, &endOdometer, &t.Revenue,
		&t.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.StartTime = parseTimePtr(startTime)
	t.EndTime = parseTimePtr(endTime)
	if endOdometer.Valid {
		t.EndOdometer = &endOdometer.Float64
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

func (db *DB) CreateTrip(t *Trip) error {
	if t.Status == "" {
		t.Status = TripDraft
	}
	id, err := db.insertID(`INSERT INTO trips (vehicle_id, driver_id, cargo_weight_kg, origin, destination, status, created_by) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.VehicleID, t.DriverID, t.CargoWeightKg, t.Origin, t.Destination, t.Status, t.CreatedBy)
	if err != nil {
		return fmt.Errorf("create trip: %w", err)
	}
	t.ID = id
	return nil
}

func (db *DB) GetTrip(id int64) (*Trip, error) {
	return scanTrip(db.QueryRow(db.Q(`SELECT `+tripSelectCols+` FROM trips WHERE id=?`), id))
}

// ListTripDetails returns trips joined with vehicle name/type and driver name,
// newest first, for the dashboard listing.
func (db *DB) ListTripDetails() ([]*TripDetail, error) {
	rows, err := db.Query(db.Q(`SELECT t.id, t.vehicle_id, t.driver_id, t.cargo_weight_kg, t.origin, t.destination, t.status,
			t.start_time, t.end_time, t.end_odometer, t.revenue, t.created_by, t.created_at, t.updated_at,
			v.name, v.vehicle_type, d.name
		FROM trips t
		JOIN vehicles v ON t.vehicle_id = v.id
		JOIN drivers d ON t.driver_id = d.id
		ORDER BY t.created_at DESC`))
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var trips []*TripDetail
	for rows.Next() {
		var td TripDetail
		var startTime, endTime any
		var endOdometer sql.NullFloat64
		var createdAt, updatedAt any
		err := rows.Scan(&td.ID, &td.VehicleID, &td.DriverID, &td.CargoWeightKg,
			&td.Origin, &td.Destination, &td.Status, &startTime, &endTime,
			&endOdometer, &td.Revenue, &td.CreatedBy, &createdAt, &updatedAt,
			&td.VehicleName, &td.VehicleType, &td.DriverName)
		if err != nil {
			return nil, err
		}
		td.StartTime = parseTimePtr(startTime)
		td.EndTime = parseTimePtr(endTime)
		if endOdometer.Valid {
			td.EndOdometer = &endOdometer.Float64
		}
		td.CreatedAt = parseTime(createdAt)
		td.UpdatedAt = parseTime(updatedAt)
		trips = append(trips, &td)
	}
	return trips, rows.Err()
}

// --- Transaction-scoped operations used by the trip dispatcher. ---
//
// The ForUpdate variants must be called inside a transaction; the returned
// values reflect the row as locked, so status checks made on them hold until
// commit. On SQLite the lock clause is empty and the single write connection
// provides the mutual exclusion instead.

func (db *DB) GetTripTx(tx *sql.Tx, id int64) (*Trip, error) {
	return scanTrip(tx.QueryRow(db.Q(`SELECT `+tripSelectCols+` FROM trips WHERE id=?`), id))
}

func (db *DB) GetVehicleForUpdate(tx *sql.Tx, id int64) (*Vehicle, error) {
	return scanVehicle(tx.QueryRow(db.Q(`SELECT `+vehicleSelectCols+` FROM vehicles WHERE id=?`+db.dialect.RowLock()), id))
}

func (db *DB) GetDriverForUpdate(tx *sql.Tx, id int64) (*Driver, error) {
	return scanDriver(tx.QueryRow(db.Q(`SELECT `+driverSelectCols+` FROM drivers WHERE id=?`+db.dialect.RowLock()), id))
}

func (db *DB) SetVehicleStatusTx(tx *sql.Tx, id int64, status string) error {
	_, err := tx.Exec(db.Q(`UPDATE vehicles SET status=?, updated_at=datetime('now','localtime') WHERE id=?`), status, id)
	return err
}

func (db *DB) SetVehicleStatusOdometerTx(tx *sql.Tx, id int64, status string, odometerKm float64) error {
	_, err := tx.Exec(db.Q(`UPDATE vehicles SET status=?, odometer_km=?, updated_at=datetime('now','localtime') WHERE id=?`), status, odometerKm, id)
	return err
}

func (db *DB) SetDriverStatusTx(tx *sql.Tx, id int64, status string) error {
	_, err := tx.Exec(db.Q(`UPDATE drivers SET status=?, updated_at=datetime('now','localtime') WHERE id=?`), status, id)
	return err
}

// ReleaseVehicleTx frees a vehicle only if this trip still holds it: the
// WHERE status guard keeps a cancel from clobbering a vehicle that was
// already freed or reassigned.
func (db *DB) ReleaseVehicleTx(tx *sql.Tx, id int64) error {
	_, err := tx.Exec(db.Q(`UPDATE vehicles SET status=?, updated_at=datetime('now','localtime') WHERE id=? AND status=?`),
		VehicleAvailable, id, VehicleOnTrip)
	return err
}

func (db *DB) ReleaseDriverTx(tx *sql.Tx, id int64) error {
	_, err := tx.Exec(db.Q(`UPDATE drivers SET status=?, updated_at=datetime('now','localtime') WHERE id=? AND status=?`),
		DriverOnDuty, id, DriverOnTrip)
	return err
}

func (db *DB) MarkTripDispatchedTx(tx *sql.Tx, id int64, startTime time.Time) error {
	_, err := tx.Exec(db.Q(`UPDATE trips SET status=?, start_time=?, updated_at=datetime('now','localtime') WHERE id=?`),
		TripDispatched, formatTime(startTime), id)
	return err
}

func (db *DB) MarkTripCompletedTx(tx *sql.Tx, id int64, endTime time.Time, endOdometer *float64, revenue float64) error {
	var odo any
	if endOdometer != nil {
		odo = *endOdometer
	}
	_, err := tx.Exec(db.Q(`UPDATE trips SET status=?, end_time=?, end_odometer=?, revenue=?, updated_at=datetime('now','localtime') WHERE id=?`),
		TripCompleted, formatTime(endTime), odo, revenue, id)
	return err
}

func (db *DB) DeleteTripTx(tx *sql.Tx, id int64) error {
	_, err := tx.Exec(db.Q(`DELETE FROM trips WHERE id=?`), id)
	return err
}
