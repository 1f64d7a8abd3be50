package store

import (
	"database/sql"
	"fmt"
	"time"
)

type FuelLog struct {
	ID         int64     `json:"id"`
	VehicleID  int64     `json:"vehicle_id"`
	TripID     *int64    `json:"trip_id,omitempty"`
	Liters     float64   `json:"liters"`
	Cost       float64   `json:"cost"`
	FuelDate   time.Time `json:"fuel_date"`
	OdometerKm float64   `json:"odometer_km"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

const fuelSelectCols = `id, vehicle_id, trip_id, liters, cost, fuel_date, odometer_km, created_by, created_at`

func scanFuelLog(row interface{ Scan(...any) error }) (*FuelLog, error) {
	var f FuelLog
	var tripID sql.NullInt64
	var fuelDate, createdAt any
	err := row.Scan(&f.ID, &f.VehicleID, &tripID, &f.Liters, &f.Cost, &fuelDate, &f.OdometerKm, &f.CreatedBy, &createdAt)
	if err != nil {
		return nil, err
	}
	if tripID.Valid {
		f.TripID = &tripID.Int64
	}
	f.FuelDate = parseTime(fuelDate)
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}

func (db *DB) CreateFuelLog(f *FuelLog) error {
	var tripID any
	if f.TripID != nil {
		tripID = *f.TripID
	}
	id, err := db.insertID(`INSERT INTO fuel_logs (vehicle_id, trip_id, liters, cost, fuel_date, odometer_km, created_by) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.VehicleID, tripID, f.Liters, f.Cost, formatTime(f.FuelDate), f.OdometerKm, f.CreatedBy)
	if err != nil {
		return fmt.Errorf("create fuel log: %w", err)
	}
	f.ID = id
	return nil
}

func (db *DB) UpdateFuelLog(f *FuelLog) error {
	var tripID any
	if f.TripID != nil {
		tripID = *f.TripID
	}
	_, err := db.Exec(db.Q(`UPDATE fuel_logs SET trip_id=?, liters=?, cost=?, fuel_date=?, odometer_km=? WHERE id=?`),
		tripID, f.Liters, f.Cost, formatTime(f.FuelDate), f.OdometerKm, f.ID)
	if err != nil {
		return fmt.Errorf("update fuel log: %w", err)
	}
	return nil
}

func (db *DB) DeleteFuelLog(id int64) error {
	result, err := db.Exec(db.Q(`DELETE FROM fuel_logs WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete fuel log: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) GetFuelLog(id int64) (*FuelLog, error) {
	return scanFuelLog(db.QueryRow(db.Q(`SELECT `+fuelSelectCols+` FROM fuel_logs WHERE id=?`), id))
}

// ListFuelLogs returns fuel logs newest first, optionally filtered by vehicle.
func (db *DB) ListFuelLogs(vehicleID int64) ([]*FuelLog, error) {
	query := `SELECT ` + fuelSelectCols + ` FROM fuel_logs`
	var args []any
	if vehicleID > 0 {
		query += ` WHERE vehicle_id=?`
		args = append(args, vehicleID)
	}
	query += ` ORDER BY fuel_date DESC, id DESC`

	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list fuel logs: %w", err)
	}
	defer rows.Close()

	var logs []*FuelLog
	for rows.Next() {
		f, err := scanFuelLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, f)
	}
	return logs, rows.Err()
}
