package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Driver statuses.
const (
	DriverOnDuty    = "ON_DUTY"
	DriverOnTrip    = "ON_TRIP"
	DriverOffDuty   = "OFF_DUTY"
	DriverSuspended = "SUSPENDED"
)

type Driver struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	LicenseNumber string    `json:"license_number"`
	LicenseExpiry time.Time `json:"license_expiry"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	SafetyScore   float64   `json:"safety_score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const driverSelectCols = `id, name, license_number, license_expiry, phone, email, status, safety_score, created_at, updated_at`

func scanDriver(row interface{ Scan(...any) error }) (*Driver, error) {
	var d Driver
	var licenseExpiry, createdAt, updatedAt any
	err := row.Scan(&d.ID, &d.Name, &d.LicenseNumber, &licenseExpiry, &d.Phone,
		&d.Email, &d.Status, &d.SafetyScore, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	d.LicenseExpiry = parseTime(licenseExpiry)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

func scanDrivers(rows *sql.Rows) ([]*Driver, error) {
	var drivers []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (db *DB) CreateDriver(d *Driver) error {
	if d.Status == "" {
		d.Status = DriverOnDuty
	}
	if d.SafetyScore == 0 {
		d.SafetyScore = 100
	}
	id, err := db.insertID(`INSERT INTO drivers (name, license_number, license_expiry, phone, email, status, safety_score) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.LicenseNumber, formatTime(d.LicenseExpiry), d.Phone, d.Email, d.Status, d.SafetyScore)
	if err != nil {
		return fmt.Errorf("create driver: %w", err)
	}
	d.ID = id
	return nil
}

func (db *DB) GetDriver(id int64) (*Driver, error) {
	return scanDriver(db.QueryRow(db.Q(`SELECT `+driverSelectCols+` FROM drivers WHERE id=?`), id))
}

func (db *DB) UpdateDriver(d *Driver) error {
	_, err := db.Exec(db.Q(`UPDATE drivers SET name=?, license_expiry=?, phone=?, email=?, status=?, safety_score=?, updated_at=datetime('now','localtime') WHERE id=?`),
		d.Name, formatTime(d.LicenseExpiry), d.Phone, d.Email, d.Status, d.SafetyScore, d.ID)
	if err != nil {
		return fmt.Errorf("update driver: %w", err)
	}
	return nil
}

func (db *DB) DeleteDriver(id int64) error {
	result, err := db.Exec(db.Q(`DELETE FROM drivers WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete driver: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) ListDrivers(status string) ([]*Driver, error) {
	query := `SELECT ` + driverSelectCols + ` FROM drivers`
	var args []any
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()
	return scanDrivers(rows)
}
