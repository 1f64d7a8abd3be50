package store

import (
	"database/sql"
	"fmt"
	"time"
)

type MaintenanceLog struct {
	ID             int64      `json:"id"`
	VehicleID      int64      `json:"vehicle_id"`
	ServiceType    string     `json:"service_type"`
	Description    string     `json:"description"`
	Cost           float64    `json:"cost"`
	ServiceDate    time.Time  `json:"service_date"`
	NextServiceDue *time.Time `json:"next_service_due,omitempty"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

const maintenanceSelectCols = `id, vehicle_id, service_type, description, cost, service_date, next_service_due, created_by, created_at`

func scanMaintenanceLog(row interface{ Scan(...any) error }) (*MaintenanceLog, error) {
	var m MaintenanceLog
	var serviceDate, nextDue, createdAt any
	err := row.Scan(&m.ID, &m.VehicleID, &m.ServiceType, &m.Description, &m.Cost, &serviceDate, &nextDue, &m.CreatedBy, &createdAt)
	if err != nil {
		return nil, err
	}
	m.ServiceDate = parseTime(serviceDate)
	m.NextServiceDue = parseTimePtr(nextDue)
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

// CreateMaintenanceLog records a service entry and moves the vehicle to
// IN_SHOP in the same transaction, so a log can never exist for a vehicle
// that still shows available.
func (db *DB) CreateMaintenanceLog(m *MaintenanceLog) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("create maintenance log: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO maintenance_logs (vehicle_id, service_type, description, cost, service_date, next_service_due, created_by) VALUES (?, ?, ?, ?, ?, ?, ?)`
	args := []any{m.VehicleID, m.ServiceType, m.Description, m.Cost, formatTime(m.ServiceDate), formatTimePtr(m.NextServiceDue), m.CreatedBy}
	if db.driver == "postgres" {
		err = tx.QueryRow(db.Q(query+" RETURNING id"), args...).Scan(&m.ID)
	} else {
		var result sql.Result
		result, err = tx.Exec(query, args...)
		if err == nil {
			m.ID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return fmt.Errorf("create maintenance log: %w", err)
	}

	_, err = tx.Exec(db.Q(`UPDATE vehicles SET status=?, updated_at=datetime('now','localtime') WHERE id=?`), VehicleInShop, m.VehicleID)
	if err != nil {
		return fmt.Errorf("create maintenance log: %w", err)
	}
	return tx.Commit()
}

func (db *DB) UpdateMaintenanceLog(m *MaintenanceLog) error {
	_, err := db.Exec(db.Q(`UPDATE maintenance_logs SET service_type=?, description=?, cost=?, service_date=?, next_service_due=? WHERE id=?`),
		m.ServiceType, m.Description, m.Cost, formatTime(m.ServiceDate), formatTimePtr(m.NextServiceDue), m.ID)
	if err != nil {
		return fmt.Errorf("update maintenance log: %w", err)
	}
	return nil
}

func (db *DB) DeleteMaintenanceLog(id int64) error {
	result, err := db.Exec(db.Q(`DELETE FROM maintenance_logs WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete maintenance log: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) GetMaintenanceLog(id int64) (*MaintenanceLog, error) {
	return scanMaintenanceLog(db.QueryRow(db.Q(`SELECT `+maintenanceSelectCols+` FROM maintenance_logs WHERE id=?`), id))
}

func (db *DB) ListMaintenanceLogs(vehicleID int64) ([]*MaintenanceLog, error) {
	query := `SELECT ` + maintenanceSelectCols + ` FROM maintenance_logs`
	var args []any
	if vehicleID > 0 {
		query += ` WHERE vehicle_id=?`
		args = append(args, vehicleID)
	}
	query += ` ORDER BY service_date DESC, id DESC`

	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list maintenance logs: %w", err)
	}
	defer rows.Close()

	var logs []*MaintenanceLog
	for rows.Next() {
		m, err := scanMaintenanceLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, m)
	}
	return logs, rows.Err()
}
