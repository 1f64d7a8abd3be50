package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type DashboardKPIs struct {
	Vehicles struct {
		Total     int `json:"total"`
		Available int `json:"available"`
		OnTrip    int `json:"on_trip"`
		InShop    int `json:"in_shop"`
	} `json:"vehicles"`
	Drivers struct {
		Total  int `json:"total"`
		OnDuty int `json:"on_duty"`
		OnTrip int `json:"on_trip"`
	} `json:"drivers"`
	Trips struct {
		Total        int     `json:"total"`
		Completed    int     `json:"completed"`
		TotalRevenue float64 `json:"total_revenue"`
	} `json:"trips"`
}

func (db *DB) GetDashboardKPIs() (*DashboardKPIs, error) {
	var k DashboardKPIs

	err := db.QueryRow(db.Q(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN status=? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status=? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status=? THEN 1 ELSE 0 END), 0)
		FROM vehicles WHERE is_retired=0`),
		VehicleAvailable, VehicleOnTrip, VehicleInShop).
		Scan(&k.Vehicles.Total, &k.Vehicles.Available, &k.Vehicles.OnTrip, &k.Vehicles.InShop)
	if err != nil {
		return nil, fmt.Errorf("dashboard kpis: %w", err)
	}

	err = db.QueryRow(db.Q(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN status=? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status=? THEN 1 ELSE 0 END), 0)
		FROM drivers`),
		DriverOnDuty, DriverOnTrip).
		Scan(&k.Drivers.Total, &k.Drivers.OnDuty, &k.Drivers.OnTrip)
	if err != nil {
		return nil, fmt.Errorf("dashboard kpis: %w", err)
	}

	err = db.QueryRow(db.Q(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN status=? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(revenue), 0)
		FROM trips`),
		TripCompleted).
		Scan(&k.Trips.Total, &k.Trips.Completed, &k.Trips.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("dashboard kpis: %w", err)
	}
	return &k, nil
}

type FuelEfficiencyRow struct {
	VehicleName  string  `json:"vehicle_name"`
	LicensePlate string  `json:"license_plate"`
	TotalLiters  float64 `json:"total_liters"`
	TotalCost    float64 `json:"total_cost"`
	TotalKm      float64 `json:"total_km"`
	LitersPer100 float64 `json:"liters_per_100km"`
}

// GetFuelEfficiency derives distance per vehicle from the odometer span of
// its fuel logs, so it needs at least two fills to produce a nonzero figure.
func (db *DB) GetFuelEfficiency() ([]*FuelEfficiencyRow, error) {
	rows, err := db.Query(`SELECT v.name, v.license_plate,
		COALESCE(SUM(f.liters), 0), COALESCE(SUM(f.cost), 0),
		MAX(f.odometer_km) - MIN(f.odometer_km)
		FROM fuel_logs f
		JOIN vehicles v ON f.vehicle_id = v.id
		GROUP BY v.id, v.name, v.license_plate
		ORDER BY v.name`)
	if err != nil {
		return nil, fmt.Errorf("fuel efficiency: %w", err)
	}
	defer rows.Close()

	var out []*FuelEfficiencyRow
	for rows.Next() {
		var r FuelEfficiencyRow
		if err := rows.Scan(&r.VehicleName, &r.LicensePlate, &r.TotalLiters, &r.TotalCost, &r.TotalKm); err != nil {
			return nil, err
		}
		if r.TotalKm > 0 {
			r.LitersPer100 = r.TotalLiters / r.TotalKm * 100
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

type MonthlyFinancialRow struct {
	Month           string  `json:"month"`
	Revenue         float64 `json:"revenue"`
	FuelCost        float64 `json:"fuel_cost"`
	MaintenanceCost float64 `json:"maintenance_cost"`
}

// GetMonthlyFinancials merges per-month revenue, fuel and maintenance cost.
// The three aggregates run separately and join in memory: SQLite has no
// FULL OUTER JOIN and the row count is tiny anyway.
func (db *DB) GetMonthlyFinancials() ([]*MonthlyFinancialRow, error) {
	byMonth := make(map[string]*MonthlyFinancialRow)
	get := func(month string) *MonthlyFinancialRow {
		r, ok := byMonth[month]
		if !ok {
			r = &MonthlyFinancialRow{Month: month}
			byMonth[month] = r
		}
		return r
	}

	monthKey := db.dialect.MonthKey

	rows, err := db.Query(db.Q(`SELECT `+monthKey("created_at")+`, COALESCE(SUM(revenue), 0) FROM trips WHERE status=? GROUP BY `+monthKey("created_at")), TripCompleted)
	if err != nil {
		return nil, fmt.Errorf("monthly financials: %w", err)
	}
	for rows.Next() {
		var month string
		var revenue float64
		if err := rows.Scan(&month, &revenue); err != nil {
			rows.Close()
			return nil, err
		}
		get(month).Revenue = revenue
	}
	rows.Close()

	rows, err = db.Query(`SELECT ` + monthKey("fuel_date") + `, COALESCE(SUM(cost), 0) FROM fuel_logs GROUP BY ` + monthKey("fuel_date"))
	if err != nil {
		return nil, fmt.Errorf("monthly financials: %w", err)
	}
	for rows.Next() {
		var month string
		var cost float64
		if err := rows.Scan(&month, &cost); err != nil {
			rows.Close()
			return nil, err
		}
		get(month).FuelCost = cost
	}
	rows.Close()

	rows, err = db.Query(`SELECT ` + monthKey("service_date") + `, COALESCE(SUM(cost), 0) FROM maintenance_logs GROUP BY ` + monthKey("service_date"))
	if err != nil {
		return nil, fmt.Errorf("monthly financials: %w", err)
	}
	for rows.Next() {
		var month string
		var cost float64
		if err := rows.Scan(&month, &cost); err != nil {
			rows.Close()
			return nil, err
		}
		get(month).MaintenanceCost = cost
	}
	rows.Close()

	out := make([]*MonthlyFinancialRow, 0, len(byMonth))
	for _, r := range byMonth {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	if len(out) > 12 {
		out = out[:12]
	}
	return out, nil
}

type DailyProfitRow struct {
	Date            string  `json:"date"`
	Revenue         float64 `json:"revenue"`
	FuelCost        float64 `json:"fuel_cost"`
	MaintenanceCost float64 `json:"maintenance_cost"`
	Profit          float64 `json:"profit"`
}

// GetDailyProfit reports the last 30 calendar days, including days with no
// activity at all.
func (db *DB) GetDailyProfit() ([]*DailyProfitRow, error) {
	today := time.Now()
	byDate := make(map[string]*DailyProfitRow, 30)
	out := make([]*DailyProfitRow, 0, 30)
	for i := 29; i >= 0; i-- {
		d := today.AddDate(0, 0, -i).Format("2006-01-02")
		r := &DailyProfitRow{Date: d}
		byDate[d] = r
		out = append(out, r)
	}
	since := formatTime(today.AddDate(0, 0, -30))
	dateKey := db.dialect.DateKey

	scan := func(query string, args []any, set func(*DailyProfitRow, float64)) error {
		rows, err := db.Query(db.Q(query), args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var date string
			var amount float64
			if err := rows.Scan(&date, &amount); err != nil {
				return err
			}
			if r, ok := byDate[date]; ok {
				set(r, amount)
			}
		}
		return rows.Err()
	}

	err := scan(`SELECT `+dateKey("created_at")+`, COALESCE(SUM(revenue), 0) FROM trips WHERE status=? AND created_at >= ? GROUP BY `+dateKey("created_at"),
		[]any{TripCompleted, since}, func(r *DailyProfitRow, v float64) { r.Revenue = v })
	if err != nil {
		return nil, fmt.Errorf("daily profit: %w", err)
	}
	err = scan(`SELECT `+dateKey("fuel_date")+`, COALESCE(SUM(cost), 0) FROM fuel_logs WHERE fuel_date >= ? GROUP BY `+dateKey("fuel_date"),
		[]any{since}, func(r *DailyProfitRow, v float64) { r.FuelCost = v })
	if err != nil {
		return nil, fmt.Errorf("daily profit: %w", err)
	}
	err = scan(`SELECT `+dateKey("service_date")+`, COALESCE(SUM(cost), 0) FROM maintenance_logs WHERE service_date >= ? GROUP BY `+dateKey("service_date"),
		[]any{since}, func(r *DailyProfitRow, v float64) { r.MaintenanceCost = v })
	if err != nil {
		return nil, fmt.Errorf("daily profit: %w", err)
	}

	for _, r := range out {
		r.Profit = r.Revenue - r.FuelCost - r.MaintenanceCost
	}
	return out, nil
}

type BookingGeographyRow struct {
	City         string  `json:"city"`
	BookingCount int     `json:"booking_count"`
	TotalRevenue float64 `json:"total_revenue"`
}

// GetBookingGeography groups trips by the city portion of the origin, taken
// as the text after the last comma.
func (db *DB) GetBookingGeography() ([]*BookingGeographyRow, error) {
	rows, err := db.Query(`SELECT origin, revenue FROM trips WHERE origin <> ''`)
	if err != nil {
		return nil, fmt.Errorf("booking geography: %w", err)
	}
	defer rows.Close()

	byCity := make(map[string]*BookingGeographyRow)
	for rows.Next() {
		var origin string
		var revenue float64
		if err := rows.Scan(&origin, &revenue); err != nil {
			return nil, err
		}
		city := origin
		if i := strings.LastIndex(origin, ","); i >= 0 {
			city = origin[i+1:]
		}
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		r, ok := byCity[city]
		if !ok {
			r = &BookingGeographyRow{City: city}
			byCity[city] = r
		}
		r.BookingCount++
		r.TotalRevenue += revenue
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*BookingGeographyRow, 0, len(byCity))
	for _, r := range byCity {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookingCount != out[j].BookingCount {
			return out[i].BookingCount > out[j].BookingCount
		}
		return out[i].City < out[j].City
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

type VehicleCostRow struct {
	VehicleID       int64   `json:"vehicle_id"`
	VehicleName     string  `json:"vehicle_name"`
	LicensePlate    string  `json:"license_plate"`
	AcquisitionCost float64 `json:"acquisition_cost"`
	FuelCost        float64 `json:"fuel_cost"`
	MaintenanceCost float64 `json:"maintenance_cost"`
	Revenue         float64 `json:"revenue"`
	OperationalCost float64 `json:"total_operational_cost"`
}

// GetVehicleCosts sums per-vehicle fuel, maintenance and revenue for the
// cost-of-ownership view, highest operational cost first.
func (db *DB) GetVehicleCosts() ([]*VehicleCostRow, error) {
	rows, err := db.Query(`SELECT v.id, v.name, v.license_plate, v.acquisition_cost,
		COALESCE((SELECT SUM(cost) FROM fuel_logs f WHERE f.vehicle_id = v.id), 0),
		COALESCE((SELECT SUM(cost) FROM maintenance_logs m WHERE m.vehicle_id = v.id), 0),
		COALESCE((SELECT SUM(revenue) FROM trips t WHERE t.vehicle_id = v.id AND t.status = 'COMPLETED'), 0)
		FROM vehicles v WHERE v.is_retired=0`)
	if err != nil {
		return nil, fmt.Errorf("vehicle costs: %w", err)
	}
	defer rows.Close()

	var out []*VehicleCostRow
	for rows.Next() {
		var r VehicleCostRow
		if err := rows.Scan(&r.VehicleID, &r.VehicleName, &r.LicensePlate, &r.AcquisitionCost, &r.FuelCost, &r.MaintenanceCost, &r.Revenue); err != nil {
			return nil, err
		}
		r.OperationalCost = r.FuelCost + r.MaintenanceCost
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OperationalCost > out[j].OperationalCost })
	return out, nil
}
