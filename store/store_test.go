package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fleetflow/config"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

func testVehicle(t *testing.T, db *DB) *Vehicle {
	t.Helper()
	v := &Vehicle{Name: "Truck 7", Model: "Volvo FH16", LicensePlate: "KA-01-" + t.Name(), VehicleType: "truck", MaxCapacityKg: 12000, OdometerKm: 52000}
	if err := db.CreateVehicle(v); err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	return v
}

func testDriver(t *testing.T, db *DB) *Driver {
	t.Helper()
	d := &Driver{Name: "Asha Rao", LicenseNumber: "DL-" + t.Name(), LicenseExpiry: time.Now().AddDate(2, 0, 0)}
	if err := db.CreateDriver(d); err != nil {
		t.Fatalf("create driver: %v", err)
	}
	return d
}

// --- Vehicle tests ---

func TestVehicleCRUD(t *testing.T) {
	db := testDB(t)

	v := &Vehicle{Name: "Truck 1", Model: "Tata Prima", LicensePlate: "MH-12-3456", VehicleType: "truck", MaxCapacityKg: 9000, AcquisitionCost: 4200000}
	if err := db.CreateVehicle(v); err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.ID == 0 {
		t.Fatal("ID should be assigned")
	}
	if v.Status != VehicleAvailable {
		t.Errorf("Status = %q, want %q", v.Status, VehicleAvailable)
	}

	got, err := db.GetVehicle(v.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LicensePlate != "MH-12-3456" {
		t.Errorf("LicensePlate = %q, want %q", got.LicensePlate, "MH-12-3456")
	}
	if got.MaxCapacityKg != 9000 {
		t.Errorf("MaxCapacityKg = %v, want 9000", got.MaxCapacityKg)
	}

	got.Name = "Truck 1B"
	got.OdometerKm = 100
	if err := db.UpdateVehicle(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = db.GetVehicle(v.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Name != "Truck 1B" || got.OdometerKm != 100 {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestVehicleRetire(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)

	if err := db.RetireVehicle(v.ID); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if _, err := db.GetVehicle(v.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("retired vehicle should not be visible, got err=%v", err)
	}
	vehicles, err := db.ListVehicles("", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, lv := range vehicles {
		if lv.ID == v.ID {
			t.Error("retired vehicle should not be listed")
		}
	}

	if err := db.RetireVehicle(99999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("retire missing = %v, want ErrNoRows", err)
	}
}

func TestVehicleListFilters(t *testing.T) {
	db := testDB(t)
	v1 := testVehicle(t, db)
	v2 := &Vehicle{Name: "Van 1", LicensePlate: "VAN-1", VehicleType: "van", Status: VehicleInShop}
	if err := db.CreateVehicle(v2); err != nil {
		t.Fatalf("create: %v", err)
	}

	inShop, err := db.ListVehicles(VehicleInShop, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(inShop) != 1 || inShop[0].ID != v2.ID {
		t.Errorf("status filter returned %d rows", len(inShop))
	}

	trucks, err := db.ListVehicles("", "truck")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trucks) != 1 || trucks[0].ID != v1.ID {
		t.Errorf("type filter returned %d rows", len(trucks))
	}
}

// --- Driver tests ---

func TestDriverCRUD(t *testing.T) {
	db := testDB(t)

	exp := time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)
	d := &Driver{Name: "Ravi Kumar", LicenseNumber: "DL-0042", LicenseExpiry: exp, Phone: "+911234567890"}
	if err := db.CreateDriver(d); err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Status != DriverOnDuty {
		t.Errorf("Status = %q, want %q", d.Status, DriverOnDuty)
	}
	if d.SafetyScore != 100 {
		t.Errorf("SafetyScore = %v, want 100", d.SafetyScore)
	}

	got, err := db.GetDriver(d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.LicenseExpiry.Equal(exp) {
		t.Errorf("LicenseExpiry = %v, want %v", got.LicenseExpiry, exp)
	}

	if err := db.DeleteDriver(d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetDriver(d.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("get after delete = %v, want ErrNoRows", err)
	}
}

// --- Trip tests ---

func TestTripCreateAndList(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)
	d := testDriver(t, db)

	tr := &Trip{VehicleID: v.ID, DriverID: d.ID, CargoWeightKg: 500, Origin: "Pune, MH", Destination: "Mumbai, MH", CreatedBy: 1}
	if err := db.CreateTrip(tr); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if tr.Status != TripDraft {
		t.Errorf("Status = %q, want %q", tr.Status, TripDraft)
	}

	got, err := db.GetTrip(tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StartTime != nil || got.EndTime != nil || got.EndOdometer != nil {
		t.Error("new trip should have no start/end fields set")
	}

	details, err := db.ListTripDetails()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("list returned %d rows, want 1", len(details))
	}
	if details[0].VehicleName != v.Name || details[0].DriverName != d.Name {
		t.Errorf("join fields = %q/%q", details[0].VehicleName, details[0].DriverName)
	}
}

func TestTripTxLifecycle(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)
	d := testDriver(t, db)
	tr := &Trip{VehicleID: v.ID, DriverID: d.ID, CargoWeightKg: 100}
	if err := db.CreateTrip(tr); err != nil {
		t.Fatalf("create trip: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	lv, err := db.GetVehicleForUpdate(tx, v.ID)
	if err != nil {
		t.Fatalf("lock vehicle: %v", err)
	}
	if lv.Status != VehicleAvailable {
		t.Fatalf("vehicle status = %q", lv.Status)
	}
	if err := db.SetVehicleStatusTx(tx, v.ID, VehicleOnTrip); err != nil {
		t.Fatalf("set vehicle status: %v", err)
	}
	if err := db.SetDriverStatusTx(tx, d.ID, DriverOnTrip); err != nil {
		t.Fatalf("set driver status: %v", err)
	}
	start := time.Now()
	if err := db.MarkTripDispatchedTx(tx, tr.ID, start); err != nil {
		t.Fatalf("mark dispatched: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := db.GetTrip(tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != TripDispatched {
		t.Errorf("Status = %q, want %q", got.Status, TripDispatched)
	}
	if got.StartTime == nil {
		t.Error("StartTime should be set after dispatch")
	}

	// Release guards only fire while the rows still show ON_TRIP.
	tx, err = db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := db.ReleaseVehicleTx(tx, v.ID); err != nil {
		t.Fatalf("release vehicle: %v", err)
	}
	if err := db.ReleaseDriverTx(tx, d.ID); err != nil {
		t.Fatalf("release driver: %v", err)
	}
	if err := db.DeleteTripTx(tx, tr.ID); err != nil {
		t.Fatalf("delete trip: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	gv, _ := db.GetVehicle(v.ID)
	if gv.Status != VehicleAvailable {
		t.Errorf("vehicle status after release = %q", gv.Status)
	}
	if _, err := db.GetTrip(tr.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("trip should be deleted, got err=%v", err)
	}
}

func TestReleaseVehicleGuard(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)

	// Vehicle already IN_SHOP: the conditional release must not touch it.
	if err := db.UpdateVehicle(&Vehicle{ID: v.ID, Name: v.Name, Model: v.Model, LicensePlate: v.LicensePlate, VehicleType: v.VehicleType, MaxCapacityKg: v.MaxCapacityKg, OdometerKm: v.OdometerKm, Status: VehicleInShop}); err != nil {
		t.Fatalf("update: %v", err)
	}
	tx, _ := db.Begin()
	if err := db.ReleaseVehicleTx(tx, v.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	tx.Commit()

	got, _ := db.GetVehicle(v.ID)
	if got.Status != VehicleInShop {
		t.Errorf("status = %q, release should have been a no-op", got.Status)
	}
}

// --- Fuel and maintenance tests ---

func TestFuelLogCRUD(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)

	f := &FuelLog{VehicleID: v.ID, Liters: 60, Cost: 5400, FuelDate: time.Now(), OdometerKm: 52100}
	if err := db.CreateFuelLog(f); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := db.GetFuelLog(f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TripID != nil {
		t.Error("TripID should be nil when not supplied")
	}

	logs, err := db.ListFuelLogs(v.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("list returned %d rows", len(logs))
	}
	none, err := db.ListFuelLogs(v.ID + 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("filter returned %d rows, want 0", len(none))
	}
}

func TestMaintenanceMovesVehicleToShop(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)

	m := &MaintenanceLog{VehicleID: v.ID, ServiceType: "brake_service", Cost: 8000, ServiceDate: time.Now()}
	if err := db.CreateMaintenanceLog(m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("ID should be assigned")
	}

	got, err := db.GetVehicle(v.ID)
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	if got.Status != VehicleInShop {
		t.Errorf("vehicle status = %q, want %q", got.Status, VehicleInShop)
	}
}

// --- User tests ---

func TestUserCRUD(t *testing.T) {
	db := testDB(t)

	u := &User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: RoleFleetManager, IsActive: true}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := db.GetUserByEmail("admin@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.Role != RoleFleetManager || !got.IsActive {
		t.Errorf("got %+v", got)
	}
	if got.LastLoginAt != nil {
		t.Error("LastLoginAt should start nil")
	}

	if err := db.TouchUserLogin(u.ID); err != nil {
		t.Fatalf("touch login: %v", err)
	}
	got, _ = db.GetUser(u.ID)
	if got.LastLoginAt == nil {
		t.Error("LastLoginAt should be set after touch")
	}

	n, err := db.CountUsers()
	if err != nil || n != 1 {
		t.Errorf("CountUsers = %d, %v", n, err)
	}
}

// --- Outbox tests ---

func TestOutboxLifecycle(t *testing.T) {
	db := testDB(t)

	if err := db.EnqueueOutbox("fleet.events", []byte(`{"a":1}`), "trip_dispatched"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := db.EnqueueOutbox("fleet.events", []byte(`{"b":2}`), "trip_completed"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := db.PendingOutbox(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	if err := db.MarkOutboxSent(pending[0].ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := db.BumpOutboxRetry(pending[1].ID); err != nil {
		t.Fatalf("retries: %v", err)
	}

	pending, err = db.PendingOutbox(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending after send = %d, want 1", len(pending))
	}
	if pending[0].Retries != 1 {
		t.Errorf("Retries = %d, want 1", pending[0].Retries)
	}
}

// --- Audit tests ---

func TestAuditLog(t *testing.T) {
	db := testDB(t)

	if err := db.AppendAudit("trip", 7, "dispatched", "DRAFT", "DISPATCHED", "admin@example.com"); err != nil {
		t.Fatalf("append: %v", err)
	}
	tx, _ := db.Begin()
	if err := db.AppendAuditTx(tx, "trip", 7, "cancelled", "DISPATCHED", "", "admin@example.com"); err != nil {
		t.Fatalf("append tx: %v", err)
	}
	tx.Commit()

	entries, err := db.ListEntityAudit("trip", 7)
	if err != nil {
		t.Fatalf("list entity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Action != "cancelled" {
		t.Errorf("newest first: got %q", entries[0].Action)
	}

	all, err := db.ListAuditLog(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("limit ignored, got %d", len(all))
	}
}

// --- Analytics tests ---

func TestDashboardKPIs(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)
	d := testDriver(t, db)

	tr := &Trip{VehicleID: v.ID, DriverID: d.ID}
	if err := db.CreateTrip(tr); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	tx, _ := db.Begin()
	rev := 1500.0
	if err := db.MarkTripCompletedTx(tx, tr.ID, time.Now(), nil, rev); err != nil {
		t.Fatalf("complete: %v", err)
	}
	tx.Commit()

	k, err := db.GetDashboardKPIs()
	if err != nil {
		t.Fatalf("kpis: %v", err)
	}
	if k.Vehicles.Total != 1 || k.Vehicles.Available != 1 {
		t.Errorf("vehicles = %+v", k.Vehicles)
	}
	if k.Drivers.Total != 1 || k.Drivers.OnDuty != 1 {
		t.Errorf("drivers = %+v", k.Drivers)
	}
	if k.Trips.Completed != 1 || k.Trips.TotalRevenue != rev {
		t.Errorf("trips = %+v", k.Trips)
	}
}

func TestDashboardKPIsEmptyDatabase(t *testing.T) {
	db := testDB(t)

	k, err := db.GetDashboardKPIs()
	if err != nil {
		t.Fatalf("kpis on empty db: %v", err)
	}
	if k.Vehicles.Total != 0 || k.Vehicles.Available != 0 || k.Vehicles.OnTrip != 0 || k.Vehicles.InShop != 0 {
		t.Errorf("vehicles = %+v, want zeros", k.Vehicles)
	}
	if k.Drivers.Total != 0 || k.Drivers.OnDuty != 0 || k.Drivers.OnTrip != 0 {
		t.Errorf("drivers = %+v, want zeros", k.Drivers)
	}
	if k.Trips.Total != 0 || k.Trips.Completed != 0 || k.Trips.TotalRevenue != 0 {
		t.Errorf("trips = %+v, want zeros", k.Trips)
	}
}

func TestFuelEfficiency(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)

	for _, f := range []FuelLog{
		{VehicleID: v.ID, Liters: 50, Cost: 4500, FuelDate: time.Now().AddDate(0, 0, -10), OdometerKm: 1000},
		{VehicleID: v.ID, Liters: 50, Cost: 4500, FuelDate: time.Now(), OdometerKm: 1500},
	} {
		f := f
		if err := db.CreateFuelLog(&f); err != nil {
			t.Fatalf("create fuel log: %v", err)
		}
	}

	rows, err := db.GetFuelEfficiency()
	if err != nil {
		t.Fatalf("fuel efficiency: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.TotalKm != 500 {
		t.Errorf("TotalKm = %v, want 500", r.TotalKm)
	}
	if r.LitersPer100 != 20 {
		t.Errorf("LitersPer100 = %v, want 20", r.LitersPer100)
	}
}

func TestMonthlyFinancials(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)
	d := testDriver(t, db)

	tr := &Trip{VehicleID: v.ID, DriverID: d.ID}
	if err := db.CreateTrip(tr); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	tx, _ := db.Begin()
	if err := db.MarkTripCompletedTx(tx, tr.ID, time.Now(), nil, 2000); err != nil {
		t.Fatalf("complete: %v", err)
	}
	tx.Commit()
	if err := db.CreateFuelLog(&FuelLog{VehicleID: v.ID, Liters: 40, Cost: 3600, FuelDate: time.Now(), OdometerKm: 100}); err != nil {
		t.Fatalf("fuel: %v", err)
	}

	rows, err := db.GetMonthlyFinancials()
	if err != nil {
		t.Fatalf("monthly financials: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	cur := rows[0]
	if cur.Month != time.Now().Format("2006-01") {
		t.Errorf("Month = %q", cur.Month)
	}
	if cur.Revenue != 2000 || cur.FuelCost != 3600 {
		t.Errorf("row = %+v", cur)
	}
}

func TestDailyProfitWindow(t *testing.T) {
	db := testDB(t)

	rows, err := db.GetDailyProfit()
	if err != nil {
		t.Fatalf("daily profit: %v", err)
	}
	if len(rows) != 30 {
		t.Fatalf("rows = %d, want 30", len(rows))
	}
	if rows[29].Date != time.Now().Format("2006-01-02") {
		t.Errorf("last row = %q, want today", rows[29].Date)
	}
}

func TestBookingGeography(t *testing.T) {
	db := testDB(t)
	v := testVehicle(t, db)
	d := testDriver(t, db)

	for _, origin := range []string{"Andheri, Mumbai", "Bandra, Mumbai", "Hinjewadi, Pune"} {
		tr := &Trip{VehicleID: v.ID, DriverID: d.ID, Origin: origin}
		if err := db.CreateTrip(tr); err != nil {
			t.Fatalf("create trip: %v", err)
		}
	}

	rows, err := db.GetBookingGeography()
	if err != nil {
		t.Fatalf("booking geography: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].City != "Mumbai" || rows[0].BookingCount != 2 {
		t.Errorf("top row = %+v", rows[0])
	}
}
