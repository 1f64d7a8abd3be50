package www

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fleetflow/config"
	"fleetflow/engine"
	"fleetflow/fleetstate"
	"fleetflow/store"
)

func testServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.Auth.JWTSecret = "test-secret"

	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		DB:         db,
		FleetState: fleetstate.NewManager(db, nil),
		LogFunc:    func(format string, args ...any) {},
	})
	eng.Start()
	t.Cleanup(eng.Stop)

	handler, stop := NewRouter(eng)
	t.Cleanup(stop)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, eng
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// adminToken logs in as the bootstrap admin.
func adminToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := doJSON(t, "POST", srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "admin@fleetflow.local",
		"password": "admin",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login status = %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &out)
	if out.Token == "" {
		t.Fatal("empty token")
	}
	return out.Token
}

func TestHealthCheck(t *testing.T) {
	srv, _ := testServer(t)
	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out map[string]any
	decodeBody(t, resp, &out)
	if out["status"] != "ok" {
		t.Errorf("status = %v, want ok", out["status"])
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := testServer(t)
	resp, err := http.Get(srv.URL + "/api/vehicles")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLoginBadPassword(t *testing.T) {
	srv, _ := testServer(t)
	resp := doJSON(t, "POST", srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "admin@fleetflow.local",
		"password": "wrong",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRegisterAndMe(t *testing.T) {
	srv, _ := testServer(t)
	resp := doJSON(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{
		"name":     "Priya Sharma",
		"email":    "priya@example.com",
		"password": "secret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
	var out struct {
		Token string     `json:"token"`
		User  store.User `json:"user"`
	}
	decodeBody(t, resp, &out)
	if out.User.Role != store.RoleDispatcher {
		t.Errorf("default role = %s, want DISPATCHER", out.User.Role)
	}

	resp = doJSON(t, "GET", srv.URL+"/api/auth/me", out.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", resp.StatusCode)
	}
	var me store.User
	decodeBody(t, resp, &me)
	if me.Email != "priya@example.com" {
		t.Errorf("me email = %s", me.Email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv, _ := testServer(t)
	body := map[string]string{"name": "A", "email": "dup@example.com", "password": "secret"}
	resp := doJSON(t, "POST", srv.URL+"/api/auth/register", "", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register status = %d", resp.StatusCode)
	}
	resp = doJSON(t, "POST", srv.URL+"/api/auth/register", "", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second register status = %d, want 409", resp.StatusCode)
	}
}

func TestVehicleCRUD(t *testing.T) {
	srv, _ := testServer(t)
	token := adminToken(t, srv)

	resp := doJSON(t, "POST", srv.URL+"/api/vehicles", token, map[string]any{
		"name":            "Tata Ace",
		"model":           "Ace Gold",
		"license_plate":   "MH12AB1234",
		"vehicle_type":    "TRUCK",
		"max_capacity_kg": 750,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var v store.Vehicle
	decodeBody(t, resp, &v)
	if v.ID == 0 || v.Status != store.VehicleAvailable {
		t.Fatalf("unexpected vehicle: %+v", v)
	}

	resp = doJSON(t, "GET", fmt.Sprintf("%s/api/vehicles/%d", srv.URL, v.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "PUT", fmt.Sprintf("%s/api/vehicles/%d", srv.URL, v.ID), token, map[string]any{
		"status": store.VehicleOutOfService,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &v)
	if v.Status != store.VehicleOutOfService {
		t.Errorf("status = %s, want OUT_OF_SERVICE", v.Status)
	}

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/vehicles/%d", srv.URL, v.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("retire status = %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", fmt.Sprintf("%s/api/vehicles/%d", srv.URL, v.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after retire status = %d, want 404", resp.StatusCode)
	}
}

func TestVehicleUpdateRejectsOnTripStatus(t *testing.T) {
	srv, _ := testServer(t)
	token := adminToken(t, srv)

	var v store.Vehicle
	resp := doJSON(t, "POST", srv.URL+"/api/vehicles", token, map[string]any{
		"name":            "Eicher Pro",
		"license_plate":   "KA05CD5678",
		"max_capacity_kg": 5000,
	})
	decodeBody(t, resp, &v)

	resp = doJSON(t, "PUT", fmt.Sprintf("%s/api/vehicles/%d", srv.URL, v.ID), token, map[string]any{
		"status": store.VehicleOnTrip,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRetireRequiresFleetManager(t *testing.T) {
	srv, _ := testServer(t)
	admin := adminToken(t, srv)

	resp := doJSON(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "password": "secret",
	})
	var reg struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &reg)

	var v store.Vehicle
	resp = doJSON(t, "POST", srv.URL+"/api/vehicles", admin, map[string]any{
		"name": "Mahindra Bolero", "license_plate": "DL01EF9012", "max_capacity_kg": 1000,
	})
	decodeBody(t, resp, &v)

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/vehicles/%d", srv.URL, v.ID), reg.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestTripLifecycleOverHTTP(t *testing.T) {
	srv, _ := testServer(t)
	token := adminToken(t, srv)

	var v store.Vehicle
	resp := doJSON(t, "POST", srv.URL+"/api/vehicles", token, map[string]any{
		"name": "Ashok Leyland", "license_plate": "TN09GH3456", "max_capacity_kg": 8000,
	})
	decodeBody(t, resp, &v)

	var d store.Driver
	resp = doJSON(t, "POST", srv.URL+"/api/drivers", token, map[string]any{
		"name":           "Suresh Kumar",
		"license_number": "TN-2020-001",
		"license_expiry": time.Now().AddDate(2, 0, 0).Format("2006-01-02"),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create driver status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &d)

	var trip store.Trip
	resp = doJSON(t, "POST", srv.URL+"/api/trips", token, map[string]any{
		"vehicle_id":      v.ID,
		"driver_id":       d.ID,
		"cargo_weight_kg": 4000,
		"origin":          "Chennai, TN",
		"destination":     "Bengaluru, KA",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create trip status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &trip)
	if trip.Status != store.TripDraft {
		t.Fatalf("trip status = %s, want DRAFT", trip.Status)
	}

	resp = doJSON(t, "PATCH", fmt.Sprintf("%s/api/trips/%d/dispatch", srv.URL, trip.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dispatch status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &trip)
	if trip.Status != store.TripDispatched {
		t.Fatalf("trip status = %s, want DISPATCHED", trip.Status)
	}

	// Second dispatch hits the state machine guard.
	resp = doJSON(t, "PATCH", fmt.Sprintf("%s/api/trips/%d/dispatch", srv.URL, trip.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("re-dispatch status = %d, want 409", resp.StatusCode)
	}

	resp = doJSON(t, "PATCH", fmt.Sprintf("%s/api/trips/%d/complete", srv.URL, trip.ID), token, map[string]any{
		"end_odometer": 350.0,
		"revenue":      25000.0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &trip)
	if trip.Status != store.TripCompleted || trip.Revenue != 25000 {
		t.Fatalf("unexpected completed trip: %+v", trip)
	}
}

func TestTripCapacityRejected(t *testing.T) {
	srv, _ := testServer(t)
	token := adminToken(t, srv)

	var v store.Vehicle
	resp := doJSON(t, "POST", srv.URL+"/api/vehicles", token, map[string]any{
		"name": "Piaggio Ape", "license_plate": "GJ18JK7890", "max_capacity_kg": 500,
	})
	decodeBody(t, resp, &v)

	var d store.Driver
	resp = doJSON(t, "POST", srv.URL+"/api/drivers", token, map[string]any{
		"name":           "Amit Patel",
		"license_number": "GJ-2021-042",
		"license_expiry": time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
	})
	decodeBody(t, resp, &d)

	resp = doJSON(t, "POST", srv.URL+"/api/trips", token, map[string]any{
		"vehicle_id":      v.ID,
		"driver_id":       d.ID,
		"cargo_weight_kg": 900,
		"origin":          "Surat, GJ",
		"destination":     "Vadodara, GJ",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var out map[string]string
	decodeBody(t, resp, &out)
	if out["error"] != "cargo weight exceeds vehicle capacity (500kg)" {
		t.Errorf("error = %q", out["error"])
	}
}

func TestCancelTripDeletesRow(t *testing.T) {
	srv, _ := testServer(t)
	token := adminToken(t, srv)

	var v store.Vehicle
	resp := doJSON(t, "POST", srv.URL+"/api/vehicles", token, map[string]any{
		"name": "Force Traveller", "license_plate": "UP32LM2345", "max_capacity_kg": 2000,
	})
	decodeBody(t, resp, &v)

	var d store.Driver
	resp = doJSON(t, "POST", srv.URL+"/api/drivers", token, map[string]any{
		"name":           "Vikram Singh",
		"license_number": "UP-2019-117",
		"license_expiry": time.Now().AddDate(3, 0, 0).Format("2006-01-02"),
	})
	decodeBody(t, resp, &d)

	var trip store.Trip
	resp = doJSON(t, "POST", srv.URL+"/api/trips", token, map[string]any{
		"vehicle_id": v.ID, "driver_id": d.ID, "cargo_weight_kg": 100,
		"origin": "Lucknow, UP", "destination": "Kanpur, UP",
	})
	decodeBody(t, resp, &trip)

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/trips/%d", srv.URL, trip.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", fmt.Sprintf("%s/api/trips/%d", srv.URL, trip.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after cancel status = %d, want 404", resp.StatusCode)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	srv, _ := testServer(t)
	token := adminToken(t, srv)

	for _, path := range []string{
		"/api/analytics/kpis",
		"/api/analytics/fuel-efficiency",
		"/api/analytics/monthly",
		"/api/analytics/daily-profit",
		"/api/analytics/geography",
		"/api/analytics/vehicle-costs",
	} {
		resp := doJSON(t, "GET", srv.URL+path, token, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestAuditLogEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	token := adminToken(t, srv)

	var v store.Vehicle
	resp := doJSON(t, "POST", srv.URL+"/api/vehicles", token, map[string]any{
		"name": "Tata 407", "license_plate": "RJ14NP6789", "max_capacity_kg": 2500,
	})
	decodeBody(t, resp, &v)

	resp = doJSON(t, "PUT", fmt.Sprintf("%s/api/vehicles/%d", srv.URL, v.ID), token, map[string]any{
		"status": store.VehicleOutOfService,
	})
	resp.Body.Close()

	resp = doJSON(t, "GET", srv.URL+"/api/audit?entity_type=vehicle&entity_id="+fmt.Sprint(v.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit status = %d", resp.StatusCode)
	}
	var entries []store.AuditEntry
	decodeBody(t, resp, &entries)
	if len(entries) == 0 {
		t.Fatal("expected at least one audit entry")
	}
}

func TestStatusEditWritesOneAuditRow(t *testing.T) {
	srv, _ := testServer(t)
	token := adminToken(t, srv)

	var v store.Vehicle
	resp := doJSON(t, "POST", srv.URL+"/api/vehicles", token, map[string]any{
		"name": "Eicher Pro", "license_plate": "HR55QR1122", "max_capacity_kg": 5000,
	})
	decodeBody(t, resp, &v)

	resp = doJSON(t, "PUT", fmt.Sprintf("%s/api/vehicles/%d", srv.URL, v.ID), token, map[string]any{
		"status": store.VehicleOutOfService,
	})
	resp.Body.Close()

	resp = doJSON(t, "GET", srv.URL+"/api/audit?entity_type=vehicle&entity_id="+fmt.Sprint(v.ID), token, nil)
	var entries []store.AuditEntry
	decodeBody(t, resp, &entries)

	var status []store.AuditEntry
	for _, e := range entries {
		if e.Action == "status" {
			status = append(status, e)
		}
	}
	if len(status) != 1 {
		t.Fatalf("status audit rows = %d, want 1: %+v", len(status), status)
	}
	if status[0].OldValue != store.VehicleAvailable || status[0].NewValue != store.VehicleOutOfService {
		t.Errorf("audit row = %q -> %q", status[0].OldValue, status[0].NewValue)
	}
	if status[0].Actor != "admin@fleetflow.local" {
		t.Errorf("actor = %q, want the editing user", status[0].Actor)
	}
}

func TestDispatchBroadcastsStatusEvents(t *testing.T) {
	srv, eng := testServer(t)
	token := adminToken(t, srv)

	var mu sync.Mutex
	var vehicleStatuses, driverStatuses []string
	eng.Events.SubscribeTypes(func(evt engine.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch ev := evt.Payload.(type) {
		case engine.VehicleStatusChangedEvent:
			vehicleStatuses = append(vehicleStatuses, ev.Status)
		case engine.DriverStatusChangedEvent:
			driverStatuses = append(driverStatuses, ev.Status)
		}
	}, engine.EventVehicleStatusChanged, engine.EventDriverStatusChanged)

	var v store.Vehicle
	resp := doJSON(t, "POST", srv.URL+"/api/vehicles", token, map[string]any{
		"name": "Mahindra Blazo", "license_plate": "MH04ST3344", "max_capacity_kg": 9000,
	})
	decodeBody(t, resp, &v)

	var d store.Driver
	resp = doJSON(t, "POST", srv.URL+"/api/drivers", token, map[string]any{
		"name":           "Ravi Shankar",
		"license_number": "MH-2022-089",
		"license_expiry": time.Now().AddDate(2, 0, 0).Format("2006-01-02"),
	})
	decodeBody(t, resp, &d)

	var trip store.Trip
	resp = doJSON(t, "POST", srv.URL+"/api/trips", token, map[string]any{
		"vehicle_id": v.ID, "driver_id": d.ID, "cargo_weight_kg": 1000,
		"origin": "Mumbai, MH", "destination": "Pune, MH",
	})
	decodeBody(t, resp, &trip)

	resp = doJSON(t, "PATCH", fmt.Sprintf("%s/api/trips/%d/dispatch", srv.URL, trip.ID), token, nil)
	resp.Body.Close()
	resp = doJSON(t, "PATCH", fmt.Sprintf("%s/api/trips/%d/complete", srv.URL, trip.ID), token, map[string]any{
		"revenue": 8000.0,
	})
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	wantVehicle := []string{store.VehicleOnTrip, store.VehicleAvailable}
	wantDriver := []string{store.DriverOnTrip, store.DriverOnDuty}
	if len(vehicleStatuses) != 2 || vehicleStatuses[0] != wantVehicle[0] || vehicleStatuses[1] != wantVehicle[1] {
		t.Errorf("vehicle statuses = %v, want %v", vehicleStatuses, wantVehicle)
	}
	if len(driverStatuses) != 2 || driverStatuses[0] != wantDriver[0] || driverStatuses[1] != wantDriver[1] {
		t.Errorf("driver statuses = %v, want %v", driverStatuses, wantDriver)
	}
}
