package fleetstate

import (
	"context"
	"log"
	"time"

	"fleetflow/store"
)

// Board is the live fleet view served to dashboards.
type Board struct {
	Vehicles []*VehicleState `json:"vehicles"`
	Drivers  []*DriverState  `json:"drivers"`
}

// Manager provides a write-through status cache: SQL is the source of truth,
// Redis mirrors it for cheap fleet board reads. A nil RedisStore degrades to
// SQL-only reads.
type Manager struct {
	db    *store.DB
	redis *RedisStore
}

func NewManager(db *store.DB, redis *RedisStore) *Manager {
	return &Manager{db: db, redis: redis}
}

// RefreshVehicle re-reads a vehicle from SQL into Redis. Retired or deleted
// vehicles fall out of the cache.
func (m *Manager) RefreshVehicle(id int64) {
	if m.redis == nil {
		return
	}
	ctx := context.Background()
	v, err := m.db.GetVehicle(id)
	if err != nil {
		if rerr := m.redis.RemoveVehicle(ctx, id); rerr != nil {
			log.Printf("fleetstate: remove vehicle %d: %v", id, rerr)
		}
		return
	}
	if err := m.redis.SetVehicle(ctx, vehicleState(v)); err != nil {
		log.Printf("fleetstate: cache vehicle %d: %v", id, err)
	}
}

func (m *Manager) RefreshDriver(id int64) {
	if m.redis == nil {
		return
	}
	ctx := context.Background()
	d, err := m.db.GetDriver(id)
	if err != nil {
		if rerr := m.redis.RemoveDriver(ctx, id); rerr != nil {
			log.Printf("fleetstate: remove driver %d: %v", id, rerr)
		}
		return
	}
	if err := m.redis.SetDriver(ctx, driverState(d)); err != nil {
		log.Printf("fleetstate: cache driver %d: %v", id, err)
	}
}

// GetBoard returns the live fleet view, preferring Redis.
func (m *Manager) GetBoard() (*Board, error) {
	if m.redis != nil {
		if board, err := m.boardFromRedis(); err == nil && board != nil {
			return board, nil
		}
	}
	return m.boardFromSQL()
}

func (m *Manager) boardFromRedis() (*Board, error) {
	ctx := context.Background()
	vids, err := m.redis.GetAllVehicleIDs(ctx)
	if err != nil || len(vids) == 0 {
		return nil, err
	}
	board := &Board{}
	for _, id := range vids {
		if v, err := m.redis.GetVehicle(ctx, id); err == nil && v != nil {
			board.Vehicles = append(board.Vehicles, v)
		}
	}
	dids, _ := m.redis.GetAllDriverIDs(ctx)
	for _, id := range dids {
		if d, err := m.redis.GetDriver(ctx, id); err == nil && d != nil {
			board.Drivers = append(board.Drivers, d)
		}
	}
	return board, nil
}

func (m *Manager) boardFromSQL() (*Board, error) {
	vehicles, err := m.db.ListVehicles("", "")
	if err != nil {
		return nil, err
	}
	drivers, err := m.db.ListDrivers("")
	if err != nil {
		return nil, err
	}
	board := &Board{}
	for _, v := range vehicles {
		board.Vehicles = append(board.Vehicles, vehicleState(v))
	}
	for _, d := range drivers {
		board.Drivers = append(board.Drivers, driverState(d))
	}
	return board, nil
}

// CachedKPISnapshot returns the cached dashboard KPI JSON, or nil when the
// cache is cold or redis is absent.
func (m *Manager) CachedKPISnapshot() []byte {
	if m.redis == nil {
		return nil
	}
	data, err := m.redis.GetKPISnapshot(context.Background())
	if err != nil {
		log.Printf("fleetstate: kpi snapshot read: %v", err)
		return nil
	}
	return data
}

// StoreKPISnapshot caches a dashboard KPI response for a short window so
// dashboard polling does not hammer the aggregate queries.
func (m *Manager) StoreKPISnapshot(data []byte) {
	if m.redis == nil {
		return
	}
	if err := m.redis.SetKPISnapshot(context.Background(), data, 30*time.Second); err != nil {
		log.Printf("fleetstate: kpi snapshot write: %v", err)
	}
}

// SyncRedisFromSQL rebuilds the cache from SQL. Called on startup.
func (m *Manager) SyncRedisFromSQL() error {
	if m.redis == nil {
		return nil
	}
	ctx := context.Background()
	if err := m.redis.FlushAll(ctx); err != nil {
		return err
	}
	vehicles, err := m.db.ListVehicles("", "")
	if err != nil {
		return err
	}
	for _, v := range vehicles {
		if err := m.redis.SetVehicle(ctx, vehicleState(v)); err != nil {
			return err
		}
	}
	drivers, err := m.db.ListDrivers("")
	if err != nil {
		return err
	}
	for _, d := range drivers {
		if err := m.redis.SetDriver(ctx, driverState(d)); err != nil {
			return err
		}
	}
	log.Printf("fleetstate: synced %d vehicles, %d drivers to redis", len(vehicles), len(drivers))
	return nil
}

func vehicleState(v *store.Vehicle) *VehicleState {
	return &VehicleState{
		ID:           v.ID,
		Name:         v.Name,
		LicensePlate: v.LicensePlate,
		VehicleType:  v.VehicleType,
		Status:       v.Status,
	}
}

func driverState(d *store.Driver) *DriverState {
	return &DriverState{ID: d.ID, Name: d.Name, Status: d.Status}
}
