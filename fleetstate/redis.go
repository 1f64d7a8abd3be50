package fleetstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// VehicleState is the cached live view of a vehicle for the fleet board.
type VehicleState struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	LicensePlate string `json:"license_plate"`
	VehicleType  string `json:"vehicle_type"`
	Status       string `json:"status"`
}

type DriverState struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func vehicleKey(id int64) string { return fmt.Sprintf("fleetflow:vehicle:%d", id) }
func driverKey(id int64) string  { return fmt.Sprintf("fleetflow:driver:%d", id) }

const (
	allVehiclesKey = "fleetflow:vehicles"
	allDriversKey  = "fleetflow:drivers"
	kpiSnapshotKey = "fleetflow:analytics:kpis"
)

// GetKPISnapshot returns the cached dashboard KPI JSON, or nil when expired
// or absent.
func (r *RedisStore) GetKPISnapshot(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, kpiSnapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

func (r *RedisStore) SetKPISnapshot(ctx context.Context, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, kpiSnapshotKey, data, ttl).Err()
}

func (r *RedisStore) SetVehicle(ctx context.Context, v *VehicleState) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, vehicleKey(v.ID), data, 0)
	pipe.SAdd(ctx, allVehiclesKey, v.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetVehicle(ctx context.Context, id int64) (*VehicleState, error) {
	data, err := r.client.Get(ctx, vehicleKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v VehicleState
	return &v, json.Unmarshal(data, &v)
}

func (r *RedisStore) RemoveVehicle(ctx context.Context, id int64) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, vehicleKey(id))
	pipe.SRem(ctx, allVehiclesKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) SetDriver(ctx context.Context, d *DriverState) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, driverKey(d.ID), data, 0)
	pipe.SAdd(ctx, allDriversKey, d.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetDriver(ctx context.Context, id int64) (*DriverState, error) {
	data, err := r.client.Get(ctx, driverKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d DriverState
	return &d, json.Unmarshal(data, &d)
}

func (r *RedisStore) RemoveDriver(ctx context.Context, id int64) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, driverKey(id))
	pipe.SRem(ctx, allDriversKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetAllVehicleIDs(ctx context.Context) ([]int64, error) {
	return r.memberIDs(ctx, allVehiclesKey)
}

func (r *RedisStore) GetAllDriverIDs(ctx context.Context) ([]int64, error) {
	return r.memberIDs(ctx, allDriversKey)
}

func (r *RedisStore) memberIDs(ctx context.Context, key string) ([]int64, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *RedisStore) FlushAll(ctx context.Context) error {
	vids, err := r.GetAllVehicleIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range vids {
		r.RemoveVehicle(ctx, id)
	}
	dids, err := r.GetAllDriverIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range dids {
		r.RemoveDriver(ctx, id)
	}
	return r.client.Del(ctx, allVehiclesKey, allDriversKey).Err()
}
