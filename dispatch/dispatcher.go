package dispatch

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"fleetflow/store"
)

// Dispatcher owns the trip lifecycle. Every transition runs in a single
// transaction that locks the vehicle and driver rows before evaluating
// their statuses, so two concurrent dispatches can never both succeed
// against the same resources.
type Dispatcher struct {
	db      *store.DB
	emitter Emitter
}

func NewDispatcher(db *store.DB, emitter Emitter) *Dispatcher {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Dispatcher{db: db, emitter: emitter}
}

type CreateDraftRequest struct {
	VehicleID     int64   `json:"vehicle_id"`
	DriverID      int64   `json:"driver_id"`
	CargoWeightKg float64 `json:"cargo_weight_kg"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
}

// CreateDraft validates cargo weight against the vehicle's capacity and
// records a DRAFT trip. No statuses change until dispatch.
func (d *Dispatcher) CreateDraft(req CreateDraftRequest, userID int64) (*store.Trip, error) {
	vehicle, err := d.db.GetVehicle(req.VehicleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("vehicle not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	if req.CargoWeightKg > vehicle.MaxCapacityKg {
		return nil, capacityExceeded(fmt.Sprintf("cargo weight exceeds vehicle capacity (%gkg)", vehicle.MaxCapacityKg))
	}
	if _, err := d.db.GetDriver(req.DriverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("driver not found")
		}
		return nil, fmt.Errorf("load driver: %w", err)
	}

	trip := &store.Trip{
		VehicleID:     req.VehicleID,
		DriverID:      req.DriverID,
		CargoWeightKg: req.CargoWeightKg,
		Origin:        req.Origin,
		Destination:   req.Destination,
		Status:        store.TripDraft,
		CreatedBy:     userID,
	}
	if err := d.db.CreateTrip(trip); err != nil {
		return nil, err
	}
	d.emitter.EmitTripCreated(trip.ID, trip.VehicleID, trip.DriverID, trip.Origin, trip.Destination)
	return trip, nil
}

// Dispatch moves a DRAFT trip to DISPATCHED. The vehicle and driver rows
// are locked before their statuses are read, and every check runs against
// the locked rows.
func (d *Dispatcher) Dispatch(tripID int64, actor string) (*store.Trip, error) {
	var trip *store.Trip
	// driver outlives the closure: the post-commit emit needs name and phone.
	var driver *store.Driver

	err := d.inTx(func(tx *sql.Tx) error {
		var err error
		trip, err = d.db.GetTripTx(tx, tripID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("trip not found")
		}
		if err != nil {
			return fmt.Errorf("load trip: %w", err)
		}
		if trip.Status != store.TripDraft {
			return invalidTransition("only draft trips can be dispatched")
		}

		vehicle, err := d.db.GetVehicleForUpdate(tx, trip.VehicleID)
		if err != nil {
			return fmt.Errorf("lock vehicle: %w", err)
		}
		if vehicle.Status != store.VehicleAvailable {
			return resourceUnavailable(fmt.Sprintf("vehicle is not available (current: %s)", vehicle.Status))
		}

		driver, err = d.db.GetDriverForUpdate(tx, trip.DriverID)
		if err != nil {
			return fmt.Errorf("lock driver: %w", err)
		}
		if driver.Status != store.DriverOnDuty {
			return resourceUnavailable(fmt.Sprintf("driver is not on duty (current: %s)", driver.Status))
		}
		if !driver.LicenseExpiry.After(time.Now()) {
			return licenseExpired("driver license is expired")
		}

		if err := d.db.SetVehicleStatusTx(tx, trip.VehicleID, store.VehicleOnTrip); err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
		if err := d.db.SetDriverStatusTx(tx, trip.DriverID, store.DriverOnTrip); err != nil {
			return fmt.Errorf("update driver: %w", err)
		}
		start := time.Now()
		if err := d.db.MarkTripDispatchedTx(tx, tripID, start); err != nil {
			return fmt.Errorf("update trip: %w", err)
		}
		trip.Status = store.TripDispatched
		trip.StartTime = &start
		return d.db.AppendAuditTx(tx, "trip", tripID, "dispatched", store.TripDraft, store.TripDispatched, actor)
	})
	if err != nil {
		return nil, err
	}
	d.emitter.EmitTripDispatched(trip.ID, trip.VehicleID, trip.DriverID, driver.Name, driver.Phone, trip.Destination)
	return trip, nil
}

// Complete moves a DISPATCHED trip to COMPLETED, frees the vehicle and
// driver, and settles revenue. The vehicle odometer advances only when an
// end odometer was supplied and is not behind the current reading; the trip
// stores whatever was supplied either way.
func (d *Dispatcher) Complete(tripID int64, endOdometer *float64, revenue float64, actor string) (*store.Trip, error) {
	var trip *store.Trip

	err := d.inTx(func(tx *sql.Tx) error {
		var err error
		trip, err = d.db.GetTripTx(tx, tripID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("trip not found")
		}
		if err != nil {
			return fmt.Errorf("load trip: %w", err)
		}
		if trip.Status != store.TripDispatched {
			return invalidTransition("trip must be dispatched to complete")
		}

		vehicle, err := d.db.GetVehicleForUpdate(tx, trip.VehicleID)
		if err != nil {
			return fmt.Errorf("lock vehicle: %w", err)
		}
		if endOdometer != nil && *endOdometer >= vehicle.OdometerKm {
			err = d.db.SetVehicleStatusOdometerTx(tx, trip.VehicleID, store.VehicleAvailable, *endOdometer)
		} else {
			err = d.db.SetVehicleStatusTx(tx, trip.VehicleID, store.VehicleAvailable)
		}
		if err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
		if err := d.db.SetDriverStatusTx(tx, trip.DriverID, store.DriverOnDuty); err != nil {
			return fmt.Errorf("update driver: %w", err)
		}
		end := time.Now()
		if err := d.db.MarkTripCompletedTx(tx, tripID, end, endOdometer, revenue); err != nil {
			return fmt.Errorf("update trip: %w", err)
		}
		trip.Status = store.TripCompleted
		trip.EndTime = &end
		trip.EndOdometer = endOdometer
		trip.Revenue = revenue
		return d.db.AppendAuditTx(tx, "trip", tripID, "completed", store.TripDispatched, store.TripCompleted, actor)
	})
	if err != nil {
		return nil, err
	}
	d.emitter.EmitTripCompleted(trip.ID, trip.VehicleID, trip.DriverID, trip.Revenue)
	return trip, nil
}

// Cancel removes a trip that has not completed. Vehicle and driver are
// released only if they still show ON_TRIP, so cancelling a draft never
// touches resources another trip may hold. The deleted row survives as an
// audit entry.
func (d *Dispatcher) Cancel(tripID int64, actor string) error {
	var trip *store.Trip

	err := d.inTx(func(tx *sql.Tx) error {
		var err error
		trip, err = d.db.GetTripTx(tx, tripID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("trip not found")
		}
		if err != nil {
			return fmt.Errorf("load trip: %w", err)
		}
		if trip.Status == store.TripCompleted {
			return invalidTransition("cannot cancel a completed trip")
		}

		if err := d.db.ReleaseVehicleTx(tx, trip.VehicleID); err != nil {
			return fmt.Errorf("release vehicle: %w", err)
		}
		if err := d.db.ReleaseDriverTx(tx, trip.DriverID); err != nil {
			return fmt.Errorf("release driver: %w", err)
		}
		if err := d.db.AppendAuditTx(tx, "trip", tripID, "cancelled", trip.Status, "", actor); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return d.db.DeleteTripTx(tx, tripID)
	})
	if err != nil {
		return err
	}
	d.emitter.EmitTripCancelled(trip.ID, trip.VehicleID, trip.DriverID, trip.Status)
	return nil
}

func (d *Dispatcher) Get(tripID int64) (*store.Trip, error) {
	trip, err := d.db.GetTrip(tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("trip not found")
	}
	return trip, err
}

func (d *Dispatcher) ListTrips() ([]*store.TripDetail, error) {
	return d.db.ListTripDetails()
}

func (d *Dispatcher) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("dispatch: rollback: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}
