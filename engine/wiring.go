package engine

import (
	"fmt"
	"log"

	"fleetflow/messaging"
	"fleetflow/store"
)

func (e *Engine) wireEventHandlers() {
	// New draft: audit and publish.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TripCreatedEvent)
		e.logFn("engine: trip %d created (%s -> %s)", ev.TripID, ev.Origin, ev.Destination)
		e.db.AppendAudit("trip", ev.TripID, "created", "", fmt.Sprintf("%s -> %s", ev.Origin, ev.Destination), "system")
		e.enqueue(messaging.TypeTripCreated, messaging.TripCreatedMsg{
			TripID:      ev.TripID,
			VehicleID:   ev.VehicleID,
			DriverID:    ev.DriverID,
			Origin:      ev.Origin,
			Destination: ev.Destination,
		})
	}, EventTripCreated)

	// Dispatch: publish, fan out the status flips, and text the driver.
	// Re-emitting the status events lets their subscriptions handle the
	// publish and fleet refresh, and keeps SSE vehicle/driver channels
	// in step with trip transitions.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TripDispatchedEvent)
		e.logFn("engine: trip %d dispatched (driver %d, vehicle %d)", ev.TripID, ev.DriverID, ev.VehicleID)
		e.enqueue(messaging.TypeTripDispatched, messaging.TripDispatchedMsg{
			TripID:      ev.TripID,
			VehicleID:   ev.VehicleID,
			DriverID:    ev.DriverID,
			Destination: ev.Destination,
		})
		e.Events.Emit(Event{Type: EventVehicleStatusChanged, Payload: VehicleStatusChangedEvent{VehicleID: ev.VehicleID, Status: store.VehicleOnTrip}})
		e.Events.Emit(Event{Type: EventDriverStatusChanged, Payload: DriverStatusChangedEvent{DriverID: ev.DriverID, Status: store.DriverOnTrip}})
		go e.notifyDispatch(ev)
	}, EventTripDispatched)

	// Completion: publish and fan out.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TripCompletedEvent)
		e.logFn("engine: trip %d completed, revenue %.2f", ev.TripID, ev.Revenue)
		e.enqueue(messaging.TypeTripCompleted, messaging.TripCompletedMsg{
			TripID:    ev.TripID,
			VehicleID: ev.VehicleID,
			DriverID:  ev.DriverID,
			Revenue:   ev.Revenue,
		})
		e.Events.Emit(Event{Type: EventVehicleStatusChanged, Payload: VehicleStatusChangedEvent{VehicleID: ev.VehicleID, Status: store.VehicleAvailable}})
		e.Events.Emit(Event{Type: EventDriverStatusChanged, Payload: DriverStatusChangedEvent{DriverID: ev.DriverID, Status: store.DriverOnDuty}})
	}, EventTripCompleted)

	// Cancellation: publish, and release statuses only when the trip was
	// actually holding them. Cancelling a draft changes nothing.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TripCancelledEvent)
		e.logFn("engine: trip %d cancelled (was %s)", ev.TripID, ev.PrevStatus)
		e.enqueue(messaging.TypeTripCancelled, messaging.TripCancelledMsg{
			TripID:     ev.TripID,
			VehicleID:  ev.VehicleID,
			DriverID:   ev.DriverID,
			PrevStatus: ev.PrevStatus,
		})
		if ev.PrevStatus == store.TripDispatched {
			e.Events.Emit(Event{Type: EventVehicleStatusChanged, Payload: VehicleStatusChangedEvent{VehicleID: ev.VehicleID, Status: store.VehicleAvailable}})
			e.Events.Emit(Event{Type: EventDriverStatusChanged, Payload: DriverStatusChangedEvent{DriverID: ev.DriverID, Status: store.DriverOnDuty}})
		}
	}, EventTripCancelled)

	// Status changes, whether from a manual edit or a trip transition.
	// Audit rows are written where the change originates (the handler or
	// the dispatcher transaction), so only publish and refresh here.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(VehicleStatusChangedEvent)
		e.enqueue(messaging.TypeVehicleStatus, messaging.VehicleStatusMsg{VehicleID: ev.VehicleID, Status: ev.Status})
		e.fleetState.RefreshVehicle(ev.VehicleID)
	}, EventVehicleStatusChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(DriverStatusChangedEvent)
		e.enqueue(messaging.TypeDriverStatus, messaging.DriverStatusMsg{DriverID: ev.DriverID, Status: ev.Status})
		e.fleetState.RefreshDriver(ev.DriverID)
	}, EventDriverStatusChanged)

	// Maintenance: audit, publish, refresh, alert the back office.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MaintenanceLoggedEvent)
		e.logFn("engine: maintenance logged for vehicle %d (%s)", ev.VehicleID, ev.ServiceType)
		e.db.AppendAudit("maintenance", ev.LogID, "logged", "", ev.ServiceType, "system")
		e.enqueue(messaging.TypeMaintenanceLogged, messaging.MaintenanceLoggedMsg{
			VehicleID:   ev.VehicleID,
			ServiceType: ev.ServiceType,
		})
		e.fleetState.RefreshVehicle(ev.VehicleID)
		go e.notifier.SendMaintenanceAlert(ev.VehicleName, ev.ServiceType)
	}, EventMaintenanceLogged)
}

// enqueue stores an event envelope in the outbox; the drainer delivers it.
func (e *Engine) enqueue(msgType string, payload any) {
	env := messaging.NewEnvelope(msgType, payload)
	data, err := env.Encode()
	if err != nil {
		log.Printf("engine: encode %s: %v", msgType, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.cfg.Messaging.EventsTopic, data, msgType); err != nil {
		log.Printf("engine: enqueue %s: %v", msgType, err)
	}
}

func (e *Engine) notifyDispatch(ev TripDispatchedEvent) {
	trip, err := e.db.GetTrip(ev.TripID)
	if err != nil {
		e.logFn("engine: load trip %d for dispatch sms: %v", ev.TripID, err)
		return
	}
	vehicle, err := e.db.GetVehicle(ev.VehicleID)
	if err != nil {
		e.logFn("engine: load vehicle %d for dispatch sms: %v", ev.VehicleID, err)
		return
	}
	e.notifier.SendTripDispatch(ev.DriverPhone, ev.DriverName, vehicle.Name, trip.Origin, trip.Destination)
}
