package engine

// dispatchEmitter bridges the dispatch package's emitter interface to the EventBus.
type dispatchEmitter struct {
	bus *EventBus
}

func (e *dispatchEmitter) EmitTripCreated(tripID, vehicleID, driverID int64, origin, destination string) {
	e.bus.Emit(Event{Type: EventTripCreated, Payload: TripCreatedEvent{
		TripID:      tripID,
		VehicleID:   vehicleID,
		DriverID:    driverID,
		Origin:      origin,
		Destination: destination,
	}})
}

func (e *dispatchEmitter) EmitTripDispatched(tripID, vehicleID, driverID int64, driverName, driverPhone, destination string) {
	e.bus.Emit(Event{Type: EventTripDispatched, Payload: TripDispatchedEvent{
		TripID:      tripID,
		VehicleID:   vehicleID,
		DriverID:    driverID,
		DriverName:  driverName,
		DriverPhone: driverPhone,
		Destination: destination,
	}})
}

func (e *dispatchEmitter) EmitTripCompleted(tripID, vehicleID, driverID int64, revenue float64) {
	e.bus.Emit(Event{Type: EventTripCompleted, Payload: TripCompletedEvent{
		TripID:    tripID,
		VehicleID: vehicleID,
		DriverID:  driverID,
		Revenue:   revenue,
	}})
}

func (e *dispatchEmitter) EmitTripCancelled(tripID, vehicleID, driverID int64, prevStatus string) {
	e.bus.Emit(Event{Type: EventTripCancelled, Payload: TripCancelledEvent{
		TripID:     tripID,
		VehicleID:  vehicleID,
		DriverID:   driverID,
		PrevStatus: prevStatus,
	}})
}
