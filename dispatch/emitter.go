package dispatch

// Emitter is the interface adapters must satisfy to bridge trip lifecycle
// events to the engine.
type Emitter interface {
	EmitTripCreated(tripID, vehicleID, driverID int64, origin, destination string)
	EmitTripDispatched(tripID, vehicleID, driverID int64, driverName, driverPhone, destination string)
	EmitTripCompleted(tripID, vehicleID, driverID int64, revenue float64)
	EmitTripCancelled(tripID, vehicleID, driverID int64, prevStatus string)
}

// NopEmitter discards all events. Useful in tests and tools that do not run
// the engine.
type NopEmitter struct{}

func (NopEmitter) EmitTripCreated(tripID, vehicleID, driverID int64, origin, destination string) {}
func (NopEmitter) EmitTripDispatched(tripID, vehicleID, driverID int64, driverName, driverPhone, destination string) {
}
func (NopEmitter) EmitTripCompleted(tripID, vehicleID, driverID int64, revenue float64)  {}
func (NopEmitter) EmitTripCancelled(tripID, vehicleID, driverID int64, prevStatus string) {}
