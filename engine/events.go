package engine

const (
	EventTripCreated EventType = iota + 1
	EventTripDispatched
	EventTripCompleted
	EventTripCancelled
	EventVehicleStatusChanged
	EventDriverStatusChanged
	EventMaintenanceLogged
	EventMessagingConnected
	EventMessagingDisconnected
)

// --- Event payloads ---

type TripCreatedEvent struct {
	TripID      int64
	VehicleID   int64
	DriverID    int64
	Origin      string
	Destination string
}

type TripDispatchedEvent struct {
	TripID      int64
	VehicleID   int64
	DriverID    int64
	DriverName  string
	DriverPhone string
	Destination string
}

type TripCompletedEvent struct {
	TripID    int64
	VehicleID int64
	DriverID  int64
	Revenue   float64
}

type TripCancelledEvent struct {
	TripID     int64
	VehicleID  int64
	DriverID   int64
	PrevStatus string
}

type VehicleStatusChangedEvent struct {
	VehicleID int64
	Status    string
}

type DriverStatusChangedEvent struct {
	DriverID int64
	Status   string
}

type MaintenanceLoggedEvent struct {
	LogID       int64
	VehicleID   int64
	VehicleName string
	ServiceType string
}

type ConnectionEvent struct {
	Detail string
}
