package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message types published to the fleet events topic.
const (
	TypeTripCreated       = "trip_created"
	TypeTripDispatched    = "trip_dispatched"
	TypeTripCompleted     = "trip_completed"
	TypeTripCancelled     = "trip_cancelled"
	TypeVehicleStatus     = "vehicle_status"
	TypeDriverStatus      = "driver_status"
	TypeMaintenanceLogged = "maintenance_logged"
)

type Envelope struct {
	MsgType   string    `json:"msg_type"`
	MsgID     string    `json:"msg_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func NewEnvelope(msgType string, payload any) *Envelope {
	return &Envelope{
		MsgType:   msgType,
		MsgID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// --- Payloads ---

type TripCreatedMsg struct {
	TripID      int64  `json:"trip_id"`
	VehicleID   int64  `json:"vehicle_id"`
	DriverID    int64  `json:"driver_id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type TripDispatchedMsg struct {
	TripID      int64  `json:"trip_id"`
	VehicleID   int64  `json:"vehicle_id"`
	DriverID    int64  `json:"driver_id"`
	Destination string `json:"destination"`
}

type TripCompletedMsg struct {
	TripID    int64   `json:"trip_id"`
	VehicleID int64   `json:"vehicle_id"`
	DriverID  int64   `json:"driver_id"`
	Revenue   float64 `json:"revenue"`
}

type TripCancelledMsg struct {
	TripID     int64  `json:"trip_id"`
	VehicleID  int64  `json:"vehicle_id"`
	DriverID   int64  `json:"driver_id"`
	PrevStatus string `json:"prev_status"`
}

type VehicleStatusMsg struct {
	VehicleID int64  `json:"vehicle_id"`
	Status    string `json:"status"`
}

type DriverStatusMsg struct {
	DriverID int64  `json:"driver_id"`
	Status   string `json:"status"`
}

type MaintenanceLoggedMsg struct {
	VehicleID   int64  `json:"vehicle_id"`
	ServiceType string `json:"service_type"`
}

// RawEnvelope is used for two-stage unmarshalling: first decode the envelope,
// then decode the payload based on msg_type.
type RawEnvelope struct {
	MsgType   string          `json:"msg_type"`
	MsgID     string          `json:"msg_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodeEnvelope unmarshals a raw message into a typed Envelope with the
// correct payload type.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var raw RawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	env := &Envelope{
		MsgType:   raw.MsgType,
		MsgID:     raw.MsgID,
		Timestamp: raw.Timestamp,
	}

	var payload any
	switch raw.MsgType {
	case TypeTripCreated:
		var p TripCreatedMsg
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", raw.MsgType, err)
		}
		payload = p
	case TypeTripDispatched:
		var p TripDispatchedMsg
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", raw.MsgType, err)
		}
		payload = p
	case TypeTripCompleted:
		var p TripCompletedMsg
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", raw.MsgType, err)
		}
		payload = p
	case TypeTripCancelled:
		var p TripCancelledMsg
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", raw.MsgType, err)
		}
		payload = p
	case TypeVehicleStatus:
		var p VehicleStatusMsg
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", raw.MsgType, err)
		}
		payload = p
	case TypeDriverStatus:
		var p DriverStatusMsg
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", raw.MsgType, err)
		}
		payload = p
	case TypeMaintenanceLogged:
		var p MaintenanceLoggedMsg
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", raw.MsgType, err)
		}
		payload = p
	default:
		return nil, fmt.Errorf("unknown msg_type: %s", raw.MsgType)
	}
	env.Payload = payload
	return env, nil
}
