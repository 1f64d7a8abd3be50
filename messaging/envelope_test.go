package messaging

import (
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := NewEnvelope(TypeTripDispatched, TripDispatchedMsg{
		TripID:      42,
		VehicleID:   7,
		DriverID:    3,
		Destination: "Mumbai, MH",
	})
	if env.MsgID == "" {
		t.Fatal("MsgID should be generated")
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MsgType != TypeTripDispatched || got.MsgID != env.MsgID {
		t.Errorf("header = %s/%s", got.MsgType, got.MsgID)
	}
	p, ok := got.Payload.(TripDispatchedMsg)
	if !ok {
		t.Fatalf("payload type = %T", got.Payload)
	}
	if p.TripID != 42 || p.Destination != "Mumbai, MH" {
		t.Errorf("payload = %+v", p)
	}
}

func TestDecodeEnvelopeUnknownType(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"msg_type":"bogus","payload":{}}`)); err == nil {
		t.Fatal("unknown msg_type should fail")
	}
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatal("garbage should fail")
	}
}
