package messaging

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"fleetflow/config"
	"fleetflow/store"
)

func testStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type capturePublisher struct {
	sent []string
	fail bool
}

func (p *capturePublisher) Publish(topic string, payload []byte) error {
	if p.fail {
		return fmt.Errorf("broker down")
	}
	p.sent = append(p.sent, topic)
	return nil
}

func TestDrainSendsAndMarks(t *testing.T) {
	db := testStore(t)
	pub := &capturePublisher{}
	d := NewOutboxDrainer(db, pub, time.Minute)

	for i := 0; i < 3; i++ {
		if err := db.EnqueueOutbox("fleet.events", []byte(`{}`), "trip_dispatched"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	d.drain()

	if len(pub.sent) != 3 {
		t.Errorf("published = %d, want 3", len(pub.sent))
	}
	pending, err := db.PendingOutbox(10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after drain = %d, want 0", len(pending))
	}
}

func TestDrainRetriesOnBrokerFailure(t *testing.T) {
	db := testStore(t)
	pub := &capturePublisher{fail: true}
	d := NewOutboxDrainer(db, pub, time.Minute)

	if err := db.EnqueueOutbox("fleet.events", []byte(`{}`), "trip_completed"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	d.drain()

	pending, err := db.PendingOutbox(10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].Retries != 1 {
		t.Errorf("Retries = %d, want 1", pending[0].Retries)
	}
}
