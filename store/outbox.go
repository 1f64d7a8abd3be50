package store

import (
	"time"
)

// Outbox rows are written alongside the change they describe, so a broker
// outage never loses a fleet event. The drainer reads them back in insert
// order and marks each one sent once the broker accepts it.
type OutboxEvent struct {
	ID        int64
	Topic     string
	Payload   []byte
	MsgType   string
	Retries   int
	CreatedAt time.Time
	SentAt    *time.Time
}

func (db *DB) EnqueueOutbox(topic string, payload []byte, msgType string) error {
	_, err := db.Exec(db.Q(`INSERT INTO outbox (topic, payload, msg_type) VALUES (?, ?, ?)`),
		topic, payload, msgType)
	return err
}

func (db *DB) PendingOutbox(limit int) ([]*OutboxEvent, error) {
	rows, err := db.Query(db.Q(`SELECT id, topic, payload, msg_type, retries, created_at FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var evts []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &e.MsgType, &e.Retries, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(createdAt)
		evts = append(evts, &e)
	}
	return evts, rows.Err()
}

func (db *DB) MarkOutboxSent(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE outbox SET sent_at=datetime('now','localtime') WHERE id=?`), id)
	return err
}

func (db *DB) BumpOutboxRetry(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE outbox SET retries=retries+1 WHERE id=?`), id)
	return err
}
