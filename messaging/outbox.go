package messaging

import (
	"log"
	"time"

	"fleetflow/store"
)

// Publisher is the slice of Client the drainer needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// OutboxDrainer periodically sends pending outbox messages. Events are
// written to the outbox table in the same process that commits the change,
// so a broker outage never loses an event, it just delays it.
type OutboxDrainer struct {
	db       *store.DB
	client   Publisher
	interval time.Duration
	stopChan chan struct{}
}

func NewOutboxDrainer(db *store.DB, client Publisher, interval time.Duration) *OutboxDrainer {
	return &OutboxDrainer{
		db:       db,
		client:   client,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (d *OutboxDrainer) Start() {
	go d.run()
}

func (d *OutboxDrainer) Stop() {
	select {
	case d.stopChan <- struct{}{}:
	default:
	}
}

func (d *OutboxDrainer) run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.drain()
		}
	}
}

func (d *OutboxDrainer) drain() {
	evts, err := d.db.PendingOutbox(50)
	if err != nil {
		log.Printf("outbox: list pending: %v", err)
		return
	}
	for _, evt := range evts {
		if err := d.client.Publish(evt.Topic, evt.Payload); err != nil {
			log.Printf("outbox: publish to %s failed: %v", evt.Topic, err)
			d.db.BumpOutboxRetry(evt.ID)
			continue
		}
		d.db.MarkOutboxSent(evt.ID)
	}
}
