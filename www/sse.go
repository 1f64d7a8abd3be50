package www

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"fleetflow/engine"
)

type SSEEvent struct {
	Event string
	Data  string
}

type EventHub struct {
	mu        sync.RWMutex
	clients   map[chan SSEEvent]struct{}
	broadcast chan SSEEvent
	stopChan  chan struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:   make(map[chan SSEEvent]struct{}),
		broadcast: make(chan SSEEvent, 256),
		stopChan:  make(chan struct{}),
	}
}

func (h *EventHub) Start() {
	go h.run()
}

func (h *EventHub) Stop() {
	select {
	case h.stopChan <- struct{}{}:
	default:
	}
}

func (h *EventHub) run() {
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-h.stopChan:
			return
		case evt := <-h.broadcast:
			h.mu.RLock()
			for ch := range h.clients {
				select {
				case ch <- evt:
				default:
					// drop if full
				}
			}
			h.mu.RUnlock()
		case <-keepalive.C:
			h.mu.RLock()
			for ch := range h.clients {
				select {
				case ch <- SSEEvent{Event: "keepalive", Data: "ping"}:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *EventHub) Broadcast(event, data string) {
	select {
	case h.broadcast <- SSEEvent{Event: event, Data: data}:
	default:
	}
}

func (h *EventHub) AddClient() chan SSEEvent {
	ch := make(chan SSEEvent, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) RemoveClient(ch chan SSEEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SetupEngineListeners wires engine events to SSE broadcasts.
func (h *EventHub) SetupEngineListeners(eng *engine.Engine) {
	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.TripCreatedEvent)
		h.Broadcast("trip-update", fmt.Sprintf(`{"type":"created","trip_id":%d,"vehicle_id":%d,"driver_id":%d}`, ev.TripID, ev.VehicleID, ev.DriverID))
	}, engine.EventTripCreated)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.TripDispatchedEvent)
		h.Broadcast("trip-update", fmt.Sprintf(`{"type":"dispatched","trip_id":%d,"vehicle_id":%d,"driver_id":%d}`, ev.TripID, ev.VehicleID, ev.DriverID))
	}, engine.EventTripDispatched)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.TripCompletedEvent)
		h.Broadcast("trip-update", fmt.Sprintf(`{"type":"completed","trip_id":%d,"revenue":%g}`, ev.TripID, ev.Revenue))
	}, engine.EventTripCompleted)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.TripCancelledEvent)
		h.Broadcast("trip-update", fmt.Sprintf(`{"type":"cancelled","trip_id":%d,"prev_status":"%s"}`, ev.TripID, ev.PrevStatus))
	}, engine.EventTripCancelled)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.VehicleStatusChangedEvent)
		h.Broadcast("vehicle-update", fmt.Sprintf(`{"vehicle_id":%d,"new_status":"%s"}`, ev.VehicleID, ev.Status))
	}, engine.EventVehicleStatusChanged)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.DriverStatusChangedEvent)
		h.Broadcast("driver-update", fmt.Sprintf(`{"driver_id":%d,"new_status":"%s"}`, ev.DriverID, ev.Status))
	}, engine.EventDriverStatusChanged)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.MaintenanceLoggedEvent)
		h.Broadcast("maintenance-update", fmt.Sprintf(`{"log_id":%d,"vehicle_id":%d,"service_type":"%s"}`, ev.LogID, ev.VehicleID, ev.ServiceType))
	}, engine.EventMaintenanceLogged)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		h.Broadcast("system-status", `{"messaging":"connected"}`)
	}, engine.EventMessagingConnected)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		h.Broadcast("system-status", `{"messaging":"disconnected"}`)
	}, engine.EventMessagingDisconnected)
}

// SSEHandler serves the SSE endpoint.
func (h *EventHub) SSEHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.AddClient()
	defer h.RemoveClient(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-ch:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data); err != nil {
				log.Printf("sse: write error: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}
