// Package notify sends operational notifications over EmailJS and Twilio.
// Sends are fire-and-forget: failures are logged and never propagate into
// the flow that triggered them.
package notify

// Notifier is the outbound notification surface used by the engine.
type Notifier interface {
	// SendWelcome greets a newly registered user.
	SendWelcome(email, phone, name, role string)
	// SendTripDispatch tells a driver they have been dispatched.
	SendTripDispatch(phone, driverName, vehicleName, origin, destination string)
	// SendMaintenanceAlert notifies the back office of a vehicle entering the shop.
	SendMaintenanceAlert(vehicleName, serviceType string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) SendWelcome(email, phone, name, role string)                            {}
func (NopNotifier) SendTripDispatch(phone, driverName, vehicleName, origin, destination string) {
}
func (NopNotifier) SendMaintenanceAlert(vehicleName, serviceType string) {}
