package notify

import (
	"fmt"
	"log"

	"fleetflow/config"
)

// Service is the default Notifier, fanning out to EmailJS and Twilio.
// Unconfigured channels are skipped silently.
type Service struct {
	cfg    *config.NotifyConfig
	email  *EmailJSClient
	twilio *TwilioClient
}

func NewService(cfg *config.NotifyConfig) *Service {
	return &Service{
		cfg:    cfg,
		email:  NewEmailJSClient(&cfg.EmailJS),
		twilio: NewTwilioClient(&cfg.Twilio),
	}
}

func (s *Service) SendWelcome(email, phone, name, role string) {
	if s.email.Configured() {
		err := s.email.Send(s.cfg.EmailJS.WelcomeTemplate, map[string]string{
			"to_email":  email,
			"user_name": name,
			"user_role": role,
		})
		if err != nil {
			log.Printf("notify: welcome email to %s: %v", email, err)
		}
	}
	if s.twilio.Configured() && phone != "" {
		body := fmt.Sprintf("Welcome to FleetFlow, %s! Your account as %s has been created successfully.", name, role)
		if err := s.twilio.SendSMS(phone, body); err != nil {
			log.Printf("notify: welcome sms to %s: %v", phone, err)
		}
	}
}

func (s *Service) SendTripDispatch(phone, driverName, vehicleName, origin, destination string) {
	if !s.twilio.Configured() || phone == "" {
		return
	}
	body := fmt.Sprintf("Hi %s, you've been dispatched for a trip!\nVehicle: %s\nFrom: %s\nTo: %s",
		driverName, vehicleName, origin, destination)
	if err := s.twilio.SendSMS(phone, body); err != nil {
		log.Printf("notify: dispatch sms to %s: %v", phone, err)
	}
}

func (s *Service) SendMaintenanceAlert(vehicleName, serviceType string) {
	if !s.email.Configured() {
		return
	}
	err := s.email.Send(s.cfg.EmailJS.MaintenanceTemplate, map[string]string{
		"vehicle_name": vehicleName,
		"service_type": serviceType,
	})
	if err != nil {
		log.Printf("notify: maintenance alert for %s: %v", vehicleName, err)
	}
}
