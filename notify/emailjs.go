package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"fleetflow/config"
)

// EmailJSClient sends transactional email through the EmailJS REST API.
type EmailJSClient struct {
	cfg        *config.EmailJSConfig
	httpClient *http.Client
}

func NewEmailJSClient(cfg *config.EmailJSConfig) *EmailJSClient {
	return &EmailJSClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *EmailJSClient) Configured() bool {
	return c.cfg.ServiceID != "" && c.cfg.PublicKey != ""
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts a template with the given params. The configured notification
// address rides along on every send.
func (c *EmailJSClient) Send(templateID string, params map[string]string) error {
	if templateID == "" {
		return nil
	}
	merged := make(map[string]string, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	if c.cfg.NotificationEmail != "" {
		merged["notification_email"] = c.cfg.NotificationEmail
	}

	body, err := json.Marshal(emailJSRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     templateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    c.cfg.PrivateKey,
		TemplateParams: merged,
	})
	if err != nil {
		return fmt.Errorf("emailjs marshal: %w", err)
	}

	resp, err := c.httpClient.Post(c.cfg.BaseURL+"/api/v1.0/email/send", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("emailjs POST: %w", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("emailjs HTTP %d: %s", resp.StatusCode, string(data))
	}
	log.Printf("notify: emailjs sent template %s", templateID)
	return nil
}
