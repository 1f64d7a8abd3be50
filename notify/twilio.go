package notify

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fleetflow/config"
)

// TwilioClient sends SMS through the Twilio messages API.
type TwilioClient struct {
	cfg        *config.TwilioConfig
	httpClient *http.Client
}

func NewTwilioClient(cfg *config.TwilioConfig) *TwilioClient {
	return &TwilioClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *TwilioClient) Configured() bool {
	return c.cfg.AccountSID != "" && c.cfg.AuthToken != ""
}

// SendSMS posts one message. The number is normalized to E.164; bare
// 10-digit numbers get the +91 country code.
func (c *TwilioClient) SendSMS(to, body string) error {
	to = formatPhoneNumber(to)
	if to == "" {
		return nil
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio POST: %w", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("twilio HTTP %d: %s", resp.StatusCode, string(data))
	}
	log.Printf("notify: sms sent to %s", to)
	return nil
}

func formatPhoneNumber(phone string) string {
	p := strings.TrimSpace(phone)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "+") {
		return p
	}
	if len(p) == 10 {
		return "+91" + p
	}
	return "+" + p
}
