package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WhatsAppSender delivers one text message through a per-boss gateway.
// Credentials are per-boss configuration, never global.
type WhatsAppSender interface {
	SendTextMessage(ctx context.Context, mobile string, message string, apiKey string, apiHost string) error
}

type HTTPWhatsAppSender struct {
	Client *http.Client
}

func NewWhatsAppSender() *HTTPWhatsAppSender {
	return &HTTPWhatsAppSender{Client: &http.Client{Timeout: 15 * time.Second}}
}

var ErrWhatsAppNotConfigured = errors.New("whatsapp credentials not configured")

// SendTextMessage calls the gateway's send endpoint. The gateway reports
// delivery problems with a non-2xx status or a "false" body.
func (s *HTTPWhatsAppSender) SendTextMessage(ctx context.Context, mobile string, message string, apiKey string, apiHost string) error {
	if apiKey == "" || apiHost == "" {
		return ErrWhatsAppNotConfigured
	}

	host := apiHost
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	q := url.Values{}
	q.Set("apikey", apiKey)
	q.Set("mobile", WhatsAppNumber(mobile))
	q.Set("msg", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/send?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if strings.EqualFold(strings.TrimSpace(string(body)), "false") {
		return errors.New("whatsapp gateway rejected message")
	}
	return nil
}
