// Package notify delivers push notifications to members. Delivery is a
// blocking, fallible call: callers decide what a failure means (the
// reconciler logs and moves on, keeping the member unnotified).
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Sender is the push-delivery interface. Implementations must return an
// error for any delivery that did not reach the gateway.
type Sender interface {
	Send(ctx context.Context, memberID, title, body string, data map[string]string, imageURL string) error
}

// GatewaySender posts notifications to an HTTP push gateway.
type GatewaySender struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewGatewaySender(url, apiKey string) *GatewaySender {
	return &GatewaySender{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type gatewayPayload struct {
	MemberID string            `json:"memberId"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	ImageURL string            `json:"imageUrl,omitempty"`
}

func (s *GatewaySender) Send(ctx context.Context, memberID, title, body string, data map[string]string, imageURL string) error {
	payload, err := json.Marshal(gatewayPayload{
		MemberID: memberID,
		Title:    title,
		Body:     body,
		Data:     data,
		ImageURL: imageURL,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	res, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %d for member %s", res.StatusCode, memberID)
	}
	return nil
}

// ConsoleSender logs notifications instead of delivering them. Used when no
// gateway is configured (local runs).
type ConsoleSender struct{}

func NewConsole() *ConsoleSender {
	return &ConsoleSender{}
}

func (c *ConsoleSender) Send(_ context.Context, memberID, title, body string, data map[string]string, _ string) error {
	log.Printf("[notify] member=%s title=%q body=%q data=%v", memberID, title, body, data)
	return nil
}
