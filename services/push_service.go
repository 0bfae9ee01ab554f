package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// PushNotifier delivers out-of-band push notifications. Best-effort: callers
// log failures and never propagate them.
type PushNotifier interface {
	Notify(ctx context.Context, userID, title, body string) error
}

// ExpoPushService sends notifications through the Expo push API, looking up
// the recipient's registered device tokens from their profile.
type ExpoPushService struct {
	Profiles *UserProfileService
	PushURL  string
	Client   *http.Client
	Log      *zap.Logger
}

type expoPushMessage struct {
	To    []string `json:"to"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Sound string   `json:"sound"`
}

func (p *ExpoPushService) Notify(ctx context.Context, userID, title, body string) error {
	profile, err := p.Profiles.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile for push: %w", err)
	}
	if len(profile.PushTokens) == 0 {
		p.Log.Debug("no push tokens registered", zap.String("userId", userID))
		return nil
	}

	payload, err := json.Marshal(expoPushMessage{
		To:    profile.PushTokens,
		Title: title,
		Body:  body,
		Sound: "default",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.PushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push service returned status %d", resp.StatusCode)
	}

	p.Log.Debug("push sent", zap.String("userId", userID), zap.Int("tokens", len(profile.PushTokens)))
	return nil
}
