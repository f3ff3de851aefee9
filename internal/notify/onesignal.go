// Package notify pushes notifications through the OneSignal REST API.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nextlevel/api/internal/config"
	"nextlevel/api/internal/webhook"
)

const oneSignalURL = "https://onesignal.com/api/v1/notifications"

type OneSignal struct {
	client *webhook.Client
	cfg    config.OneSignalConfig
	log    zerolog.Logger
}

func NewOneSignal(client *webhook.Client, cfg config.OneSignalConfig, log zerolog.Logger) *OneSignal {
	return &OneSignal{
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

// Push sends a notification to the given external user ids. Delivery
// is best effort; the error is for logging, not flow control.
func (o *OneSignal) Push(ctx context.Context, title, message string, userIDs []string) error {
	if o.cfg.AppID == "" || o.cfg.APIKey == "" {
		o.log.Debug().Msg("onesignal not configured, skipping push")
		return nil
	}

	payload := map[string]any{
		"app_id":                   o.cfg.AppID,
		"headings":                 map[string]string{"en": title},
		"contents":                 map[string]string{"en": message},
		"include_external_user_ids": userIDs,
	}
	headers := map[string]string{
		"Authorization": "Basic " + o.cfg.APIKey,
	}

	res := o.client.Post(ctx, oneSignalURL, payload, headers)
	if res.Err != nil {
		return fmt.Errorf("onesignal request: %w", res.Err)
	}
	if !res.Success {
		return fmt.Errorf("onesignal status %d: %s", res.Status, res.Body)
	}
	return nil
}
