package line

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pchuang/whatever-eat/internal/types"
)

// Wire shapes of the webhook callback body.

type webhookBody struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type           string        `json:"type"`
	WebhookEventID string        `json:"webhookEventId"`
	ReplyToken     string        `json:"replyToken"`
	Source         *eventSource  `json:"source"`
	Message        *eventMessage `json:"message"`
}

type eventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type eventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// text messages
	Text string `json:"text"`
	// location messages; coordinates stay pointers so absence is detectable
	Title     string   `json:"title"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ParseWebhook decodes a webhook callback body into the event union the bot
// handles. Event and message kinds the bot does not handle (follow, sticker,
// image, ...) are skipped, not errors. Events missing a webhook id get a
// generated one for log correlation.
func ParseWebhook(body []byte) ([]types.Event, error) {
	var decoded webhookBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode webhook body: %w", err)
	}

	events := make([]types.Event, 0, len(decoded.Events))
	for _, we := range decoded.Events {
		if we.Type != "message" || we.Message == nil || we.Source == nil {
			continue
		}

		ev := types.Event{
			ID:         we.WebhookEventID,
			ReplyToken: we.ReplyToken,
			UserID:     we.Source.UserID,
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}

		switch we.Message.Type {
		case "text":
			ev.Type = types.EventTypeText
			ev.Text = &types.TextContent{Text: we.Message.Text}
		case "location":
			ev.Type = types.EventTypeLocation
			ev.Location = &types.LocationContent{
				Title:     we.Message.Title,
				Address:   we.Message.Address,
				Latitude:  we.Message.Latitude,
				Longitude: we.Message.Longitude,
			}
		default:
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
