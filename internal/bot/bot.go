// Package bot glues the webhook edge to the session store, command parser,
// places collaborator and selection policy.
package bot

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pchuang/whatever-eat/app/observability/metrics"
	"github.com/pchuang/whatever-eat/internal/command"
	"github.com/pchuang/whatever-eat/internal/session"
	"github.com/pchuang/whatever-eat/internal/types"
)

// Replier sends a text answer to the event that produced replyToken.
type Replier interface {
	ReplyText(ctx context.Context, replyToken, text string) error
}

// Searcher supplies restaurant candidates around a coordinate.
type Searcher interface {
	SearchNearby(ctx context.Context, lat, lng float64) ([]types.Venue, error)
}

// Selector picks one candidate and records it in the user's history.
type Selector interface {
	Select(ctx context.Context, candidates []types.Venue, userID string) (*types.Venue, int)
}

// Bot handles inbound events end to end.
type Bot struct {
	store   *session.Store
	parser  *command.Parser
	places  Searcher
	policy  Selector
	replier Replier
	logger  *slog.Logger
}

func New(store *session.Store, parser *command.Parser, places Searcher, policy Selector, replier Replier, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		store:   store,
		parser:  parser,
		places:  places,
		policy:  policy,
		replier: replier,
		logger:  logger.With(slog.String("component", "bot")),
	}
}

// HandleEvent dispatches one webhook event. Reply failures are logged, never
// propagated; the webhook response must stay 200 so the platform does not
// redeliver.
func (b *Bot) HandleEvent(ctx context.Context, ev types.Event) {
	ctx, span := otel.Tracer("bot").Start(ctx, "HandleEvent")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", ev.ID),
		attribute.String("event.type", string(ev.Type)),
	)

	metrics.Get().WebhookEventsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event_type", string(ev.Type))))

	l := b.logger.With(slog.String("event_id", ev.ID), slog.String("user_id", ev.UserID))

	switch {
	case ev.Location != nil:
		b.handleLocation(ctx, l, ev)
	case ev.Text != nil:
		b.handleText(ctx, l, ev)
	default:
		l.WarnContext(ctx, "Event with no handled content", slog.String("type", string(ev.Type)))
	}
}

func (b *Bot) handleLocation(ctx context.Context, l *slog.Logger, ev types.Event) {
	loc, err := b.store.SetLocation(ev.UserID, types.LocationInput{
		Title:     ev.Location.Title,
		Address:   ev.Location.Address,
		Latitude:  ev.Location.Latitude,
		Longitude: ev.Location.Longitude,
	})
	if err != nil {
		if errors.Is(err, types.ErrMissingCoordinates) {
			b.reply(ctx, l, ev.ReplyToken, formatLocationInvalid())
			return
		}
		l.ErrorContext(ctx, "Failed to store location", slog.Any("error", err))
		b.reply(ctx, l, ev.ReplyToken, formatLocationInvalid())
		return
	}
	b.reply(ctx, l, ev.ReplyToken, formatLocationSet(loc))
}

func (b *Bot) handleText(ctx context.Context, l *slog.Logger, ev types.Event) {
	cmd := b.parser.Parse(ev.Text.Text)
	metrics.Get().CommandsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("command", string(cmd.Type))))
	l.InfoContext(ctx, "Command parsed",
		slog.String("command", string(cmd.Type)),
		slog.Float64("confidence", cmd.Confidence),
	)

	switch cmd.Type {
	case command.TypeRecommend:
		b.handleRecommend(ctx, l, ev)
	case command.TypeStatus:
		b.handleStatus(ctx, l, ev)
	case command.TypeClear:
		b.reply(ctx, l, ev.ReplyToken, formatClear(b.store.RemoveLocation(ev.UserID)))
	case command.TypeHelp, command.TypeUnknown:
		b.reply(ctx, l, ev.ReplyToken, command.HelpText())
	}
}

func (b *Bot) handleRecommend(ctx context.Context, l *slog.Logger, ev types.Event) {
	loc, ok := b.store.GetLocation(ev.UserID)
	if !ok {
		b.reply(ctx, l, ev.ReplyToken, formatNoLocation())
		return
	}

	// The search happens outside any store lock; a slow upstream call must
	// not serialize unrelated users.
	candidates, err := b.places.SearchNearby(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		l.ErrorContext(ctx, "Nearby search failed", slog.Any("error", err))
		b.reply(ctx, l, ev.ReplyToken, formatSearchFailed())
		return
	}

	chosen, attempts := b.policy.Select(ctx, candidates, ev.UserID)
	if chosen == nil {
		b.reply(ctx, l, ev.ReplyToken, formatNoRestaurants(loc))
		return
	}

	metrics.Get().RecommendationsTotal.Add(ctx, 1)
	metrics.Get().SelectionAttempts.Record(ctx, int64(attempts))

	sessionCount := 0
	if snap, ok := b.store.GetSession(ev.UserID); ok {
		sessionCount = snap.RecommendationCount
	}
	b.reply(ctx, l, ev.ReplyToken, formatVenue(*chosen, attempts, sessionCount))
}

func (b *Bot) handleStatus(ctx context.Context, l *slog.Logger, ev types.Event) {
	loc, ok := b.store.GetLocation(ev.UserID)
	if !ok {
		b.reply(ctx, l, ev.ReplyToken, formatStatusEmpty())
		return
	}
	b.reply(ctx, l, ev.ReplyToken, formatStatus(loc))
}

func (b *Bot) reply(ctx context.Context, l *slog.Logger, replyToken, text string) {
	if err := b.replier.ReplyText(ctx, replyToken, text); err != nil {
		l.ErrorContext(ctx, "Failed to send reply", slog.Any("error", err))
	}
}
