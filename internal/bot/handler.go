package bot

import (
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pchuang/whatever-eat/internal/api"
	"github.com/pchuang/whatever-eat/internal/line"
	"github.com/pchuang/whatever-eat/internal/session"
)

const maxWebhookBody = 1 << 20

// ConfigStatus is the non-sensitive configuration view served on /config.
type ConfigStatus struct {
	Status           string `json:"status"`
	Port             string `json:"port"`
	AccessTokenSet   bool   `json:"access_token_set"`
	ChannelSecretSet bool   `json:"channel_secret_set"`
	MapsAPIKeySet    bool   `json:"maps_api_key_set"`
}

// Handler owns the bot's HTTP surface.
type Handler struct {
	bot           *Bot
	store         *session.Store
	channelSecret string
	cfgStatus     ConfigStatus
	logger        *slog.Logger
}

func NewHandler(b *Bot, store *session.Store, channelSecret string, cfgStatus ConfigStatus, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		bot:           b,
		store:         store,
		channelSecret: channelSecret,
		cfgStatus:     cfgStatus,
		logger:        logger.With(slog.String("handler", "webhook")),
	}
}

// Callback handles the platform webhook: verify the signature over the raw
// body, decode the events, handle each in order, answer 200 "OK". Event-level
// failures never fail the webhook response; the platform would redeliver the
// whole batch otherwise.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("bot").Start(r.Context(), "Callback", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/callback"),
	))
	defer span.End()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to read webhook body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "unreadable body")
		return
	}

	signature := r.Header.Get("X-Line-Signature")
	if !line.ValidateSignature(h.channelSecret, body, signature) {
		h.logger.WarnContext(ctx, "Rejected webhook with invalid signature")
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid signature")
		return
	}

	events, err := line.ParseWebhook(body)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to parse webhook body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "malformed webhook body")
		return
	}

	for _, ev := range events {
		h.bot.HandleEvent(ctx, ev)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Stats serves live session-store statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, h.store.Stats())
}

// Config serves configuration presence flags, never secret values.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, h.cfgStatus)
}
