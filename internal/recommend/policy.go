// Package recommend picks one venue from a candidate list, biased toward
// venues that are currently open and away from recent recommendations.
package recommend

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pchuang/whatever-eat/internal/types"
)

// DefaultMaxAttempts bounds the retry loop when no candidate is confirmed
// open.
const DefaultMaxAttempts = 10

// History is the slice of the session store the policy needs: the per-user
// anti-repeat window.
type History interface {
	RecentRecommendations(userID string) []string
	AddRecommendation(userID, venueID string) bool
}

// Policy selects venues. Randomness comes from an injectable source so tests
// can be deterministic.
type Policy struct {
	history     History
	maxAttempts int
	logger      *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPolicy builds a Policy. maxAttempts <= 0 falls back to
// DefaultMaxAttempts; a nil rng gets a time-seeded source.
func NewPolicy(history History, maxAttempts int, rng *rand.Rand, logger *slog.Logger) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		history:     history,
		maxAttempts: maxAttempts,
		logger:      logger.With(slog.String("component", "selection_policy")),
		rng:         rng,
	}
}

// Select picks one candidate for userID and records it in the user's history.
// It returns the pick plus how many attempts were needed, or (nil, 0) when
// candidates is empty.
//
// Candidates in the anti-repeat window are excluded unless that would leave
// nothing to pick from; an anti-repeat dead end is never allowed. Open venues
// (including venues with unknown openness) win immediately. Only when every
// available venue is explicitly closed does the retry loop run, and after
// maxAttempts the pick is forced anyway - and still recorded, so the same
// closed venue cannot be the forced pick on every consecutive call.
func (p *Policy) Select(ctx context.Context, candidates []types.Venue, userID string) (*types.Venue, int) {
	ctx, span := otel.Tracer("recommend").Start(ctx, "Select")
	defer span.End()
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))

	if len(candidates) == 0 {
		p.logger.WarnContext(ctx, "No candidates to select from", slog.String("user_id", userID))
		return nil, 0
	}

	recent := p.history.RecentRecommendations(userID)
	available := excludeRecent(candidates, recent)
	if len(available) == 0 {
		p.logger.InfoContext(ctx, "All candidates recently recommended, falling back to full list",
			slog.String("user_id", userID), slog.Int("recent", len(recent)))
		available = candidates
	}

	var openOnes []types.Venue
	for _, v := range available {
		if v.IsOpen() {
			openOnes = append(openOnes, v)
		}
	}

	if len(openOnes) > 0 {
		chosen := openOnes[p.intn(len(openOnes))]
		p.record(ctx, userID, chosen, 1)
		return &chosen, 1
	}

	// Every available venue reports itself closed. Retry random picks in
	// case openness flips between checks, then force one.
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		chosen := available[p.intn(len(available))]
		if chosen.IsOpen() {
			p.record(ctx, userID, chosen, attempt)
			return &chosen, attempt
		}
	}

	chosen := available[p.intn(len(available))]
	p.logger.WarnContext(ctx, "No open venue found after max attempts, forcing selection",
		slog.String("user_id", userID), slog.Int("max_attempts", p.maxAttempts))
	p.record(ctx, userID, chosen, p.maxAttempts)
	return &chosen, p.maxAttempts
}

func (p *Policy) record(ctx context.Context, userID string, v types.Venue, attempts int) {
	if !p.history.AddRecommendation(userID, v.ID) {
		// Session vanished between the read and the write (expiry or
		// eviction); the pick is still valid, only the anti-repeat
		// bookkeeping is lost.
		p.logger.WarnContext(ctx, "Could not record recommendation, session gone",
			slog.String("user_id", userID), slog.String("venue_id", v.ID))
	}
	p.logger.InfoContext(ctx, "Venue selected",
		slog.String("user_id", userID),
		slog.String("venue_id", v.ID),
		slog.String("venue_name", v.Name),
		slog.Int("attempts", attempts),
	)
}

func (p *Policy) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

func excludeRecent(candidates []types.Venue, recent []string) []types.Venue {
	if len(recent) == 0 {
		return candidates
	}
	seen := make(map[string]struct{}, len(recent))
	for _, id := range recent {
		seen[id] = struct{}{}
	}
	out := make([]types.Venue, 0, len(candidates))
	for _, v := range candidates {
		if _, ok := seen[v.ID]; !ok {
			out = append(out, v)
		}
	}
	return out
}
