// Package session holds per-user chat sessions: the user's last shared
// location plus a short anti-repeat window of recently recommended venues,
// bounded by capacity and a last-write TTL.
package session

import (
	"log/slog"
	"time"

	"github.com/pchuang/whatever-eat/internal/types"
)

// HistoryCapacity is the fixed size of the per-user anti-repeat window.
const HistoryCapacity = 5

const (
	DefaultMaxUsers    = 1000
	DefaultLocationTTL = 30 * time.Minute
)

// record is the mutable per-user state. It is only ever touched under the
// TTLMap lock via View/Mutate/Upsert closures.
type record struct {
	location types.UserLocation
	recent   *Ring
	count    int
}

// Snapshot is a copied, race-free view of one session.
type Snapshot struct {
	Location              types.UserLocation `json:"location"`
	RecentRecommendations []string           `json:"recent_recommendations"`
	RecommendationCount   int                `json:"recommendation_count"`
}

// Stats summarizes the store for monitoring.
type Stats struct {
	CurrentUsers         int `json:"current_users"`
	MaxUsers             int `json:"max_users"`
	TTLSeconds           int `json:"ttl_seconds"`
	TotalRecommendations int `json:"total_recommendations"`
}

// Config bounds a Store. Zero fields fall back to defaults; Now is the clock
// used for TTL bookkeeping and exists so tests can inject a fake.
type Config struct {
	MaxUsers    int
	LocationTTL time.Duration
	Now         func() time.Time
}

// Store is a concurrency-safe session store. A session is created on the
// first location write for a user and is gone after an explicit clear, TTL
// expiry, or capacity-driven eviction. Reads never extend a session's
// lifetime; every write does.
type Store struct {
	maxUsers int
	ttl      time.Duration
	records  *TTLMap[*record]
	logger   *slog.Logger
}

func NewStore(cfg Config, logger *slog.Logger) *Store {
	if cfg.MaxUsers <= 0 {
		cfg.MaxUsers = DefaultMaxUsers
	}
	if cfg.LocationTTL <= 0 {
		cfg.LocationTTL = DefaultLocationTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		maxUsers: cfg.MaxUsers,
		ttl:      cfg.LocationTTL,
		records:  NewTTLMap[*record](cfg.MaxUsers, cfg.LocationTTL, cfg.Now),
		logger:   logger.With(slog.String("component", "session_store")),
	}
	s.logger.Info("Session store initialized",
		slog.Int("max_users", cfg.MaxUsers),
		slog.Duration("location_ttl", cfg.LocationTTL),
	)
	return s
}

// SetLocation validates locationData and stores it for userID, creating the
// session on first write. An existing session keeps its recommendation
// history and count; only the location is replaced. The session's TTL clock
// is reset. Validation failure leaves the store untouched.
func (s *Store) SetLocation(userID string, in types.LocationInput) (types.UserLocation, error) {
	loc, err := types.NewUserLocation(in)
	if err != nil {
		s.logger.Error("Rejected location update", slog.String("user_id", userID), slog.Any("error", err))
		return types.UserLocation{}, err
	}

	s.records.Upsert(userID,
		func() *record { return &record{recent: NewRing(HistoryCapacity)} },
		func(r *record) { r.location = loc },
	)
	s.logger.Info("Location set", slog.String("user_id", userID), slog.String("location", loc.String()))
	return loc, nil
}

// GetLocation returns the stored location for userID. It does not refresh the
// session's TTL, so idle users lose their session even if they poll status.
func (s *Store) GetLocation(userID string) (types.UserLocation, bool) {
	var loc types.UserLocation
	ok := s.records.View(userID, func(r *record) { loc = r.location })
	return loc, ok
}

// GetSession returns a snapshot of the full session, with the same expiry
// semantics as GetLocation.
func (s *Store) GetSession(userID string) (Snapshot, bool) {
	var snap Snapshot
	ok := s.records.View(userID, func(r *record) {
		snap = Snapshot{
			Location:              r.location,
			RecentRecommendations: r.recent.Items(),
			RecommendationCount:   r.count,
		}
	})
	return snap, ok
}

// RemoveLocation deletes the session for userID and reports whether one
// existed.
func (s *Store) RemoveLocation(userID string) bool {
	removed := s.records.Delete(userID)
	if removed {
		s.logger.Info("Session cleared", slog.String("user_id", userID))
	}
	return removed
}

// AddRecommendation appends venueID to the session's anti-repeat window,
// evicting the oldest entry when full, and increments the session's lifetime
// recommendation count. It returns false without creating a session when none
// exists; a recommendation is only meaningful after a location has been set.
func (s *Store) AddRecommendation(userID, venueID string) bool {
	return s.records.Mutate(userID, func(r *record) {
		r.recent.Append(venueID)
		r.count++
	})
}

// IsRecentlyRecommended reports whether venueID is in the user's anti-repeat
// window. It is false when no session exists.
func (s *Store) IsRecentlyRecommended(userID, venueID string) bool {
	found := false
	s.records.View(userID, func(r *record) { found = r.recent.Contains(venueID) })
	return found
}

// RecentRecommendations returns a copy of the user's anti-repeat window,
// oldest first; empty when no session exists.
func (s *Store) RecentRecommendations(userID string) []string {
	items := []string{}
	s.records.View(userID, func(r *record) { items = r.recent.Items() })
	return items
}

// Stats reports live counts at call time.
func (s *Store) Stats() Stats {
	st := Stats{
		MaxUsers:   s.maxUsers,
		TTLSeconds: int(s.ttl / time.Second),
	}
	s.records.Range(func(_ string, r *record) bool {
		st.CurrentUsers++
		st.TotalRecommendations += r.count
		return true
	})
	return st
}

// CleanupExpired eagerly removes expired sessions and returns how many were
// dropped. Accessors already treat expired sessions as absent, so this exists
// for diagnostics and to bound memory between accesses.
func (s *Store) CleanupExpired() int {
	removed := s.records.Sweep()
	if removed > 0 {
		s.logger.Info("Cleaned up expired sessions", slog.Int("removed", removed))
	}
	return removed
}
