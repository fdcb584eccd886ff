package bot

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pchuang/whatever-eat/internal/command"
	"github.com/pchuang/whatever-eat/internal/recommend"
	"github.com/pchuang/whatever-eat/internal/session"
	"github.com/pchuang/whatever-eat/internal/types"
)

// MockSearcher is a mock implementation of the Searcher interface
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) SearchNearby(ctx context.Context, lat, lng float64) ([]types.Venue, error) {
	args := m.Called(ctx, lat, lng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Venue), args.Error(1)
}

// MockReplier is a mock implementation of the Replier interface
type MockReplier struct {
	mock.Mock
}

func (m *MockReplier) ReplyText(ctx context.Context, replyToken, text string) error {
	args := m.Called(ctx, replyToken, text)
	return args.Error(0)
}

func f64(v float64) *float64 { return &v }
func boolPtr(v bool) *bool   { return &v }

func newTestBot(t *testing.T, searcher *MockSearcher, replier *MockReplier) (*Bot, *session.Store) {
	t.Helper()
	store := session.NewStore(session.Config{MaxUsers: 10, LocationTTL: 30 * time.Minute}, nil)
	policy := recommend.NewPolicy(store, 10, rand.New(rand.NewSource(1)), nil)
	return New(store, command.NewParser(), searcher, policy, replier, nil), store
}

func locationEvent(userID string) types.Event {
	return types.Event{
		ID:         "evt-loc",
		Type:       types.EventTypeLocation,
		ReplyToken: "tok-loc",
		UserID:     userID,
		Location: &types.LocationContent{
			Title:     "Home",
			Address:   "1 Main St",
			Latitude:  f64(25.03),
			Longitude: f64(121.56),
		},
	}
}

func textEvent(userID, text string) types.Event {
	return types.Event{
		ID:         "evt-text",
		Type:       types.EventTypeText,
		ReplyToken: "tok-text",
		UserID:     userID,
		Text:       &types.TextContent{Text: text},
	}
}

func TestHandleLocationEventStoresAndConfirms(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, store := newTestBot(t, searcher, replier)

	var reply string
	replier.On("ReplyText", mock.Anything, "tok-loc", mock.MatchedBy(func(text string) bool {
		reply = text
		return true
	})).Return(nil).Once()

	b.HandleEvent(context.Background(), locationEvent("u1"))

	loc, ok := store.GetLocation("u1")
	require.True(t, ok)
	assert.Equal(t, "Home", loc.Title)
	assert.Contains(t, reply, "Home")
	replier.AssertExpectations(t)
}

func TestHandleLocationEventMissingCoordinates(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, store := newTestBot(t, searcher, replier)

	ev := locationEvent("u1")
	ev.Location.Latitude = nil
	replier.On("ReplyText", mock.Anything, "tok-loc", formatLocationInvalid()).Return(nil).Once()

	b.HandleEvent(context.Background(), ev)

	_, ok := store.GetLocation("u1")
	assert.False(t, ok, "invalid location must not create a session")
	replier.AssertExpectations(t)
}

func TestRecommendWithoutLocationPrompts(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, _ := newTestBot(t, searcher, replier)

	replier.On("ReplyText", mock.Anything, "tok-text", formatNoLocation()).Return(nil).Once()

	b.HandleEvent(context.Background(), textEvent("u1", "抽餐廳"))

	searcher.AssertNotCalled(t, "SearchNearby", mock.Anything, mock.Anything, mock.Anything)
	replier.AssertExpectations(t)
}

func TestRecommendRepliesWithVenueAndRecordsHistory(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, store := newTestBot(t, searcher, replier)

	rating := 4.4
	venues := []types.Venue{{
		ID:      "place-1",
		Name:    "好吃牛肉麵",
		Address: "台北市大安區某路 1 號",
		Rating:  &rating,
		OpenNow: boolPtr(true),
		MapsURL: "https://maps.google.com/?cid=1",
	}}

	replier.On("ReplyText", mock.Anything, "tok-loc", mock.Anything).Return(nil).Once()
	searcher.On("SearchNearby", mock.Anything, 25.03, 121.56).Return(venues, nil).Once()

	var reply string
	replier.On("ReplyText", mock.Anything, "tok-text", mock.MatchedBy(func(text string) bool {
		reply = text
		return true
	})).Return(nil).Once()

	b.HandleEvent(context.Background(), locationEvent("u1"))
	b.HandleEvent(context.Background(), textEvent("u1", "抽餐廳"))

	assert.Contains(t, reply, "好吃牛肉麵")
	assert.Contains(t, reply, "4.4")
	assert.Contains(t, reply, "https://maps.google.com/?cid=1")
	assert.True(t, store.IsRecentlyRecommended("u1", "place-1"))
	searcher.AssertExpectations(t)
	replier.AssertExpectations(t)
}

func TestRecommendNoRestaurantsFound(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, _ := newTestBot(t, searcher, replier)

	replier.On("ReplyText", mock.Anything, "tok-loc", mock.Anything).Return(nil).Once()
	searcher.On("SearchNearby", mock.Anything, 25.03, 121.56).Return([]types.Venue{}, nil).Once()

	var reply string
	replier.On("ReplyText", mock.Anything, "tok-text", mock.MatchedBy(func(text string) bool {
		reply = text
		return true
	})).Return(nil).Once()

	b.HandleEvent(context.Background(), locationEvent("u1"))
	b.HandleEvent(context.Background(), textEvent("u1", "抽餐廳"))

	assert.Contains(t, reply, "找不到餐廳")
	assert.Contains(t, reply, "https://maps.google.com/?q=25.03,121.56")
	replier.AssertExpectations(t)
}

func TestRecommendSearchFailure(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, _ := newTestBot(t, searcher, replier)

	replier.On("ReplyText", mock.Anything, "tok-loc", mock.Anything).Return(nil).Once()
	searcher.On("SearchNearby", mock.Anything, 25.03, 121.56).
		Return(nil, assert.AnError).Once()
	replier.On("ReplyText", mock.Anything, "tok-text", formatSearchFailed()).Return(nil).Once()

	b.HandleEvent(context.Background(), locationEvent("u1"))
	b.HandleEvent(context.Background(), textEvent("u1", "抽餐廳"))

	replier.AssertExpectations(t)
}

func TestStatusCommand(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, _ := newTestBot(t, searcher, replier)

	replier.On("ReplyText", mock.Anything, "tok-text", formatStatusEmpty()).Return(nil).Once()
	b.HandleEvent(context.Background(), textEvent("u1", "status"))

	replier.On("ReplyText", mock.Anything, "tok-loc", mock.Anything).Return(nil).Once()
	b.HandleEvent(context.Background(), locationEvent("u1"))

	var reply string
	replier.On("ReplyText", mock.Anything, "tok-text", mock.MatchedBy(func(text string) bool {
		reply = text
		return true
	})).Return(nil).Once()
	b.HandleEvent(context.Background(), textEvent("u1", "status"))

	assert.Contains(t, reply, "Home")
	assert.Contains(t, reply, "1 Main St")
	replier.AssertExpectations(t)
}

func TestClearCommand(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, store := newTestBot(t, searcher, replier)

	replier.On("ReplyText", mock.Anything, "tok-loc", mock.Anything).Return(nil).Once()
	b.HandleEvent(context.Background(), locationEvent("u1"))

	replier.On("ReplyText", mock.Anything, "tok-text", formatClear(true)).Return(nil).Once()
	b.HandleEvent(context.Background(), textEvent("u1", "清除"))

	_, ok := store.GetLocation("u1")
	assert.False(t, ok)

	replier.On("ReplyText", mock.Anything, "tok-text", formatClear(false)).Return(nil).Once()
	b.HandleEvent(context.Background(), textEvent("u1", "clear"))
	replier.AssertExpectations(t)
}

func TestHelpAndUnknownCommands(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, _ := newTestBot(t, searcher, replier)

	replier.On("ReplyText", mock.Anything, "tok-text", command.HelpText()).Return(nil).Twice()

	b.HandleEvent(context.Background(), textEvent("u1", "help"))
	b.HandleEvent(context.Background(), textEvent("u1", "天氣如何"))
	replier.AssertExpectations(t)
}

func TestReplyFailureDoesNotPanic(t *testing.T) {
	searcher := new(MockSearcher)
	replier := new(MockReplier)
	b, store := newTestBot(t, searcher, replier)

	replier.On("ReplyText", mock.Anything, "tok-loc", mock.Anything).Return(assert.AnError).Once()

	assert.NotPanics(t, func() {
		b.HandleEvent(context.Background(), locationEvent("u1"))
	})
	// The state change still happened even though the reply failed.
	_, ok := store.GetLocation("u1")
	assert.True(t, ok)
}
