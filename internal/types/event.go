package types

// EventType discriminates inbound webhook events.
type EventType string

const (
	EventTypeText     EventType = "text"
	EventTypeLocation EventType = "location"
)

// TextContent is the payload of a text message event.
type TextContent struct {
	Text string
}

// LocationContent is the payload of a location message event. Coordinates are
// pointers so a malformed event with absent coordinates stays representable
// and is rejected by validation rather than silently read as (0, 0).
type LocationContent struct {
	Title     string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// Event is a tagged union over the inbound message shapes the bot handles.
// Exactly one of Text or Location is non-nil, matching Type.
type Event struct {
	ID         string
	Type       EventType
	ReplyToken string
	UserID     string
	Text       *TextContent
	Location   *LocationContent
}
