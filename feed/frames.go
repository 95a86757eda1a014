package feed

import (
	"encoding/json"

	"gobet-client/football"
	"gobet-client/models"
)

// FootballUpdate is the payload of an inbound Football frame. HashCode must
// be echoed back in a confirm frame for the server to advance its change log.
type FootballUpdate struct {
	Changes  football.ChangesBatch `json:"Changes"`
	HashCode string                `json:"HashCode"`
}

// EventTypeEvents is the payload of an inbound EventType frame: one sport's
// full event listing.
type EventTypeEvents struct {
	ID     int            `json:"ID"`
	Events []models.Event `json:"Events"`
}

// Frame is an inbound frame decoded once at the channel boundary. Exactly
// one of the fields is expected to be set; Kind resolves which, in the
// dispatch priority order of the protocol.
type Frame struct {
	Error      json.RawMessage    `json:"Error,omitempty"`
	Football   *FootballUpdate    `json:"Football,omitempty"`
	EventTypes []models.EventType `json:"EventTypes,omitempty"`
	EventType  *EventTypeEvents   `json:"EventType,omitempty"`
	Event      *models.Event      `json:"Event,omitempty"`
}

// FrameKind discriminates the recognized inbound frame shapes.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameError
	FrameFootball
	FrameEventTypes
	FrameEventType
	FrameEvent
)

func (k FrameKind) String() string {
	switch k {
	case FrameError:
		return "Error"
	case FrameFootball:
		return "Football"
	case FrameEventTypes:
		return "EventTypes"
	case FrameEventType:
		return "EventType"
	case FrameEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// DecodeFrame parses one raw text frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}

// Kind resolves the frame shape, checking discriminants in protocol
// priority order.
func (f Frame) Kind() FrameKind {
	switch {
	case len(f.Error) > 0 && string(f.Error) != "null":
		return FrameError
	case f.Football != nil:
		return FrameFootball
	case f.EventTypes != nil:
		return FrameEventTypes
	case f.EventType != nil:
		return FrameEventType
	case f.Event != nil:
		return FrameEvent
	default:
		return FrameUnknown
	}
}

// Outbound frames. Each carries exactly one recognized top-level key.

// ListEventTypesFrame requests the full sports catalog.
type ListEventTypesFrame struct {
	ListEventTypes struct{} `json:"ListEventTypes"`
}

// SubscribeFootballFrame toggles the football live-feed subscription.
type SubscribeFootballFrame struct {
	SubscribeFootball bool `json:"SubscribeFootball"`
}

// ListEventTypeFrame requests one sport's event listing.
type ListEventTypeFrame struct {
	ListEventType int `json:"ListEventType"`
}

// ListEventFrame requests single-event detail.
type ListEventFrame struct {
	ListEvent int `json:"ListEvent"`
}

// ConfirmFootballFrame acknowledges an applied football change batch.
type ConfirmFootballFrame struct {
	Football ConfirmFootball `json:"Football"`
}

type ConfirmFootball struct {
	ConfirmHashCode string `json:"ConfirmHashCode"`
}
