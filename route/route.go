// Package route derives the navigation state from a location-hash string.
//
// This client speaks the event-only revision of the event route
// (#/event/<id>); the sport+event revision is a separate protocol version
// and is deliberately not recognized here.
package route

import (
	"regexp"
	"strconv"
)

// Kind discriminates the route variants.
type Kind int

const (
	Unknown Kind = iota
	Football
	Sport
	Event
)

func (k Kind) String() string {
	switch k {
	case Football:
		return "Football"
	case Sport:
		return "Sport"
	case Event:
		return "Event"
	default:
		return "Unknown"
	}
}

// Route is the parsed navigation state. SportID is meaningful only for
// Sport routes, EventID only for Event routes.
type Route struct {
	Kind    Kind
	SportID int
	EventID int
}

var (
	footballRe = regexp.MustCompile(`^#/football/?$`)
	sportRe    = regexp.MustCompile(`^#/sport/(\d+)/?$`)
	eventRe    = regexp.MustCompile(`^#/event/(\d+)/?$`)
)

// ParseHash maps a location hash to a Route. Anything unrecognized yields
// an Unknown route.
func ParseHash(hash string) Route {
	if hash == "" || hash == "/" || hash == "#/" || footballRe.MatchString(hash) {
		return Route{Kind: Football}
	}
	if m := sportRe.FindStringSubmatch(hash); m != nil {
		id, err := strconv.Atoi(m[1])
		if err == nil {
			return Route{Kind: Sport, SportID: id}
		}
	}
	if m := eventRe.FindStringSubmatch(hash); m != nil {
		id, err := strconv.Atoi(m[1])
		if err == nil {
			return Route{Kind: Event, EventID: id}
		}
	}
	return Route{Kind: Unknown}
}

// SportOfRoute returns the sport the route refers to. The football route
// maps to the football sport id.
func (r Route) SportOfRoute() (int, bool) {
	switch r.Kind {
	case Sport:
		return r.SportID, true
	case Football:
		return 1, true
	default:
		return 0, false
	}
}

// EventOfRoute returns the event the route refers to, if any.
func (r Route) EventOfRoute() (int, bool) {
	if r.Kind == Event {
		return r.EventID, true
	}
	return 0, false
}
