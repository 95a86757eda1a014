package models

// EventType is a sport in the upstream catalog.
type EventType struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MarketCount int    `json:"market_count,omitempty"`
}

// Event is a single bettable event (a match) in the upstream catalog.
type Event struct {
	ID int `json:"id"`

	Name string `json:"name"`

	// CountryCode is the ISO 3166-1 alpha-2 code of the venue country.
	CountryCode string `json:"country_code"`

	// TimeZone is the timezone the event takes place in.
	TimeZone string `json:"time_zone"`

	// OpenDate is the scheduled start, Europe/London by default.
	OpenDate string `json:"open_date"`

	MarketCount int `json:"market_count,omitempty"`

	EventType *EventType `json:"event_type,omitempty"`
}

// FootballEventType tags events that arrive inside football change batches
// without catalog metadata of their own.
var FootballEventType = EventType{ID: 1, Name: "Football"}
