// Package store holds the canonical application state: the sports catalog,
// per-sport event listings, the live football list, the current route and
// the current transient message. All mutation happens inside its frame,
// lifecycle and navigation handlers; consumers only read.
package store

import (
	"sort"
	"sync"
	"time"

	"gobet-client/config"
	"gobet-client/feed"
	"gobet-client/football"
	"gobet-client/logger"
	"gobet-client/models"
	"gobet-client/route"
)

// transport is the channel surface the store drives. *feed.Client satisfies
// it; tests substitute a fake.
type transport interface {
	Connect()
	Send(text string) error
	SendJSON(v interface{}) error
	Close() error
	Refresh() bool
}

// Store is the canonical state holder. Construct with New, start the feed
// with Start, release resources with Close.
type Store struct {
	mu sync.RWMutex

	conn transport

	sports               map[int]models.EventType
	sportEvents          map[int][]int
	hasSportEvents       map[int]bool
	events               map[int]models.Event
	eventDetailRequested map[int]bool
	footballGames        []football.Game
	currentRoute         route.Route

	message      *Message
	messageTimer *time.Timer
	infoTimeout  time.Duration

	unknownFrame  config.UnknownFramePolicy
	fatalf        func(format string, v ...interface{})
	frameObserver func(kind feed.FrameKind, raw string)

	subscribers map[int]func()
	nextSubID   int
}

// New builds a store wired to a resilient feed channel derived from the
// configuration. The channel is not connected until Start is called.
func New(cfg *config.Config) *Store {
	url := cfg.FeedURL
	if url == "" {
		url = feed.WebSocketURL(cfg.FeedOrigin)
	}

	client := feed.NewClient(url)
	client.ReconnectInterval = cfg.ReconnectInterval
	client.MaxReconnectInterval = cfg.MaxReconnectInterval
	client.ReconnectDecay = cfg.ReconnectDecay
	client.ConnectTimeout = cfg.ConnectTimeout

	s := newStore(client, cfg.InfoMessageTimeout, cfg.UnknownFrame)

	client.OnMessage = s.HandleFrame
	client.OnOpen = s.handleOpen
	client.OnClose = func(code int, reason string) { s.handleClose() }

	return s
}

func newStore(conn transport, infoTimeout time.Duration, policy config.UnknownFramePolicy) *Store {
	if infoTimeout <= 0 {
		infoTimeout = 60 * time.Second
	}
	return &Store{
		conn:                 conn,
		sports:               make(map[int]models.EventType),
		sportEvents:          make(map[int][]int),
		hasSportEvents:       make(map[int]bool),
		events:               make(map[int]models.Event),
		eventDetailRequested: make(map[int]bool),
		currentRoute:         route.Route{Kind: route.Football},
		infoTimeout:          infoTimeout,
		unknownFrame:         policy,
		fatalf:               logger.Fatalf,
		subscribers:          make(map[int]func()),
	}
}

// Start opens the feed channel. The subscription bootstrap runs from the
// channel's open callback, so it re-runs automatically after reconnects.
func (s *Store) Start() {
	s.conn.Connect()
}

// Close releases the channel and any pending timers.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.messageTimer != nil {
		s.messageTimer.Stop()
		s.messageTimer = nil
	}
	s.mu.Unlock()
	return s.conn.Close()
}

// Refresh drops and re-establishes the feed connection; used when silent
// data loss is suspected.
func (s *Store) Refresh() {
	s.conn.Refresh()
}

// Subscribe registers fn to run after every canonical-state mutation. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// notify runs all subscribers synchronously, after the mutation and before
// the handler returns to process the next event.
func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// SetFrameObserver registers a hook that sees every inbound frame with its
// resolved kind before dispatch. Used by the optional frame archive.
func (s *Store) SetFrameObserver(fn func(kind feed.FrameKind, raw string)) {
	s.mu.Lock()
	s.frameObserver = fn
	s.mu.Unlock()
}

func (s *Store) observeFrame(kind feed.FrameKind, raw string) {
	s.mu.RLock()
	fn := s.frameObserver
	s.mu.RUnlock()
	if fn != nil {
		fn(kind, raw)
	}
}

// HandleFrame dispatches one inbound text frame by its discriminant field.
func (s *Store) HandleFrame(text string) {
	frame, err := feed.DecodeFrame([]byte(text))
	if err != nil {
		s.observeFrame(feed.FrameUnknown, text)
		s.handleUnknownFrame(text)
		return
	}

	kind := frame.Kind()
	s.observeFrame(kind, text)
	if kind == feed.FrameError {
		logger.Errorf("[Store] Error from server: %s", frame.Error)
		s.setMessage(&Message{
			Title: "Server error",
			Text:  "Something went wrong on the server side.",
			Kind:  ServerError,
		})
		return
	}

	// Any successfully correlated, non-error frame is a recovery signal.
	if m := s.CurrentMessage(); m != nil && m.Kind == ServerError {
		s.clearMessage()
	}

	switch kind {
	case feed.FrameFootball:
		s.applyFootball(frame.Football)
	case feed.FrameEventTypes:
		s.applyEventTypes(frame.EventTypes)
	case feed.FrameEventType:
		s.applyEventTypeListing(frame.EventType)
	case feed.FrameEvent:
		s.applyNewEvent(*frame.Event)
	default:
		s.handleUnknownFrame(text)
	}
}

func (s *Store) handleUnknownFrame(text string) {
	if s.unknownFrame == config.UnknownFrameFail {
		s.fatalf("[Store] Unrecognized frame from server: %s", text)
		return
	}
	logger.Errorf("[Store] Unrecognized frame from server: %s", text)
}

// applyFootball confirms the batch, merges it into the live list and
// ingests any event metadata travelling with it.
func (s *Store) applyFootball(upd *feed.FootballUpdate) {
	if err := s.conn.SendJSON(feed.ConfirmFootballFrame{
		Football: feed.ConfirmFootball{ConfirmHashCode: upd.HashCode},
	}); err != nil {
		logger.Errorf("[Store] Failed to confirm football batch %s: %v", upd.HashCode, err)
	}

	s.mu.Lock()
	s.footballGames = football.MergeChanges(s.footballGames, upd.Changes)
	for _, event := range upd.Changes.Events {
		et := models.FootballEventType
		event.EventType = &et
		s.addNewEventLocked(event)
	}
	s.mu.Unlock()

	s.notify()
}

func (s *Store) applyEventTypes(sports []models.EventType) {
	s.mu.Lock()
	for _, sport := range sports {
		s.sports[sport.ID] = sport
	}
	s.mu.Unlock()
	s.notify()
}

// applyEventTypeListing replaces one sport's event sequence wholesale and
// marks the sport as fully loaded.
func (s *Store) applyEventTypeListing(listing *feed.EventTypeEvents) {
	s.mu.Lock()
	ids := make([]int, 0, len(listing.Events))
	for _, event := range listing.Events {
		ids = append(ids, event.ID)
		s.events[event.ID] = event
	}
	s.sportEvents[listing.ID] = ids
	s.hasSportEvents[listing.ID] = true
	s.mu.Unlock()
	s.notify()
}

func (s *Store) applyNewEvent(event models.Event) {
	s.mu.Lock()
	s.addNewEventLocked(event)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) addNewEventLocked(event models.Event) {
	s.events[event.ID] = event
	if event.EventType == nil {
		logger.Errorf("[Store] Event %d arrived without an event type", event.ID)
		return
	}
	sportID := event.EventType.ID
	for _, id := range s.sportEvents[sportID] {
		if id == event.ID {
			return
		}
	}
	s.sportEvents[sportID] = append(s.sportEvents[sportID], event.ID)
}

// handleOpen clears a lingering connection-error message and re-issues the
// full subscription bootstrap for the current route.
func (s *Store) handleOpen() {
	if m := s.CurrentMessage(); m != nil && m.Kind == ConnectionError {
		s.clearMessage()
	}

	s.mu.RLock()
	current := s.currentRoute
	s.mu.RUnlock()

	s.sendJSON(feed.ListEventTypesFrame{})
	s.sendJSON(feed.SubscribeFootballFrame{
		SubscribeFootball: current.Kind == route.Football,
	})
	if current.Kind == route.Sport {
		s.ensureSportEvents(current.SportID)
	}
	if current.Kind == route.Event {
		s.ensureEventDetail(current.EventID)
	}
}

func (s *Store) handleClose() {
	s.setMessage(&Message{
		Title: "No connection",
		Text:  "The connection to the server was lost. Trying to restore it.",
		Kind:  ConnectionError,
	})
}

// HandleHashChange recomputes the route from a new location hash and
// adjusts subscriptions accordingly.
func (s *Store) HandleHashChange(hash string) {
	s.mu.Lock()
	prev := s.currentRoute
	next := route.ParseHash(hash)
	s.currentRoute = next
	s.mu.Unlock()

	prevFootball := prev.Kind == route.Football
	nextFootball := next.Kind == route.Football
	if prevFootball != nextFootball {
		s.sendJSON(feed.SubscribeFootballFrame{SubscribeFootball: nextFootball})
	}

	if next == prev {
		return
	}

	if next.Kind == route.Sport {
		s.ensureSportEvents(next.SportID)
	}
	if next.Kind == route.Event {
		s.ensureEventDetail(next.EventID)
	}

	s.notify()
}

func (s *Store) ensureSportEvents(sportID int) {
	s.mu.RLock()
	loaded := s.hasSportEvents[sportID]
	s.mu.RUnlock()
	if loaded {
		return
	}
	s.sendJSON(feed.ListEventTypeFrame{ListEventType: sportID})
}

func (s *Store) ensureEventDetail(eventID int) {
	s.mu.Lock()
	requested := s.eventDetailRequested[eventID]
	s.eventDetailRequested[eventID] = true
	s.mu.Unlock()
	if requested {
		return
	}
	s.sendJSON(feed.ListEventFrame{ListEvent: eventID})
}

// sendJSON sends a frame, logging (not propagating) failures: transport
// trouble surfaces to the user via the connection-error message instead.
func (s *Store) sendJSON(v interface{}) {
	if err := s.conn.SendJSON(v); err != nil {
		logger.Errorf("[Store] Failed to send %T: %v", v, err)
	}
}

// Read-side accessors. All return copies; the canonical collections are
// never handed out by reference.

// Sports returns the catalog, ordered by sport id.
func (s *Store) Sports() []models.EventType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.EventType, 0, len(s.sports))
	for _, sport := range s.sports {
		out = append(out, sport)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EventsBySportID returns the known events of one sport in listing order.
func (s *Store) EventsBySportID(sportID int) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.sportEvents[sportID]
	out := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if event, ok := s.events[id]; ok {
			out = append(out, event)
		}
	}
	return out
}

// EventByID looks an event up by id.
func (s *Store) EventByID(eventID int) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[eventID]
	return event, ok
}

// Football returns the current live list.
func (s *Store) Football() []football.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]football.Game, len(s.footballGames))
	copy(out, s.footballGames)
	return out
}

// CurrentRoute returns the active route.
func (s *Store) CurrentRoute() route.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentRoute
}

// SportOfRoute resolves the sport the current route refers to.
func (s *Store) SportOfRoute() (models.EventType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.currentRoute.SportOfRoute()
	if !ok {
		return models.EventType{}, false
	}
	sport, ok := s.sports[id]
	return sport, ok
}

// EventOfRoute resolves the event the current route refers to.
func (s *Store) EventOfRoute() (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.currentRoute.EventOfRoute()
	if !ok {
		return models.Event{}, false
	}
	event, ok := s.events[id]
	return event, ok
}
