package store

import "time"

// MessageKind classifies a transient user-facing message.
type MessageKind string

const (
	// Info messages self-clear after the configured timeout.
	Info MessageKind = "Info"

	// ServerError persists until the next successful non-error frame.
	ServerError MessageKind = "ServerError"

	// ConnectionError persists until the channel reopens.
	ConnectionError MessageKind = "ConnectionError"
)

// Message is the single transient message shown to the user. At most one
// is active at a time.
type Message struct {
	Title string      `json:"title"`
	Text  string      `json:"text"`
	Kind  MessageKind `json:"kind"`
}

// CurrentMessage returns the active transient message, or nil.
func (s *Store) CurrentMessage() *Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.message == nil {
		return nil
	}
	m := *s.message
	return &m
}

// SetInfo shows an informational message that self-clears after the info
// timeout.
func (s *Store) SetInfo(title, text string) {
	s.setMessage(&Message{Title: title, Text: text, Kind: Info})
}

// ClearMessage dismisses the active message, if any.
func (s *Store) ClearMessage() {
	s.clearMessage()
}

// setMessage replaces the active message. Reassignment always cancels a
// pending auto-clear; only Info messages schedule a new one.
func (s *Store) setMessage(m *Message) {
	s.mu.Lock()
	if s.messageTimer != nil {
		s.messageTimer.Stop()
		s.messageTimer = nil
	}
	s.message = m
	if m != nil && m.Kind == Info {
		s.messageTimer = time.AfterFunc(s.infoTimeout, s.clearMessage)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) clearMessage() {
	s.setMessage(nil)
}
