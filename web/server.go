package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"gobet-client/config"
	"gobet-client/logger"
	"gobet-client/store"
)

// Server exposes the store's canonical state to downstream consumers: a
// read-only JSON API, a websocket push channel and the static SPA assets.
type Server struct {
	config     *config.Config
	store      *store.Store
	hub        *Hub
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

func NewServer(cfg *config.Config, st *store.Store, hub *Hub) *Server {
	return &Server{
		config: cfg,
		store:  st,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) Start() error {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/sports", s.handleGetSports).Methods("GET")
	api.HandleFunc("/sports/{sport_id}/events", s.handleGetSportEvents).Methods("GET")
	api.HandleFunc("/events/{event_id}", s.handleGetEvent).Methods("GET")
	api.HandleFunc("/football", s.handleGetFootball).Methods("GET")
	api.HandleFunc("/message", s.handleGetMessage).Methods("GET")
	api.HandleFunc("/route", s.handleGetRoute).Methods("GET")
	api.HandleFunc("/route", s.handleSetRoute).Methods("POST")

	router.HandleFunc("/ws", s.handleWebSocket)

	router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("[Web] Server shutdown error: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleGetSports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Sports())
}

func (s *Server) handleGetSportEvents(w http.ResponseWriter, r *http.Request) {
	sportID, err := strconv.Atoi(mux.Vars(r)["sport_id"])
	if err != nil {
		http.Error(w, "invalid sport id", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.store.EventsBySportID(sportID))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(mux.Vars(r)["event_id"])
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	event, ok := s.store.EventByID(eventID)
	if !ok {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	writeJSON(w, event)
}

func (s *Server) handleGetFootball(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Football())
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.CurrentMessage())
}

func (s *Server) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	current := s.store.CurrentRoute()
	writeJSON(w, map[string]interface{}{
		"kind":     current.Kind.String(),
		"sport_id": current.SportID,
		"event_id": current.EventID,
	})
}

// handleSetRoute lets a downstream consumer report its navigation state,
// which drives which feed subscriptions the store keeps active.
func (s *Server) handleSetRoute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.store.HandleHashChange(body.Hash)
	s.handleGetRoute(w, r)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("[Web] WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("[Web] Failed to encode response: %v", err)
	}
}
