// internal/httpserver/server.go
//
// HTTP server wiring for the Alfheimr game server.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/api/rules", "/api/state".
//   - Archive endpoints: "/api/games", "/api/games/{id}".
//   - Admin endpoint: POST /api/reset (guarded by the Admin middleware).
//   - Websocket endpoint: "/ws" (see ws.go).
//
// Notes:
//   - CORS is origin-aware; CLIENT_ORIGIN is also what the websocket
//     upgrader accepts.
//   - /ws is mounted outside the request timeout; it lives as long as the
//     connection.
package httpserver

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/game"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/rules"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/store"
)

const defaultListLimit = 20

// Session is everything the server needs from the game session.
type Session interface {
	GameSession
	State(ctx context.Context) (game.State, error)
	Reset(ctx context.Context) (game.State, error)
}

// Config wires a Server.
type Config struct {
	Session Session
	Hub     *Hub
	Store   store.Store
	Ruleset *rules.Ruleset

	// Admin guards POST /api/reset. When nil the endpoint answers 403.
	Admin func(http.Handler) http.Handler

	// ClientOrigin is the single origin allowed by CORS and the websocket
	// upgrader. "*" allows any.
	ClientOrigin string
}

// Server bundles router, session, hub and archive.
type Server struct {
	r        *chi.Mux
	session  Session
	hub      *Hub
	store    store.Store
	rs       *rules.Ruleset
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config) *Server {
	origin := cmp.Or(cfg.ClientOrigin, "http://localhost:5173")
	s := &Server{
		r:        chi.NewRouter(),
		session:  cfg.Session,
		hub:      cfg.Hub,
		store:    cfg.Store,
		rs:       cfg.Ruleset,
		upgrader: newUpgrader(origin),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(requestLogger)
	s.r.Use(cors(origin))

	s.r.Get("/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"alfheimr","endpoints":["/health","/api/rules","/api/state","/api/games","POST /api/reset","/ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/api/rules", s.handleRules)
		r.Get("/api/state", s.handleState)
		r.Get("/api/games", s.handleListGames)
		r.Get("/api/games/{id}", s.handleGetGame)

		admin := cfg.Admin
		if admin == nil {
			admin = forbidden
		}
		r.With(admin).Post("/api/reset", s.handleReset)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found")
		})
	})

	return s
}

// Handler exposes the router (used by main and tests).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http")
	})
}

func forbidden(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "reset_disabled")
	})
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// ------------------------------ RULES --------------------------------------

type pieceRes struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Moves        string  `json:"moves"`
	Royal        bool    `json:"royal,omitempty"`
	AfterMove    string  `json:"afterMove,omitempty"`
	AfterCapture string  `json:"afterCapture,omitempty"`
	ExtraMoves   string  `json:"extraMoves,omitempty"`
}

type rulesRes struct {
	Name   string        `json:"name"`
	Colors []logic.Color `json:"colors"`
	Board  string        `json:"board"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Pieces []pieceRes    `json:"pieces"`
}

// handleRules describes the loaded ruleset.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	b := s.rs.NewBoard()
	res := rulesRes{
		Name:   s.rs.Name,
		Colors: s.rs.Colors,
		Board:  b.Notation(),
		Width:  b.Width,
		Height: b.Height,
	}
	for sym, p := range s.rs.Pieces {
		res.Pieces = append(res.Pieces, pieceRes{
			Symbol:       sym,
			Name:         p.Name,
			Value:        p.Value,
			Moves:        p.Notation,
			Royal:        p.Royal,
			AfterMove:    p.AfterMove,
			AfterCapture: p.AfterCapture,
			ExtraMoves:   p.ExtraMoves,
		})
	}
	sort.Slice(res.Pieces, func(i, j int) bool { return res.Pieces[i].Symbol < res.Pieces[j].Symbol })
	writeJSON(w, res)
}

// ------------------------------ GAME ---------------------------------------

// handleState returns a snapshot of the running game.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.State(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("session state")
		writeError(w, http.StatusServiceUnavailable, "session_unavailable")
		return
	}
	writeJSON(w, st)
}

// handleReset aborts the running game and starts a new one.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Reset(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("session reset")
		writeError(w, http.StatusServiceUnavailable, "session_unavailable")
		return
	}
	log.Info().Str("game", st.GameID).Msg("reset via api")
	writeJSON(w, st)
}

// ------------------------------ ARCHIVE ------------------------------------

// handleListGames lists recently started games (?limit=, default 20, max 100).
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = min(n, 100)
	}
	games, err := s.store.ListGames(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list games")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if games == nil {
		games = []store.GameRecord{}
	}
	writeJSON(w, games)
}

// handleGetGame returns one archived game with its moves.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetGame(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get game")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, rec)
}
