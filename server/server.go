// Package server exposes the game controls over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/JeanRibes/piano-game/music"
	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Controller is the set of game operations the API drives. *music.Game
// implements it.
type Controller interface {
	PlayRandom() music.Sequence
	Replay() error
	StartUserTurn()
	OnUserNote(n Note)
	CheckErrors() int
	ResetErrorCount()
	Snapshot() music.State
}

type Server struct {
	game   Controller
	cfg    *Config
	logger *charmlog.Logger
}

type NoteRequestBody struct {
	Note *int `json:"note"`
}

type PlayResponse struct {
	Round  string `json:"round"`
	Length int    `json:"length"`
}

type CheckResponse struct {
	Errors int `json:"errors"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func New(game Controller, cfg *Config, logger *charmlog.Logger) *Server {
	return &Server{game: game, cfg: cfg, logger: logger}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.logRequests)
	router.HandleFunc("/play", s.handlePlay).Methods("POST")
	router.HandleFunc("/replay", s.handleReplay).Methods("POST")
	router.HandleFunc("/turn", s.handleTurn).Methods("POST")
	router.HandleFunc("/note", s.handleNote).Methods("POST")
	router.HandleFunc("/check", s.handleCheck).Methods("POST")
	router.HandleFunc("/reset", s.handleReset).Methods("POST")
	router.HandleFunc("/state", s.handleState).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(router)
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown", "err", err)
		}
	}()
	s.logger.Info("listening", "addr", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	seq := s.game.PlayRandom()
	s.writeJSON(w, http.StatusOK, PlayResponse{
		Round:  s.game.Snapshot().Round,
		Length: len(seq),
	})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Replay(); err != nil {
		s.writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	s.game.StartUserTurn()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	var input NoteRequestBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Note == nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "body must be {\"note\": <midi number>}"})
		return
	}
	n := *input.Note
	if n < 0 || n > 127 || !s.cfg.Range().Contains(Note(n)) {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "note outside of " + s.cfg.Range().String()})
		return
	}
	if s.cfg.Keyboard.Disabled {
		s.writeJSON(w, http.StatusConflict, ErrorResponse{Error: "keyboard disabled"})
		return
	}
	s.game.OnUserNote(Note(n))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, CheckResponse{Errors: s.game.CheckErrors()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.game.ResetErrorCount()
	w.WriteHeader(http.StatusNoContent)
}

// handleState hides the sequence while the user is reproducing it.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.game.Snapshot()
	if state.UserTurn {
		state.Sequence = nil
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "status", status, "err", err)
	}
}
