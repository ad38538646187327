package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hiloapp/bg-companion/internal/api/response"
	"github.com/hiloapp/bg-companion/internal/storage/repository"
)

var errArchiveDisabled = errors.New("match archive is disabled")

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 200
)

type healthView struct {
	Status    string `json:"status"`
	State     string `json:"state"`
	WSClients int    `json:"wsClients"`
}

type liveView struct {
	State string `json:"state"`
	Turns any    `json:"turns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.Success(w, healthView{
		Status:    "ok",
		State:     s.tracker.State().String(),
		WSClients: s.wsHub.ClientCount(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	response.Success(w, liveView{
		State: s.tracker.State().String(),
		Turns: s.tracker.LiveTurns(),
	})
}

func (s *Server) handleRecentMatches(w http.ResponseWriter, r *http.Request) {
	if s.matches == nil {
		response.Error(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return
	}

	limit := defaultMatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxMatchLimit {
			response.BadRequest(w, errors.New("limit must be an integer between 1 and 200"))
			return
		}
		limit = n
	}

	matches, err := s.matches.Recent(r.Context(), limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if matches == nil {
		matches = []*repository.ArchivedMatch{}
	}
	response.Success(w, matches)
}

func (s *Server) handleMatchByID(w http.ResponseWriter, r *http.Request) {
	if s.matches == nil {
		response.Error(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return
	}

	id := chi.URLParam(r, "id")
	match, err := s.matches.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, err)
			return
		}
		response.InternalError(w, err)
		return
	}
	response.Success(w, match)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.matches == nil {
		response.Error(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return
	}

	stats, err := s.matches.Stats(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, stats)
}
