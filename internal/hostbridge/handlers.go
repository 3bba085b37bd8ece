package hostbridge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ward/internal/blocklist"
	"ward/internal/logging"
	"ward/internal/player"
)

const maxBodyBytes = 1 << 20

type playerUpdate struct {
	player.State
	HTML string `json:"html,omitempty"`
}

// PlayerResponse acknowledges a player update.
type PlayerResponse struct {
	Changed  bool             `json:"changed"`
	Commands []player.Command `json:"commands"`
}

// CommandsResponse lists drained actions.
type CommandsResponse struct {
	Commands []player.Command `json:"commands"`
	Dropped  int              `json:"dropped"`
}

type blockRequest struct {
	List string `json:"list"`
}

// BlockResponse reports what BlockCurrent stored.
type BlockResponse struct {
	List  string `json:"list"`
	Entry string `json:"entry"`
	Added bool   `json:"added"`
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	var update playerUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&update); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player payload")
		return
	}
	state := update.State
	if update.HTML != "" {
		parsed, err := player.ParsePlayerBar(update.HTML)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		state = parsed
	}
	changed := s.remote.Update(state)
	if changed {
		s.logger.Debug("player state updated",
			logging.String(logging.FieldTitle, state.Title),
			logging.String(logging.FieldArtist, state.ArtistLine),
			logging.Bool("feedback_active", state.FeedbackActive),
		)
	}
	s.writeJSON(w, http.StatusOK, PlayerResponse{Changed: changed, Commands: nonNil(s.remote.Drain())})
}

func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, CommandsResponse{
		Commands: nonNil(s.remote.Drain()),
		Dropped:  s.remote.Dropped(),
	})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		s.writeError(w, http.StatusServiceUnavailable, "daemon not ready")
		return
	}
	var req blockRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid block payload")
		return
	}
	list, err := blocklist.ParseList(req.List)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, added, err := s.backend.BlockCurrent(r.Context(), list)
	switch {
	case errors.Is(err, blocklist.ErrEmptyEntry):
		s.writeError(w, http.StatusConflict, "nothing is playing")
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, BlockResponse{List: string(list), Entry: entry.Display(), Added: added})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		s.writeError(w, http.StatusServiceUnavailable, "daemon not ready")
		return
	}
	s.writeJSON(w, http.StatusOK, s.backend.Status(r.Context()))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func nonNil(cmds []player.Command) []player.Command {
	if cmds == nil {
		return []player.Command{}
	}
	return cmds
}
