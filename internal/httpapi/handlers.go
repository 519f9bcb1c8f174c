package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"github.com/DoyleJ11/wordlink-backend/internal/players"
	"github.com/DoyleJ11/wordlink-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type Players interface {
	Upsert(ctx context.Context, sessionID, nickname string) (players.Upserted, error)
	Resolve(ctx context.Context, sessionID string) (string, error)
}

type Arbiter interface {
	JoinQueue(ctx context.Context, playerID string) error
	LeaveQueue(ctx context.Context, playerID string) error
	SubmitTurn(ctx context.Context, gameID, playerID, word string) (string, error)
	Results(ctx context.Context, gameID, playerID string) (types.GameResults, error)
}

type History interface {
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]types.ArchivedGame, error)
}

func UpsertPlayer(p Players, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpsertPlayerRequest
		if !decode(w, r, &req, log) {
			return
		}

		res, err := p.Upsert(r.Context(), req.SessionID, req.Nickname)
		if err != nil {
			writeError(w, r, err, log)
			return
		}

		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, types.UpsertPlayerResponse{PlayerID: res.PlayerID, SessionID: res.SessionID})
	}
}

func JoinQueue(a Arbiter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.JoinQueue(r.Context(), PlayerID(r.Context())); err != nil {
			writeError(w, r, err, log)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func LeaveQueue(a Arbiter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.LeaveQueue(r.Context(), PlayerID(r.Context())); err != nil {
			writeError(w, r, err, log)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SubmitTurn(a Arbiter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.TurnRequest
		if !decode(w, r, &req, log) {
			return
		}
		if req.GameID == "" {
			writeError(w, r, engine.New(engine.CodeMalformedInput, "gameId is required"), log)
			return
		}

		word, err := a.SubmitTurn(r.Context(), req.GameID, PlayerID(r.Context()), req.Word)
		if err != nil {
			writeError(w, r, err, log)
			return
		}
		writeJSON(w, http.StatusOK, types.TurnResponse{Word: word, Message: "valid word"})
	}
}

func Results(a Arbiter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := a.Results(r.Context(), chi.URLParam(r, "gameID"), PlayerID(r.Context()))
		if err != nil {
			writeError(w, r, err, log)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func MyGames(h History, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, r, engine.New(engine.CodeMalformedInput, "limit must be a positive number"), log)
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		games, err := h.ListByPlayer(r.Context(), PlayerID(r.Context()), limit)
		if err != nil {
			writeError(w, r, err, log)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, log *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, engine.Wrap(engine.CodeMalformedInput, "invalid request body", err), log)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to their status class. Anything else is an
// internal failure and is logged rather than shown to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, log *zap.Logger) {
	code, ok := engine.CodeOf(err)
	if !ok {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Message: "internal error"})
		return
	}
	writeJSON(w, statusFor(code.Class()), types.ErrorResponse{Code: string(code), Message: err.Error()})
}

func statusFor(c engine.Class) int {
	switch c {
	case engine.ClassClient:
		return http.StatusBadRequest
	case engine.ClassUnauthorized:
		return http.StatusUnauthorized
	case engine.ClassForbidden:
		return http.StatusForbidden
	case engine.ClassNotFound:
		return http.StatusNotFound
	case engine.ClassConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
