package gamesvc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"principality-lite/internal/registry"
	"principality-lite/principality"
)

type HTTPHandler struct {
	svc *Service
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games", h.handleCreate)
	mux.HandleFunc("GET /api/games", h.handleList)
	mux.HandleFunc("GET /api/games/{id}", h.handleGet)
	mux.HandleFunc("POST /api/games/{id}/move", h.handleMove)
	mux.HandleFunc("DELETE /api/games/{id}", h.handleEnd)
	mux.HandleFunc("GET /api/history", h.handleHistory)
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	resp, err := h.svc.CreateGame(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListGames())
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.GetGame(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleMove(w http.ResponseWriter, r *http.Request) {
	var input MoveInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.Advance(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndGame(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var invalid principality.InvalidMoveError
	switch {
	case errors.Is(err, registry.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotYourTurn), errors.Is(err, ErrGameOver),
		errors.Is(err, principality.ErrGameOver), errors.Is(err, registry.ErrMoveInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &invalid), errors.Is(err, principality.ErrUnknownCard):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
