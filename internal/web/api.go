package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/tictactoe-engine/internal/app"
	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

// stateResponse is the JSON view of a session.
type stateResponse struct {
	ID            string    `json:"id"`
	Board         [9]string `json:"board"`
	GameOver      bool      `json:"gameOver"`
	Winner        *string   `json:"winner"`
	CurrentPlayer *string   `json:"currentPlayer"`
	Human         string    `json:"human"`
	AI            string    `json:"ai"`
	WinningLine   []int     `json:"winningLine,omitempty"`
	Error         string    `json:"error,omitempty"`
}

func newStateResponse(gs app.Session) stateResponse {
	resp := stateResponse{
		ID:       gs.ID,
		GameOver: gs.Game.Over(),
		Human:    gs.Human.String(),
		AI:       gs.AI.String(),
	}
	for i, c := range gs.Game.Board {
		resp.Board[i] = c.String()
	}
	switch o := gs.Game.Outcome; o {
	case domain.InProgress:
		p := gs.CurrentPlayer().String()
		resp.CurrentPlayer = &p
	case domain.Draw:
		tie := "tie"
		resp.Winner = &tie
	default:
		w := o.Winner().String()
		resp.Winner = &w
		if ln, ok := domain.WinningLine(gs.Game.Board); ok {
			resp.WinningLine = ln[:]
		}
	}
	return resp
}

// renderState is the broadcast renderer installed on the service.
func renderState(gs app.Session) []byte {
	b, _ := json.Marshal(newStateResponse(gs))
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, err error, gs *app.Session) {
	if gs == nil {
		writeJSON(w, statusFor(err), map[string]string{"error": errorMessage(err)})
		return
	}
	resp := newStateResponse(*gs)
	resp.Error = errorMessage(err)
	writeJSON(w, statusFor(err), resp)
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

// moveRequest carries a cell index; a null position asks the engine to move.
type moveRequest struct {
	Position *int `json:"position"`
}

func (h *handlers) apiCreate(w http.ResponseWriter, r *http.Request) {
	var req symbolRequest
	// an empty body means the defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	human := domain.Empty
	if req.Symbol != "" {
		c, err := domain.ParseCell(req.Symbol)
		if err != nil {
			writeAPIError(w, err, nil)
			return
		}
		human = c
	}
	gs, err := h.svc.CreateGame(human)
	if err != nil {
		writeAPIError(w, err, nil)
		return
	}
	pid := ensurePlayerCookie(w, r)
	if _, joined, err := h.svc.Join(gs.ID, pid); err == nil {
		gs = joined
	}
	writeJSON(w, http.StatusCreated, newStateResponse(*gs))
}

func (h *handlers) apiGet(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		writeAPIError(w, app.ErrNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(*gs))
}

func (h *handlers) apiMove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	var (
		gs  *app.Session
		err error
	)
	if req.Position == nil {
		gs, err = h.svc.AIMove(id, pid)
	} else {
		gs, err = h.svc.Play(id, pid, *req.Position)
	}
	if err != nil {
		cur, _ := h.svc.Get(id)
		writeAPIError(w, err, cur)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(*gs))
}

func (h *handlers) apiSymbol(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	var req symbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	human, err := domain.ParseCell(req.Symbol)
	if err != nil {
		writeAPIError(w, err, nil)
		return
	}
	gs, err := h.svc.Reset(id, pid, human)
	if err != nil {
		cur, _ := h.svc.Get(id)
		writeAPIError(w, err, cur)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(*gs))
}

func (h *handlers) apiDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	gs, ok := h.svc.Get(id)
	if !ok {
		writeAPIError(w, app.ErrNotFound, nil)
		return
	}
	if gs.Owner != pid {
		writeAPIError(w, app.ErrNotAPlayer, nil)
		return
	}
	h.svc.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}
