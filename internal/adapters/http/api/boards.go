package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// BoardsHandler handles stateless generation and board history.
type BoardsHandler struct {
	deps     BoardDependencies
	maxLimit int
}

// NewBoardsHandler creates a new boards handler.
func NewBoardsHandler(deps BoardDependencies, maxLimit int) *BoardsHandler {
	return &BoardsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandlePostBoard handles POST /boards requests.
func (h *BoardsHandler) HandlePostBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_board"
	req, err := decodeGenerateRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	board, err := h.deps.Generate(r.Context(), req.toService())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// HandleListBoards handles GET /boards?limit=N requests. limit defaults to
// the handler maximum.
func (h *BoardsHandler) HandleListBoards(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_boards"
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded",
				WrapKind(op, ErrLimitExceeded, fmt.Errorf("limit %d above %d", v, h.maxLimit)))
			return
		}
		n = v
	}
	boards, err := h.deps.Boards(r.Context(), n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, boardsResponse{Boards: boards, Count: len(boards)})
}

// HandleGetBoard handles GET /boards/{id} requests.
func (h *BoardsHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_board"
	board, err := h.deps.Board(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
