// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/evanschultz/kanflow/internal/adapters/server/common"
	"github.com/gorilla/mux"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board  common.BoardService
	drag   common.DragService
	router *mux.Router
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter from board and optional drag services.
func NewHandler(board common.BoardService, drag common.DragService) *Handler {
	h := &Handler{board: board, drag: drag}
	h.router = h.routes()
	return h
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes wires every endpoint. Literal paths are registered before their `{id}` siblings.
func (h *Handler) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})

	r.HandleFunc("/board", h.requireBoard(h.handleGetBoard)).Methods(http.MethodGet)

	r.HandleFunc("/lists", h.requireBoard(h.handleAddList)).Methods(http.MethodPost)
	r.HandleFunc("/lists/move", h.requireBoard(h.handleMoveList)).Methods(http.MethodPost)
	r.HandleFunc("/lists/{id}", h.requireBoard(h.handleEditList)).Methods(http.MethodPatch)
	r.HandleFunc("/lists/{id}", h.requireBoard(h.handleDeleteList)).Methods(http.MethodDelete)
	r.HandleFunc("/lists/{id}/position", h.requireBoard(h.handleUpdateListPosition)).Methods(http.MethodPut)
	r.HandleFunc("/lists/{id}/cards", h.requireBoard(h.handleAddCard)).Methods(http.MethodPost)

	r.HandleFunc("/cards/move", h.requireBoard(h.handleMoveCard)).Methods(http.MethodPost)
	r.HandleFunc("/cards/{id}", h.requireBoard(h.handleEditCard)).Methods(http.MethodPatch)
	r.HandleFunc("/cards/{id}/toggle", h.requireBoard(h.handleToggleCard)).Methods(http.MethodPost)

	r.HandleFunc("/drag", h.requireDrag(h.handleDragState)).Methods(http.MethodGet)
	r.HandleFunc("/drag/start", h.requireDrag(h.handleDragStart)).Methods(http.MethodPost)
	r.HandleFunc("/drag/over", h.requireDrag(h.handleDragOver)).Methods(http.MethodPost)
	r.HandleFunc("/drag/end", h.requireDrag(h.handleDragEnd)).Methods(http.MethodPost)

	r.HandleFunc("/list-drag/start", h.requireDrag(h.handleListDragStart)).Methods(http.MethodPost)
	r.HandleFunc("/list-drag/move", h.requireDrag(h.handleListDragMove)).Methods(http.MethodPost)
	r.HandleFunc("/list-drag/end", h.requireDrag(h.handleListDragEnd)).Methods(http.MethodPost)
	return r
}

// requireBoard rejects board routes when no board service is configured.
func (h *Handler) requireBoard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.board == nil {
			writeJSONError(w, http.StatusServiceUnavailable, APIError{
				Code:    "service_unavailable",
				Message: "board service is not configured",
			})
			return
		}
		next(w, r)
	}
}

// requireDrag rejects drag routes when no drag service is configured.
func (h *Handler) requireDrag(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.drag == nil {
			writeJSONError(w, http.StatusNotImplemented, APIError{
				Code:    "not_implemented",
				Message: "drag APIs are not available",
			})
			return
		}
		next(w, r)
	}
}

// handleGetBoard serves GET `/board`.
func (h *Handler) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.GetBoard(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleAddList serves POST `/lists`.
func (h *Handler) handleAddList(w http.ResponseWriter, r *http.Request) {
	var req common.AddListRequest
	if err := decodeOptionalJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	list, err := h.board.AddList(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// handleEditList serves PATCH `/lists/{id}`.
func (h *Handler) handleEditList(w http.ResponseWriter, r *http.Request) {
	var req common.EditListTitleRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.ListID = mux.Vars(r)["id"]
	list, err := h.board.EditListTitle(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleDeleteList serves DELETE `/lists/{id}`.
func (h *Handler) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.board.DeleteList(r.Context(), common.DeleteListRequest{ListID: mux.Vars(r)["id"]}); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateListPosition serves PUT `/lists/{id}/position`.
func (h *Handler) handleUpdateListPosition(w http.ResponseWriter, r *http.Request) {
	var req common.UpdateListPositionRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.ListID = mux.Vars(r)["id"]
	list, err := h.board.UpdateListPosition(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleMoveList serves POST `/lists/move`.
func (h *Handler) handleMoveList(w http.ResponseWriter, r *http.Request) {
	var req common.MoveListRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	board, err := h.board.MoveList(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleAddCard serves POST `/lists/{id}/cards`.
func (h *Handler) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var req common.AddCardRequest
	if err := decodeOptionalJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.ListID = mux.Vars(r)["id"]
	card, err := h.board.AddCard(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// handleEditCard serves PATCH `/cards/{id}`.
func (h *Handler) handleEditCard(w http.ResponseWriter, r *http.Request) {
	var req common.EditCardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.CardID = mux.Vars(r)["id"]
	card, err := h.board.EditCard(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleToggleCard serves POST `/cards/{id}/toggle`.
func (h *Handler) handleToggleCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.board.ToggleCard(r.Context(), common.ToggleCardRequest{CardID: mux.Vars(r)["id"]})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleMoveCard serves POST `/cards/move`.
func (h *Handler) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var req common.MoveCardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	board, err := h.board.MoveCard(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleDragState serves GET `/drag`.
func (h *Handler) handleDragState(w http.ResponseWriter, r *http.Request) {
	state, err := h.drag.DragState(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleDragStart serves POST `/drag/start`.
func (h *Handler) handleDragStart(w http.ResponseWriter, r *http.Request) {
	var req common.DragRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	state, err := h.drag.DragStart(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleDragOver serves POST `/drag/over`.
func (h *Handler) handleDragOver(w http.ResponseWriter, r *http.Request) {
	var req common.DragRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	result, err := h.drag.DragOver(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDragEnd serves POST `/drag/end`.
func (h *Handler) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	var req common.DragRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	result, err := h.drag.DragEnd(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListDragStart serves POST `/list-drag/start`.
func (h *Handler) handleListDragStart(w http.ResponseWriter, r *http.Request) {
	var req common.ListDragStartRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	state, err := h.drag.StartListDrag(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleListDragMove serves POST `/list-drag/move`.
func (h *Handler) handleListDragMove(w http.ResponseWriter, r *http.Request) {
	var req common.ListDragMoveRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	result, err := h.drag.MoveListDrag(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListDragEnd serves POST `/list-drag/end`.
func (h *Handler) handleListDragEnd(w http.ResponseWriter, r *http.Request) {
	state, err := h.drag.EndListDrag(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidMove):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "invalid_move",
			Message: err.Error(),
			Hint:    "Re-read the board; the source index no longer holds the item.",
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}

// decodeOptionalJSONBody decodes one optional JSON body and ignores empty payloads.
func decodeOptionalJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(out)
	if err == nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("request canceled: %w", ctx.Err())
		default:
			return nil
		}
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
}
