package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/kanflow/internal/adapters/server/common"
	"github.com/evanschultz/kanflow/internal/app"
	"github.com/evanschultz/kanflow/internal/domain"
)

func index(v int) *int { return &v }

// stubBoardService provides deterministic board responses for handler tests.
type stubBoardService struct {
	board    common.Board
	list     common.List
	card     common.Card
	err      error
	lastCall string
	lastReq  any
}

func (s *stubBoardService) record(call string, req any) error {
	s.lastCall = call
	s.lastReq = req
	return s.err
}

func (s *stubBoardService) GetBoard(context.Context) (common.Board, error) {
	return s.board, s.record("GetBoard", nil)
}

func (s *stubBoardService) AddList(_ context.Context, req common.AddListRequest) (common.List, error) {
	return s.list, s.record("AddList", req)
}

func (s *stubBoardService) EditListTitle(_ context.Context, req common.EditListTitleRequest) (common.List, error) {
	return s.list, s.record("EditListTitle", req)
}

func (s *stubBoardService) DeleteList(_ context.Context, req common.DeleteListRequest) error {
	return s.record("DeleteList", req)
}

func (s *stubBoardService) UpdateListPosition(_ context.Context, req common.UpdateListPositionRequest) (common.List, error) {
	return s.list, s.record("UpdateListPosition", req)
}

func (s *stubBoardService) MoveList(_ context.Context, req common.MoveListRequest) (common.Board, error) {
	return s.board, s.record("MoveList", req)
}

func (s *stubBoardService) AddCard(_ context.Context, req common.AddCardRequest) (common.Card, error) {
	return s.card, s.record("AddCard", req)
}

func (s *stubBoardService) EditCard(_ context.Context, req common.EditCardRequest) (common.Card, error) {
	return s.card, s.record("EditCard", req)
}

func (s *stubBoardService) ToggleCard(_ context.Context, req common.ToggleCardRequest) (common.Card, error) {
	return s.card, s.record("ToggleCard", req)
}

func (s *stubBoardService) MoveCard(_ context.Context, req common.MoveCardRequest) (common.Board, error) {
	return s.board, s.record("MoveCard", req)
}

// stubDragService provides deterministic drag responses for handler tests.
type stubDragService struct {
	state    common.DragState
	result   common.DragResult
	listDrag common.ListDragResult
	err      error
	lastCall string
	lastReq  any
}

func (s *stubDragService) record(call string, req any) error {
	s.lastCall = call
	s.lastReq = req
	return s.err
}

func (s *stubDragService) DragStart(_ context.Context, req common.DragRequest) (common.DragState, error) {
	return s.state, s.record("DragStart", req)
}

func (s *stubDragService) DragOver(_ context.Context, req common.DragRequest) (common.DragResult, error) {
	return s.result, s.record("DragOver", req)
}

func (s *stubDragService) DragEnd(_ context.Context, req common.DragRequest) (common.DragResult, error) {
	return s.result, s.record("DragEnd", req)
}

func (s *stubDragService) DragState(context.Context) (common.DragState, error) {
	return s.state, s.record("DragState", nil)
}

func (s *stubDragService) StartListDrag(_ context.Context, req common.ListDragStartRequest) (common.DragState, error) {
	return s.state, s.record("StartListDrag", req)
}

func (s *stubDragService) MoveListDrag(_ context.Context, req common.ListDragMoveRequest) (common.ListDragResult, error) {
	return s.listDrag, s.record("MoveListDrag", req)
}

func (s *stubDragService) EndListDrag(context.Context) (common.DragState, error) {
	return s.state, s.record("EndListDrag", nil)
}

// serve runs one request through the handler.
func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeError decodes one structured error envelope.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return env.Error
}

// TestHandlerGetBoard verifies board snapshots are served as JSON.
func TestHandlerGetBoard(t *testing.T) {
	board := &stubBoardService{board: common.Board{
		Lists:     []common.List{{ID: "list-1", Title: "To Do", Cards: []common.Card{{ID: "card-1", Content: "x"}}}},
		ListCount: 1,
		CardCount: 1,
	}}
	rec := serve(t, NewHandler(board, nil), http.MethodGet, "/board", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got common.Board
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.CardCount != 1 || got.Lists[0].Cards[0].ID != "card-1" {
		t.Fatalf("unexpected board %+v", got)
	}
}

// TestHandlerRoutesFillPathIDs verifies path ids reach the service requests.
func TestHandlerRoutesFillPathIDs(t *testing.T) {
	cases := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCall   string
		wantReq    any
	}{
		{
			name: "add list", method: http.MethodPost, path: "/lists", body: `{"title":"Later"}`,
			wantStatus: http.StatusCreated, wantCall: "AddList", wantReq: common.AddListRequest{Title: "Later"},
		},
		{
			name: "add list without body", method: http.MethodPost, path: "/lists",
			wantStatus: http.StatusCreated, wantCall: "AddList", wantReq: common.AddListRequest{},
		},
		{
			name: "edit list", method: http.MethodPatch, path: "/lists/list-1", body: `{"title":"Doing"}`,
			wantStatus: http.StatusOK, wantCall: "EditListTitle", wantReq: common.EditListTitleRequest{ListID: "list-1", Title: "Doing"},
		},
		{
			name: "delete list", method: http.MethodDelete, path: "/lists/list-2",
			wantStatus: http.StatusNoContent, wantCall: "DeleteList", wantReq: common.DeleteListRequest{ListID: "list-2"},
		},
		{
			name: "move list", method: http.MethodPost, path: "/lists/move", body: `{"list_id":"list-3","source_index":2,"destination_index":0}`,
			wantStatus: http.StatusOK, wantCall: "MoveList", wantReq: common.MoveListRequest{ListID: "list-3", SourceIndex: index(2), DestinationIndex: index(0)},
		},
		{
			name: "add card", method: http.MethodPost, path: "/lists/list-1/cards", body: `{"content":"write docs"}`,
			wantStatus: http.StatusCreated, wantCall: "AddCard", wantReq: common.AddCardRequest{ListID: "list-1", Content: "write docs"},
		},
		{
			name: "edit card", method: http.MethodPatch, path: "/cards/card-9", body: `{"content":"done"}`,
			wantStatus: http.StatusOK, wantCall: "EditCard", wantReq: common.EditCardRequest{CardID: "card-9", Content: "done"},
		},
		{
			name: "toggle card", method: http.MethodPost, path: "/cards/card-9/toggle",
			wantStatus: http.StatusOK, wantCall: "ToggleCard", wantReq: common.ToggleCardRequest{CardID: "card-9"},
		},
		{
			name: "move card", method: http.MethodPost, path: "/cards/move",
			body:       `{"card_id":"card-1","source_list_id":"list-1","source_index":0,"destination_list_id":"list-2","destination_index":0}`,
			wantStatus: http.StatusOK, wantCall: "MoveCard",
			wantReq: common.MoveCardRequest{CardID: "card-1", SourceListID: "list-1", SourceIndex: index(0), DestinationListID: "list-2", DestinationIndex: index(0)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			board := &stubBoardService{}
			rec := serve(t, NewHandler(board, nil), tc.method, tc.path, tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if board.lastCall != tc.wantCall {
				t.Fatalf("call = %q, want %q", board.lastCall, tc.wantCall)
			}
			if !reflect.DeepEqual(board.lastReq, tc.wantReq) {
				t.Fatalf("request = %#v, want %#v", board.lastReq, tc.wantReq)
			}
		})
	}
}

// TestHandlerUpdateListPosition verifies coordinates decode into the request.
func TestHandlerUpdateListPosition(t *testing.T) {
	board := &stubBoardService{list: common.List{ID: "list-1", Position: app.PositionView{X: 10, Y: 20}}}
	rec := serve(t, NewHandler(board, nil), http.MethodPut, "/lists/list-1/position", `{"x":10,"y":20}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	req, ok := board.lastReq.(common.UpdateListPositionRequest)
	if !ok || req.ListID != "list-1" || req.X == nil || *req.X != 10 || req.Y == nil || *req.Y != 20 {
		t.Fatalf("unexpected request %#v", board.lastReq)
	}
}

// TestHandlerErrorMapping verifies structured status mapping for service errors.
func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid request", err: errors.Join(common.ErrInvalidRequest, errors.New("bad")), wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "not found", err: errors.Join(common.ErrNotFound, errors.New("missing")), wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "invalid move", err: errors.Join(common.ErrInvalidMove, errors.New("stale")), wantStatus: http.StatusConflict, wantCode: "invalid_move"},
		{name: "internal error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			board := &stubBoardService{err: tc.err}
			rec := serve(t, NewHandler(board, nil), http.MethodPost, "/cards/card-1/toggle", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := decodeError(t, rec); got.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", got.Code, tc.wantCode)
			}
		})
	}
}

// TestHandlerRejectsMalformedBodies verifies strict JSON decoding.
func TestHandlerRejectsMalformedBodies(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: `{"content":"x","color":"red"}`},
		{name: "trailing content", body: `{"content":"x"} {}`},
		{name: "not json", body: `content=x`},
		{name: "missing body", body: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			board := &stubBoardService{}
			rec := serve(t, NewHandler(board, nil), http.MethodPatch, "/cards/card-1", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if board.lastCall != "" {
				t.Fatalf("service should not be called, got %q", board.lastCall)
			}
		})
	}
}

// TestHandlerRejectsOversizedBody verifies the request body cap.
func TestHandlerRejectsOversizedBody(t *testing.T) {
	board := &stubBoardService{}
	body := `{"content":"` + strings.Repeat("x", int(maxRequestBodyBytes)) + `"}`
	rec := serve(t, NewHandler(board, nil), http.MethodPatch, "/cards/card-1", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestHandlerUnknownRouteAndMethod verifies 404 and 405 envelopes.
func TestHandlerUnknownRouteAndMethod(t *testing.T) {
	h := NewHandler(&stubBoardService{}, &stubDragService{})
	rec := serve(t, h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "not_found" {
		t.Fatalf("unexpected unknown-route response %d", rec.Code)
	}
	rec = serve(t, h, http.MethodDelete, "/board", "")
	if rec.Code != http.StatusMethodNotAllowed || decodeError(t, rec).Code != "method_not_allowed" {
		t.Fatalf("unexpected wrong-method response %d", rec.Code)
	}
}

// TestHandlerDragRoutes verifies drag endpoints reach the drag service.
func TestHandlerDragRoutes(t *testing.T) {
	drag := &stubDragService{
		result: common.DragResult{Moved: true, CardID: "card-1"},
		state:  common.DragState{Phase: "dragging", ActiveID: "card-1"},
	}
	h := NewHandler(&stubBoardService{}, drag)

	rec := serve(t, h, http.MethodPost, "/drag/start", `{"active_id":"card-1"}`)
	if rec.Code != http.StatusOK || drag.lastCall != "DragStart" {
		t.Fatalf("drag start status=%d call=%q", rec.Code, drag.lastCall)
	}
	serve(t, h, http.MethodPost, "/drag/over", `{"active_id":"card-1","over_id":"list-2"}`)
	if drag.lastReq != (common.DragRequest{ActiveID: "card-1", OverID: "list-2"}) {
		t.Fatalf("unexpected drag over request %#v", drag.lastReq)
	}
	rec = serve(t, h, http.MethodPost, "/drag/end", `{"active_id":"card-1"}`)
	var result common.DragResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !result.Moved || drag.lastCall != "DragEnd" {
		t.Fatalf("unexpected drag end result %+v call=%q", result, drag.lastCall)
	}
	rec = serve(t, h, http.MethodGet, "/drag", "")
	if rec.Code != http.StatusOK || drag.lastCall != "DragState" {
		t.Fatalf("drag state status=%d call=%q", rec.Code, drag.lastCall)
	}

	serve(t, h, http.MethodPost, "/list-drag/start", `{"list_id":"list-1","x":60,"y":110}`)
	if drag.lastReq != (common.ListDragStartRequest{ListID: "list-1", X: 60, Y: 110}) {
		t.Fatalf("unexpected list drag start %#v", drag.lastReq)
	}
	serve(t, h, http.MethodPost, "/list-drag/move", `{"x":200,"y":300,"viewport_width":1000,"viewport_height":700}`)
	if drag.lastReq != (common.ListDragMoveRequest{X: 200, Y: 300, ViewportWidth: 1000, ViewportHeight: 700}) {
		t.Fatalf("unexpected list drag move %#v", drag.lastReq)
	}
	serve(t, h, http.MethodPost, "/list-drag/end", "")
	if drag.lastCall != "EndListDrag" {
		t.Fatalf("call = %q, want EndListDrag", drag.lastCall)
	}
}

// TestHandlerMissingServices verifies unconfigured services fail with structured errors.
func TestHandlerMissingServices(t *testing.T) {
	h := NewHandler(nil, nil)
	rec := serve(t, h, http.MethodGet, "/board", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	rec = serve(t, h, http.MethodGet, "/drag", "")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotImplemented)
	}
}

// TestHandlerEndToEndScenario drives the real app service through HTTP.
func TestHandlerEndToEndScenario(t *testing.T) {
	board, err := app.LoadSeed(app.SeedDefault, domain.SequentialIDs())
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	adapter := common.NewAppServiceAdapter(app.NewService(board, app.ServiceConfig{Logger: charmLog.New(io.Discard)}))
	h := NewHandler(adapter, adapter)

	rec := serve(t, h, http.MethodPost, "/drag/end", `{"active_id":"card-1","over_id":"card-5"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var result common.DragResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !result.Moved || result.Source.Index != 0 || result.Destination.Index != 2 {
		t.Fatalf("unexpected drop %+v", result)
	}

	rec = serve(t, h, http.MethodPatch, "/cards/card-2", `{"content":"   "}`)
	var card common.Card
	if err := json.NewDecoder(rec.Body).Decode(&card); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if card.Content != "Set up Redux store" {
		t.Fatalf("blank edit changed content to %q", card.Content)
	}

	rec = serve(t, h, http.MethodPost, "/cards/move", `{"card_id":"card-2","source_list_id":"list-1","source_index":2,"destination_list_id":"list-2","destination_index":0}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale move status = %d, want %d", rec.Code, http.StatusConflict)
	}
	rec = serve(t, h, http.MethodPost, "/cards/move", `{"card_id":"card-2","source_list_id":"list-1","source_index":0,"destination_list_id":"list-2"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("move without destination_index status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != "invalid_request" {
		t.Fatalf("move without destination_index code = %q", apiErr.Code)
	}

	rec = serve(t, h, http.MethodDelete, "/lists/list-1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = serve(t, h, http.MethodGet, "/board", "")
	var got common.Board
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.ListCount != 2 || got.CardCount != 3 {
		t.Fatalf("unexpected board after delete %+v", got)
	}
}
