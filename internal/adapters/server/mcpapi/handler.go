// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/kanflow/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter with board tools and optional drag tools.
func NewHandler(cfg Config, board common.BoardService, drag common.DragService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, board)
	registerCardTools(mcpSrv, board)
	if drag != nil {
		registerDragTools(mcpSrv, drag)
	}

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "kanflow"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerBoardTools registers board reads and list mutations.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"kanflow.get_board",
			mcp.WithDescription("Return every list in board order with its cards."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			snapshot, err := board.GetBoard(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("get_board", snapshot)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.add_list",
			mcp.WithDescription("Append one list. It is placed to the right of the existing lists."),
			mcp.WithString("title", mcp.Description("List title; may be empty")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			list, err := board.AddList(ctx, common.AddListRequest{Title: req.GetString("title", "")})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("add_list", list)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.edit_list_title",
			mcp.WithDescription("Rename one list. Blank or unchanged titles are ignored."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			list, err := board.EditListTitle(ctx, common.EditListTitleRequest{ListID: listID, Title: title})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("edit_list_title", list)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.delete_list",
			mcp.WithDescription("Delete one list together with every card it holds."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			if err := board.DeleteList(ctx, common.DeleteListRequest{ListID: listID}); err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("delete_list", map[string]any{"deleted": listID})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.move_list",
			mcp.WithDescription("Reorder one list. source_index must currently hold list_id."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithNumber("source_index", mcp.Required(), mcp.Description("Current list index")),
			mcp.WithNumber("destination_index", mcp.Required(), mcp.Description("Target list index")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			source, err := req.RequireInt("source_index")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			destination, err := req.RequireInt("destination_index")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			snapshot, err := board.MoveList(ctx, common.MoveListRequest{
				ListID:           listID,
				SourceIndex:      &source,
				DestinationIndex: &destination,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_list", snapshot)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.update_list_position",
			mcp.WithDescription("Store one list's canvas position verbatim."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Left offset")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("Top offset")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			x, err := req.RequireFloat("x")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			y, err := req.RequireFloat("y")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			list, err := board.UpdateListPosition(ctx, common.UpdateListPositionRequest{ListID: listID, X: &x, Y: &y})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("update_list_position", list)
		},
	)
}

// jsonResult encodes one structured tool result.
func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// invalidRequestToolResult reports one argument failure.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrInvalidMove):
		return mcp.NewToolResultError("invalid_move: " + err.Error())
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
