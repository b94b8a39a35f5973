package mcpapi

import (
	"context"
	"strings"

	"github.com/evanschultz/kanflow/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// registerCardTools registers card creation, edits, and explicit moves.
func registerCardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"kanflow.add_card",
			mcp.WithDescription("Append one card to the end of a list."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithString("content", mcp.Description("Card content; may be empty")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			card, err := board.AddCard(ctx, common.AddCardRequest{
				ListID:  listID,
				Content: req.GetString("content", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("add_card", card)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.edit_card",
			mcp.WithDescription("Replace one card's content. Blank or unchanged content is ignored."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("content", mcp.Required(), mcp.Description("New content")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			content, err := req.RequireString("content")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			card, err := board.EditCard(ctx, common.EditCardRequest{CardID: cardID, Content: content})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("edit_card", card)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.toggle_card",
			mcp.WithDescription("Flip one card's completion flag."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			card, err := board.ToggleCard(ctx, common.ToggleCardRequest{CardID: cardID})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("toggle_card", card)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.move_card",
			mcp.WithDescription("Move one card between explicit slots. The source slot must currently hold card_id."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("source_list_id", mcp.Required(), mcp.Description("Current list identifier")),
			mcp.WithNumber("source_index", mcp.Required(), mcp.Description("Current index inside the source list")),
			mcp.WithString("destination_list_id", mcp.Required(), mcp.Description("Target list identifier")),
			mcp.WithNumber("destination_index", mcp.Required(), mcp.Description("Target index inside the destination list")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.MoveCardRequest
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			snapshot, err := board.MoveCard(ctx, args)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_card", snapshot)
		},
	)
}

// registerDragTools registers card and list drag gestures.
func registerDragTools(srv *mcpserver.MCPServer, drag common.DragService) {
	srv.AddTool(
		mcp.NewTool(
			"kanflow.drag",
			mcp.WithDescription("Report one card-drag event. Cross-list hovers move the card live; a drop commits the final slot."),
			mcp.WithString("phase", mcp.Required(), mcp.Description("start|over|end|state"), mcp.Enum("start", "over", "end", "state")),
			mcp.WithString("active_id", mcp.Description("Dragged card identifier")),
			mcp.WithString("over_id", mcp.Description("Hovered card or list identifier; omit when over nothing")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			phase, err := req.RequireString("phase")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			event := common.DragRequest{
				ActiveID: req.GetString("active_id", ""),
				OverID:   req.GetString("over_id", ""),
			}
			switch strings.TrimSpace(phase) {
			case "start":
				state, err := drag.DragStart(ctx, event)
				if err != nil {
					return toolResultFromError(err), nil
				}
				return jsonResult("drag", state)
			case "over":
				result, err := drag.DragOver(ctx, event)
				if err != nil {
					return toolResultFromError(err), nil
				}
				return jsonResult("drag", result)
			case "end":
				result, err := drag.DragEnd(ctx, event)
				if err != nil {
					return toolResultFromError(err), nil
				}
				return jsonResult("drag", result)
			case "state":
				state, err := drag.DragState(ctx)
				if err != nil {
					return toolResultFromError(err), nil
				}
				return jsonResult("drag", state)
			default:
				return mcp.NewToolResultError(`invalid_request: phase must be one of "start", "over", "end", "state"`), nil
			}
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanflow.list_drag",
			mcp.WithDescription("Grab, move, or release one list on the canvas. Moves are clamped to the viewport."),
			mcp.WithString("phase", mcp.Required(), mcp.Description("start|move|end"), mcp.Enum("start", "move", "end")),
			mcp.WithString("list_id", mcp.Description("Grabbed list identifier (start only)")),
			mcp.WithNumber("x", mcp.Description("Pointer x")),
			mcp.WithNumber("y", mcp.Description("Pointer y")),
			mcp.WithNumber("viewport_width", mcp.Description("Viewport width; omit for the server default")),
			mcp.WithNumber("viewport_height", mcp.Description("Viewport height; omit for the server default")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			phase, err := req.RequireString("phase")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			switch strings.TrimSpace(phase) {
			case "start":
				state, err := drag.StartListDrag(ctx, common.ListDragStartRequest{
					ListID: req.GetString("list_id", ""),
					X:      req.GetFloat("x", 0),
					Y:      req.GetFloat("y", 0),
				})
				if err != nil {
					return toolResultFromError(err), nil
				}
				return jsonResult("list_drag", state)
			case "move":
				result, err := drag.MoveListDrag(ctx, common.ListDragMoveRequest{
					X:              req.GetFloat("x", 0),
					Y:              req.GetFloat("y", 0),
					ViewportWidth:  req.GetFloat("viewport_width", 0),
					ViewportHeight: req.GetFloat("viewport_height", 0),
				})
				if err != nil {
					return toolResultFromError(err), nil
				}
				return jsonResult("list_drag", result)
			case "end":
				state, err := drag.EndListDrag(ctx)
				if err != nil {
					return toolResultFromError(err), nil
				}
				return jsonResult("list_drag", state)
			default:
				return mcp.NewToolResultError(`invalid_request: phase must be one of "start", "move", "end"`), nil
			}
		},
	)
}
