// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/hexaboard/internal/adapters/server/common"
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

// NewHandler builds one stateless MCP adapter with board tools and optional activity tools.
func NewHandler(cfg Config, board common.BoardService, activity common.ActivityService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardReadTools(mcpSrv, board)
	registerColumnTools(mcpSrv, board)
	registerTaskTools(mcpSrv, board)
	registerDragTools(mcpSrv, board)
	if activity != nil {
		registerActivityTools(mcpSrv, activity)
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
		cfg.ServerName = "hexaboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerBoardReadTools registers `hexaboard.get_board` and `hexaboard.board_markdown`.
func registerBoardReadTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"hexaboard.get_board",
			mcp.WithDescription("Return the current board snapshot with its revision."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			state, err := board.GetBoard(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(state)
			if err != nil {
				return nil, fmt.Errorf("encode get_board result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.board_markdown",
			mcp.WithDescription("Render the current board as a markdown document."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			md, err := board.BoardMarkdown(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(md), nil
		},
	)
}

// registerColumnTools registers add/rename/delete column tools.
func registerColumnTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"hexaboard.add_column",
			mcp.WithDescription("Append an empty column. A blank title uses the configured default."),
			mcp.WithString("title", mcp.Description("Column title")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			res, err := board.AddColumn(ctx, common.AddColumnRequest{Title: req.GetString("title", "")})
			return mutationResult("add_column", res, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.rename_column",
			mcp.WithDescription("Rename one column. Blank titles leave the board unchanged."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.RenameColumn(ctx, common.RenameColumnRequest{ColumnID: columnID, Title: title})
			return mutationResult("rename_column", res, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.delete_column",
			mcp.WithDescription("Delete one column together with all of its tasks."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.DeleteColumn(ctx, common.DeleteColumnRequest{ColumnID: columnID})
			return mutationResult("delete_column", res, err)
		},
	)
}

// registerTaskTools registers task CRUD and move tools.
func registerTaskTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"hexaboard.add_task",
			mcp.WithDescription("Append a task to the end of a column."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.AddTask(ctx, common.AddTaskRequest{ColumnID: columnID, Title: title})
			return mutationResult("add_task", res, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.rename_task",
			mcp.WithDescription("Rename one task."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.RenameTask(ctx, common.RenameTaskRequest{ColumnID: columnID, TaskID: taskID, Title: title})
			return mutationResult("rename_task", res, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.delete_task",
			mcp.WithDescription("Delete one task. Deleting a missing task is a no-op."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.DeleteTask(ctx, common.DeleteTaskRequest{ColumnID: columnID, TaskID: taskID})
			return mutationResult("delete_task", res, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.move_task",
			mcp.WithDescription("Move a task to the end of another column."),
			mcp.WithString("source_column_id", mcp.Required(), mcp.Description("Current column identifier")),
			mcp.WithString("dest_column_id", mcp.Required(), mcp.Description("Destination column identifier")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			sourceID, err := req.RequireString("source_column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			destID, err := req.RequireString("dest_column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.MoveTask(ctx, common.MoveTaskRequest{SourceColumnID: sourceID, DestColumnID: destID, TaskID: taskID})
			return mutationResult("move_task", res, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.reorder_task",
			mcp.WithDescription("Move a task inside its column. to_index is measured after removing the task and is clamped."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithNumber("from_index", mcp.Required(), mcp.Description("Current zero-based index of the task")),
			mcp.WithNumber("to_index", mcp.Required(), mcp.Description("Target zero-based index")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			fromIndex, err := req.RequireInt("from_index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			toIndex, err := req.RequireInt("to_index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.ReorderTask(ctx, common.ReorderTaskRequest{
				ColumnID:  columnID,
				TaskID:    taskID,
				FromIndex: fromIndex,
				ToIndex:   toIndex,
			})
			return mutationResult("reorder_task", res, err)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.move_task_at",
			mcp.WithDescription("Move a task from one column index to an index in another column."),
			mcp.WithString("source_column_id", mcp.Required(), mcp.Description("Current column identifier")),
			mcp.WithString("dest_column_id", mcp.Required(), mcp.Description("Destination column identifier")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithNumber("from_index", mcp.Required(), mcp.Description("Current zero-based index of the task")),
			mcp.WithNumber("to_index", mcp.Required(), mcp.Description("Target zero-based index in the destination column")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			in, errResult := moveAtArgs(req)
			if errResult != nil {
				return errResult, nil
			}
			res, err := board.MoveTaskAt(ctx, in)
			return mutationResult("move_task_at", res, err)
		},
	)
}

// registerDragTools registers the two-step propose/commit drag tools.
func registerDragTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"hexaboard.propose_drag",
			mcp.WithDescription("Resolve a drag gesture into a pending move and return its confirmation prompt and token. Omit dest_column_id for a cancelled drag."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Dragged task identifier")),
			mcp.WithString("source_column_id", mcp.Required(), mcp.Description("Column the drag started in")),
			mcp.WithNumber("source_index", mcp.Required(), mcp.Description("Index the drag started at")),
			mcp.WithString("dest_column_id", mcp.Description("Column the task was dropped in")),
			mcp.WithNumber("dest_index", mcp.Description("Index the task was dropped at")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			gesture, errResult := dragArgs(req)
			if errResult != nil {
				return errResult, nil
			}
			proposal, err := board.ProposeDrag(ctx, gesture)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(proposal)
			if err != nil {
				return nil, fmt.Errorf("encode propose_drag result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hexaboard.commit_drag",
			mcp.WithDescription("Accept or decline one pending drag. Each token resolves once."),
			mcp.WithString("token", mcp.Required(), mcp.Description("Token returned by propose_drag")),
			mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("true applies the move, false discards it")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			token, err := req.RequireString("token")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.CommitDrag(ctx, common.CommitDragRequest{
				Token:   token,
				Confirm: req.GetBool("confirm", false),
			})
			return mutationResult("commit_drag", res, err)
		},
	)
}

// registerActivityTools registers the optional `hexaboard.list_activity` tool.
func registerActivityTools(srv *mcpserver.MCPServer, activity common.ActivityService) {
	srv.AddTool(
		mcp.NewTool(
			"hexaboard.list_activity",
			mcp.WithDescription("List recent board changes recorded this session, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of events")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			limit := req.GetInt("limit", 0)
			if limit < 0 {
				return mcp.NewToolResultError("invalid_request: limit must be non-negative"), nil
			}
			events, err := activity.ListActivity(ctx, limit)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"events": events,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_activity result: %w", err)
			}
			return result, nil
		},
	)
}

// mutationResult encodes one board mutation outcome.
func mutationResult(tool string, res common.MutationResult, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return toolResultFromError(err), nil
	}
	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrActivityUnavailable):
		return mcp.NewToolResultError("not_implemented: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
