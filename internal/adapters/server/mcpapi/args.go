package mcpapi

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/evanschultz/hexaboard/internal/adapters/server/common"
	"github.com/evanschultz/hexaboard/internal/app"
	"github.com/evanschultz/hexaboard/internal/domain"
)

// moveAtArgs decodes `hexaboard.move_task_at` arguments.
func moveAtArgs(req mcp.CallToolRequest) (common.MoveTaskAtRequest, *mcp.CallToolResult) {
	var (
		in  common.MoveTaskAtRequest
		err error
	)
	if in.SourceColumnID, err = req.RequireString("source_column_id"); err != nil {
		return in, mcp.NewToolResultError(err.Error())
	}
	if in.DestColumnID, err = req.RequireString("dest_column_id"); err != nil {
		return in, mcp.NewToolResultError(err.Error())
	}
	if in.TaskID, err = req.RequireString("task_id"); err != nil {
		return in, mcp.NewToolResultError(err.Error())
	}
	if in.FromIndex, err = req.RequireInt("from_index"); err != nil {
		return in, mcp.NewToolResultError(err.Error())
	}
	if in.ToIndex, err = req.RequireInt("to_index"); err != nil {
		return in, mcp.NewToolResultError(err.Error())
	}
	return in, nil
}

// dragArgs decodes `hexaboard.propose_drag` arguments. A blank dest_column_id
// yields a gesture without destination.
func dragArgs(req mcp.CallToolRequest) (app.DragGesture, *mcp.CallToolResult) {
	var g app.DragGesture
	taskID, err := req.RequireString("task_id")
	if err != nil {
		return g, mcp.NewToolResultError(err.Error())
	}
	sourceID, err := req.RequireString("source_column_id")
	if err != nil {
		return g, mcp.NewToolResultError(err.Error())
	}
	sourceIndex, err := req.RequireInt("source_index")
	if err != nil {
		return g, mcp.NewToolResultError(err.Error())
	}
	g.DraggedTaskID = taskID
	g.Source = domain.Location{ColumnID: sourceID, Index: sourceIndex}
	if destID := strings.TrimSpace(req.GetString("dest_column_id", "")); destID != "" {
		g.Destination = &domain.Location{ColumnID: destID, Index: req.GetInt("dest_index", 0)}
	}
	return g, nil
}
