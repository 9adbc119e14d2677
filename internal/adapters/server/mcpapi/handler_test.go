package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/evanschultz/hexaboard/internal/adapters/server/common"
	"github.com/evanschultz/hexaboard/internal/app"
	"github.com/evanschultz/hexaboard/internal/domain"
)

// stubActivity provides deterministic activity responses for MCP tool tests.
type stubActivity struct {
	events    []domain.ChangeEvent
	err       error
	lastLimit int
}

// ListActivity records the limit and returns the configured response.
func (s *stubActivity) ListActivity(_ context.Context, limit int) ([]domain.ChangeEvent, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.ChangeEvent(nil), s.events...), nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// newBoardService builds a store-backed board service: backlog=[t1,t2], review=[].
func newBoardService(t *testing.T) *common.StoreAdapter {
	t.Helper()
	seed := domain.NewBoard(
		domain.Column{ID: "backlog", Title: "Backlog", Tasks: []domain.Task{{ID: "t1", Title: "one"}, {ID: "t2", Title: "two"}}},
		domain.Column{ID: "review", Title: "Review"},
	)
	store := app.NewStore(nil, app.CounterIDs("id"), nil, app.StoreConfig{Seed: seed})
	return common.NewStoreAdapter(store, app.NewPendingMoves(app.CounterIDs("tok"), 0), "Board")
}

// newTestServer starts one MCP handler and runs the initialize handshake.
func newTestServer(t *testing.T, board common.BoardService, activity common.ActivityService) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, board, activity)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultIsError reports whether one tool-call result is flagged as an error.
func toolResultIsError(result map[string]any) bool {
	isErr, _ := result["isError"].(bool)
	return isErr
}

// decodeToolJSON decodes the text content of one tool result into T.
func decodeToolJSON[T any](t *testing.T, result map[string]any) T {
	t.Helper()
	var out T
	if err := json.Unmarshal([]byte(toolResultText(t, result)), &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return out
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// callTool invokes one tool and returns its result map.
func callTool(t *testing.T, server *httptest.Server, name string, args map[string]any) map[string]any {
	t.Helper()
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, name, args))
	if resp.Result == nil {
		t.Fatalf("%s: missing result", name)
	}
	return resp.Result
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "hexaboard-test",
				"version": "1.0.0",
			},
		},
	}
}

// listToolNames returns the names reported by tools/list.
func listToolNames(t *testing.T, server *httptest.Server) []string {
	t.Helper()
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	return toolNames
}

func taskIDs(board domain.Board, columnID string) string {
	col, ok := board.Column(columnID)
	if !ok {
		return ""
	}
	ids := make([]string, 0, len(col.Tasks))
	for _, task := range col.Tasks {
		ids = append(ids, task.ID)
	}
	return strings.Join(ids, ",")
}

// TestNewHandlerRequiresBoardService verifies a nil board service is rejected.
func TestNewHandlerRequiresBoardService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil, nil); err == nil {
		t.Fatal("NewHandler() error = nil, want error")
	}
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, newBoardService(t), nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersBoardTools verifies tool discovery and the optional activity tool.
func TestHandlerRegistersBoardTools(t *testing.T) {
	names := listToolNames(t, newTestServer(t, newBoardService(t), nil))
	for _, required := range []string{
		"hexaboard.get_board",
		"hexaboard.board_markdown",
		"hexaboard.add_column",
		"hexaboard.rename_column",
		"hexaboard.delete_column",
		"hexaboard.add_task",
		"hexaboard.rename_task",
		"hexaboard.delete_task",
		"hexaboard.move_task",
		"hexaboard.reorder_task",
		"hexaboard.move_task_at",
		"hexaboard.propose_drag",
		"hexaboard.commit_drag",
	} {
		if !slices.Contains(names, required) {
			t.Fatalf("tool list missing %s: %#v", required, names)
		}
	}
	if slices.Contains(names, "hexaboard.list_activity") {
		t.Fatalf("unexpected activity tool without activity service: %#v", names)
	}

	names = listToolNames(t, newTestServer(t, newBoardService(t), &stubActivity{}))
	if !slices.Contains(names, "hexaboard.list_activity") {
		t.Fatalf("tool list missing hexaboard.list_activity: %#v", names)
	}
}

// TestHandlerTaskTools verifies task mutations through tool calls.
func TestHandlerTaskTools(t *testing.T) {
	server := newTestServer(t, newBoardService(t), nil)

	result := callTool(t, server, "hexaboard.move_task", map[string]any{
		"source_column_id": "backlog",
		"dest_column_id":   "review",
		"task_id":          "t1",
	})
	res := decodeToolJSON[common.MutationResult](t, result)
	if !res.Changed || taskIDs(res.Board, "review") != "t1" || taskIDs(res.Board, "backlog") != "t2" {
		t.Fatalf("unexpected move result %#v", res)
	}

	result = callTool(t, server, "hexaboard.add_task", map[string]any{"column_id": "backlog", "title": "  "})
	res = decodeToolJSON[common.MutationResult](t, result)
	if res.Changed {
		t.Fatalf("blank title should leave board unchanged: %#v", res)
	}

	result = callTool(t, server, "hexaboard.rename_task", map[string]any{"column_id": "backlog", "task_id": "t2", "title": "Updated"})
	res = decodeToolJSON[common.MutationResult](t, result)
	backlog, _ := res.Board.Column("backlog")
	if task, _ := backlog.Task("t2"); task.Title != "Updated" {
		t.Fatalf("rename_task: %#v", task)
	}

	result = callTool(t, server, "hexaboard.move_task_at", map[string]any{
		"source_column_id": "review",
		"dest_column_id":   "backlog",
		"task_id":          "t1",
		"from_index":       0,
		"to_index":         0,
	})
	res = decodeToolJSON[common.MutationResult](t, result)
	if taskIDs(res.Board, "backlog") != "t1,t2" {
		t.Fatalf("move_task_at: backlog = %q", taskIDs(res.Board, "backlog"))
	}

	result = callTool(t, server, "hexaboard.reorder_task", map[string]any{
		"column_id":  "backlog",
		"task_id":    "t1",
		"from_index": 0,
		"to_index":   1,
	})
	res = decodeToolJSON[common.MutationResult](t, result)
	if taskIDs(res.Board, "backlog") != "t2,t1" || res.Revision != 4 {
		t.Fatalf("reorder_task: backlog = %q revision = %d", taskIDs(res.Board, "backlog"), res.Revision)
	}

	result = callTool(t, server, "hexaboard.delete_task", map[string]any{"column_id": "backlog", "task_id": "t2"})
	res = decodeToolJSON[common.MutationResult](t, result)
	if taskIDs(res.Board, "backlog") != "t1" {
		t.Fatalf("delete_task: backlog = %q", taskIDs(res.Board, "backlog"))
	}
}

// TestHandlerColumnTools verifies column tools and markdown rendering.
func TestHandlerColumnTools(t *testing.T) {
	server := newTestServer(t, newBoardService(t), nil)

	res := decodeToolJSON[common.MutationResult](t, callTool(t, server, "hexaboard.add_column", map[string]any{"title": "Complete"}))
	if len(res.Board.Columns) != 3 || res.Board.Columns[2].Title != "Complete" {
		t.Fatalf("add_column: %#v", res.Board.Columns)
	}
	newID := res.Board.Columns[2].ID

	res = decodeToolJSON[common.MutationResult](t, callTool(t, server, "hexaboard.rename_column", map[string]any{"column_id": newID, "title": "Done"}))
	if col, _ := res.Board.Column(newID); col.Title != "Done" {
		t.Fatalf("rename_column: %#v", col)
	}

	res = decodeToolJSON[common.MutationResult](t, callTool(t, server, "hexaboard.delete_column", map[string]any{"column_id": "backlog"}))
	if _, ok := res.Board.FindTask("t1"); ok {
		t.Fatal("delete_column: expected backlog tasks removed")
	}

	md := toolResultText(t, callTool(t, server, "hexaboard.board_markdown", map[string]any{}))
	if !strings.Contains(md, "## Done (0 tasks)") || strings.Contains(md, "Backlog") {
		t.Fatalf("unexpected markdown %q", md)
	}

	state := decodeToolJSON[common.BoardState](t, callTool(t, server, "hexaboard.get_board", map[string]any{}))
	if state.Revision != 3 || len(state.Board.Columns) != 2 {
		t.Fatalf("get_board: %#v", state)
	}
}

// TestHandlerDragTools verifies propose/commit and single-use tokens.
func TestHandlerDragTools(t *testing.T) {
	server := newTestServer(t, newBoardService(t), nil)

	cancelled := decodeToolJSON[common.DragProposal](t, callTool(t, server, "hexaboard.propose_drag", map[string]any{
		"task_id":          "t1",
		"source_column_id": "backlog",
		"source_index":     0,
	}))
	if cancelled.Pending {
		t.Fatalf("expected cancelled drag to need no confirmation: %#v", cancelled)
	}

	proposal := decodeToolJSON[common.DragProposal](t, callTool(t, server, "hexaboard.propose_drag", map[string]any{
		"task_id":          "t2",
		"source_column_id": "backlog",
		"source_index":     1,
		"dest_column_id":   "review",
		"dest_index":       0,
	}))
	if !proposal.Pending || proposal.Message != `Move task "two" from "Backlog" to "Review"?` {
		t.Fatalf("unexpected proposal %#v", proposal)
	}

	res := decodeToolJSON[common.MutationResult](t, callTool(t, server, "hexaboard.commit_drag", map[string]any{
		"token":   proposal.Token,
		"confirm": true,
	}))
	if !res.Changed || taskIDs(res.Board, "review") != "t2" {
		t.Fatalf("commit_drag: %#v", res)
	}

	again := callTool(t, server, "hexaboard.commit_drag", map[string]any{"token": proposal.Token, "confirm": true})
	if !toolResultIsError(again) || !strings.HasPrefix(toolResultText(t, again), "not_found: ") {
		t.Fatalf("expected not_found for consumed token, got %#v", again)
	}
}

// TestHandlerToolErrors verifies argument validation and error prefixes.
func TestHandlerToolErrors(t *testing.T) {
	server := newTestServer(t, newBoardService(t), nil)

	missing := callTool(t, server, "hexaboard.rename_column", map[string]any{"title": "x"})
	if !toolResultIsError(missing) {
		t.Fatalf("expected missing column_id to fail: %#v", missing)
	}

	blankID := callTool(t, server, "hexaboard.delete_column", map[string]any{"column_id": "  "})
	if !toolResultIsError(blankID) || !strings.HasPrefix(toolResultText(t, blankID), "invalid_request: ") {
		t.Fatalf("expected invalid_request for blank id, got %#v", blankID)
	}
}

// TestHandlerListActivity verifies the optional activity tool.
func TestHandlerListActivity(t *testing.T) {
	activity := &stubActivity{events: []domain.ChangeEvent{{ID: 1, Revision: 1, Operation: domain.ChangeOperationDeleteTask}}}
	server := newTestServer(t, newBoardService(t), activity)

	payload := decodeToolJSON[map[string][]domain.ChangeEvent](t, callTool(t, server, "hexaboard.list_activity", map[string]any{"limit": 7}))
	if activity.lastLimit != 7 || len(payload["events"]) != 1 {
		t.Fatalf("unexpected activity payload %#v (limit %d)", payload, activity.lastLimit)
	}

	activity.err = errors.New("boom")
	failed := callTool(t, server, "hexaboard.list_activity", map[string]any{})
	if !toolResultIsError(failed) || !strings.HasPrefix(toolResultText(t, failed), "internal_error: ") {
		t.Fatalf("expected internal_error, got %#v", failed)
	}
}

// TestHandlerListActivityWithoutJournal verifies a journal-less store reports not_implemented.
func TestHandlerListActivityWithoutJournal(t *testing.T) {
	board := newBoardService(t)
	server := newTestServer(t, board, board)
	result := callTool(t, server, "hexaboard.list_activity", map[string]any{})
	if !toolResultIsError(result) || !strings.HasPrefix(toolResultText(t, result), "not_implemented: ") {
		t.Fatalf("expected not_implemented, got %#v", result)
	}
}

// TestToolResultFromError verifies error-prefix mapping.
func TestToolResultFromError(t *testing.T) {
	cases := map[string]error{
		"invalid_request: ": common.ErrInvalidRequest,
		"not_found: ":       common.ErrNotFound,
		"not_implemented: ": common.ErrActivityUnavailable,
		"internal_error: ":  errors.New("boom"),
	}
	for prefix, err := range cases {
		result := toolResultFromError(err)
		text := result.Content[0].(mcp.TextContent).Text
		if !result.IsError || !strings.HasPrefix(text, prefix) {
			t.Fatalf("toolResultFromError(%v) = %q, want prefix %q", err, text, prefix)
		}
	}
}
