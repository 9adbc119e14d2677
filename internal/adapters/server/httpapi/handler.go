// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/evanschultz/hexaboard/internal/adapters/server/common"
	"github.com/evanschultz/hexaboard/internal/app"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board    common.BoardService
	activity common.ActivityService
	logger   *log.Logger
	echo     *echo.Echo
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

// titleBody is the payload of add and rename requests.
type titleBody struct {
	Title string `json:"title"`
}

// moveBody is the payload of `/columns/:id/tasks/:taskID/move`.
type moveBody struct {
	DestColumnID string `json:"dest_column_id"`
}

// reorderBody is the payload of `/columns/:id/tasks/:taskID/reorder`.
type reorderBody struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

// confirmBody is the payload of `/drags/:token`.
type confirmBody struct {
	Confirm bool `json:"confirm"`
}

// NewHandler constructs one HTTP API adapter. activity and logger may be nil.
func NewHandler(board common.BoardService, activity common.ActivityService, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	h := &Handler{
		board:    board,
		activity: activity,
		logger:   logger,
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.handleEchoError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			h.logger.Debug("api request", "method", v.Method, "path", v.URIPath, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	h.register(e)
	h.echo = e
	return h
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.echo.ServeHTTP(w, r)
}

// register binds every REST route.
func (h *Handler) register(e *echo.Echo) {
	e.GET("/board", h.handleGetBoard)
	e.GET("/board/markdown", h.handleBoardMarkdown)
	e.POST("/columns", h.handleAddColumn)
	e.PATCH("/columns/:id", h.handleRenameColumn)
	e.DELETE("/columns/:id", h.handleDeleteColumn)
	e.POST("/columns/:id/tasks", h.handleAddTask)
	e.PATCH("/columns/:id/tasks/:taskID", h.handleRenameTask)
	e.DELETE("/columns/:id/tasks/:taskID", h.handleDeleteTask)
	e.POST("/columns/:id/tasks/:taskID/move", h.handleMoveTask)
	e.POST("/columns/:id/tasks/:taskID/reorder", h.handleReorderTask)
	e.POST("/moves", h.handleMoveTaskAt)
	e.POST("/drags", h.handleProposeDrag)
	e.POST("/drags/:token", h.handleCommitDrag)
	e.GET("/activity", h.handleListActivity)
}

// handleGetBoard serves GET `/board`.
func (h *Handler) handleGetBoard(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	state, err := h.board.GetBoard(c.Request().Context())
	if err != nil {
		return writeErrorFrom(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// handleBoardMarkdown serves GET `/board/markdown`.
func (h *Handler) handleBoardMarkdown(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	md, err := h.board.BoardMarkdown(c.Request().Context())
	if err != nil {
		return writeErrorFrom(c, err)
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// handleAddColumn serves POST `/columns`.
func (h *Handler) handleAddColumn(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var body titleBody
	if err := decodeOptionalJSONBody(c, &body); err != nil {
		return writeErrorFrom(c, err)
	}
	res, err := h.board.AddColumn(c.Request().Context(), common.AddColumnRequest{Title: body.Title})
	return writeMutation(c, res, err)
}

// handleRenameColumn serves PATCH `/columns/:id`.
func (h *Handler) handleRenameColumn(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var body titleBody
	if err := decodeJSONBody(c, &body); err != nil {
		return writeErrorFrom(c, err)
	}
	res, err := h.board.RenameColumn(c.Request().Context(), common.RenameColumnRequest{
		ColumnID: c.Param("id"),
		Title:    body.Title,
	})
	return writeMutation(c, res, err)
}

// handleDeleteColumn serves DELETE `/columns/:id`.
func (h *Handler) handleDeleteColumn(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	res, err := h.board.DeleteColumn(c.Request().Context(), common.DeleteColumnRequest{ColumnID: c.Param("id")})
	return writeMutation(c, res, err)
}

// handleAddTask serves POST `/columns/:id/tasks`.
func (h *Handler) handleAddTask(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var body titleBody
	if err := decodeJSONBody(c, &body); err != nil {
		return writeErrorFrom(c, err)
	}
	res, err := h.board.AddTask(c.Request().Context(), common.AddTaskRequest{
		ColumnID: c.Param("id"),
		Title:    body.Title,
	})
	return writeMutation(c, res, err)
}

// handleRenameTask serves PATCH `/columns/:id/tasks/:taskID`.
func (h *Handler) handleRenameTask(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var body titleBody
	if err := decodeJSONBody(c, &body); err != nil {
		return writeErrorFrom(c, err)
	}
	res, err := h.board.RenameTask(c.Request().Context(), common.RenameTaskRequest{
		ColumnID: c.Param("id"),
		TaskID:   c.Param("taskID"),
		Title:    body.Title,
	})
	return writeMutation(c, res, err)
}

// handleDeleteTask serves DELETE `/columns/:id/tasks/:taskID`.
func (h *Handler) handleDeleteTask(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	res, err := h.board.DeleteTask(c.Request().Context(), common.DeleteTaskRequest{
		ColumnID: c.Param("id"),
		TaskID:   c.Param("taskID"),
	})
	return writeMutation(c, res, err)
}

// handleMoveTask serves POST `/columns/:id/tasks/:taskID/move`.
func (h *Handler) handleMoveTask(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var body moveBody
	if err := decodeJSONBody(c, &body); err != nil {
		return writeErrorFrom(c, err)
	}
	res, err := h.board.MoveTask(c.Request().Context(), common.MoveTaskRequest{
		SourceColumnID: c.Param("id"),
		DestColumnID:   body.DestColumnID,
		TaskID:         c.Param("taskID"),
	})
	return writeMutation(c, res, err)
}

// handleReorderTask serves POST `/columns/:id/tasks/:taskID/reorder`.
func (h *Handler) handleReorderTask(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var body reorderBody
	if err := decodeJSONBody(c, &body); err != nil {
		return writeErrorFrom(c, err)
	}
	res, err := h.board.ReorderTask(c.Request().Context(), common.ReorderTaskRequest{
		ColumnID:  c.Param("id"),
		TaskID:    c.Param("taskID"),
		FromIndex: body.FromIndex,
		ToIndex:   body.ToIndex,
	})
	return writeMutation(c, res, err)
}

// handleMoveTaskAt serves POST `/moves`.
func (h *Handler) handleMoveTaskAt(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var req common.MoveTaskAtRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return writeErrorFrom(c, err)
	}
	res, err := h.board.MoveTaskAt(c.Request().Context(), req)
	return writeMutation(c, res, err)
}

// handleProposeDrag serves POST `/drags`.
func (h *Handler) handleProposeDrag(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var gesture app.DragGesture
	if err := decodeJSONBody(c, &gesture); err != nil {
		return writeErrorFrom(c, err)
	}
	proposal, err := h.board.ProposeDrag(c.Request().Context(), gesture)
	if err != nil {
		return writeErrorFrom(c, err)
	}
	status := http.StatusOK
	if proposal.Pending {
		status = http.StatusCreated
	}
	return c.JSON(status, proposal)
}

// handleCommitDrag serves POST `/drags/:token`.
func (h *Handler) handleCommitDrag(c echo.Context) error {
	if h.board == nil {
		return writeUnavailable(c)
	}
	var body confirmBody
	if err := decodeJSONBody(c, &body); err != nil {
		return writeErrorFrom(c, err)
	}
	res, err := h.board.CommitDrag(c.Request().Context(), common.CommitDragRequest{
		Token:   c.Param("token"),
		Confirm: body.Confirm,
	})
	return writeMutation(c, res, err)
}

// handleListActivity serves GET `/activity`.
func (h *Handler) handleListActivity(c echo.Context) error {
	if h.activity == nil {
		return writeJSONError(c, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: "activity APIs are not available",
			Hint:    "Enable [activity] in the config file.",
		})
	}
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return writeJSONError(c, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: "limit must be a non-negative integer",
			})
		}
		limit = parsed
	}
	events, err := h.activity.ListActivity(c.Request().Context(), limit)
	if err != nil {
		return writeErrorFrom(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"events": events,
	})
}

// handleEchoError renders router and middleware failures as structured envelopes.
func (h *Handler) handleEchoError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound:
			_ = writeJSONError(c, http.StatusNotFound, APIError{Code: "not_found", Message: "endpoint not found"})
			return
		case http.StatusMethodNotAllowed:
			_ = writeJSONError(c, http.StatusMethodNotAllowed, APIError{Code: "method_not_allowed", Message: "method not allowed"})
			return
		}
	}
	h.logger.Error("api request failed", "path", c.Request().URL.Path, "err", err)
	_ = writeErrorFrom(c, err)
}

// writeMutation writes one mutation result or its error.
func writeMutation(c echo.Context, res common.MutationResult, err error) error {
	if err != nil {
		return writeErrorFrom(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// writeUnavailable reports a missing board service.
func writeUnavailable(c echo.Context) error {
	return writeJSONError(c, http.StatusServiceUnavailable, APIError{
		Code:    "service_unavailable",
		Message: "board service is not configured",
	})
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(c echo.Context, err error) error {
	switch {
	case err == nil:
		return writeJSONError(c, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		return writeJSONError(c, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
			Hint:    "Pending drags resolve once; propose the drag again.",
		})
	case errors.Is(err, common.ErrInvalidRequest):
		return writeJSONError(c, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrActivityUnavailable):
		return writeJSONError(c, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: err.Error(),
		})
	default:
		return writeJSONError(c, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeJSONError writes one structured error envelope.
func writeJSONError(c echo.Context, statusCode int, apiErr APIError) error {
	return c.JSON(statusCode, ErrorEnvelope{Error: apiErr})
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(c echo.Context, out any) error {
	r := c.Request()
	reader := http.MaxBytesReader(c.Response().Writer, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := rejectTrailing(decoder); err != nil {
		return err
	}
	return requestAlive(r.Context())
}

// decodeOptionalJSONBody decodes one optional JSON body and ignores empty payloads.
func decodeOptionalJSONBody(c echo.Context, out any) error {
	r := c.Request()
	reader := http.MaxBytesReader(c.Response().Writer, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(out)
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := rejectTrailing(decoder); err != nil {
		return err
	}
	return requestAlive(r.Context())
}

// rejectTrailing fails when anything but whitespace follows the first JSON value.
func rejectTrailing(decoder *json.Decoder) error {
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	return nil
}

// requestAlive reports context cancellation after decoding.
func requestAlive(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
