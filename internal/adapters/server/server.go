// Package server mounts the board's REST and MCP surfaces on one listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/evanschultz/hexaboard/internal/adapters/server/common"
	"github.com/evanschultz/hexaboard/internal/adapters/server/httpapi"
	"github.com/evanschultz/hexaboard/internal/adapters/server/mcpapi"
)

const (
	defaultBind        = "127.0.0.1:8080"
	defaultAPIPath     = "/api/v1"
	defaultMCPPath     = "/mcp"
	defaultName        = "hexaboard"
	defaultVersion     = "dev"
	shutdownGrace      = 5 * time.Second
	readHeaderDeadline = 10 * time.Second
)

// Config selects the listen address, mount points and the identity the MCP
// server reports. Blank fields take defaults.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies are the board services exposed by serve mode. Board is
// required; without Activity the activity routes and tool are not offered.
type Dependencies struct {
	Board    common.BoardService
	Activity common.ActivityService
	Logger   *log.Logger
}

// NewHandler returns the root handler and the config it settled on.
//
// Routes:
//
//	/healthz          process liveness
//	/readyz           board reachability and current revision
//	<APIEndpoint>/... REST board API
//	<MCPEndpoint>     MCP streamable HTTP
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Board == nil {
		return nil, Config{}, errors.New("board dependency is required")
	}

	tools, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Board, deps.Activity)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	rest := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Board, deps.Activity, deps.Logger))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.Handle("/readyz", readiness(deps.Board))
	mux.Handle(cfg.MCPEndpoint, tools)
	mux.Handle(cfg.APIEndpoint, rest)
	mux.Handle(cfg.APIEndpoint+"/", rest)
	return mux, cfg, nil
}

// Run serves until ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPBind,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderDeadline,
	}
	if deps.Logger != nil {
		deps.Logger.Info("serving board", "bind", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// withDefaults fills blank fields and rejects a shared API/MCP mount.
func (c Config) withDefaults() (Config, error) {
	c.HTTPBind = orDefault(c.HTTPBind, defaultBind)
	c.APIEndpoint = mountPath(c.APIEndpoint, defaultAPIPath)
	c.MCPEndpoint = mountPath(c.MCPEndpoint, defaultMCPPath)
	c.ServerName = orDefault(c.ServerName, defaultName)
	c.ServerVersion = orDefault(c.ServerVersion, defaultVersion)
	if c.APIEndpoint == c.MCPEndpoint {
		return Config{}, fmt.Errorf("api and mcp endpoints must differ (both %q)", c.APIEndpoint)
	}
	return c, nil
}

// mountPath turns " api/v1/ " into "/api/v1". Blank and root map to fallback.
func mountPath(raw, fallback string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return fallback
	}
	return "/" + trimmed
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

// readiness reports ready once the board answers a snapshot read.
func readiness(board common.BoardService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := board.GetBoard(r.Context())
		if err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
			return
		}
		writeStatus(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"revision": state.Revision,
			"columns":  len(state.Board.Columns),
		})
	})
}

func writeStatus(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
