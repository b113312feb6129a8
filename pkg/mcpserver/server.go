// Package mcpserver implements the MCP Dispatch Layer: a line-delimited
// JSON-RPC 2.0 TCP server handling initialize, authenticate, and tools/call,
// routing authenticated calls to the Provider Session Cache and the
// Activity Intelligence Analyzer.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/fitsync/gateway/pkg/audit"
	"github.com/fitsync/gateway/pkg/logger"
	"github.com/fitsync/gateway/pkg/oauthlink"
	"github.com/fitsync/gateway/pkg/providercache"
	"github.com/fitsync/gateway/pkg/session"
	"github.com/fitsync/gateway/pkg/users"
)

// Server is the MCP Dispatch Layer's TCP listener.
type Server struct {
	sessions *session.Authority
	users    *users.Store
	cache    *providercache.Cache
	oauth    *oauthlink.Service
	auditor  *audit.Auditor
	tools    []toolDef
}

// New constructs a Server wired to the Session Authority, User Store,
// Provider Session Cache, and OAuth2 Linkage Service.
func New(sessions *session.Authority, userStore *users.Store, cache *providercache.Cache, oauth *oauthlink.Service, auditor *audit.Auditor) *Server {
	return &Server{
		sessions: sessions,
		users:    userStore,
		cache:    cache,
		oauth:    oauth,
		auditor:  auditor,
		tools:    toolHandlers(),
	}
}

// Serve accepts connections on ln until ctx is cancelled, running each
// connection's request loop on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("mcp listener accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	log := logger.FromContext(ctx)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			enc.Encode(errorResponse(nil, CodeInvalidParams, "malformed request"))
			continue
		}

		resp := s.dispatch(ctx, req)
		if err := enc.Encode(resp); err != nil {
			log.Warn("mcp write failed", "error", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	start := time.Now()

	switch req.Method {
	case "initialize":
		resp := s.handleInitialize(req)
		s.auditor.LogInitialize("", time.Since(start), nil)
		return resp

	case "authenticate":
		return s.handleAuthenticate(req, start)

	case "tools/call":
		return s.handleToolsCall(ctx, req, start)

	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

func (s *Server) handleInitialize(req Request) Response {
	return resultResponse(req.ID, initializeResult())
}

func (s *Server) handleAuthenticate(req Request, start time.Time) Response {
	var params AuthenticateParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, CodeInvalidParams, "invalid authenticate params")
		}
	}

	claims, err := s.sessions.Validate(params.Token)
	if err != nil {
		s.auditor.LogAuthenticate("", time.Since(start), err)
		return resultResponse(req.ID, map[string]any{
			"authenticated": false,
			"error":         err.Error(),
		})
	}

	s.auditor.LogAuthenticate(claims.UserID, time.Since(start), nil)
	return resultResponse(req.ID, map[string]any{
		"authenticated":        true,
		"user_id":              claims.UserID,
		"available_providers":  claims.Providers,
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req Request, start time.Time) Response {
	if req.Auth == "" {
		return errorResponse(req.ID, CodeUnauthorized, "Authentication required")
	}

	bearer := trimBearer(req.Auth)
	claims, err := s.sessions.Validate(bearer)
	if err != nil {
		return errorResponse(req.ID, CodeUnauthorized, "Authentication required")
	}

	if err := s.users.TouchLastActive(claims.UserID); err != nil {
		logger.FromContext(ctx).Warn("touch last active failed", "user_id", claims.UserID, "error", err)
	}

	var params ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid tools/call params")
	}

	handler, ok := s.lookupTool(params.Name)
	if !ok {
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown tool %q", params.Name))
	}

	result, err := handler(ctx, s, claims.UserID, params.Arguments)
	s.auditor.LogToolCall(claims.UserID, params.Name, time.Since(start), err)
	if err != nil {
		return toolErrorResponse(req.ID, err)
	}
	return resultResponse(req.ID, result)
}

func (s *Server) lookupTool(name string) (toolHandlerFunc, bool) {
	for _, t := range s.tools {
		if t.name == name {
			return t.handler, true
		}
	}
	return nil, false
}

func toolErrorResponse(id any, err error) Response {
	var invalid *invalidParamsError
	if errors.As(err, &invalid) {
		return errorResponse(id, CodeInvalidParams, err.Error())
	}
	if errors.Is(err, providercache.ErrNoCredentials) {
		return errorResponse(id, CodeInternalError, "No valid token for this provider")
	}
	return errorResponse(id, CodeInternalError, err.Error())
}

func trimBearer(auth string) string {
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return auth
}

type invalidParamsError struct{ msg string }

func (e *invalidParamsError) Error() string { return e.msg }

func invalidParams(format string, args ...any) error {
	return &invalidParamsError{msg: fmt.Sprintf(format, args...)}
}
