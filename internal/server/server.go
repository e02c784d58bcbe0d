// Package server exposes the configured tools over the MCP streamable HTTP
// transport.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"mcp-bridge/internal/config"
	"mcp-bridge/internal/tools"
)

const (
	Name     = "mcp-bridge"
	Endpoint = "/mcp"

	sessionHeader = "Mcp-Session-Id"
)

// Server serves a tool registry to MCP clients.
type Server struct {
	registry *tools.Registry
	version  string
	logger   *zap.Logger
	mcp      *mcpserver.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported during initialize.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New registers every tool in reg with a new MCP server.
func New(reg *tools.Registry, opts ...Option) *Server {
	s := &Server{registry: reg, version: "dev", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.mcp = mcpserver.NewMCPServer(Name, s.version, mcpserver.WithToolCapabilities(false))
	for _, name := range reg.Names() {
		exec, _ := reg.Get(name)
		s.mcp.AddTool(toolSpec(exec), s.handle(name))
	}
	return s
}

func toolSpec(exec *tools.Executor) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(exec.Description())}
	for _, p := range exec.Parameters() {
		opts = append(opts, parameterOption(p))
	}
	return mcp.NewTool(exec.Name(), opts...)
}

func parameterOption(p config.ToolParameter) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(p.Description)}
	if p.Default == nil {
		props = append(props, mcp.Required())
	}
	switch p.Type {
	case config.ParamNumber:
		if n, ok := toFloat(p.Default); ok {
			props = append(props, mcp.DefaultNumber(n))
		}
		return mcp.WithNumber(p.Name, props...)
	case config.ParamBoolean:
		if b, ok := p.Default.(bool); ok {
			props = append(props, mcp.DefaultBool(b))
		}
		return mcp.WithBoolean(p.Name, props...)
	default:
		if str, ok := p.Default.(string); ok {
			props = append(props, mcp.DefaultString(str))
		}
		return mcp.WithString(p.Name, props...)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func (s *Server) handle(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := s.registry.Execute(ctx, name, req.GetArguments())
		if err != nil {
			s.logger.Error("tool call failed", zap.String("tool", name), zap.Error(err))
			return nil, err
		}
		out := mcp.NewToolResultText(res.Text())
		out.IsError = res.IsError
		return out, nil
	}
}

// Handler returns the HTTP handler serving the MCP endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Endpoint, mcpserver.NewStreamableHTTPServer(s.mcp, mcpserver.WithStateLess(true)))
	return cors(mux)
}

// Run listens on addr until ctx is done, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info("mcp server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("endpoint", Endpoint),
		zap.Strings("tools", s.registry.Names()),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, "+sessionHeader)
		h.Set("Access-Control-Expose-Headers", sessionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
