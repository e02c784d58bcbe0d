package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mcp-bridge/internal/client"
	"mcp-bridge/internal/config"
	"mcp-bridge/internal/tools"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	defs, err := config.DecodeTools(map[string]any{"tools": map[string]any{
		"fail": map[string]any{
			"description":  "always fails",
			"command":      "exit 1",
			"timeout":      map[string]any{"total": 0, "inactive": 5000},
			"resultFormat": map[string]any{"successMessage": "OK", "errorMessage": "FAIL"},
		},
		"echo": map[string]any{
			"description": "echoes a word",
			"command":     "echo {{word}}",
			"parameters": []any{
				map[string]any{"name": "word", "type": "string", "description": "word to echo"},
				map[string]any{"name": "count", "type": "number", "default": 1, "description": "repetitions"},
			},
			"resultFormat": map[string]any{"successMessage": "OK"},
		},
	}}, t.TempDir())
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	reg, err := tools.NewRegistry(defs, t.TempDir(), tools.WithLogger(logger))
	require.NoError(t, err)

	srv := httptest.NewServer(New(reg, WithLogger(logger), WithVersion("test")).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServerListsTools(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL + Endpoint)
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))

	list, err := c.ListTools(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, tool := range list {
		names = append(names, tool.Name)
		if tool.Name == "echo" {
			assert.Equal(t, "echoes a word", tool.Description)
			assert.Equal(t, []any{"word"}, tool.InputSchema["required"])
			props := tool.InputSchema["properties"].(map[string]any)
			assert.Equal(t, float64(1), props["count"].(map[string]any)["default"])
		}
	}
	assert.ElementsMatch(t, []string{"echo", "fail"}, names)
}

func TestServerCallFailingTool(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL + Endpoint)
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))

	res, err := c.CallTool(ctx, "fail", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "FAIL")
}

func TestServerCallSuccessfulTool(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL + Endpoint)
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))

	res, err := c.CallTool(ctx, "echo", map[string]any{"word": "hi"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	out, err := res.Output()
	require.NoError(t, err)
	assert.Equal(t, "OK", out)
}

func TestServerCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+Endpoint, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Expose-Headers"), "Mcp-Session-Id"))
}

func TestServeStopsOnContextCancel(t *testing.T) {
	reg, err := tools.NewRegistry(config.Tools{}, t.TempDir())
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(reg).Serve(ctx, ln, time.Second) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
