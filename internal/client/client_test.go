package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T, sse bool) (*httptest.Server, *[]string) {
	t.Helper()
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64  `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req.Method+"|"+r.Header.Get(sessionHeader))

		var result string
		switch req.Method {
		case "initialize":
			w.Header().Set(sessionHeader, "session-1")
			result = `{"protocolVersion":"2025-03-26"}`
		case "notifications/initialized":
			w.WriteHeader(http.StatusAccepted)
			return
		case "tools/list":
			result = `{"tools":[{"name":"build","description":"compile","inputSchema":{"type":"object"}}]}`
		case "tools/call":
			result = `{"content":[{"type":"text","text":"{\n  \"output\": \"FAIL\"\n}"}],"isError":true}`
		default:
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
			return
		}
		body := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%s}`, req.ID, result)
		if sse {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"method\":\"notifications/progress\"}\n\n")
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", body)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestClientJSONRoundTrip(t *testing.T) {
	srv, seen := fakeServer(t, false)
	c := New(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx))
	list, err := c.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "build", list[0].Name)

	res, err := c.CallTool(ctx, "build", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	out, err := res.Output()
	require.NoError(t, err)
	assert.Equal(t, "FAIL", out)

	assert.Equal(t, []string{
		"initialize|",
		"notifications/initialized|session-1",
		"tools/list|session-1",
		"tools/call|session-1",
	}, *seen)
}

func TestClientEventStream(t *testing.T) {
	srv, _ := fakeServer(t, true)
	c := New(srv.URL)

	res, err := c.CallTool(context.Background(), "build", map[string]any{"target": "all"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestClientRPCError(t *testing.T) {
	srv, _ := fakeServer(t, false)
	c := New(srv.URL)

	_, err := c.call(context.Background(), "bogus", nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func badGateway(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	return srv, &posts
}

func TestClientCallToolIsNotRetried(t *testing.T) {
	srv, posts := badGateway(t)
	c := New(srv.URL)
	c.once.RetryWaitMin, c.once.RetryWaitMax = 0, 0

	_, err := c.CallTool(context.Background(), "flash", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), posts.Load())
}

func TestClientListToolsIsRetried(t *testing.T) {
	srv, posts := badGateway(t)
	c := New(srv.URL)
	c.http.RetryWaitMin, c.http.RetryWaitMax = time.Millisecond, time.Millisecond

	_, err := c.ListTools(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), posts.Load())
}
