package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwing/chatwing/internal/catalog"
	"github.com/chatwing/chatwing/internal/guard"
	"github.com/chatwing/chatwing/types"
)

// newTestServer exposes three tools: echo (text round trip), blob (a payload
// of the requested size), and broken (always an error result).
func newTestServer(t *testing.T) *mcp.Server {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "test"}, nil)
	server.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "echo the text argument back",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
		},
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		text, ok := args["text"].(string)
		if !ok {
			return nil, errors.New("text argument missing or not string")
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil
	})
	server.AddTool(&mcp.Tool{
		Name:        "blob",
		Description: "return size bytes of filler",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"size": map[string]any{"type": "integer"},
			},
		},
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		size, _ := args["size"].(float64)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: strings.Repeat("x", int(size))}},
		}, nil
	})
	server.AddTool(&mcp.Tool{
		Name:        "broken",
		Description: "always fails",
		InputSchema: map[string]any{"type": "object"},
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "backend unavailable"}},
		}, nil
	})
	return server
}

func newInMemorySession(t *testing.T, server *mcp.Server) *ServerSession {
	t.Helper()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverCtx, serverCancel := context.WithCancel(context.Background())
	t.Cleanup(serverCancel)
	_, err := server.Connect(serverCtx, serverTransport, nil)
	require.NoError(t, err, "server connect")

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	clientSession, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err, "client connect")

	s := NewServerSession("test", clientSession)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestToolNames(t *testing.T) {
	s := newInMemorySession(t, newTestServer(t))
	names, err := s.ToolNames(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"echo", "blob", "broken"}, names)
}

func TestCallRoundTrip(t *testing.T) {
	s := newInMemorySession(t, newTestServer(t))
	out, err := s.Call(context.Background(), "echo", map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestCallErrorResult(t *testing.T) {
	s := newInMemorySession(t, newTestServer(t))
	_, err := s.Call(context.Background(), "broken", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestGovernedToolsCatalogFilter(t *testing.T) {
	s := newInMemorySession(t, newTestServer(t))
	g, err := guard.New(guard.LimitConfig{})
	require.NoError(t, err)
	cat, err := catalog.New("test", map[string]catalog.Descriptor{
		"echo": {Description: "echo", InputSchema: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)

	governed, err := s.GovernedTools(context.Background(), g, cat)
	require.NoError(t, err)
	assert.Contains(t, governed, "echo")
	assert.NotContains(t, governed, "blob", "uncataloged tools must not reach the loop")
	assert.NotContains(t, governed, "broken")
}

func TestGovernedToolsForReusesFetchedList(t *testing.T) {
	s := newInMemorySession(t, newTestServer(t))
	g, err := guard.New(guard.LimitConfig{})
	require.NoError(t, err)
	cat, err := catalog.New("test", map[string]catalog.Descriptor{
		"echo": {Description: "echo", InputSchema: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)

	live, err := s.Tools(context.Background())
	require.NoError(t, err)

	governed := s.GovernedToolsFor(live, g, cat)
	assert.Contains(t, governed, "echo")
	assert.NotContains(t, governed, "blob")

	// The governed closures stay live callables.
	out := governed["echo"](context.Background(), map[string]any{"text": "pong"})
	assert.Equal(t, "pong", out)
}

func TestGovernedCallBoundsOversizedResult(t *testing.T) {
	s := newInMemorySession(t, newTestServer(t))
	g, err := guard.New(guard.LimitConfig{PerTool: map[string]int{"blob": 100}})
	require.NoError(t, err)

	governed, err := s.GovernedTools(context.Background(), g, nil)
	require.NoError(t, err)

	out := governed["blob"](context.Background(), map[string]any{"size": 5000})
	var diag types.SizeDiagnostic
	require.NoError(t, json.Unmarshal([]byte(out), &diag))
	assert.Equal(t, types.DiagToolResultSizeError, diag.Type)
	assert.Equal(t, "blob", diag.Tool)
	assert.Equal(t, 5000, diag.ReturnedChars)
	assert.Equal(t, 100, diag.MaxAllowedChars)
	assert.NotContains(t, out, "xxxxx", "oversized payload must be discarded")
}

func TestGovernedCallDegradesToolError(t *testing.T) {
	s := newInMemorySession(t, newTestServer(t))
	g, err := guard.New(guard.LimitConfig{})
	require.NoError(t, err)

	governed, err := s.GovernedTools(context.Background(), g, nil)
	require.NoError(t, err)

	out := governed["broken"](context.Background(), nil)
	var diag types.ExecutionDiagnostic
	require.NoError(t, json.Unmarshal([]byte(out), &diag))
	assert.Equal(t, types.DiagToolExecutionError, diag.Type)
	assert.Contains(t, diag.Error, "backend unavailable")
}

func TestBuildTransportSpecs(t *testing.T) {
	ctx := context.Background()

	tr, err := buildTransport(ctx, "stdio://mytool --serve")
	require.NoError(t, err)
	cmdTr, ok := tr.(*mcp.CommandTransport)
	require.True(t, ok)
	assert.Contains(t, cmdTr.Command.Args, "--serve")

	tr, err = buildTransport(ctx, "https://tools.example.com/mcp")
	require.NoError(t, err)
	_, ok = tr.(*mcp.StreamableClientTransport)
	assert.True(t, ok)

	_, err = buildTransport(ctx, "")
	assert.Error(t, err)
	_, err = buildTransport(ctx, "stdio://")
	assert.Error(t, err)
	_, err = buildTransport(ctx, "ftp://nope")
	assert.Error(t, err)
}
