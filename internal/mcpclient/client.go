// Package mcpclient is the tool-transport boundary: it dials MCP tool servers,
// lists their live tools, and exposes governed callables to the chat loop.
package mcpclient

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chatwing/chatwing/internal/catalog"
	"github.com/chatwing/chatwing/internal/guard"
)

const (
	clientName    = "chatwing"
	clientVersion = "0.1.0"

	stdioSchemePrefix = "stdio://"
)

// ToolInfo is the live description of one tool as advertised by a server.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema any
}

// ServerSession wraps one open MCP connection.
type ServerSession struct {
	name    string
	session *mcp.ClientSession
}

// Connect dials the server described by spec. Supported specs:
// "stdio://<command> <args...>" and http(s) URLs (streamable transport).
func Connect(ctx context.Context, name, spec string) (*ServerSession, error) {
	transport, err := buildTransport(ctx, spec)
	if err != nil {
		return nil, err
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", spec, err)
	}
	return &ServerSession{name: name, session: session}, nil
}

// NewServerSession wraps an already-connected session. Callers that build
// their own transports (tests, embedders) use this.
func NewServerSession(name string, session *mcp.ClientSession) *ServerSession {
	return &ServerSession{name: name, session: session}
}

// Name returns the configured server name.
func (s *ServerSession) Name() string { return s.name }

// Tools fetches the live tool list with schemas.
func (s *ServerSession) Tools(ctx context.Context) ([]ToolInfo, error) {
	if s == nil || s.session == nil {
		return nil, fmt.Errorf("mcp session is nil")
	}
	var tools []ToolInfo
	for tool, err := range s.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("list tools on %s: %w", s.name, err)
		}
		if tool == nil {
			continue
		}
		tools = append(tools, ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return tools, nil
}

// ToolNames fetches just the live tool names.
func (s *ServerSession) ToolNames(ctx context.Context) ([]string, error) {
	tools, err := s.Tools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names, nil
}

// Call invokes one tool and returns its joined text content. A tool-level
// error result (IsError) becomes a Go error so the governor can wrap it.
func (s *ServerSession) Call(ctx context.Context, tool string, args map[string]any) (string, error) {
	if s == nil || s.session == nil {
		return "", fmt.Errorf("mcp session is nil")
	}
	if args == nil {
		args = map[string]any{}
	}

	res, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("call %s on %s: %w", tool, s.name, err)
	}
	if res == nil {
		return "", fmt.Errorf("call %s on %s: nil result", tool, s.name)
	}

	text := joinText(res.Content)
	if res.IsError {
		return "", fmt.Errorf("tool %s reported an error: %s", tool, text)
	}
	return text, nil
}

// GovernedTools returns the governed-call mapping the chat loop consumes:
// tool name to a callable that always yields a bounded, self-describing
// string. When a catalog is supplied, the mapping is filtered to the tools
// the client trusts for this server.
func (s *ServerSession) GovernedTools(ctx context.Context, g *guard.Governor, cat *catalog.Catalog) (map[string]guard.GovernedFunc, error) {
	tools, err := s.Tools(ctx)
	if err != nil {
		return nil, err
	}
	return s.GovernedToolsFor(tools, g, cat), nil
}

// GovernedToolsFor builds the governed mapping from an already-fetched tool
// list, so callers that also need the raw list do a single round trip.
func (s *ServerSession) GovernedToolsFor(tools []ToolInfo, g *guard.Governor, cat *catalog.Catalog) map[string]guard.GovernedFunc {
	governed := make(map[string]guard.GovernedFunc, len(tools))
	for _, t := range tools {
		if cat != nil {
			if _, trusted := cat.Tools[t.Name]; !trusted {
				continue
			}
		}
		name := t.Name
		governed[name] = g.Wrap(name, func(ctx context.Context, args map[string]any) (any, error) {
			return s.Call(ctx, name, args)
		})
	}
	return governed
}

// Close releases the connection.
func (s *ServerSession) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	return s.session.Close()
}

func buildTransport(ctx context.Context, spec string) (mcp.Transport, error) {
	spec = strings.TrimSpace(spec)
	lowered := strings.ToLower(spec)
	switch {
	case spec == "":
		return nil, fmt.Errorf("transport spec is empty")
	case strings.HasPrefix(lowered, stdioSchemePrefix):
		parts := strings.Fields(spec[len(stdioSchemePrefix):])
		if len(parts) == 0 {
			return nil, fmt.Errorf("stdio command is empty")
		}
		cmd := exec.CommandContext(ctx, parts[0], parts[1:]...) // #nosec G204
		return &mcp.CommandTransport{Command: cmd}, nil
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		return &mcp.StreamableClientTransport{Endpoint: spec}, nil
	default:
		return nil, fmt.Errorf("unsupported transport spec %q", spec)
	}
}

func joinText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if txt, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, txt.Text)
		}
	}
	return strings.Join(parts, "\n")
}
