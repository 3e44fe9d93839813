package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ashhhwin/supportmesh/logging"
)

// ToolResult is the outcome of one tool invocation. Status is "success" or
// "error"; Data holds the decoded JSON value when the tool returned JSON and
// the raw text otherwise.
type ToolResult struct {
	Status string
	Data   any
	Err    error
}

// toolClient is the slice of the MCP client ToolSession depends on, kept
// narrow so tests can substitute a fake.
type toolClient interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// SessionOptions configure a ToolSession.
type SessionOptions struct {
	// Command and Args launch the tool host subprocess.
	Command string
	Args    []string
	// Env is passed to the subprocess in KEY=VALUE form.
	Env []string
	// CallTimeout bounds a single tool call including session startup.
	CallTimeout time.Duration
	Logger      logging.Logger

	// newClient exists for tests.
	newClient func() (toolClient, error)
}

// ToolSession owns a long-lived MCP stdio connection to the tool host. The
// subprocess is spawned lazily on first use and kept alive across calls; a
// failed call tears the session down so the next call starts fresh. All
// access is serialized: MCP stdio is a single request/response stream.
type ToolSession struct {
	opts SessionOptions

	mu  sync.Mutex
	cli toolClient
}

// NewToolSession creates a ToolSession. The subprocess is not started until
// the first call.
func NewToolSession(command string, args []string, optFns ...func(o *SessionOptions)) *ToolSession {
	opts := SessionOptions{
		Command:     command,
		Args:        args,
		CallTimeout: 30 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.newClient == nil {
		opts.newClient = func() (toolClient, error) {
			return client.NewStdioMCPClient(opts.Command, opts.Env, opts.Args...)
		}
	}
	return &ToolSession{opts: opts}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger logging.Logger) func(o *SessionOptions) {
	return func(o *SessionOptions) { o.Logger = logger }
}

// WithCallTimeout bounds a single tool call.
func WithCallTimeout(d time.Duration) func(o *SessionOptions) {
	return func(o *SessionOptions) { o.CallTimeout = d }
}

// WithSessionEnv sets the subprocess environment.
func WithSessionEnv(env []string) func(o *SessionOptions) {
	return func(o *SessionOptions) { o.Env = env }
}

// ensure starts and initializes the session if it is not already running.
// Callers must hold mu.
func (s *ToolSession) ensure(ctx context.Context) error {
	if s.cli != nil {
		return nil
	}

	cli, err := s.opts.newClient()
	if err != nil {
		return fmt.Errorf("start tool host: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "supportmesh", Version: "1.0.0"}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		_ = cli.Close()
		return fmt.Errorf("initialize tool host: %w", err)
	}

	s.opts.Logger.Info("tool host session started", "command", s.opts.Command)
	s.cli = cli
	return nil
}

// teardown closes the session so the next call respawns the subprocess.
// Callers must hold mu.
func (s *ToolSession) teardown() {
	if s.cli != nil {
		_ = s.cli.Close()
		s.cli = nil
	}
}

// InvokeToolSync calls one tool and blocks for its result. Failures are
// reported in the result, never panicked; after a failure the session is
// torn down and respawned on the next call.
func (s *ToolSession) InvokeToolSync(ctx context.Context, name string, args map[string]any) ToolResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	if err := s.ensure(ctx); err != nil {
		return ToolResult{Status: "error", Err: err}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.cli.CallTool(ctx, req)
	if err != nil {
		s.teardown()
		s.opts.Logger.Error("tool call failed", "tool", name, "error", err)
		return ToolResult{Status: "error", Err: fmt.Errorf("call tool %s: %w", name, err)}
	}

	text, found := firstText(res.Content)
	if res.IsError {
		return ToolResult{Status: "error", Data: text, Err: fmt.Errorf("tool %s reported: %s", name, text)}
	}
	if !found {
		s.opts.Logger.Error("tool call returned no text content", "tool", name)
		return ToolResult{Status: "error", Err: fmt.Errorf("tool %s returned no text content", name)}
	}

	s.opts.Logger.Debug("tool call completed", "tool", name, "duration", time.Since(start))
	return ToolResult{Status: "success", Data: decodeToolText(text)}
}

// InvokeTool calls one tool without blocking; the result arrives on the
// returned channel.
func (s *ToolSession) InvokeTool(ctx context.Context, name string, args map[string]any) <-chan ToolResult {
	out := make(chan ToolResult, 1)
	go func() {
		defer close(out)
		out <- s.InvokeToolSync(ctx, name, args)
	}()
	return out
}

// Close shuts the session down. Safe to call on an idle session.
func (s *ToolSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cli == nil {
		return nil
	}
	err := s.cli.Close()
	s.cli = nil
	return err
}

// firstText extracts the first text content block from a tool result. The
// second return reports whether any text block was present at all.
func firstText(content []mcp.Content) (string, bool) {
	for _, c := range content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text, true
		case *mcp.TextContent:
			return tc.Text, true
		}
	}
	return "", false
}

// decodeToolText parses the tool's text as JSON when possible and falls back
// to the raw string, matching tools that answer with plain text.
func decodeToolText(text string) any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return text
	}
	return v
}
