package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/grabr-ai/grabr"
	"github.com/grabr-ai/grabr/dom"
	"github.com/grabr-ai/grabr/grab"
	"github.com/grabr-ai/grabr/prompt"
)

// Target is the inspected document with selector lookup: a parsed HTML
// doc or a live page.
type Target interface {
	dom.Document
	dom.Finder
}

// Service registers the capture tools over one client and target.
type Service struct {
	client *grabr.Client
	target Target
	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger overrides the default slog logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService creates the MCP tool service.
func NewService(client *grabr.Client, target Target, opts ...ServiceOption) *Service {
	s := &Service{client: client, target: target, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RegisterMCP registers the capture tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerGrabTool(srv)
	s.registerSessionTool(srv)
}

// --- grabr_grab ---

type grabRequest struct {
	Selector string `json:"selector"`
}

func (s *Service) registerGrabTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grabr_grab",
		Description: "Capture the context bundle for one element addressed by CSS selector. Returns the rendered selection protocol text.",
		InputSchema: inputSchema(map[string]any{
			"selector": map[string]any{"type": "string", "description": "CSS selector of the element to capture"},
		}, []string{"selector"}),
	}

	registerTextTool(srv, tool, func(ctx context.Context, r *grabRequest) (string, error) {
		el, err := s.target.FindBySelector(r.Selector)
		if err != nil {
			return "", err
		}
		ec, err := s.client.GetContext(ctx, el)
		if err != nil {
			return "", err
		}
		s.logger.Debug("mcptool: element grabbed", "selector", r.Selector, "tag", ec.Selection.Tag)
		return prompt.Render(ec), nil
	})
}

// --- grabr_session ---

type sessionRequest struct {
	Selectors   []string `json:"selectors"`
	Instruction string   `json:"instruction,omitempty"`
}

func (s *Service) registerSessionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grabr_session",
		Description: "Capture a multi-element session: select elements by CSS selectors, capture each, and return the rendered session protocol text.",
		InputSchema: inputSchema(map[string]any{
			"selectors":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "CSS selectors, one element each, in order"},
			"instruction": map[string]any{"type": "string", "description": "Optional user instruction attached to the session"},
		}, []string{"selectors"}),
	}

	registerTextTool(srv, tool, func(ctx context.Context, r *sessionRequest) (string, error) {
		if len(r.Selectors) == 0 {
			return "", fmt.Errorf("mcptool: selectors must not be empty")
		}

		m, err := s.client.StartSelectionSession(r.Instruction)
		if err != nil {
			return "", err
		}
		for _, sel := range r.Selectors {
			el, err := s.target.FindBySelector(sel)
			if err != nil {
				return "", err
			}
			m.Toggle(el)
		}

		sink := &renderSink{}
		if _, err := m.Finalize(ctx, sink); err != nil {
			return "", err
		}
		return sink.text, nil
	})
}

// renderSink is the tool-call delivery provider: it renders the session
// and keeps the text for the tool result instead of leaving the process.
type renderSink struct {
	text string
}

func (r *renderSink) ID() string    { return "mcp-render" }
func (r *renderSink) Label() string { return "MCP tool result" }

func (r *renderSink) SendContext(_ context.Context, s *grab.Session) error {
	r.text = prompt.RenderSession(s)
	return nil
}

func unmarshalArgs(req *mcp.CallToolRequest, out any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, out)
}
