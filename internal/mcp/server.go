package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"invitopia/internal/assets"
	"invitopia/internal/editor"
	"invitopia/internal/guests"
	"invitopia/internal/service"
)

// ImageCatalog is the image collaborator used by the image tools.
type ImageCatalog interface {
	editor.ImageSelector
	List() []assets.Image
}

// Server is the MCP server for Invitopia.
// It exposes tools, resources, and prompts so AI agents can edit templates.
type Server struct {
	mcp    *server.MCPServer
	layout *LayoutEngine
	log    *slog.Logger

	templates *service.TemplateService
	images    ImageCatalog // nil when no image directory is configured
	fonts     *assets.FontCatalog
	guests    *guests.Engine // nil disables the guest merge tools

	mu             sync.Mutex
	activeTemplate string // set by open_template / create_template
}

// Deps holds the services the MCP server works on.
type Deps struct {
	Templates *service.TemplateService
	Images    ImageCatalog
	Fonts     *assets.FontCatalog
	Guests    *guests.Engine
}

// Version is reported to MCP clients.
const Version = "1.0.0"

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	fonts := deps.Fonts
	if fonts == nil {
		fonts = assets.NewFontCatalog()
	}
	s := &Server{
		layout:    NewLayoutEngine(),
		log:       slog.Default().With("component", "mcp"),
		templates: deps.Templates,
		images:    deps.Images,
		fonts:     fonts,
		guests:    deps.Guests,
	}

	s.mcp = server.NewMCPServer(
		"invitopia-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerTemplateTools()
	s.registerElementTools()
	s.registerEditorTools()
	s.registerAssetTools()
	s.registerGuestTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) setActive(id string) {
	s.mu.Lock()
	s.activeTemplate = id
	s.mu.Unlock()
}

func (s *Server) active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTemplate
}

// resolveTemplateID returns templateId from the tool args or falls back
// to the active template.
func (s *Server) resolveTemplateID(args map[string]any) (string, error) {
	if id, ok := args["templateId"].(string); ok && id != "" {
		return id, nil
	}
	if id := s.active(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no templateId provided and no active template (use open_template first)")
}

// session opens the template addressed by the tool args.
func (s *Server) session(ctx context.Context, args map[string]any) (*editor.Session, error) {
	id, err := s.resolveTemplateID(args)
	if err != nil {
		return nil, err
	}
	return s.templates.Open(ctx, id)
}

// sessionView is what the editing tools return: the full editor state
// plus whether it still has to be saved.
type sessionView struct {
	editor.State
	Dirty bool `json:"dirty"`
}

func (s *Server) stateResult(sess *editor.Session) (*mcp.CallToolResult, error) {
	return jsonResult(sessionView{State: sess.State(), Dirty: s.templates.Dirty(sess.ID())})
}
