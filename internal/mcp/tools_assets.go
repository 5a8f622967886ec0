package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"invitopia/internal/assets"
)

func (s *Server) registerAssetTools() {
	s.mcp.AddTool(mcp.NewTool("list_images",
		mcp.WithDescription("List the images available in the image library"),
	), s.handleListImages)

	s.mcp.AddTool(mcp.NewTool("list_fonts",
		mcp.WithDescription("List the font families that text elements can use"),
	), s.handleListFonts)

	s.mcp.AddTool(mcp.NewTool("set_image",
		mcp.WithDescription("Pick an image from the library (by file name, partial name or URL) for an image element"),
		mcp.WithString("elementId", mcp.Description("Image element ID"), mcp.Required()),
		mcp.WithString("query", mcp.Description("File name, part of it, or an http(s) URL"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSetImage)

	s.mcp.AddTool(mcp.NewTool("set_font",
		mcp.WithDescription("Pick a font family for a text element"),
		mcp.WithString("elementId", mcp.Description("Text element ID"), mcp.Required()),
		mcp.WithString("font", mcp.Description("Font family name, case-insensitive"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSetFont)
}

func (s *Server) handleListImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.images == nil {
		return jsonResult([]assets.Image{})
	}
	return jsonResult(s.images.List())
}

func (s *Server) handleListFonts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.fonts.List())
}

func (s *Server) handleSetImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.images == nil {
		return nil, fmt.Errorf("no image library configured")
	}
	args := req.GetArguments()
	id, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	el, err := sess.SetImage(ctx, id, s.images, query)
	if err != nil {
		return nil, err
	}
	return jsonResult(el)
}

func (s *Server) handleSetFont(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	font, err := requireString(args, "font")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	el, err := sess.SetFont(ctx, id, s.fonts, font)
	if err != nil {
		return nil, err
	}
	return jsonResult(el)
}
