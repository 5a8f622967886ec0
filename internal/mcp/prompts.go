package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("design_invitation",
		mcp.WithPromptDescription("Guide through designing an invitation on a new template"),
		mcp.WithArgument("occasion",
			mcp.ArgumentDescription("What the invitation is for, e.g. a 7th birthday party"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("style",
			mcp.ArgumentDescription("Visual style, e.g. playful, elegant, minimal"),
		),
	), s.handleDesignInvitationPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_template",
		mcp.WithPromptDescription("Review the active template and clean up its layout"),
	), s.handleTidyTemplatePrompt)
}

func (s *Server) handleDesignInvitationPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	occasion := req.Params.Arguments["occasion"]
	style := req.Params.Arguments["style"]
	if style == "" {
		style = "playful"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Design an invitation for: %s", occasion),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Design a %s invitation for "%s". Follow these steps:

1. Use create_template with a fitting name; keep the default 500x700 canvas unless asked otherwise
2. Add a full-canvas background with add_element kind=shape (x=0, y=0, width=500, height=700), then lock it with update_element locked=true and send it to the back with reorder_element
3. Add a headline text element with add_element kind=text; pick a font from list_fonts and apply it with set_font
4. Add text elements for date, time, place and RSVP details
5. If list_images shows something suitable, add an image element and choose the picture with set_image
6. Check the result with get_template, fix overlaps with update_element or arrange_elements
7. Call save_template when done

Mistakes can be reverted with undo, or with jump_history to go back several steps at once.`, style, occasion),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyTemplatePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Tidy up the active template",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Review the active template and clean up its layout:

1. Read the current state with get_template
2. Look for elements that overlap, leave the canvas or are hidden by mistake
3. Fix positions and sizes with update_element; use arrange_elements for groups of similar items
4. Make sure text elements use at most two font families (see list_fonts)
5. Summarize what changed, then call save_template`,
				},
			},
		},
	}, nil
}
