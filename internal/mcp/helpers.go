package mcpserver

import (
	"fmt"

	"invitopia/internal/domain"
)

func boolPtr(v bool) *bool { return &v }

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

func getString(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// patchFromArgs builds an element patch from tool arguments. Position and
// size fields that are missing keep the values of cur.
func patchFromArgs(args map[string]any, cur domain.Element) domain.ElementPatch {
	var p domain.ElementPatch

	_, hasX := args["x"].(float64)
	_, hasY := args["y"].(float64)
	if hasX || hasY {
		p.Position = &domain.Position{
			X: getFloat(args, "x", cur.Position.X),
			Y: getFloat(args, "y", cur.Position.Y),
		}
	}
	_, hasW := args["width"].(float64)
	_, hasH := args["height"].(float64)
	if hasW || hasH {
		p.Size = &domain.Size{
			Width:  getFloat(args, "width", cur.Size.Width),
			Height: getFloat(args, "height", cur.Size.Height),
		}
	}
	if v, ok := args["zIndex"].(float64); ok {
		z := int(v)
		p.ZIndex = &z
	}
	if v, ok := args["locked"].(bool); ok {
		p.Locked = &v
	}
	if v, ok := args["visible"].(bool); ok {
		p.Visible = &v
	}

	if v, ok := getString(args, "content"); ok {
		p.Content = &v
	}
	if v, ok := getString(args, "fontFamily"); ok && v != "" {
		p.FontFamily = &v
	}
	if v, ok := args["fontSize"].(float64); ok {
		p.FontSize = &v
	}
	if v, ok := getString(args, "color"); ok && v != "" {
		p.Color = &v
	}
	if v, ok := getString(args, "src"); ok {
		p.Src = &v
	}
	if v, ok := getString(args, "shapeKind"); ok && v != "" {
		k := domain.ShapeKind(v)
		p.ShapeKind = &k
	}
	if v, ok := getString(args, "backgroundColor"); ok && v != "" {
		p.BackgroundColor = &v
	}
	return p
}
