package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"invitopia/internal/app"
	"invitopia/internal/domain"
	"invitopia/internal/service"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Manage stored templates",
	GroupID: "core",
}

var templateListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			list, err := a.Templates.List(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No templates")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tELEMENTS\tUPDATED")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					t.ID, t.Name, t.ElementCount, t.UpdatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		})
	},
}

var templateCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an empty template",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		width, _ := cmd.Flags().GetFloat64("width")
		height, _ := cmd.Flags().GetFloat64("height")

		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			t, err := a.Templates.Create(ctx, service.CreateTemplateInput{
				Name:     strings.Join(args, " "),
				Metadata: domain.Metadata{Color: color, Width: width, Height: height},
			})
			if err != nil {
				return err
			}
			fmt.Printf("CREATED %s %q\n", styled(idStyle, t.ID), t.Name)
			return nil
		})
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show [template-id]",
	Short: "Show a template and its elements in paint order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			t, err := a.Templates.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", styled(headerStyle, t.Name), styled(idStyle, t.ID))
			fmt.Printf("%s %.0fx%.0f %s\n", styled(labelStyle, "canvas:"), t.Metadata.Width, t.Metadata.Height, t.Metadata.Color)
			fmt.Printf("%s %s\n", styled(labelStyle, "updated:"), t.UpdatedAt.Local().Format(time.DateTime))

			elements := domain.PaintOrder(t.Elements)
			if len(elements) == 0 {
				fmt.Println(styled(labelStyle, "no elements"))
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Z\tID\tKIND\tPOSITION\tSIZE\tDETAIL")
			for _, e := range elements {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.0f,%.0f\t%.0fx%.0f\t%s\n",
					e.ZIndex, e.ID, e.Kind, e.Position.X, e.Position.Y, e.Size.Width, e.Size.Height, elementDetail(e))
			}
			return w.Flush()
		})
	},
}

func elementDetail(e domain.Element) string {
	var parts []string
	switch {
	case e.Text != nil:
		parts = append(parts, fmt.Sprintf("%q %s %.0fpx", e.Text.Content, e.Text.FontFamily, e.Text.FontSize))
	case e.Image != nil:
		parts = append(parts, e.Image.Src)
	case e.Shape != nil:
		parts = append(parts, fmt.Sprintf("%s %s", e.Shape.Kind, e.Shape.BackgroundColor))
	}
	if e.Locked {
		parts = append(parts, "locked")
	}
	if !e.Visible {
		parts = append(parts, "hidden")
	}
	return strings.Join(parts, " ")
}

var templateRenameCmd = &cobra.Command{
	Use:   "rename [template-id] [name]",
	Short: "Rename a template",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			name := strings.Join(args[1:], " ")
			if err := a.Templates.Rename(ctx, args[0], name); err != nil {
				return err
			}
			fmt.Printf("RENAMED %s %q\n", args[0], name)
			return nil
		})
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete [template-id...]",
	Short: "Delete templates and their version logs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			var failed int
			for _, id := range args {
				if err := a.Templates.Delete(ctx, id); err != nil {
					fmt.Fprintf(os.Stderr, "failed to delete %s: %v\n", id, err)
					failed++
					continue
				}
				fmt.Printf("DELETED %s\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d deletes failed", failed, len(args))
			}
			return nil
		})
	},
}

var templateVersionsCmd = &cobra.Command{
	Use:   "versions [template-id]",
	Short: "Show the version log of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			versions, err := a.Templates.Versions(ctx, args[0])
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Println("No versions")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tELEMENTS\tCREATED")
			for _, v := range versions {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", v.ID, v.Label, len(v.Elements), v.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		})
	},
}

var templateExportCmd = &cobra.Command{
	Use:   "export [template-id]",
	Short: "Write a template as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			t, err := a.Templates.Get(ctx, args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(t, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if out == "" || out == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(os.Stderr, "EXPORTED %s to %s\n", t.ID, out)
			return nil
		})
	},
}

var templateImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Create a template from an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var t domain.Template
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		return withApp(cmdContext(cmd), func(ctx context.Context, a *app.App) error {
			created, err := a.Templates.Create(ctx, service.CreateTemplateInput{
				Name:     t.Name,
				Metadata: t.Metadata,
				Elements: t.Elements,
			})
			if err != nil {
				return err
			}
			fmt.Printf("IMPORTED %s %q (%d elements)\n", styled(idStyle, created.ID), created.Name, len(created.Elements))
			return nil
		})
	},
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	templateCreateCmd.Flags().String("color", "", "canvas background color (default #FFFFFF)")
	templateCreateCmd.Flags().Float64("width", 0, "canvas width (default 500)")
	templateCreateCmd.Flags().Float64("height", 0, "canvas height (default 700)")
	templateExportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	templateCmd.AddCommand(templateListCmd, templateCreateCmd, templateShowCmd, templateRenameCmd,
		templateDeleteCmd, templateVersionsCmd, templateExportCmd, templateImportCmd)
	rootCmd.AddCommand(templateCmd)
}
