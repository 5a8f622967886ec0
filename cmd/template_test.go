package cmd

import (
	"testing"

	"github.com/spf13/cobra"

	"invitopia/internal/domain"
)

func TestElementDetail(t *testing.T) {
	tests := []struct {
		name string
		el   domain.Element
		want string
	}{
		{
			name: "text",
			el: domain.Element{Kind: domain.ElementText, Visible: true,
				Text: &domain.TextContent{Content: "Hi", FontFamily: "Inter", FontSize: 24}},
			want: `"Hi" Inter 24px`,
		},
		{
			name: "locked hidden image",
			el: domain.Element{Kind: domain.ElementImage, Locked: true,
				Image: &domain.ImageContent{Src: "https://cdn.example.com/a.png"}},
			want: "https://cdn.example.com/a.png locked hidden",
		},
		{
			name: "shape",
			el: domain.Element{Kind: domain.ElementShape, Visible: true,
				Shape: &domain.ShapeContent{Kind: domain.ShapeRect, BackgroundColor: "#FFF"}},
			want: "rect #FFF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := elementDetail(tt.el); got != tt.want {
				t.Errorf("elementDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeJobFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "merge"}
	addMergeFlags(cmd)
	f := cmd.Flags()

	if err := f.Parse([]string{"--csv", "g.csv", "--where", "rsvp=yes", "--sort", "-seats", "--limit", "5", "--dry-run"}); err != nil {
		t.Fatal(err)
	}
	job, err := mergeJobFromFlags(cmd)
	if err != nil {
		t.Fatalf("flags: %v", err)
	}
	if job.SourceType != "csv_file" || job.SourceCfg["filePath"] != "g.csv" || !job.DryRun {
		t.Errorf("unexpected job %+v", job)
	}
	if len(job.Transforms) != 3 || job.Transforms[1].Config["direction"] != "desc" || job.Transforms[1].Config["field"] != "seats" {
		t.Errorf("unexpected transforms %+v", job.Transforms)
	}

	if err := f.Set("json", "g.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := mergeJobFromFlags(cmd); err == nil {
		t.Error("expected error for two sources")
	}

	bad := &cobra.Command{Use: "merge"}
	addMergeFlags(bad)
	if err := bad.Flags().Parse([]string{"--url", "https://rsvp.example.com", "--where", "rsvp"}); err != nil {
		t.Fatal(err)
	}
	if _, err := mergeJobFromFlags(bad); err == nil {
		t.Error("expected error for --where without =")
	}
}
