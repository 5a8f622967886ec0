package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"invitopia/internal/domain"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newLibrary(t *testing.T, files ...string) (*ImageLibrary, string) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		writeFile(t, dir, f)
	}
	lib, err := NewImageLibrary(dir, "https://cdn.example.com/img/")
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib, dir
}

func TestImageLibrary_ListSkipsNonImages(t *testing.T) {
	lib, _ := newLibrary(t, "balloons.png", "notes.txt", "cake.JPG")

	want := []Image{
		{Name: "balloons.png", URL: "https://cdn.example.com/img/balloons.png"},
		{Name: "cake.JPG", URL: "https://cdn.example.com/img/cake.JPG"},
	}
	if diff := cmp.Diff(want, lib.List()); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}
}

func TestImageLibrary_SelectImage(t *testing.T) {
	lib, _ := newLibrary(t, "balloons.png", "balloons-red.png", "cake.jpg")
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		want    string
		wantErr error
	}{
		{"exact name", "balloons.png", "https://cdn.example.com/img/balloons.png", nil},
		{"unique substring", "CAKE", "https://cdn.example.com/img/cake.jpg", nil},
		{"url passthrough", "https://other.example.com/a.png", "https://other.example.com/a.png", nil},
		{"ambiguous", "balloons", "", domain.ErrInvalidArgument},
		{"missing", "confetti", "", domain.ErrNotFound},
		{"empty", "  ", "", domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.SelectImage(ctx, tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageLibrary_PicksUpNewFiles(t *testing.T) {
	lib, dir := newLibrary(t)
	writeFile(t, dir, "stars.webp")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := lib.SelectImage(context.Background(), "stars.webp"); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("new image was not indexed")
}

func TestImageLibrary_FileURLs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bg.png")
	lib, err := NewImageLibrary(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	defer lib.Close()

	got, err := lib.SelectImage(context.Background(), "bg.png")
	if err != nil {
		t.Fatal(err)
	}
	if want := "file://" + filepath.ToSlash(filepath.Join(dir, "bg.png")); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFontCatalog(t *testing.T) {
	c := NewFontCatalog()
	ctx := context.Background()

	got, err := c.SelectFont(ctx, "playfair display")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Playfair Display" {
		t.Errorf("got %q", got)
	}
	if _, err := c.SelectFont(ctx, "Comic Sans"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if n := len(c.List()); n != len(DefaultFonts) {
		t.Errorf("expected %d fonts, got %d", len(DefaultFonts), n)
	}
}
