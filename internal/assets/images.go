// Package assets resolves image and font choices for the editor.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"invitopia/internal/domain"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

// Image is one file in the library.
type Image struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ImageLibrary indexes the images in a directory and keeps the index
// current as files are added, renamed or removed.
type ImageLibrary struct {
	dir     string
	baseURL string
	watcher *fsnotify.Watcher
	log     *slog.Logger

	mu    sync.RWMutex
	index map[string]string // file name -> URL
}

// NewImageLibrary scans dir and starts watching it. Images resolve to
// baseURL/<name>, or to file:// URLs when baseURL is empty.
func NewImageLibrary(dir, baseURL string) (*ImageLibrary, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	l := &ImageLibrary{
		dir:     absDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		watcher: watcher,
		log:     slog.Default().With("component", "images"),
		index:   make(map[string]string),
	}
	if err := l.rescan(); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", absDir, err)
	}

	go l.watchLoop()
	return l, nil
}

func (l *ImageLibrary) urlFor(name string) string {
	if l.baseURL != "" {
		return l.baseURL + "/" + url.PathEscape(name)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(l.dir, name))}).String()
}

func isImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

func (l *ImageLibrary) rescan() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read image dir: %w", err)
	}
	index := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		index[e.Name()] = l.urlFor(e.Name())
	}

	l.mu.Lock()
	l.index = index
	l.mu.Unlock()
	return nil
}

// List returns the indexed images sorted by name.
func (l *ImageLibrary) List() []Image {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Image, 0, len(l.index))
	for name, u := range l.index {
		out = append(out, Image{Name: name, URL: u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SelectImage resolves query to an image URL. Absolute http(s) URLs pass
// through. Otherwise an exact file name wins, then a unique
// case-insensitive substring match.
func (l *ImageLibrary) SelectImage(_ context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty image query: %w", domain.ErrInvalidArgument)
	}
	if strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://") {
		return query, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if u, ok := l.index[query]; ok {
		return u, nil
	}

	q := strings.ToLower(query)
	var matches []string
	for name := range l.index {
		if strings.Contains(strings.ToLower(name), q) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("image %q: %w", query, domain.ErrNotFound)
	case 1:
		return l.index[matches[0]], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("image %q is ambiguous (%s): %w", query, strings.Join(matches, ", "), domain.ErrInvalidArgument)
	}
}

// Close stops the watcher.
func (l *ImageLibrary) Close() error {
	return l.watcher.Close()
}

func (l *ImageLibrary) watchLoop() {
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !isImage(name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				l.mu.Lock()
				l.index[name] = l.urlFor(name)
				l.mu.Unlock()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				l.mu.Lock()
				delete(l.index, name)
				l.mu.Unlock()
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warn("watcher error", "err", err)
		}
	}
}
