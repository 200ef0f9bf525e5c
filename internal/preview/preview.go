// Package preview manages the ephemeral local references created when an
// image is picked for a post or profile form, before it is uploaded.
package preview

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const urlScheme = "blob:looptalk/"

var ErrNotImage = errors.New("selected file is not an image")

type Handle struct {
	ID   string
	Path string
	Name string
	MIME string
	Size int64
	URL  string
}

func (h Handle) Open() (io.ReadCloser, error) {
	return os.Open(h.Path)
}

// Registry tracks every preview URL that has been handed out and not yet
// released. One Registry is shared by all managers of a running client.
type Registry struct {
	mu   sync.Mutex
	live map[string]string
}

func NewRegistry() *Registry {
	return &Registry{live: map[string]string{}}
}

func (r *Registry) create(path string) string {
	url := urlScheme + uuid.NewString()
	r.mu.Lock()
	r.live[url] = path
	r.mu.Unlock()
	return url
}

func (r *Registry) revoke(url string) {
	r.mu.Lock()
	delete(r.live, url)
	r.mu.Unlock()
}

// Resolve returns the local file behind a live preview URL.
func (r *Registry) Resolve(url string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.live[url]
	return path, ok
}

func (r *Registry) Live() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	urls := make([]string, 0, len(r.live))
	for u := range r.live {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Manager holds at most one selected image for a form.
type Manager struct {
	registry *Registry
	mu       sync.Mutex
	current  *Handle
}

func NewManager(registry *Registry) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{registry: registry}
}

// Select replaces the current selection once path is a readable image. A
// rejected path leaves the previous selection live.
func (m *Manager) Select(path string) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return Handle{}, err
	}
	if info.IsDir() {
		return Handle{}, fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Handle{}, err
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return Handle{}, fmt.Errorf("%s (%s): %w", path, mt.String(), ErrNotImage)
	}

	m.releaseLocked()
	h := Handle{
		ID:   uuid.NewString(),
		Path: path,
		Name: filepath.Base(path),
		MIME: mt.String(),
		Size: info.Size(),
	}
	h.URL = m.registry.create(path)
	m.current = &h
	return h, nil
}

func (m *Manager) Current() (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Handle{}, false
	}
	return *m.current, true
}

// Clear releases the current selection, if any.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *Manager) releaseLocked() {
	if m.current == nil {
		return
	}
	m.registry.revoke(m.current.URL)
	m.current = nil
}
